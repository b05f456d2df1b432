package ario

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatTokens renders an mARIO amount as whole tokens, e.g. "10000.5".
func FormatTokens(mario uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mario), -6).String()
}

// ParseTokens converts a decimal token amount into mARIO, truncating below one mARIO.
func ParseTokens(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", s)
	}
	v := d.Shift(6).Truncate(0)
	if !v.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", s)
	}
	return v.BigInt().Uint64(), nil
}
