package inter

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyAddress   = errors.New("empty address")
	ErrInvalidAddress = errors.New("invalid address")
)

const arweaveAddressLen = 43

// IsArweaveAddress reports whether s is a 43 character base64url string.
func IsArweaveAddress(s string) bool {
	if len(s) != arweaveAddressLen {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// IsEthAddress reports whether s is a 0x-prefixed 20 byte hex address.
func IsEthAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// IsValidAddress reports whether s is an Arweave or Ethereum address.
func IsValidAddress(s string) bool {
	return IsArweaveAddress(s) || IsEthAddress(s)
}

// FormatAddress returns the canonical form of an address: Ethereum addresses
// get their EIP-55 checksum, everything else is returned as-is.
func FormatAddress(s string) string {
	if IsEthAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}

// ParseAddress validates and canonicalizes an address taken from a tag.
// allowUnsafe accepts any non-empty string.
func ParseAddress(s string, allowUnsafe bool) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyAddress
	}
	if IsValidAddress(s) || allowUnsafe {
		return FormatAddress(s), nil
	}
	return "", ErrInvalidAddress
}
