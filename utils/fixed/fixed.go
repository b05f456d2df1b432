// Package fixed implements the parts-per-million fixed point arithmetic
// used for every ratio in the process: demand factor, weights, rates.
package fixed

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Ratio is a non-negative fixed point number scaled by One.
type Ratio uint64

// One is the Ratio representing 1.0.
const One Ratio = 1_000_000

// MulDiv returns a*b/c rounded down, saturating at MaxUint64. It panics if c is zero.
func MulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		panic("fixed: division by zero")
	}
	r := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	r.Quo(r, new(big.Int).SetUint64(c))
	if !r.IsUint64() {
		return math.MaxUint64
	}
	return r.Uint64()
}

// FromFraction returns num/den, or zero when den is zero.
func FromFraction(num, den uint64) Ratio {
	if den == 0 {
		return 0
	}
	return Ratio(MulDiv(num, uint64(One), den))
}

// Percent returns p percent as a Ratio.
func Percent(p uint64) Ratio {
	return Ratio(p * uint64(One) / 100)
}

// Of applies the ratio to an integer amount, rounding down.
func (r Ratio) Of(v uint64) uint64 {
	return MulDiv(v, uint64(r), uint64(One))
}

// Mul multiplies two ratios.
func (r Ratio) Mul(o Ratio) Ratio {
	return Ratio(MulDiv(uint64(r), uint64(o), uint64(One)))
}

// Complement returns One-r, floored at zero.
func (r Ratio) Complement() Ratio {
	if r >= One {
		return 0
	}
	return One - r
}

func (r Ratio) Decimal() decimal.Decimal {
	return decimal.New(int64(r), -6)
}

func (r Ratio) String() string {
	return r.Decimal().String()
}

// MarshalJSON renders the ratio as a JSON number, e.g. 1.05 or 0.
func (r Ratio) MarshalJSON() ([]byte, error) {
	return []byte(r.Decimal().String()), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	*r = Ratio(d.Shift(6).IntPart())
	return nil
}

// Min returns the smaller ratio.
func Min(a, b Ratio) Ratio {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger ratio.
func Max(a, b Ratio) Ratio {
	if a > b {
		return a
	}
	return b
}
