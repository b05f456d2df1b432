// Package demand tracks name purchase revenue per period and adjusts the
// demand factor applied to every name price.
//
// Purchases only accumulate revenue. The factor moves once per period, when
// the epoch scheduler closes it, so every purchase within a period pays the
// same multiplier.
package demand

import (
	"errors"
	"fmt"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/utils/cser"
	"github.com/rony4d/go-ario/utils/fixed"
)

var ErrInvalidNameLength = errors.New("no base fee for name length")

// Update describes the closing of one period.
type Update struct {
	Period           uint64      `json:"period"`
	PreviousFactor   fixed.Ratio `json:"previousDemandFactor"`
	Factor           fixed.Ratio `json:"demandFactor"`
	Revenue          uint64      `json:"revenueThisPeriod"`
	Purchases        uint64      `json:"purchasesThisPeriod"`
	MovingAvgRevenue uint64      `json:"trailingPeriodRevenueAverage"`
	FeesSteppedDown  bool        `json:"feesSteppedDown"`
}

// Engine is the demand factor state.
type Engine struct {
	Period                   uint64
	Factor                   fixed.Ratio
	TrailingRevenues         []uint64
	RevenueThisPeriod        uint64
	PurchasesThisPeriod      uint64
	ConsecutiveMinFactorRuns uint32
	Fees                     []uint64

	rules ario.DemandRules
}

// New starts an engine at the base factor with the given base fees.
func New(rules ario.DemandRules, fees []uint64) *Engine {
	return &Engine{
		Factor:           rules.Base,
		TrailingRevenues: make([]uint64, rules.MovingAvgPeriods),
		Fees:             append([]uint64(nil), fees...),
		rules:            rules,
	}
}

// SetRules attaches the policy after decoding.
func (e *Engine) SetRules(rules ario.DemandRules) {
	e.rules = rules
	if len(e.TrailingRevenues) != int(rules.MovingAvgPeriods) {
		trailing := make([]uint64, rules.MovingAvgPeriods)
		copy(trailing, e.TrailingRevenues)
		e.TrailingRevenues = trailing
	}
}

// DemandFactor returns the multiplier currently applied to prices.
func (e *Engine) DemandFactor() fixed.Ratio {
	return e.Factor
}

// BaseFee returns the undiscounted fee for a name of the given length.
func (e *Engine) BaseFee(nameLength int) (uint64, error) {
	if nameLength < 1 || nameLength > len(e.Fees) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNameLength, nameLength)
	}
	return e.Fees[nameLength-1], nil
}

// RecordPurchase accounts revenue for the current period.
func (e *Engine) RecordPurchase(price uint64) {
	e.RevenueThisPeriod += price
	e.PurchasesThisPeriod++
}

func (e *Engine) movingAverage() uint64 {
	periods := uint64(len(e.TrailingRevenues))
	if e.Period < periods {
		periods = e.Period
	}
	if periods == 0 {
		return 0
	}
	var sum uint64
	for i := uint64(0); i < periods; i++ {
		sum += e.TrailingRevenues[i]
	}
	return sum / periods
}

// Update closes the current period and adjusts the factor. The first period
// has no history and leaves the factor unchanged.
func (e *Engine) Update() Update {
	u := Update{
		Period:           e.Period,
		PreviousFactor:   e.Factor,
		Revenue:          e.RevenueThisPeriod,
		Purchases:        e.PurchasesThisPeriod,
		MovingAvgRevenue: e.movingAverage(),
	}

	if e.Period > 0 {
		if e.RevenueThisPeriod > u.MovingAvgRevenue {
			e.Factor = (fixed.One + e.rules.Up).Mul(e.Factor)
		} else {
			e.Factor = fixed.Max(e.rules.Min, e.rules.Down.Complement().Mul(e.Factor))
		}

		if e.Factor <= e.rules.Min {
			e.ConsecutiveMinFactorRuns++
		} else {
			e.ConsecutiveMinFactorRuns = 0
		}
		if e.rules.StepDownThreshold > 0 && e.ConsecutiveMinFactorRuns >= e.rules.StepDownThreshold {
			e.stepDownFees()
			e.Factor = e.rules.Base
			e.ConsecutiveMinFactorRuns = 0
			u.FeesSteppedDown = true
		}
	}

	if n := uint64(len(e.TrailingRevenues)); n > 0 {
		e.TrailingRevenues[e.Period%n] = e.RevenueThisPeriod
	}
	e.Period++
	e.RevenueThisPeriod = 0
	e.PurchasesThisPeriod = 0

	u.Factor = e.Factor
	return u
}

func (e *Engine) stepDownFees() {
	for i, f := range e.Fees {
		f = e.rules.FeeStepDown.Of(f)
		if f == 0 {
			f = 1
		}
		e.Fees[i] = f
	}
}

// Copy returns an independent engine.
func (e *Engine) Copy() *Engine {
	cp := *e
	cp.TrailingRevenues = append([]uint64(nil), e.TrailingRevenues...)
	cp.Fees = append([]uint64(nil), e.Fees...)
	return &cp
}

func (e *Engine) MarshalCSER(w *cser.Writer) {
	w.U64(e.Period)
	w.U64(uint64(e.Factor))
	w.U56(uint64(len(e.TrailingRevenues)))
	for _, v := range e.TrailingRevenues {
		w.U64(v)
	}
	w.U64(e.RevenueThisPeriod)
	w.U64(e.PurchasesThisPeriod)
	w.U32(e.ConsecutiveMinFactorRuns)
	w.U56(uint64(len(e.Fees)))
	for _, v := range e.Fees {
		w.U64(v)
	}
}

func (e *Engine) UnmarshalCSER(r *cser.Reader) error {
	e.Period = r.U64()
	e.Factor = fixed.Ratio(r.U64())
	e.TrailingRevenues = make([]uint64, r.Count())
	for i := range e.TrailingRevenues {
		e.TrailingRevenues[i] = r.U64()
	}
	e.RevenueThisPeriod = r.U64()
	e.PurchasesThisPeriod = r.U64()
	e.ConsecutiveMinFactorRuns = r.U32()
	e.Fees = make([]uint64, r.Count())
	for i := range e.Fees {
		e.Fees[i] = r.U64()
	}
	return nil
}
