package names

import (
	"fmt"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

// Intent names the priced operation of a cost query.
type Intent string

const (
	IntentBuy        Intent = "Buy-Name"
	IntentExtend     Intent = "Extend-Lease"
	IntentUpgrade    Intent = "Upgrade-Name"
	IntentUndernames Intent = "Increase-Undername-Limit"
	IntentPrimary    Intent = "Primary-Name-Request"
)

// ParseIntent accepts the action names of the priced operations.
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(s); i {
	case IntentBuy, IntentExtend, IntentUpgrade, IntentUndernames, IntentPrimary:
		return i, nil
	case "Buy-Record":
		return IntentBuy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIntent, s)
}

// CostRequest describes the operation to price.
type CostRequest struct {
	Intent   Intent
	Name     string
	Type     Type
	Years    uint32
	Quantity uint32
}

// Cost prices an operation at now without changing anything. It performs
// the same checks as the operation itself, except for the payer's balance.
func (r *Registry) Cost(pricer Pricer, rules ario.NamesRules, req CostRequest, now inter.Timestamp) (uint64, error) {
	if req.Intent == IntentPrimary {
		fee, err := pricer.BaseFee(rules.MaxNameLength)
		if err != nil {
			return 0, err
		}
		return pricer.DemandFactor().Of(fee), nil
	}

	name, err := ValidateName(req.Name, rules.MaxNameLength)
	if err != nil {
		return 0, err
	}
	fee, err := pricer.BaseFee(len(name))
	if err != nil {
		return 0, err
	}
	annual := rules.AnnualFee.Of(fee)

	var cost uint64
	switch req.Intent {
	case IntentBuy:
		if old, ok := r.records[name]; ok && old.Live(now, rules.GracePeriod) {
			return 0, fmt.Errorf("%w: %s", ErrNameUnavailable, name)
		}
		switch req.Type {
		case "", Lease:
			years := yearsOrDefault(req.Years, rules)
			if years < rules.MinLeaseYears || years > rules.MaxLeaseYears {
				return 0, fmt.Errorf("%w: %d must be %d..%d", ErrInvalidYears, years, rules.MinLeaseYears, rules.MaxLeaseYears)
			}
			cost = fee + annual*uint64(years)
		case Permabuy:
			cost = fee + annual*rules.PermabuyYears
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidType, req.Type)
		}

	case IntentExtend:
		rec, err := r.live(rules, name, now)
		if err != nil {
			return 0, err
		}
		if rec.Type != Lease {
			return 0, ErrNotLease
		}
		if req.Years == 0 || req.Years > rules.MaxLeaseYears {
			return 0, fmt.Errorf("%w: extension must be 1..%d years", ErrInvalidYears, rules.MaxLeaseYears)
		}
		end := rec.EndTimestamp + inter.Timestamp(req.Years)*inter.Year
		if end > now+inter.Timestamp(rules.MaxLeaseYears)*inter.Year {
			return 0, fmt.Errorf("%w: lease cannot run more than %d years ahead", ErrInvalidYears, rules.MaxLeaseYears)
		}
		cost = annual * uint64(req.Years)

	case IntentUpgrade:
		rec, err := r.live(rules, name, now)
		if err != nil {
			return 0, err
		}
		if rec.Type != Lease {
			return 0, ErrNotLease
		}
		cost = fee + annual*rules.PermabuyYears

	case IntentUndernames:
		rec, err := r.live(rules, name, now)
		if err != nil {
			return 0, err
		}
		if req.Quantity == 0 {
			return 0, ErrInvalidQuantity
		}
		if uint64(rec.UndernameLimit)+uint64(req.Quantity) > uint64(rules.MaxUndernameLimit) {
			return 0, fmt.Errorf("%w: limit cannot exceed %d", ErrUndernameLimit, rules.MaxUndernameLimit)
		}
		if rec.Type == Permabuy {
			cost = rules.UndernamePermabuyFee.Of(fee) * uint64(req.Quantity)
		} else {
			var remaining inter.Timestamp
			if rec.EndTimestamp > now {
				remaining = rec.EndTimestamp - now
			}
			perYear := rules.UndernameLeaseFee.Of(fee) * uint64(req.Quantity)
			cost = fixed.MulDiv(perYear, uint64(remaining), uint64(inter.Year))
		}

	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidIntent, req.Intent)
	}
	return pricer.DemandFactor().Of(cost), nil
}
