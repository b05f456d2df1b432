package names

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
)

// maxUndernameLength bounds the part before the separator.
const maxUndernameLength = 61

// PrimaryName binds an address to a name it controls. Both directions are unique.
type PrimaryName struct {
	Owner          string          `json:"owner"`
	Name           string          `json:"name"`
	StartTimestamp inter.Timestamp `json:"startTimestamp"`
}

// BaseName strips the undername of "undername_basename".
func BaseName(name string) string {
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func validatePrimaryName(name string, rules ario.NamesRules) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return ValidateName(name, rules.MaxNameLength)
	}
	if _, err := ValidateName(name[:i], maxUndernameLength); err != nil {
		return "", err
	}
	if _, err := ValidateName(name[i+1:], rules.MaxNameLength); err != nil {
		return "", err
	}
	return name, nil
}

// SetPrimaryName binds name to caller, replacing the caller's previous
// primary name. The caller must own the live base record and pays the
// primary name fee.
func (r *Registry) SetPrimaryName(l Balances, pricer Pricer, rules ario.NamesRules, protocol, caller, name string, now inter.Timestamp) (PrimaryName, uint64, error) {
	name, err := validatePrimaryName(name, rules)
	if err != nil {
		return PrimaryName{}, 0, err
	}
	base, err := r.live(rules, BaseName(name), now)
	if err != nil {
		return PrimaryName{}, 0, err
	}
	if base.Owner != caller {
		return PrimaryName{}, 0, fmt.Errorf("%w: %s", ErrNotOwner, base.Name)
	}
	if owner, ok := r.byName[name]; ok {
		return PrimaryName{}, 0, fmt.Errorf("%w: %s is bound to %s", ErrPrimaryNameTaken, name, owner)
	}
	cost, err := r.Cost(pricer, rules, CostRequest{Intent: IntentPrimary}, now)
	if err != nil {
		return PrimaryName{}, 0, err
	}
	if err := pay(l, pricer, caller, protocol, cost); err != nil {
		return PrimaryName{}, 0, err
	}
	if prev, ok := r.primary[caller]; ok {
		delete(r.byName, prev.Name)
	}
	pn := &PrimaryName{Owner: caller, Name: name, StartTimestamp: now}
	r.primary[caller] = pn
	r.byName[name] = caller
	return *pn, cost, nil
}

// RemovePrimaryNames unbinds names. Each binding may be removed by its
// owner or by the owner of the base record.
func (r *Registry) RemovePrimaryNames(caller string, names []string) ([]PrimaryName, error) {
	var targets []PrimaryName
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		owner, ok := r.byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPrimaryNameNotFound, n)
		}
		if owner != caller {
			base, ok := r.records[BaseName(n)]
			if !ok || base.Owner != caller {
				return nil, fmt.Errorf("%w: %s", ErrNotPrimaryNameHolder, n)
			}
		}
		targets = append(targets, *r.primary[owner])
	}
	for _, pn := range targets {
		delete(r.byName, pn.Name)
		delete(r.primary, pn.Owner)
	}
	return targets, nil
}

// PrimaryNameOf returns the primary name bound to owner.
func (r *Registry) PrimaryNameOf(owner string) (PrimaryName, bool) {
	pn, ok := r.primary[owner]
	if !ok {
		return PrimaryName{}, false
	}
	return *pn, true
}

// PrimaryNameByName returns the binding of a name.
func (r *Registry) PrimaryNameByName(name string) (PrimaryName, bool) {
	owner, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return PrimaryName{}, false
	}
	return *r.primary[owner], true
}

// PrimaryNames returns every binding sorted by name.
func (r *Registry) PrimaryNames() []PrimaryName {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]PrimaryName, len(names))
	for i, n := range names {
		out[i] = *r.primary[r.byName[n]]
	}
	return out
}

// AddPrimaryName inserts a binding as is. Used for genesis allocations.
func (r *Registry) AddPrimaryName(pn PrimaryName) error {
	if _, ok := r.byName[pn.Name]; ok {
		return ErrPrimaryNameTaken
	}
	if _, ok := r.primary[pn.Owner]; ok {
		return ErrPrimaryNameTaken
	}
	cp := pn
	r.primary[pn.Owner] = &cp
	r.byName[pn.Name] = pn.Owner
	return nil
}
