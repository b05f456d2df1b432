// Package names is the name registry: leased and permanently bought
// records, and the primary names that bind an address to one of them.
//
// Every price is a base fee for the name length, scaled by the current
// demand factor. Payments go to the protocol reserve and are reported to
// the demand engine as revenue.
package names

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

var (
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidType          = errors.New("purchase type must be lease or permabuy")
	ErrInvalidYears         = errors.New("invalid number of years")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidIntent        = errors.New("invalid intent")
	ErrNameUnavailable      = errors.New("name is not available")
	ErrRecordNotFound       = errors.New("record not found")
	ErrNotLease             = errors.New("record is not a lease")
	ErrUndernameLimit       = errors.New("undername limit exceeded")
	ErrNotOwner             = errors.New("caller does not own the base name")
	ErrPrimaryNameTaken     = errors.New("primary name is already bound")
	ErrPrimaryNameNotFound  = errors.New("primary name not found")
	ErrNotPrimaryNameHolder = errors.New("caller may not remove this primary name")
)

// Type is the ownership kind of a record.
type Type string

const (
	Lease    Type = "lease"
	Permabuy Type = "permabuy"
)

// ParseType accepts an empty string as a lease.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(s)) {
	case "", Lease:
		return Lease, nil
	case Permabuy:
		return Permabuy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Record is one registered name.
type Record struct {
	Name           string          `json:"name"`
	Owner          string          `json:"owner"`
	ProcessID      string          `json:"processId"`
	Type           Type            `json:"type"`
	PurchasePrice  uint64          `json:"purchasePrice"`
	UndernameLimit uint32          `json:"undernameLimit"`
	StartTimestamp inter.Timestamp `json:"startTimestamp"`
	EndTimestamp   inter.Timestamp `json:"endTimestamp,omitempty"`
}

// Live reports whether the record still reserves its name at now.
func (r Record) Live(now, grace inter.Timestamp) bool {
	return r.Type == Permabuy || now < r.EndTimestamp+grace
}

// Pricer supplies base fees and the demand factor, and collects revenue.
type Pricer interface {
	BaseFee(nameLength int) (uint64, error)
	DemandFactor() fixed.Ratio
	RecordPurchase(price uint64)
}

// Balances is the part of the ledger purchases are paid through.
type Balances interface {
	Balance(addr string) uint64
	Debit(addr string, qty uint64) error
	Credit(addr string, qty uint64) error
}

// Registry holds records by name and primary names by owner.
type Registry struct {
	records map[string]*Record
	primary map[string]*PrimaryName
	byName  map[string]string
}

func New() *Registry {
	return &Registry{
		records: make(map[string]*Record),
		primary: make(map[string]*PrimaryName),
		byName:  make(map[string]string),
	}
}

// ValidateName lower-cases name and checks it is a registrable label.
func ValidateName(name string, maxLength int) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) == 0 || len(name) > maxLength {
		return "", fmt.Errorf("%w: length of %q must be 1..%d", ErrInvalidName, name, maxLength)
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return "", fmt.Errorf("%w: %q starts or ends with a hyphen", ErrInvalidName, name)
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, c)
		}
	}
	return name, nil
}

// Add inserts a record as is. Used for genesis allocations.
func (r *Registry) Add(rec Record) error {
	if _, ok := r.records[rec.Name]; ok {
		return ErrNameUnavailable
	}
	cp := rec
	r.records[rec.Name] = &cp
	return nil
}

// Get returns the record of name, live or not.
func (r *Registry) Get(name string) (Record, bool) {
	rec, ok := r.records[strings.ToLower(name)]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (r *Registry) live(rules ario.NamesRules, name string, now inter.Timestamp) (*Record, error) {
	rec, ok := r.records[name]
	if !ok || !rec.Live(now, rules.GracePeriod) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	return rec, nil
}

func pay(l Balances, pricer Pricer, payer, protocol string, cost uint64) error {
	if err := l.Debit(payer, cost); err != nil {
		return fmt.Errorf("cost %d: %w", cost, err)
	}
	if err := l.Credit(protocol, cost); err != nil {
		return err
	}
	pricer.RecordPurchase(cost)
	return nil
}

// BuyRequest is the input of a name purchase.
type BuyRequest struct {
	Name      string
	ProcessID string
	Type      Type
	Years     uint32
}

// Buy registers a name for the buyer. An expired lease of the same name is
// replaced together with any primary names bound to it.
func (r *Registry) Buy(l Balances, pricer Pricer, rules ario.NamesRules, protocol, buyer string, req BuyRequest, now inter.Timestamp) (Record, error) {
	name, err := ValidateName(req.Name, rules.MaxNameLength)
	if err != nil {
		return Record{}, err
	}
	if req.Type == "" {
		req.Type = Lease
	}
	cost, err := r.Cost(pricer, rules, CostRequest{Intent: IntentBuy, Name: name, Type: req.Type, Years: req.Years}, now)
	if err != nil {
		return Record{}, err
	}
	if err := pay(l, pricer, buyer, protocol, cost); err != nil {
		return Record{}, err
	}
	r.drop(name)

	rec := &Record{
		Name:           name,
		Owner:          buyer,
		ProcessID:      req.ProcessID,
		Type:           req.Type,
		PurchasePrice:  cost,
		UndernameLimit: rules.DefaultUndernameLimit,
		StartTimestamp: now,
	}
	if rec.Type == Lease {
		rec.EndTimestamp = now + inter.Timestamp(yearsOrDefault(req.Years, rules))*inter.Year
	}
	r.records[name] = rec
	return *rec, nil
}

// ExtendLease adds years to a live lease, paid by the caller.
func (r *Registry) ExtendLease(l Balances, pricer Pricer, rules ario.NamesRules, protocol, payer, name string, years uint32, now inter.Timestamp) (Record, uint64, error) {
	name = strings.ToLower(name)
	cost, err := r.Cost(pricer, rules, CostRequest{Intent: IntentExtend, Name: name, Years: years}, now)
	if err != nil {
		return Record{}, 0, err
	}
	if err := pay(l, pricer, payer, protocol, cost); err != nil {
		return Record{}, 0, err
	}
	rec := r.records[name]
	rec.EndTimestamp += inter.Timestamp(years) * inter.Year
	return *rec, cost, nil
}

// Upgrade converts a live lease to a permanent record.
func (r *Registry) Upgrade(l Balances, pricer Pricer, rules ario.NamesRules, protocol, payer, name string, now inter.Timestamp) (Record, error) {
	name = strings.ToLower(name)
	cost, err := r.Cost(pricer, rules, CostRequest{Intent: IntentUpgrade, Name: name}, now)
	if err != nil {
		return Record{}, err
	}
	if err := pay(l, pricer, payer, protocol, cost); err != nil {
		return Record{}, err
	}
	rec := r.records[name]
	rec.Type = Permabuy
	rec.EndTimestamp = 0
	rec.PurchasePrice = cost
	return *rec, nil
}

// IncreaseUndernameLimit raises the undername limit of a live record by qty.
func (r *Registry) IncreaseUndernameLimit(l Balances, pricer Pricer, rules ario.NamesRules, protocol, payer, name string, qty uint32, now inter.Timestamp) (Record, uint64, error) {
	name = strings.ToLower(name)
	cost, err := r.Cost(pricer, rules, CostRequest{Intent: IntentUndernames, Name: name, Quantity: qty}, now)
	if err != nil {
		return Record{}, 0, err
	}
	if err := pay(l, pricer, payer, protocol, cost); err != nil {
		return Record{}, 0, err
	}
	rec := r.records[name]
	rec.UndernameLimit += qty
	return *rec, cost, nil
}

// drop removes a record and every primary name resolving to it.
func (r *Registry) drop(name string) {
	delete(r.records, name)
	for pn, owner := range r.byName {
		if BaseName(pn) == name {
			delete(r.byName, pn)
			delete(r.primary, owner)
		}
	}
}

// PruneExpired removes expired leases and the primary names bound to them.
func (r *Registry) PruneExpired(rules ario.NamesRules, now inter.Timestamp) []Record {
	var pruned []Record
	for _, rec := range r.Records() {
		if rec.Live(now, rules.GracePeriod) {
			continue
		}
		r.drop(rec.Name)
		pruned = append(pruned, rec)
	}
	return pruned
}

// Records returns every record sorted by name.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.records))
	for _, name := range r.Names() {
		out = append(out, *r.records[name])
	}
	return out
}

// Names returns every registered name in ascending order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.records))
	for n := range r.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LiveNames returns the names still reserved at now in ascending order.
func (r *Registry) LiveNames(rules ario.NamesRules, now inter.Timestamp) []string {
	var live []string
	for _, n := range r.Names() {
		if r.records[n].Live(now, rules.GracePeriod) {
			live = append(live, n)
		}
	}
	return live
}

func (r *Registry) Len() int {
	return len(r.records)
}

func yearsOrDefault(years uint32, rules ario.NamesRules) uint32 {
	if years == 0 {
		return rules.MinLeaseYears
	}
	return years
}
