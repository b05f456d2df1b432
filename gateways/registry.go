package gateways

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
)

var (
	ErrGatewayExists          = errors.New("gateway already exists")
	ErrGatewayNotFound        = errors.New("gateway not found")
	ErrGatewayNotJoined       = errors.New("gateway is not joined")
	ErrInsufficientStake      = errors.New("insufficient operator stake")
	ErrInvalidSettings        = errors.New("invalid gateway settings")
	ErrObserverInUse          = errors.New("observer address is used by another gateway")
	ErrFQDNInUse              = errors.New("fqdn is used by another gateway")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrDelegationDisabled     = errors.New("gateway does not allow delegated staking")
	ErrDelegateNotAllowed     = errors.New("delegate is not on the allow list")
	ErrSelfDelegation         = errors.New("operator cannot delegate to own gateway")
	ErrTooManyDelegates       = errors.New("gateway has reached the delegate limit")
	ErrDelegateNotFound       = errors.New("delegate not found")
	ErrInsufficientDelegation = errors.New("insufficient delegated stake")
	ErrVaultExists            = errors.New("withdrawal vault already exists")
	ErrVaultNotFound          = errors.New("withdrawal vault not found")
	ErrExitVaultLocked        = errors.New("minimum stake is locked until the gateway leaves")
)

// Balances is the part of the ledger stakes move through.
type Balances interface {
	Balance(addr string) uint64
	Debit(addr string, qty uint64) error
	Credit(addr string, qty uint64) error
}

// Registry holds every gateway keyed by operator address.
type Registry struct {
	gateways map[string]*Gateway
}

func New() *Registry {
	return &Registry{gateways: make(map[string]*Gateway)}
}

// DefaultSettings returns the settings a join starts from before tags are applied.
func DefaultSettings(rules ario.GatewaysRules) Settings {
	return Settings{
		Protocol:          rules.Protocol,
		Port:              443,
		MinDelegatedStake: rules.MinDelegatedStake,
		AutoStake:         true,
	}
}

func validateSettings(rules ario.GatewaysRules, s *Settings) error {
	switch {
	case s.FQDN == "" || len(s.FQDN) > rules.MaxFQDNLength:
		return fmt.Errorf("%w: fqdn length must be 1..%d", ErrInvalidSettings, rules.MaxFQDNLength)
	case len(s.Label) > rules.MaxLabelLength:
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidSettings, rules.MaxLabelLength)
	case len(s.Note) > rules.MaxNoteLength:
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidSettings, rules.MaxNoteLength)
	case len(s.Properties) > rules.MaxPropertiesLen:
		return fmt.Errorf("%w: properties exceed %d characters", ErrInvalidSettings, rules.MaxPropertiesLen)
	case s.Protocol != rules.Protocol:
		return fmt.Errorf("%w: protocol must be %s", ErrInvalidSettings, rules.Protocol)
	case s.Port < 0 || s.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidSettings, s.Port)
	case s.DelegateRewardShareRatio > rules.MaxDelegateRewardShareRatio:
		return fmt.Errorf("%w: delegate reward share ratio must be 0..%d", ErrInvalidSettings, rules.MaxDelegateRewardShareRatio)
	case s.MinDelegatedStake < rules.MinDelegatedStake:
		return fmt.Errorf("%w: min delegated stake must be at least %d", ErrInvalidSettings, rules.MinDelegatedStake)
	}
	s.FQDN = strings.ToLower(s.FQDN)
	sort.Strings(s.AllowedDelegates)
	return nil
}

// checkUnique rejects an observer or fqdn already used by a gateway other than self.
func (r *Registry) checkUnique(rules ario.GatewaysRules, self, observer, fqdn string) error {
	for op, g := range r.gateways {
		if op == self {
			continue
		}
		if g.ObserverAddress == observer {
			return fmt.Errorf("%w: %s", ErrObserverInUse, observer)
		}
		if rules.UniqueFQDN && g.Settings.FQDN == fqdn {
			return fmt.Errorf("%w: %s", ErrFQDNInUse, fqdn)
		}
	}
	return nil
}

// JoinRequest is the input of a network join.
type JoinRequest struct {
	OperatorStake   uint64
	ObserverAddress string
	Settings        Settings
}

// Join stakes the operator's balance and registers a joined gateway with zero weights.
func (r *Registry) Join(l Balances, rules ario.GatewaysRules, operator string, req JoinRequest, now inter.Timestamp) (Gateway, error) {
	if _, ok := r.gateways[operator]; ok {
		return Gateway{}, fmt.Errorf("%w: %s", ErrGatewayExists, operator)
	}
	if req.OperatorStake < rules.MinOperatorStake {
		return Gateway{}, fmt.Errorf("%w: %d is below the minimum of %d", ErrInsufficientStake, req.OperatorStake, rules.MinOperatorStake)
	}
	settings := req.Settings.copy()
	if err := validateSettings(rules, &settings); err != nil {
		return Gateway{}, err
	}
	observer := req.ObserverAddress
	if observer == "" {
		observer = operator
	}
	if err := r.checkUnique(rules, operator, observer, settings.FQDN); err != nil {
		return Gateway{}, err
	}
	if err := l.Debit(operator, req.OperatorStake); err != nil {
		return Gateway{}, err
	}

	g := &Gateway{
		Operator:        operator,
		ObserverAddress: observer,
		OperatorStake:   req.OperatorStake,
		Status:          Joined,
		StartTimestamp:  now,
		Settings:        settings,
		Vaults:          make(map[string]WithdrawVault),
		Delegates:       make(map[string]*Delegate),
	}
	r.gateways[operator] = g
	return *g, nil
}

// Add inserts a gateway as is. Used for genesis allocations.
func (r *Registry) Add(g Gateway) error {
	if _, ok := r.gateways[g.Operator]; ok {
		return ErrGatewayExists
	}
	cp := g.Copy()
	r.gateways[g.Operator] = cp
	return nil
}

func (r *Registry) joined(operator string) (*Gateway, error) {
	g, ok := r.gateways[operator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotFound, operator)
	}
	if g.Status != Joined {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotJoined, operator)
	}
	return g, nil
}

// UpdateSettings replaces the settings and observer of a joined gateway.
// Disabling delegation, or narrowing the allow list, moves the stake of
// every excluded delegate to a withdrawal vault with the given id.
func (r *Registry) UpdateSettings(rules ario.GatewaysRules, operator, observer string, settings Settings, vaultID string, now inter.Timestamp) (Gateway, error) {
	g, err := r.joined(operator)
	if err != nil {
		return Gateway{}, err
	}
	settings = settings.copy()
	if err := validateSettings(rules, &settings); err != nil {
		return Gateway{}, err
	}
	if observer == "" {
		observer = g.ObserverAddress
	}
	if err := r.checkUnique(rules, operator, observer, settings.FQDN); err != nil {
		return Gateway{}, err
	}
	for _, addr := range g.delegateAddresses() {
		if settings.AllowDelegatedStaking && settings.allows(addr) {
			continue
		}
		if err := g.exitDelegate(addr, vaultID, now, now+rules.WithdrawLength); err != nil {
			return Gateway{}, err
		}
	}
	g.ObserverAddress = observer
	g.Settings = settings
	return *g, nil
}

// IncreaseOperatorStake adds qty of the operator's balance to the stake.
func (r *Registry) IncreaseOperatorStake(l Balances, operator string, qty uint64) (Gateway, error) {
	if qty == 0 {
		return Gateway{}, ErrInvalidQuantity
	}
	g, err := r.joined(operator)
	if err != nil {
		return Gateway{}, err
	}
	if err := l.Debit(operator, qty); err != nil {
		return Gateway{}, err
	}
	g.OperatorStake += qty
	return *g, nil
}

// Leave starts the exit of a gateway. The minimum stake stays locked until
// the gateway is gone; the rest of the operator stake and every delegated
// stake start their withdrawal period.
func (r *Registry) Leave(rules ario.GatewaysRules, operator, vaultID string, now inter.Timestamp) (Gateway, error) {
	g, err := r.joined(operator)
	if err != nil {
		return Gateway{}, err
	}
	leaveEnd := now + rules.LeaveLength
	withdrawEnd := now + rules.WithdrawLength

	locked := g.OperatorStake
	if locked > rules.MinOperatorStake {
		locked = rules.MinOperatorStake
	}
	if locked > 0 {
		if err := g.addVault(operator, WithdrawVault{Balance: locked, StartTimestamp: now, EndTimestamp: leaveEnd}); err != nil {
			return Gateway{}, err
		}
	}
	if excess := g.OperatorStake - locked; excess > 0 {
		if err := g.addVault(vaultID, WithdrawVault{Balance: excess, StartTimestamp: now, EndTimestamp: withdrawEnd}); err != nil {
			return Gateway{}, err
		}
	}
	g.OperatorStake = 0
	for _, addr := range g.delegateAddresses() {
		if err := g.exitDelegate(addr, vaultID, now, withdrawEnd); err != nil {
			return Gateway{}, err
		}
	}
	g.Status = Leaving
	g.EndTimestamp = leaveEnd
	g.Weights = Weights{}
	return *g.Copy(), nil
}

// Slash moves up to qty of the operator stake to the protocol reserve.
func (r *Registry) Slash(l Balances, protocol, operator string, qty uint64) (uint64, error) {
	g, ok := r.gateways[operator]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrGatewayNotFound, operator)
	}
	if qty > g.OperatorStake {
		qty = g.OperatorStake
	}
	if err := l.Credit(protocol, qty); err != nil {
		return 0, err
	}
	g.OperatorStake -= qty
	return qty, nil
}

// PruneResult lists what a prune released and removed.
type PruneResult struct {
	ReleasedVaults  int      `json:"releasedVaults"`
	ReleasedStake   uint64   `json:"releasedStake"`
	RemovedGateways []string `json:"removedGateways,omitempty"`
}

// Prune pays out every elapsed withdrawal vault, drops delegates left with
// nothing, and removes leaving gateways whose exit period is over.
func (r *Registry) Prune(l Balances, now inter.Timestamp) (PruneResult, error) {
	var res PruneResult
	for _, op := range r.Operators() {
		g := r.gateways[op]
		for _, id := range sortedVaultIDs(g.Vaults) {
			v := g.Vaults[id]
			if now < v.EndTimestamp {
				continue
			}
			if err := l.Credit(op, v.Balance); err != nil {
				return res, err
			}
			delete(g.Vaults, id)
			res.ReleasedVaults++
			res.ReleasedStake += v.Balance
		}
		for _, addr := range g.delegateAddresses() {
			d := g.Delegates[addr]
			for _, id := range sortedVaultIDs(d.Vaults) {
				v := d.Vaults[id]
				if now < v.EndTimestamp {
					continue
				}
				if err := l.Credit(addr, v.Balance); err != nil {
					return res, err
				}
				delete(d.Vaults, id)
				res.ReleasedVaults++
				res.ReleasedStake += v.Balance
			}
			if d.DelegatedStake == 0 && len(d.Vaults) == 0 {
				delete(g.Delegates, addr)
			}
		}
		if g.Status == Leaving && now >= g.EndTimestamp && len(g.Vaults) == 0 && len(g.Delegates) == 0 {
			if g.OperatorStake > 0 {
				if err := l.Credit(op, g.OperatorStake); err != nil {
					return res, err
				}
				g.OperatorStake = 0
			}
			delete(r.gateways, op)
			res.RemovedGateways = append(res.RemovedGateways, op)
		}
	}
	return res, nil
}

// Get returns a gateway by operator address.
func (r *Registry) Get(operator string) (Gateway, bool) {
	g, ok := r.gateways[operator]
	if !ok {
		return Gateway{}, false
	}
	return *g.Copy(), true
}

// ByObserver returns the gateway observed by observer.
func (r *Registry) ByObserver(observer string) (Gateway, bool) {
	for _, op := range r.Operators() {
		if g := r.gateways[op]; g.ObserverAddress == observer {
			return *g.Copy(), true
		}
	}
	return Gateway{}, false
}

// Operators returns every operator address in ascending order.
func (r *Registry) Operators() []string {
	ops := make([]string, 0, len(r.gateways))
	for op := range r.gateways {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// All returns copies of every gateway sorted by operator.
func (r *Registry) All() []Gateway {
	out := make([]Gateway, 0, len(r.gateways))
	for _, op := range r.Operators() {
		out = append(out, *r.gateways[op].Copy())
	}
	return out
}

// Eligible returns the joined gateways that existed at ts, sorted by operator.
func (r *Registry) Eligible(ts inter.Timestamp) []string {
	var out []string
	for _, op := range r.Operators() {
		g := r.gateways[op]
		if g.Status == Joined && g.StartTimestamp <= ts {
			out = append(out, op)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.gateways)
}

// Totals is the stake accounting of the registry.
type Totals struct {
	OperatorStake  uint64
	DelegatedStake uint64
	Withdrawn      uint64
}

// Totals sums stakes and pending withdrawals over every gateway.
func (r *Registry) Totals() Totals {
	var t Totals
	for _, g := range r.gateways {
		t.OperatorStake += g.OperatorStake
		t.DelegatedStake += g.TotalDelegatedStake
		t.Withdrawn += g.WithdrawnStake()
	}
	return t
}

// Copy returns an independent registry.
func (r *Registry) Copy() *Registry {
	cp := New()
	for op, g := range r.gateways {
		cp.gateways[op] = g.Copy()
	}
	return cp
}
