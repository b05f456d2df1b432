package gateways

import (
	"fmt"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

func (g *Gateway) addVault(id string, v WithdrawVault) error {
	if _, ok := g.Vaults[id]; ok {
		return fmt.Errorf("%w: %s", ErrVaultExists, id)
	}
	g.Vaults[id] = v
	return nil
}

// exitDelegate moves the whole stake of a delegate to a withdrawal vault.
func (g *Gateway) exitDelegate(addr, vaultID string, now, end inter.Timestamp) error {
	d := g.Delegates[addr]
	if d.DelegatedStake == 0 {
		return nil
	}
	if _, ok := d.Vaults[vaultID]; ok {
		return fmt.Errorf("%w: %s", ErrVaultExists, vaultID)
	}
	d.Vaults[vaultID] = WithdrawVault{Balance: d.DelegatedStake, StartTimestamp: now, EndTimestamp: end}
	g.TotalDelegatedStake -= d.DelegatedStake
	d.DelegatedStake = 0
	return nil
}

// DelegateStake moves qty of the delegator's balance into the gateway's delegated stake.
func (r *Registry) DelegateStake(l Balances, rules ario.GatewaysRules, delegator, operator string, qty uint64, now inter.Timestamp) (Gateway, Delegate, error) {
	if qty == 0 {
		return Gateway{}, Delegate{}, ErrInvalidQuantity
	}
	g, err := r.joined(operator)
	if err != nil {
		return Gateway{}, Delegate{}, err
	}
	if delegator == operator {
		return Gateway{}, Delegate{}, ErrSelfDelegation
	}
	if !g.Settings.AllowDelegatedStaking {
		return Gateway{}, Delegate{}, fmt.Errorf("%w: %s", ErrDelegationDisabled, operator)
	}
	if !g.Settings.allows(delegator) {
		return Gateway{}, Delegate{}, fmt.Errorf("%w: %s", ErrDelegateNotAllowed, delegator)
	}
	d, ok := g.Delegates[delegator]
	if !ok && uint32(len(g.Delegates)) >= rules.MaxDelegates {
		return Gateway{}, Delegate{}, ErrTooManyDelegates
	}
	var current uint64
	if ok {
		current = d.DelegatedStake
	}
	if current+qty < g.Settings.MinDelegatedStake {
		return Gateway{}, Delegate{}, fmt.Errorf("%w: total of %d is below the gateway minimum of %d", ErrInsufficientDelegation, current+qty, g.Settings.MinDelegatedStake)
	}
	if err := l.Debit(delegator, qty); err != nil {
		return Gateway{}, Delegate{}, err
	}
	if !ok {
		d = &Delegate{Address: delegator, StartTimestamp: now, Vaults: make(map[string]WithdrawVault)}
		g.Delegates[delegator] = d
	}
	d.DelegatedStake += qty
	g.TotalDelegatedStake += qty
	return *g.Copy(), *d.copy(), nil
}

// Withdrawal is the result of a stake decrease or an instant withdrawal.
type Withdrawal struct {
	Gateway string         `json:"gatewayAddress"`
	Address string         `json:"address"`
	VaultID string         `json:"vaultId,omitempty"`
	Vault   *WithdrawVault `json:"vault,omitempty"`
	Amount  uint64         `json:"amountWithdrawn"`
	Penalty uint64         `json:"penaltyAmount"`
}

// PenaltyRate is the instant withdrawal fee of a vault at now. It decays
// linearly from the maximum at creation to the minimum at the vault's end.
func PenaltyRate(rules ario.GatewaysRules, v WithdrawVault, now inter.Timestamp) fixed.Ratio {
	span := uint64(v.EndTimestamp - v.StartTimestamp)
	if span == 0 || now >= v.EndTimestamp {
		return rules.MinInstantWithdrawPenalty
	}
	var elapsed uint64
	if now > v.StartTimestamp {
		elapsed = uint64(now - v.StartTimestamp)
	}
	decay := uint64(rules.MaxInstantWithdrawPenalty - rules.MinInstantWithdrawPenalty)
	return rules.MaxInstantWithdrawPenalty - fixed.Ratio(fixed.MulDiv(decay, elapsed, span))
}

func payout(l Balances, protocol, to string, amount uint64, rate fixed.Ratio) (uint64, error) {
	penalty := rate.Of(amount)
	if err := l.Credit(to, amount-penalty); err != nil {
		return 0, err
	}
	if err := l.Credit(protocol, penalty); err != nil {
		return 0, err
	}
	return penalty, nil
}

// DecreaseOperatorStake withdraws qty of the operator stake, keeping at
// least the minimum. The amount lands in a vault with the given id, or with
// instant it is paid out at once minus the maximum penalty.
func (r *Registry) DecreaseOperatorStake(l Balances, rules ario.GatewaysRules, protocol, operator string, qty uint64, vaultID string, instant bool, now inter.Timestamp) (Withdrawal, error) {
	if qty == 0 {
		return Withdrawal{}, ErrInvalidQuantity
	}
	g, err := r.joined(operator)
	if err != nil {
		return Withdrawal{}, err
	}
	if qty > g.OperatorStake || g.OperatorStake-qty < rules.MinOperatorStake {
		return Withdrawal{}, fmt.Errorf("%w: remaining stake must be at least %d", ErrInsufficientStake, rules.MinOperatorStake)
	}
	w := Withdrawal{Gateway: operator, Address: operator, Amount: qty}
	if instant {
		penalty, err := payout(l, protocol, operator, qty, rules.MaxInstantWithdrawPenalty)
		if err != nil {
			return Withdrawal{}, err
		}
		w.Penalty = penalty
	} else {
		v := WithdrawVault{Balance: qty, StartTimestamp: now, EndTimestamp: now + rules.WithdrawLength}
		if err := g.addVault(vaultID, v); err != nil {
			return Withdrawal{}, err
		}
		w.VaultID, w.Vault = vaultID, &v
	}
	g.OperatorStake -= qty
	return w, nil
}

// DecreaseDelegateStake withdraws qty of a delegation. What remains must be
// zero or at least the gateway's minimum delegated stake.
func (r *Registry) DecreaseDelegateStake(l Balances, rules ario.GatewaysRules, protocol, delegator, operator string, qty uint64, vaultID string, instant bool, now inter.Timestamp) (Withdrawal, error) {
	if qty == 0 {
		return Withdrawal{}, ErrInvalidQuantity
	}
	g, ok := r.gateways[operator]
	if !ok {
		return Withdrawal{}, fmt.Errorf("%w: %s", ErrGatewayNotFound, operator)
	}
	d, ok := g.Delegates[delegator]
	if !ok {
		return Withdrawal{}, fmt.Errorf("%w: %s", ErrDelegateNotFound, delegator)
	}
	if qty > d.DelegatedStake {
		return Withdrawal{}, fmt.Errorf("%w: %d delegated", ErrInsufficientDelegation, d.DelegatedStake)
	}
	if rest := d.DelegatedStake - qty; rest != 0 && rest < g.Settings.MinDelegatedStake {
		return Withdrawal{}, fmt.Errorf("%w: remaining %d is below the gateway minimum of %d", ErrInsufficientDelegation, rest, g.Settings.MinDelegatedStake)
	}
	w := Withdrawal{Gateway: operator, Address: delegator, Amount: qty}
	if instant {
		penalty, err := payout(l, protocol, delegator, qty, rules.MaxInstantWithdrawPenalty)
		if err != nil {
			return Withdrawal{}, err
		}
		w.Penalty = penalty
	} else {
		if _, ok := d.Vaults[vaultID]; ok {
			return Withdrawal{}, fmt.Errorf("%w: %s", ErrVaultExists, vaultID)
		}
		v := WithdrawVault{Balance: qty, StartTimestamp: now, EndTimestamp: now + rules.WithdrawLength}
		d.Vaults[vaultID] = v
		w.VaultID, w.Vault = vaultID, &v
	}
	d.DelegatedStake -= qty
	g.TotalDelegatedStake -= qty
	if d.DelegatedStake == 0 && len(d.Vaults) == 0 {
		delete(g.Delegates, delegator)
	}
	return w, nil
}

// vaultsOf returns the withdrawal vaults owned by caller in the gateway.
func (g *Gateway) vaultsOf(caller string) (map[string]WithdrawVault, *Delegate) {
	if caller == g.Operator {
		return g.Vaults, nil
	}
	if d, ok := g.Delegates[caller]; ok {
		return d.Vaults, d
	}
	return nil, nil
}

// InstantWithdrawal pays out a withdrawal vault at once, minus the decaying penalty.
func (r *Registry) InstantWithdrawal(l Balances, rules ario.GatewaysRules, protocol, caller, operator, vaultID string, now inter.Timestamp) (Withdrawal, error) {
	g, ok := r.gateways[operator]
	if !ok {
		return Withdrawal{}, fmt.Errorf("%w: %s", ErrGatewayNotFound, operator)
	}
	vaults, d := g.vaultsOf(caller)
	v, ok := vaults[vaultID]
	if !ok {
		return Withdrawal{}, fmt.Errorf("%w: %s", ErrVaultNotFound, vaultID)
	}
	// the exit vault of a leaving operator is keyed by the operator address
	if g.Status == Leaving && caller == operator && vaultID == operator {
		return Withdrawal{}, ErrExitVaultLocked
	}
	penalty, err := payout(l, protocol, caller, v.Balance, PenaltyRate(rules, v, now))
	if err != nil {
		return Withdrawal{}, err
	}
	delete(vaults, vaultID)
	if d != nil && d.DelegatedStake == 0 && len(d.Vaults) == 0 {
		delete(g.Delegates, caller)
	}
	return Withdrawal{Gateway: operator, Address: caller, VaultID: vaultID, Amount: v.Balance, Penalty: penalty}, nil
}

// CancelWithdrawal returns a withdrawal vault to stake. The gateway must still be joined.
func (r *Registry) CancelWithdrawal(caller, operator, vaultID string) (Gateway, error) {
	g, err := r.joined(operator)
	if err != nil {
		return Gateway{}, err
	}
	vaults, d := g.vaultsOf(caller)
	v, ok := vaults[vaultID]
	if !ok {
		return Gateway{}, fmt.Errorf("%w: %s", ErrVaultNotFound, vaultID)
	}
	if d == nil {
		g.OperatorStake += v.Balance
	} else {
		d.DelegatedStake += v.Balance
		g.TotalDelegatedStake += v.Balance
	}
	delete(vaults, vaultID)
	return *g.Copy(), nil
}

// Delegation is one position of a delegator, across gateways.
type Delegation struct {
	Gateway        string                   `json:"gatewayAddress"`
	DelegatedStake uint64                   `json:"delegatedStake"`
	StartTimestamp inter.Timestamp          `json:"startTimestamp"`
	Vaults         map[string]WithdrawVault `json:"vaults"`
}

// Key is the pagination key of a delegation.
func (d Delegation) Key() string {
	return d.Gateway
}

// Delegations returns every position of delegator sorted by gateway.
func (r *Registry) Delegations(delegator string) []Delegation {
	var out []Delegation
	for _, op := range r.Operators() {
		d, ok := r.gateways[op].Delegates[delegator]
		if !ok {
			continue
		}
		out = append(out, Delegation{
			Gateway:        op,
			DelegatedStake: d.DelegatedStake,
			StartTimestamp: d.StartTimestamp,
			Vaults:         copyVaults(d.Vaults),
		})
	}
	return out
}
