// Package state defines the aggregate the dispatcher owns: every component
// registry plus the rules they run under. A message is applied to a Copy of
// the aggregate; the copy replaces the original only when it still
// satisfies the supply invariant.
package state

import (
	"fmt"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/demand"
	"github.com/rony4d/go-ario/epochs"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/ledger"
	"github.com/rony4d/go-ario/names"
	"github.com/rony4d/go-ario/vaults"
)

// State is the full process state.
type State struct {
	Rules ario.Rules
	// ProcessID is the address of the protocol reserve in the ledger.
	ProcessID string

	Ledger   *ledger.Ledger
	Vaults   *vaults.Registry
	Names    *names.Registry
	Demand   *demand.Engine
	Gateways *gateways.Registry
	Epochs   *epochs.Scheduler
}

// New returns an empty state. Nothing is minted; genesis allocations are
// applied separately.
func New(rules ario.Rules, processID string) *State {
	return &State{
		Rules:     rules.Copy(),
		ProcessID: processID,
		Ledger:    ledger.New(),
		Vaults:    vaults.New(),
		Names:     names.New(),
		Demand:    demand.New(rules.Demand, rules.Names.BaseFees),
		Gateways:  gateways.New(),
		Epochs:    epochs.New(),
	}
}

// Copy returns a deep copy sharing nothing with s.
func (s *State) Copy() *State {
	return &State{
		Rules:     s.Rules.Copy(),
		ProcessID: s.ProcessID,
		Ledger:    s.Ledger.Copy(),
		Vaults:    s.Vaults.Copy(),
		Names:     s.Names.Copy(),
		Demand:    s.Demand.Copy(),
		Gateways:  s.Gateways.Copy(),
		Epochs:    s.Epochs.Copy(),
	}
}

// ProtocolBalance is the balance of the protocol reserve.
func (s *State) ProtocolBalance() uint64 {
	return s.Ledger.Balance(s.ProcessID)
}

// EpochDeps wires the registries the epoch scheduler reads and mutates.
func (s *State) EpochDeps() epochs.Deps {
	return epochs.Deps{
		Rules:    s.Rules,
		Protocol: s.ProcessID,
		Ledger:   s.Ledger,
		Gateways: s.Gateways,
		Names:    s.Names,
		Demand:   s.Demand,
	}
}

// InvariantError reports a state whose token holdings differ from the total supply.
type InvariantError struct {
	Expected uint64
	Actual   uint64
	Supply   Supply
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("supply invariant violated: holdings %d, total supply %d", e.Actual, e.Expected)
}

// CheckInvariants verifies that every token is held exactly once: spendable,
// vaulted, staked, delegated or pending withdrawal.
func (s *State) CheckInvariants() error {
	sup := s.Supply()
	if held := sup.Held(); held != sup.Total {
		return &InvariantError{Expected: sup.Total, Actual: held, Supply: sup}
	}
	return nil
}
