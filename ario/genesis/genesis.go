// Package genesis describes the initial allocations of a process: balances,
// vaults, name records, primary names, gateways and the protocol reserve.
//
// A genesis is either loaded from a TOML file or generated with FakeGenesis
// for development networks and tests. Apply writes it into an empty state
// and refuses any allocation that does not add up to the total supply.
package genesis

import (
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/names"
	"github.com/rony4d/go-ario/state"
	"github.com/rony4d/go-ario/vaults"
)

var ErrNotEmpty = errors.New("genesis applied to a non-empty state")

// Balance is a spendable allocation.
type Balance struct {
	Address string `toml:"address"`
	Amount  uint64 `toml:"amount"`
}

// Vault is a locked allocation.
type Vault struct {
	ID             string          `toml:"id"`
	Owner          string          `toml:"owner"`
	Amount         uint64          `toml:"amount"`
	StartTimestamp inter.Timestamp `toml:"start"`
	EndTimestamp   inter.Timestamp `toml:"end"`
}

// Record is a preloaded name.
type Record struct {
	Name           string          `toml:"name"`
	Owner          string          `toml:"owner"`
	ProcessID      string          `toml:"processId"`
	Type           string          `toml:"type"`
	PurchasePrice  uint64          `toml:"purchasePrice"`
	UndernameLimit uint32          `toml:"undernameLimit"`
	StartTimestamp inter.Timestamp `toml:"start"`
	EndTimestamp   inter.Timestamp `toml:"end,omitempty"`
}

// PrimaryName is a preloaded address to name binding.
type PrimaryName struct {
	Owner          string          `toml:"owner"`
	Name           string          `toml:"name"`
	StartTimestamp inter.Timestamp `toml:"start"`
}

// Gateway is a preloaded, joined gateway.
type Gateway struct {
	Operator        string          `toml:"operator"`
	ObserverAddress string          `toml:"observer"`
	OperatorStake   uint64          `toml:"stake"`
	FQDN            string          `toml:"fqdn"`
	Label           string          `toml:"label"`
	Port            int             `toml:"port"`
	StartTimestamp  inter.Timestamp `toml:"start"`
	AutoStake       bool            `toml:"autoStake"`
	AllowDelegation bool            `toml:"allowDelegatedStaking"`
	RewardShare     uint32          `toml:"delegateRewardShareRatio"`
}

// Genesis is the full initial allocation.
type Genesis struct {
	// Network selects the rules preset the genesis was built for.
	Network         string        `toml:"network"`
	ProtocolBalance uint64        `toml:"protocolBalance"`
	Balances        []Balance     `toml:"balances"`
	Vaults          []Vault       `toml:"vaults"`
	Records         []Record      `toml:"records"`
	PrimaryNames    []PrimaryName `toml:"primaryNames"`
	Gateways        []Gateway     `toml:"gateways"`
}

// LoadFile decodes a TOML genesis file.
func LoadFile(path string) (*Genesis, error) {
	var g Genesis
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return nil, fmt.Errorf("genesis file %s: %w", path, err)
	}
	return &g, nil
}

// Write encodes g as TOML.
func (g *Genesis) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(g)
}

// Allocated sums every allocation, the protocol reserve included.
func (g *Genesis) Allocated() uint64 {
	sum := g.ProtocolBalance
	for _, b := range g.Balances {
		sum += b.Amount
	}
	for _, v := range g.Vaults {
		sum += v.Amount
	}
	for _, gw := range g.Gateways {
		sum += gw.OperatorStake
	}
	return sum
}

// Apply writes the allocations into the empty state s and checks that they
// account for the whole supply.
func (g *Genesis) Apply(s *state.State) error {
	if s.Ledger.Len() != 0 || s.Gateways.Len() != 0 || s.Names.Len() != 0 || s.Vaults.Len() != 0 {
		return ErrNotEmpty
	}
	if err := s.Ledger.Credit(s.ProcessID, g.ProtocolBalance); err != nil {
		return err
	}
	for _, b := range g.Balances {
		if err := s.Ledger.Credit(b.Address, b.Amount); err != nil {
			return fmt.Errorf("balance %s: %w", b.Address, err)
		}
	}
	for _, v := range g.Vaults {
		err := s.Vaults.Add(vaults.Vault{
			ID:             v.ID,
			Owner:          v.Owner,
			Balance:        v.Amount,
			StartTimestamp: v.StartTimestamp,
			EndTimestamp:   v.EndTimestamp,
		})
		if err != nil {
			return fmt.Errorf("vault %s: %w", v.ID, err)
		}
	}
	for _, r := range g.Records {
		t, err := names.ParseType(r.Type)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.Name, err)
		}
		name, err := names.ValidateName(r.Name, s.Rules.Names.MaxNameLength)
		if err != nil {
			return err
		}
		err = s.Names.Add(names.Record{
			Name:           name,
			Owner:          r.Owner,
			ProcessID:      r.ProcessID,
			Type:           t,
			PurchasePrice:  r.PurchasePrice,
			UndernameLimit: r.UndernameLimit,
			StartTimestamp: r.StartTimestamp,
			EndTimestamp:   r.EndTimestamp,
		})
		if err != nil {
			return fmt.Errorf("record %s: %w", r.Name, err)
		}
	}
	for _, pn := range g.PrimaryNames {
		if _, ok := s.Names.Get(names.BaseName(pn.Name)); !ok {
			return fmt.Errorf("primary name %s: %w", pn.Name, names.ErrRecordNotFound)
		}
		if err := s.Names.AddPrimaryName(names.PrimaryName(pn)); err != nil {
			return fmt.Errorf("primary name %s: %w", pn.Name, err)
		}
	}
	for _, gw := range g.Gateways {
		settings := gateways.DefaultSettings(s.Rules.Gateways)
		settings.FQDN = gw.FQDN
		settings.Label = gw.Label
		if gw.Port != 0 {
			settings.Port = gw.Port
		}
		settings.AutoStake = gw.AutoStake
		settings.AllowDelegatedStaking = gw.AllowDelegation
		settings.DelegateRewardShareRatio = gw.RewardShare
		err := s.Gateways.Add(gateways.Gateway{
			Operator:        gw.Operator,
			ObserverAddress: gw.ObserverAddress,
			OperatorStake:   gw.OperatorStake,
			Status:          gateways.Joined,
			StartTimestamp:  gw.StartTimestamp,
			Settings:        settings,
		})
		if err != nil {
			return fmt.Errorf("gateway %s: %w", gw.Operator, err)
		}
	}
	return s.CheckInvariants()
}
