// Package gateways is the gateway registry: operator stakes, delegated
// stakes, withdrawal vaults, performance statistics and the weights the
// epoch scheduler selects observers by.
package gateways

import (
	"encoding/json"
	"sort"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

// Status is the lifecycle state of a gateway.
type Status string

const (
	Joined  Status = "joined"
	Leaving Status = "leaving"
)

// Settings are the operator controlled parameters of a gateway.
type Settings struct {
	FQDN                     string   `json:"fqdn"`
	Label                    string   `json:"label"`
	Note                     string   `json:"note"`
	Properties               string   `json:"properties"`
	Protocol                 string   `json:"protocol"`
	Port                     int      `json:"port"`
	AllowDelegatedStaking    bool     `json:"allowDelegatedStaking"`
	MinDelegatedStake        uint64   `json:"minDelegatedStake"`
	DelegateRewardShareRatio uint32   `json:"delegateRewardShareRatio"`
	AutoStake                bool     `json:"autoStake"`
	AllowedDelegates         []string `json:"allowedDelegates,omitempty"`
}

func (s Settings) allows(delegator string) bool {
	if len(s.AllowedDelegates) == 0 {
		return true
	}
	i := sort.SearchStrings(s.AllowedDelegates, delegator)
	return i < len(s.AllowedDelegates) && s.AllowedDelegates[i] == delegator
}

func (s Settings) copy() Settings {
	s.AllowedDelegates = append([]string(nil), s.AllowedDelegates...)
	if len(s.AllowedDelegates) == 0 {
		s.AllowedDelegates = nil
	}
	return s
}

// Stats counts epoch outcomes.
type Stats struct {
	PassedConsecutiveEpochs uint32 `json:"passedConsecutiveEpochs"`
	FailedConsecutiveEpochs uint32 `json:"failedConsecutiveEpochs"`
	TotalEpochCount         uint32 `json:"totalEpochCount"`
	PassedEpochCount        uint32 `json:"passedEpochCount"`
	FailedEpochCount        uint32 `json:"failedEpochCount"`
	ObservedEpochCount      uint32 `json:"observedEpochCount"`
	PrescribedEpochCount    uint32 `json:"prescribedEpochCount"`
}

// Weights are derived at each epoch creation and zero before the first one.
type Weights struct {
	StakeWeight               fixed.Ratio `json:"stakeWeight"`
	TenureWeight              fixed.Ratio `json:"tenureWeight"`
	GatewayPerformanceRatio   fixed.Ratio `json:"gatewayPerformanceRatio"`
	ObserverPerformanceRatio  fixed.Ratio `json:"observerPerformanceRatio"`
	CompositeWeight           fixed.Ratio `json:"compositeWeight"`
	NormalizedCompositeWeight fixed.Ratio `json:"normalizedCompositeWeight"`
}

// WithdrawVault holds stake on its way back to a balance.
type WithdrawVault struct {
	Balance        uint64          `json:"balance"`
	StartTimestamp inter.Timestamp `json:"startTimestamp"`
	EndTimestamp   inter.Timestamp `json:"endTimestamp"`
}

// Delegate is one delegator's position in a gateway.
type Delegate struct {
	Address        string                   `json:"address"`
	DelegatedStake uint64                   `json:"delegatedStake"`
	StartTimestamp inter.Timestamp          `json:"startTimestamp"`
	Vaults         map[string]WithdrawVault `json:"vaults"`
}

func (d *Delegate) vaultSum() uint64 {
	var sum uint64
	for _, v := range d.Vaults {
		sum += v.Balance
	}
	return sum
}

func (d *Delegate) copy() *Delegate {
	cp := *d
	cp.Vaults = copyVaults(d.Vaults)
	return &cp
}

// Gateway is a staked network operator.
type Gateway struct {
	Operator            string                   `json:"gatewayAddress"`
	ObserverAddress     string                   `json:"observerAddress"`
	OperatorStake       uint64                   `json:"operatorStake"`
	TotalDelegatedStake uint64                   `json:"totalDelegatedStake"`
	Status              Status                   `json:"status"`
	StartTimestamp      inter.Timestamp          `json:"startTimestamp"`
	EndTimestamp        inter.Timestamp          `json:"endTimestamp,omitempty"`
	Settings            Settings                 `json:"settings"`
	Stats               Stats                    `json:"stats"`
	Weights             Weights                  `json:"weights"`
	Vaults              map[string]WithdrawVault `json:"vaults"`
	Delegates           map[string]*Delegate     `json:"-"`
}

// DelegateList returns the delegates sorted by address.
func (g *Gateway) DelegateList() []Delegate {
	out := make([]Delegate, 0, len(g.Delegates))
	for _, addr := range g.delegateAddresses() {
		out = append(out, *g.Delegates[addr])
	}
	return out
}

func (g *Gateway) delegateAddresses() []string {
	addrs := make([]string, 0, len(g.Delegates))
	for a := range g.Delegates {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// TotalStake is the operator stake plus all delegated stake.
func (g *Gateway) TotalStake() uint64 {
	return g.OperatorStake + g.TotalDelegatedStake
}

// WithdrawnStake is the balance of every pending withdrawal of the gateway.
func (g *Gateway) WithdrawnStake() uint64 {
	var sum uint64
	for _, v := range g.Vaults {
		sum += v.Balance
	}
	for _, d := range g.Delegates {
		sum += d.vaultSum()
	}
	return sum
}

// MarshalJSON renders delegates as an array.
func (g Gateway) MarshalJSON() ([]byte, error) {
	type plain Gateway
	vaults := g.Vaults
	if vaults == nil {
		vaults = map[string]WithdrawVault{}
	}
	return json.Marshal(struct {
		plain
		Vaults    map[string]WithdrawVault `json:"vaults"`
		Delegates []Delegate               `json:"delegates"`
	}{plain(g), vaults, g.DelegateList()})
}

// Copy returns an independent gateway.
func (g *Gateway) Copy() *Gateway {
	cp := *g
	cp.Settings = g.Settings.copy()
	cp.Vaults = copyVaults(g.Vaults)
	cp.Delegates = make(map[string]*Delegate, len(g.Delegates))
	for a, d := range g.Delegates {
		cp.Delegates[a] = d.copy()
	}
	return &cp
}

func copyVaults(in map[string]WithdrawVault) map[string]WithdrawVault {
	out := make(map[string]WithdrawVault, len(in))
	for id, v := range in {
		out[id] = v
	}
	return out
}

func sortedVaultIDs(vv map[string]WithdrawVault) []string {
	ids := make([]string, 0, len(vv))
	for id := range vv {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
