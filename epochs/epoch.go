// Package epochs is the tick driven epoch scheduler. Each epoch prescribes
// a weighted sample of gateways as observers and a sample of names to
// observe; closing an epoch pays gateway and observer rewards out of the
// protocol reserve.
package epochs

import (
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

// PrescribedObserver is a gateway selected to observe an epoch, with the
// weights it was selected by.
type PrescribedObserver struct {
	ObserverAddress string          `json:"observerAddress"`
	GatewayAddress  string          `json:"gatewayAddress"`
	Stake           uint64          `json:"stake"`
	StartTimestamp  inter.Timestamp `json:"startTimestamp"`
	gateways.Weights
}

// Observations collects the reports submitted during an epoch.
type Observations struct {
	// FailureSummaries maps a gateway to the observers reporting it failed.
	FailureSummaries map[string][]string `json:"failureSummaries"`
	// Reports maps an observer to its report transaction id.
	Reports map[string]string `json:"reports"`
}

// Distribution is the reward accounting of an epoch, filled when it closes.
type Distribution struct {
	TotalEligibleGateways       uint32            `json:"totalEligibleGateways"`
	TotalEligibleRewards        uint64            `json:"totalEligibleRewards"`
	TotalEligibleGatewayReward  uint64            `json:"totalEligibleGatewayReward"`
	TotalEligibleObserverReward uint64            `json:"totalEligibleObserverReward"`
	DistributedTimestamp        inter.Timestamp   `json:"distributedTimestamp,omitempty"`
	TotalDistributedRewards     uint64            `json:"totalDistributedRewards"`
	Rewards                     map[string]uint64 `json:"rewards"`
}

// Epoch is one scheduling window.
type Epoch struct {
	Index               idx.Epoch                     `json:"epochIndex"`
	StartTimestamp      inter.Timestamp               `json:"startTimestamp"`
	EndTimestamp        inter.Timestamp               `json:"endTimestamp"`
	StartHeight         idx.Block                     `json:"startHeight"`
	HashChain           string                        `json:"hashchain"`
	DemandFactor        fixed.Ratio                   `json:"demandFactor"`
	PrescribedObservers map[string]PrescribedObserver `json:"prescribedObservers"`
	PrescribedNames     []string                      `json:"prescribedNames"`
	Observations        Observations                  `json:"observations"`
	Distributions       Distribution                  `json:"distributions"`
}

// Distributed reports whether the epoch has been closed.
func (e *Epoch) Distributed() bool {
	return e.Distributions.DistributedTimestamp != 0
}

// Observers returns the prescribed observer addresses in ascending order.
func (e *Epoch) Observers() []string {
	out := make([]string, 0, len(e.PrescribedObservers))
	for o := range e.PrescribedObservers {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// Copy returns an independent epoch.
func (e *Epoch) Copy() *Epoch {
	cp := *e
	cp.PrescribedObservers = make(map[string]PrescribedObserver, len(e.PrescribedObservers))
	for k, v := range e.PrescribedObservers {
		cp.PrescribedObservers[k] = v
	}
	cp.PrescribedNames = append([]string(nil), e.PrescribedNames...)
	cp.Observations = Observations{
		FailureSummaries: make(map[string][]string, len(e.Observations.FailureSummaries)),
		Reports:          make(map[string]string, len(e.Observations.Reports)),
	}
	for k, v := range e.Observations.FailureSummaries {
		cp.Observations.FailureSummaries[k] = append([]string(nil), v...)
	}
	for k, v := range e.Observations.Reports {
		cp.Observations.Reports[k] = v
	}
	cp.Distributions.Rewards = make(map[string]uint64, len(e.Distributions.Rewards))
	for k, v := range e.Distributions.Rewards {
		cp.Distributions.Rewards[k] = v
	}
	return &cp
}

func newEpoch(i idx.Epoch, start, end inter.Timestamp) *Epoch {
	return &Epoch{
		Index:               i,
		StartTimestamp:      start,
		EndTimestamp:        end,
		PrescribedObservers: make(map[string]PrescribedObserver),
		Observations: Observations{
			FailureSummaries: make(map[string][]string),
			Reports:          make(map[string]string),
		},
		Distributions: Distribution{Rewards: make(map[string]uint64)},
	}
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
