package epochs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/demand"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/names"
)

var (
	ErrNoEpoch          = errors.New("no active epoch")
	ErrEpochNotFound    = errors.New("epoch not found")
	ErrNotPrescribed    = errors.New("observer is not prescribed for the epoch")
	ErrInvalidReport    = errors.New("report transaction id is required")
	ErrMissingHashChain = errors.New("hash chain is required")
)

// Balances is the part of the ledger rewards are paid from.
type Balances interface {
	Balance(addr string) uint64
	Debit(addr string, qty uint64) error
	Credit(addr string, qty uint64) error
}

// Deps are the components a tick reads and mutates.
type Deps struct {
	Rules    ario.Rules
	Protocol string
	Ledger   Balances
	Gateways *gateways.Registry
	Names    *names.Registry
	Demand   *demand.Engine
}

// Scheduler holds the retained epochs and the position of the schedule.
type Scheduler struct {
	// Genesis is the start of epoch zero, fixed by the first effective tick.
	Genesis inter.Timestamp
	Started bool
	// Next is the index of the next epoch to create.
	Next idx.Epoch

	epochs map[idx.Epoch]*Epoch
	log    log.Logger
}

func New() *Scheduler {
	return &Scheduler{
		epochs: make(map[idx.Epoch]*Epoch),
		log:    log.New("module", "epochs"),
	}
}

// Step is one creation or distribution performed by a tick.
type Step struct {
	Created     *Epoch
	Demand      *demand.Update
	Distributed *Epoch
	// Left lists gateways forced out by the distribution.
	Left []string
}

// TickResult lists the steps of a tick in index order.
type TickResult struct {
	Steps []Step
	// Ticked is every epoch index created or distributed by the tick.
	Ticked []idx.Epoch
}

func (s *Scheduler) startOf(i idx.Epoch, rules ario.EpochsRules) inter.Timestamp {
	return s.Genesis + inter.Timestamp(i)*rules.Duration
}

// Tick advances the schedule to ts. Epochs are created and distributed in
// index order: an epoch whose end has passed is distributed before the next
// one is created. A tick before the genesis timestamp does nothing. At most
// MaxTickSteps steps are taken; the next tick continues from there.
func (s *Scheduler) Tick(d Deps, ts inter.Timestamp, height idx.Block, hashChain, msgID string) (TickResult, error) {
	var res TickResult
	if !s.Started {
		genesis := d.Rules.Epochs.GenesisTimestamp
		if genesis == 0 {
			genesis = ts
		}
		if ts < genesis {
			return res, nil
		}
		if hashChain == "" {
			return res, ErrMissingHashChain
		}
		s.Genesis = genesis
		s.Started = true
	}

	for len(res.Steps) < int(d.Rules.Epochs.MaxTickSteps) {
		if e := s.nextToDistribute(ts); e != nil {
			left, err := s.distribute(d, e, ts, msgID)
			if err != nil {
				return res, fmt.Errorf("distribute epoch %d: %w", e.Index, err)
			}
			res.Steps = append(res.Steps, Step{Distributed: e.Copy(), Left: left})
			res.Ticked = append(res.Ticked, e.Index)
			continue
		}
		if start := s.startOf(s.Next, d.Rules.Epochs); start <= ts {
			if hashChain == "" {
				return res, ErrMissingHashChain
			}
			e, u := s.create(d, s.Next, start, height, hashChain)
			res.Steps = append(res.Steps, Step{Created: e.Copy(), Demand: &u})
			res.Ticked = append(res.Ticked, e.Index)
			s.Next++
			continue
		}
		break
	}
	s.prune(d.Rules.Epochs)
	return res, nil
}

func (s *Scheduler) nextToDistribute(ts inter.Timestamp) *Epoch {
	for _, i := range s.indexes() {
		e := s.epochs[i]
		if !e.Distributed() && e.EndTimestamp <= ts {
			return e
		}
	}
	return nil
}

// create closes the demand period, refreshes weights and prescribes the new epoch.
func (s *Scheduler) create(d Deps, i idx.Epoch, start inter.Timestamp, height idx.Block, hashChain string) (*Epoch, demand.Update) {
	u := d.Demand.Update()
	d.Gateways.ComputeWeights(d.Rules.Gateways, start)

	e := newEpoch(i, start, start+d.Rules.Epochs.Duration)
	e.StartHeight = height
	e.HashChain = hashChain
	e.DemandFactor = d.Demand.DemandFactor()

	var eligible []gateways.Gateway
	for _, op := range d.Gateways.Eligible(start) {
		g, _ := d.Gateways.Get(op)
		eligible = append(eligible, g)
	}
	p := NewPRF(hashChain, i)
	for _, g := range selectObservers(p, eligible, int(d.Rules.Epochs.PrescribedObservers)) {
		e.PrescribedObservers[g.ObserverAddress] = PrescribedObserver{
			ObserverAddress: g.ObserverAddress,
			GatewayAddress:  g.Operator,
			Stake:           g.OperatorStake,
			StartTimestamp:  g.StartTimestamp,
			Weights:         g.Weights,
		}
	}
	e.PrescribedNames = selectNames(p, d.Names.LiveNames(d.Rules.Names, start), int(d.Rules.Epochs.PrescribedNames))
	sort.Strings(e.PrescribedNames)

	s.epochs[i] = e
	s.log.Debug("Epoch created", "epoch", i, "start", start, "observers", len(e.PrescribedObservers), "names", len(e.PrescribedNames))
	return e, u
}

// distribute pays the rewards of a closed epoch and updates gateway statistics.
func (s *Scheduler) distribute(d Deps, e *Epoch, ts inter.Timestamp, msgID string) ([]string, error) {
	rules := d.Rules.Rewards
	eligible := d.Gateways.Eligible(e.StartTimestamp)
	dist := &e.Distributions

	dist.TotalEligibleGateways = uint32(len(eligible))
	dist.TotalEligibleRewards = rules.Rate.Of(d.Ledger.Balance(d.Protocol))
	if len(eligible) > 0 {
		dist.TotalEligibleGatewayReward = rules.GatewayShare.Of(dist.TotalEligibleRewards) / uint64(len(eligible))
	}
	if n := len(e.PrescribedObservers); n > 0 {
		dist.TotalEligibleObserverReward = rules.ObserverShare.Of(dist.TotalEligibleRewards) / uint64(n)
	}

	observers := uint64(len(e.PrescribedObservers))
	var left []string
	for _, op := range eligible {
		g, _ := d.Gateways.Get(op)
		failures := uint64(len(e.Observations.FailureSummaries[op]))
		passed := failures*2 <= observers
		consecutive := d.Gateways.RecordEpochResult(op, passed)

		po, prescribed := e.PrescribedObservers[g.ObserverAddress]
		prescribed = prescribed && po.GatewayAddress == op
		_, reported := e.Observations.Reports[g.ObserverAddress]
		if prescribed {
			d.Gateways.RecordObserverResult(op, reported)
		}

		var reward uint64
		if passed {
			reward = dist.TotalEligibleGatewayReward
			if prescribed && !reported {
				reward -= rules.MissedReportPenalty.Of(reward)
			}
		}
		if prescribed && reported {
			reward += dist.TotalEligibleObserverReward
		}
		if reward > 0 {
			if _, err := d.Gateways.DistributeReward(d.Ledger, d.Protocol, op, reward); err != nil {
				return nil, err
			}
			dist.Rewards[op] = reward
			dist.TotalDistributedRewards += reward
		}

		if !passed && consecutive >= rules.MaxConsecutiveFailures {
			if _, err := d.Gateways.Slash(d.Ledger, d.Protocol, op, d.Rules.Gateways.MinOperatorStake); err != nil {
				return nil, err
			}
			if _, err := d.Gateways.Leave(d.Rules.Gateways, op, msgID, ts); err != nil {
				return nil, err
			}
			left = append(left, op)
			s.log.Warn("Gateway removed after consecutive failures", "gateway", op, "epoch", e.Index, "failures", consecutive)
		}
	}
	dist.DistributedTimestamp = ts
	s.log.Debug("Epoch distributed", "epoch", e.Index, "distributed", dist.TotalDistributedRewards, "gateways", len(eligible))
	return left, nil
}

// prune drops distributed epochs beyond the retention window.
func (s *Scheduler) prune(rules ario.EpochsRules) {
	if s.Next <= idx.Epoch(rules.RetainedEpochs) {
		return
	}
	oldest := s.Next - idx.Epoch(rules.RetainedEpochs)
	for i, e := range s.epochs {
		if i < oldest && e.Distributed() {
			delete(s.epochs, i)
		}
	}
}

// SaveObservations records a report of the observer for the epoch active at
// ts. Failures name gateways eligible for the epoch; others are ignored.
// Repeated submissions merge their failures.
func (s *Scheduler) SaveObservations(gw *gateways.Registry, observer, reportTxID string, failed []string, ts inter.Timestamp) (Observations, error) {
	if reportTxID == "" {
		return Observations{}, ErrInvalidReport
	}
	e, ok := s.Current(ts)
	if !ok {
		return Observations{}, ErrNoEpoch
	}
	if _, ok := e.PrescribedObservers[observer]; !ok {
		return Observations{}, fmt.Errorf("%w: %s in epoch %d", ErrNotPrescribed, observer, e.Index)
	}
	eligible := make(map[string]bool)
	for _, op := range gw.Eligible(e.StartTimestamp) {
		eligible[op] = true
	}
	for _, op := range failed {
		if !eligible[op] {
			continue
		}
		reporters := e.Observations.FailureSummaries[op]
		i := sort.SearchStrings(reporters, observer)
		if i < len(reporters) && reporters[i] == observer {
			continue
		}
		reporters = append(reporters, "")
		copy(reporters[i+1:], reporters[i:])
		reporters[i] = observer
		e.Observations.FailureSummaries[op] = reporters
	}
	e.Observations.Reports[observer] = reportTxID
	return e.Copy().Observations, nil
}

// Current returns the epoch whose window contains ts.
func (s *Scheduler) Current(ts inter.Timestamp) (*Epoch, bool) {
	if !s.Started || ts < s.Genesis || s.Next == 0 {
		return nil, false
	}
	for _, i := range s.indexes() {
		e := s.epochs[i]
		if e.StartTimestamp <= ts && ts < e.EndTimestamp {
			return e, true
		}
	}
	return nil, false
}

// Get returns a copy of a retained epoch.
func (s *Scheduler) Get(i idx.Epoch) (Epoch, bool) {
	e, ok := s.epochs[i]
	if !ok {
		return Epoch{}, false
	}
	return *e.Copy(), true
}

// Latest returns the most recently created epoch.
func (s *Scheduler) Latest() (Epoch, bool) {
	if s.Next == 0 {
		return Epoch{}, false
	}
	return s.Get(s.Next - 1)
}

// IndexAt returns the index of the epoch whose window contains ts.
func (s *Scheduler) IndexAt(rules ario.EpochsRules, ts inter.Timestamp) (idx.Epoch, bool) {
	genesis := s.Genesis
	if !s.Started {
		genesis = rules.GenesisTimestamp
	}
	if ts < genesis || rules.Duration == 0 {
		return 0, false
	}
	return idx.Epoch((ts - genesis) / rules.Duration), true
}

func (s *Scheduler) indexes() []idx.Epoch {
	out := make([]idx.Epoch, 0, len(s.epochs))
	for i := range s.epochs {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Epochs returns copies of the retained epochs in index order.
func (s *Scheduler) Epochs() []Epoch {
	out := make([]Epoch, 0, len(s.epochs))
	for _, i := range s.indexes() {
		out = append(out, *s.epochs[i].Copy())
	}
	return out
}

// Copy returns an independent scheduler.
func (s *Scheduler) Copy() *Scheduler {
	cp := *s
	cp.epochs = make(map[idx.Epoch]*Epoch, len(s.epochs))
	for i, e := range s.epochs {
		cp.epochs[i] = e.Copy()
	}
	return &cp
}
