package epochs

import (
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/cser"
	"github.com/rony4d/go-ario/utils/fixed"
)

func marshalWeights(w *cser.Writer, wt gateways.Weights) {
	for _, v := range []fixed.Ratio{wt.StakeWeight, wt.TenureWeight, wt.GatewayPerformanceRatio,
		wt.ObserverPerformanceRatio, wt.CompositeWeight, wt.NormalizedCompositeWeight} {
		w.U64(uint64(v))
	}
}

func unmarshalWeights(r *cser.Reader) gateways.Weights {
	var wt gateways.Weights
	for _, p := range []*fixed.Ratio{&wt.StakeWeight, &wt.TenureWeight, &wt.GatewayPerformanceRatio,
		&wt.ObserverPerformanceRatio, &wt.CompositeWeight, &wt.NormalizedCompositeWeight} {
		*p = fixed.Ratio(r.U64())
	}
	return wt
}

func (e *Epoch) marshalCSER(w *cser.Writer) {
	w.U32(uint32(e.Index))
	w.U64(uint64(e.StartTimestamp))
	w.U64(uint64(e.EndTimestamp))
	w.U64(uint64(e.StartHeight))
	w.String(e.HashChain)
	w.U64(uint64(e.DemandFactor))

	observers := e.Observers()
	w.U56(uint64(len(observers)))
	for _, o := range observers {
		po := e.PrescribedObservers[o]
		w.String(po.ObserverAddress)
		w.String(po.GatewayAddress)
		w.U64(po.Stake)
		w.U64(uint64(po.StartTimestamp))
		marshalWeights(w, po.Weights)
	}
	w.Strings(e.PrescribedNames)

	failed := sortedKeys(e.Observations.FailureSummaries)
	w.U56(uint64(len(failed)))
	for _, g := range failed {
		w.String(g)
		w.Strings(e.Observations.FailureSummaries[g])
	}
	reporters := make([]string, 0, len(e.Observations.Reports))
	for o := range e.Observations.Reports {
		reporters = append(reporters, o)
	}
	sort.Strings(reporters)
	w.U56(uint64(len(reporters)))
	for _, o := range reporters {
		w.String(o)
		w.String(e.Observations.Reports[o])
	}

	dist := e.Distributions
	w.U32(dist.TotalEligibleGateways)
	w.U64(dist.TotalEligibleRewards)
	w.U64(dist.TotalEligibleGatewayReward)
	w.U64(dist.TotalEligibleObserverReward)
	w.U64(uint64(dist.DistributedTimestamp))
	w.U64(dist.TotalDistributedRewards)
	rewarded := make([]string, 0, len(dist.Rewards))
	for g := range dist.Rewards {
		rewarded = append(rewarded, g)
	}
	sort.Strings(rewarded)
	w.U56(uint64(len(rewarded)))
	for _, g := range rewarded {
		w.String(g)
		w.U64(dist.Rewards[g])
	}
}

func unmarshalEpoch(r *cser.Reader) *Epoch {
	e := newEpoch(idx.Epoch(r.U32()), inter.Timestamp(r.U64()), inter.Timestamp(r.U64()))
	e.StartHeight = idx.Block(r.U64())
	e.HashChain = r.String()
	e.DemandFactor = fixed.Ratio(r.U64())

	n := r.Count()
	for i := 0; i < n; i++ {
		po := PrescribedObserver{
			ObserverAddress: r.String(),
			GatewayAddress:  r.String(),
			Stake:           r.U64(),
			StartTimestamp:  inter.Timestamp(r.U64()),
		}
		po.Weights = unmarshalWeights(r)
		e.PrescribedObservers[po.ObserverAddress] = po
	}
	e.PrescribedNames = r.Strings()

	n = r.Count()
	for i := 0; i < n; i++ {
		g := r.String()
		e.Observations.FailureSummaries[g] = r.Strings()
	}
	n = r.Count()
	for i := 0; i < n; i++ {
		o := r.String()
		e.Observations.Reports[o] = r.String()
	}

	dist := &e.Distributions
	dist.TotalEligibleGateways = r.U32()
	dist.TotalEligibleRewards = r.U64()
	dist.TotalEligibleGatewayReward = r.U64()
	dist.TotalEligibleObserverReward = r.U64()
	dist.DistributedTimestamp = inter.Timestamp(r.U64())
	dist.TotalDistributedRewards = r.U64()
	n = r.Count()
	for i := 0; i < n; i++ {
		g := r.String()
		dist.Rewards[g] = r.U64()
	}
	return e
}

// MarshalCSER writes the schedule position and the retained epochs in index order.
func (s *Scheduler) MarshalCSER(w *cser.Writer) {
	w.U64(uint64(s.Genesis))
	w.Bool(s.Started)
	w.U32(uint32(s.Next))
	ii := s.indexes()
	w.U56(uint64(len(ii)))
	for _, i := range ii {
		s.epochs[i].marshalCSER(w)
	}
}

func (s *Scheduler) UnmarshalCSER(r *cser.Reader) error {
	*s = *New()
	s.Genesis = inter.Timestamp(r.U64())
	s.Started = r.Bool()
	s.Next = idx.Epoch(r.U32())
	n := r.Count()
	for i := 0; i < n; i++ {
		e := unmarshalEpoch(r)
		if _, ok := s.epochs[e.Index]; ok || e.Index >= s.Next {
			return cser.ErrNonCanonicalEncoding
		}
		s.epochs[e.Index] = e
	}
	return nil
}
