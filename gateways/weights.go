package gateways

import (
	"fmt"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

// ComputeWeights refreshes the weights of every joined gateway as of now.
// Leaving gateways keep zero weights.
//
//	stake      = totalStake / minOperatorStake
//	tenure     = min(elapsed / tenurePeriod, maxTenureWeight)
//	gateway    = (passed + 1) / (total + 1)
//	observer   = (observed + 1) / (prescribed + 1)
//	composite  = stake * tenure * gateway * observer
//	normalized = composite / sum(composite)
func (r *Registry) ComputeWeights(rules ario.GatewaysRules, now inter.Timestamp) {
	var sum uint64
	ops := r.Operators()
	for _, op := range ops {
		g := r.gateways[op]
		if g.Status != Joined {
			g.Weights = Weights{}
			continue
		}
		var elapsed uint64
		if now > g.StartTimestamp {
			elapsed = uint64(now - g.StartTimestamp)
		}
		w := Weights{
			StakeWeight:              fixed.FromFraction(g.TotalStake(), rules.MinOperatorStake),
			TenureWeight:             fixed.Min(fixed.FromFraction(elapsed, uint64(rules.TenurePeriod)), fixed.Ratio(rules.MaxTenureWeight)*fixed.One),
			GatewayPerformanceRatio:  fixed.FromFraction(uint64(g.Stats.PassedEpochCount)+1, uint64(g.Stats.TotalEpochCount)+1),
			ObserverPerformanceRatio: fixed.FromFraction(uint64(g.Stats.ObservedEpochCount)+1, uint64(g.Stats.PrescribedEpochCount)+1),
		}
		w.CompositeWeight = w.StakeWeight.Mul(w.TenureWeight).Mul(w.GatewayPerformanceRatio).Mul(w.ObserverPerformanceRatio)
		g.Weights = w
		sum += uint64(w.CompositeWeight)
	}
	for _, op := range ops {
		g := r.gateways[op]
		if g.Status == Joined {
			g.Weights.NormalizedCompositeWeight = fixed.FromFraction(uint64(g.Weights.CompositeWeight), sum)
		}
	}
}

// RecordEpochResult updates the gateway statistics for a closed epoch and
// returns the number of consecutive failures.
func (r *Registry) RecordEpochResult(operator string, passed bool) uint32 {
	g, ok := r.gateways[operator]
	if !ok {
		return 0
	}
	s := &g.Stats
	s.TotalEpochCount++
	if passed {
		s.PassedEpochCount++
		s.PassedConsecutiveEpochs++
		s.FailedConsecutiveEpochs = 0
	} else {
		s.FailedEpochCount++
		s.FailedConsecutiveEpochs++
		s.PassedConsecutiveEpochs = 0
	}
	return s.FailedConsecutiveEpochs
}

// RecordObserverResult counts one prescription of the gateway's observer.
func (r *Registry) RecordObserverResult(operator string, observed bool) {
	g, ok := r.gateways[operator]
	if !ok {
		return
	}
	g.Stats.PrescribedEpochCount++
	if observed {
		g.Stats.ObservedEpochCount++
	}
}

// Reward is how one gateway reward was paid.
type Reward struct {
	Operator  uint64            `json:"operatorReward"`
	Delegates map[string]uint64 `json:"delegateRewards,omitempty"`
}

// DistributeReward moves amount from the protocol reserve to the gateway.
// Delegates receive the reward share ratio pro rata to their stake, added to
// their delegated stake; the operator receives the rest, staked when
// autoStake is set and credited to the balance otherwise.
func (r *Registry) DistributeReward(l Balances, protocol, operator string, amount uint64) (Reward, error) {
	g, ok := r.gateways[operator]
	if !ok {
		return Reward{}, fmt.Errorf("%w: %s", ErrGatewayNotFound, operator)
	}
	if amount == 0 {
		return Reward{}, nil
	}
	if err := l.Debit(protocol, amount); err != nil {
		return Reward{}, err
	}

	var reward Reward
	remaining := amount
	if g.TotalDelegatedStake > 0 && g.Settings.DelegateRewardShareRatio > 0 {
		pool := fixed.Percent(uint64(g.Settings.DelegateRewardShareRatio)).Of(amount)
		total := g.TotalDelegatedStake
		reward.Delegates = make(map[string]uint64)
		for _, addr := range g.delegateAddresses() {
			d := g.Delegates[addr]
			share := fixed.MulDiv(pool, d.DelegatedStake, total)
			if share == 0 {
				continue
			}
			d.DelegatedStake += share
			g.TotalDelegatedStake += share
			reward.Delegates[addr] = share
			remaining -= share
		}
	}
	reward.Operator = remaining
	if g.Settings.AutoStake && g.Status == Joined {
		g.OperatorStake += remaining
		return reward, nil
	}
	return reward, l.Credit(operator, remaining)
}
