package epochs

import (
	"fmt"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/demand"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/ledger"
	"github.com/rony4d/go-ario/names"
	"github.com/rony4d/go-ario/utils/cser"
)

const (
	protocol  = "AOS"
	genesisTs = inter.Timestamp(1741176000000)
	hashChain = "somearbitraryhashchain"
	reserve   = 1_000_000 * ario.MARIOPerARIO
)

type fixture struct {
	s      *Scheduler
	deps   Deps
	ledger *ledger.Ledger
}

func operatorOf(i int) string { return fmt.Sprintf("gateway-%02d", i) }
func observerOf(i int) string { return fmt.Sprintf("observer-%02d", i) }

func setup(t *testing.T, rules ario.Rules, gatewayCount int) *fixture {
	l := ledger.New()
	require.NoError(t, l.Credit(protocol, reserve))

	gw := gateways.New()
	for i := 0; i < gatewayCount; i++ {
		s := gateways.DefaultSettings(rules.Gateways)
		s.FQDN = fmt.Sprintf("gateway-%02d.example", i)
		require.NoError(t, gw.Add(gateways.Gateway{
			Operator:        operatorOf(i),
			ObserverAddress: observerOf(i),
			OperatorStake:   rules.Gateways.MinOperatorStake,
			Status:          gateways.Joined,
			Settings:        s,
		}))
	}

	reg := names.New()
	for _, n := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, reg.Add(names.Record{Name: n, Owner: protocol, Type: names.Permabuy}))
	}

	return &fixture{
		s:      New(),
		ledger: l,
		deps: Deps{
			Rules:    rules,
			Protocol: protocol,
			Ledger:   l,
			Gateways: gw,
			Names:    reg,
			Demand:   demand.New(rules.Demand, rules.Names.BaseFees),
		},
	}
}

func (f *fixture) held() uint64 {
	t := f.deps.Gateways.Totals()
	return f.ledger.Sum() + t.OperatorStake + t.DelegatedStake + t.Withdrawn
}

func TestTickBeforeGenesis(t *testing.T) {
	require := require.New(t)
	f := setup(t, ario.MainNetRules(), 3)

	res, err := f.s.Tick(f.deps, ario.MainNetGenesisTimestamp-1, 1, hashChain, "tick")
	require.NoError(err)
	require.Empty(res.Steps)
	require.False(f.s.Started)

	res, err = f.s.Tick(f.deps, ario.MainNetGenesisTimestamp, 1, hashChain, "tick")
	require.NoError(err)
	require.Len(res.Steps, 1)
	require.Equal(ario.MainNetGenesisTimestamp, res.Steps[0].Created.StartTimestamp)
}

func TestGenesisEpoch(t *testing.T) {
	require := require.New(t)
	f := setup(t, ario.DevNetRules(), 60)

	res, err := f.s.Tick(f.deps, genesisTs, 999, hashChain, "tick")
	require.NoError(err)
	require.Len(res.Steps, 1)
	e := res.Steps[0].Created
	require.NotNil(res.Steps[0].Demand)
	require.Equal(idx.Epoch(0), e.Index)
	require.Equal(genesisTs, e.StartTimestamp)
	require.Equal(genesisTs+inter.Day, e.EndTimestamp)
	require.Len(e.PrescribedObservers, 50)
	require.Len(e.PrescribedNames, 2)
	for o, po := range e.PrescribedObservers {
		require.Equal(o, po.ObserverAddress)
		require.NotZero(po.NormalizedCompositeWeight)
	}

	again := setup(t, ario.DevNetRules(), 60)
	res2, err := again.s.Tick(again.deps, genesisTs, 999, hashChain, "tick")
	require.NoError(err)
	require.Equal(e.PrescribedObservers, res2.Steps[0].Created.PrescribedObservers)
	require.Equal(e.PrescribedNames, res2.Steps[0].Created.PrescribedNames)

	_, err = New().Tick(again.deps, genesisTs, 999, "", "tick")
	require.ErrorIs(err, ErrMissingHashChain)
}

func TestTickCrossesBoundaries(t *testing.T) {
	require := require.New(t)
	f := setup(t, ario.DevNetRules(), 5)
	held := f.held()

	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)
	res, err := f.s.Tick(f.deps, genesisTs+3*inter.Day, 2, hashChain, "t1")
	require.NoError(err)

	var created, distributed []idx.Epoch
	for _, step := range res.Steps {
		if step.Created != nil {
			created = append(created, step.Created.Index)
		}
		if step.Distributed != nil {
			distributed = append(distributed, step.Distributed.Index)
		}
	}
	require.Equal([]idx.Epoch{1, 2, 3}, created)
	require.Equal([]idx.Epoch{0, 1, 2}, distributed)
	require.Equal([]idx.Epoch{0, 1, 1, 2, 2, 3}, res.Ticked)
	require.Equal(idx.Epoch(4), f.s.Next)
	require.Equal(held, f.held())
	require.Less(f.ledger.Balance(protocol), reserve)

	res, err = f.s.Tick(f.deps, genesisTs+3*inter.Day, 3, hashChain, "t2")
	require.NoError(err)
	require.Empty(res.Steps)
}

func TestTickStepsAreBounded(t *testing.T) {
	require := require.New(t)
	rules := ario.DevNetRules()
	rules.Epochs.MaxTickSteps = 4
	f := setup(t, rules, 5)

	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)

	res, err := f.s.Tick(f.deps, genesisTs+3*inter.Day, 2, hashChain, "t1")
	require.NoError(err)
	require.Equal([]idx.Epoch{0, 1, 1, 2}, res.Ticked)
	require.Equal(idx.Epoch(3), f.s.Next)

	res, err = f.s.Tick(f.deps, genesisTs+3*inter.Day, 3, hashChain, "t2")
	require.NoError(err)
	require.Equal([]idx.Epoch{2, 3}, res.Ticked)
	require.Equal(idx.Epoch(4), f.s.Next)
}

func TestDistribution(t *testing.T) {
	require := require.New(t)
	f := setup(t, ario.DevNetRules(), 3)
	held := f.held()

	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)

	_, err = f.s.SaveObservations(f.deps.Gateways, "stranger", "report", nil, genesisTs+1)
	require.ErrorIs(err, ErrNotPrescribed)
	_, err = f.s.SaveObservations(f.deps.Gateways, observerOf(0), "", nil, genesisTs+1)
	require.ErrorIs(err, ErrInvalidReport)

	failed := []string{operatorOf(2), "not-a-gateway"}
	_, err = f.s.SaveObservations(f.deps.Gateways, observerOf(0), "report-0", failed, genesisTs+1)
	require.NoError(err)
	obs, err := f.s.SaveObservations(f.deps.Gateways, observerOf(1), "report-1", failed, genesisTs+2)
	require.NoError(err)
	require.Equal([]string{observerOf(0), observerOf(1)}, obs.FailureSummaries[operatorOf(2)])
	require.NotContains(obs.FailureSummaries, "not-a-gateway")

	res, err := f.s.Tick(f.deps, genesisTs+inter.Day, 2, hashChain, "t1")
	require.NoError(err)
	dist := res.Steps[0].Distributed.Distributions
	require.Equal(uint32(3), dist.TotalEligibleGateways)
	require.Equal(uint64(1_000_000_000), dist.TotalEligibleRewards)
	require.Equal(uint64(300_000_000), dist.TotalEligibleGatewayReward)
	require.Equal(uint64(33_333_333), dist.TotalEligibleObserverReward)
	require.Equal(uint64(333_333_333), dist.Rewards[operatorOf(0)])
	require.Equal(uint64(333_333_333), dist.Rewards[operatorOf(1)])
	require.NotContains(dist.Rewards, operatorOf(2))
	require.Equal(reserve-2*333_333_333, f.ledger.Balance(protocol))
	require.Equal(held, f.held())

	g, _ := f.deps.Gateways.Get(operatorOf(2))
	require.Equal(uint32(1), g.Stats.FailedConsecutiveEpochs)
	require.Equal(uint32(1), g.Stats.PrescribedEpochCount)
	require.Equal(uint32(0), g.Stats.ObservedEpochCount)
	g, _ = f.deps.Gateways.Get(operatorOf(0))
	require.Equal(ario.DefaultGatewaysRules().MinOperatorStake+333_333_333, g.OperatorStake)
	require.Equal(uint32(1), g.Stats.PassedEpochCount)
}

func TestConsecutiveFailuresForceLeave(t *testing.T) {
	require := require.New(t)
	rules := ario.DevNetRules()
	rules.Rewards.MaxConsecutiveFailures = 1
	f := setup(t, rules, 3)
	held := f.held()

	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)
	for _, o := range []string{observerOf(0), observerOf(1)} {
		_, err = f.s.SaveObservations(f.deps.Gateways, o, "report", []string{operatorOf(2)}, genesisTs+1)
		require.NoError(err)
	}
	res, err := f.s.Tick(f.deps, genesisTs+inter.Day, 2, hashChain, "t1")
	require.NoError(err)
	require.Equal([]string{operatorOf(2)}, res.Steps[0].Left)

	g, _ := f.deps.Gateways.Get(operatorOf(2))
	require.Equal(gateways.Leaving, g.Status)
	require.Equal(uint64(0), g.OperatorStake)
	require.Equal(held, f.held())
	require.Len(res.Steps[1].Created.PrescribedObservers, 2)
}

func TestRetention(t *testing.T) {
	require := require.New(t)
	rules := ario.DevNetRules()
	f := setup(t, rules, 3)

	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)
	_, err = f.s.Tick(f.deps, genesisTs+20*inter.Day, 2, hashChain, "t1")
	require.NoError(err)

	all := f.s.Epochs()
	require.Len(all, int(rules.Epochs.RetainedEpochs))
	require.Equal(idx.Epoch(14), all[0].Index)
	latest, ok := f.s.Latest()
	require.True(ok)
	require.Equal(idx.Epoch(20), latest.Index)

	cur, ok := f.s.Current(genesisTs + 20*inter.Day + 5)
	require.True(ok)
	require.Equal(idx.Epoch(20), cur.Index)
	i, ok := f.s.IndexAt(rules.Epochs, genesisTs+20*inter.Day+5)
	require.True(ok)
	require.Equal(idx.Epoch(20), i)
}

func TestPRF(t *testing.T) {
	require := require.New(t)
	a := NewPRF(hashChain, 1)
	require.Equal(a.Draw(observerDraws, 7), NewPRF(hashChain, 1).Draw(observerDraws, 7))
	require.NotEqual(a.Draw(observerDraws, 7), a.Draw(nameDraws, 7))
	require.NotEqual(a.Draw(observerDraws, 7), NewPRF(hashChain, 2).Draw(observerDraws, 7))

	picked := selectNames(a, []string{"a", "b", "c", "d"}, 4)
	require.ElementsMatch([]string{"a", "b", "c", "d"}, picked)
	require.Len(selectNames(a, []string{"a", "b", "c", "d"}, 2), 2)
}

func TestCopyAndCSER(t *testing.T) {
	require := require.New(t)
	f := setup(t, ario.DevNetRules(), 4)
	_, err := f.s.Tick(f.deps, genesisTs, 1, hashChain, "t0")
	require.NoError(err)
	_, err = f.s.SaveObservations(f.deps.Gateways, observerOf(0), "report", []string{operatorOf(1)}, genesisTs+1)
	require.NoError(err)
	_, err = f.s.Tick(f.deps, genesisTs+inter.Day, 2, hashChain, "t1")
	require.NoError(err)

	cp := f.s.Copy()
	_, err = cp.SaveObservations(f.deps.Gateways, observerOf(0), "other", nil, genesisTs+inter.Day+1)
	require.NoError(err)
	e, _ := f.s.Get(1)
	require.Empty(e.Observations.Reports)

	buf, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		f.s.MarshalCSER(w)
		return nil
	})
	require.NoError(err)
	got := New()
	require.NoError(cser.UnmarshalBinaryAdapter(buf, got.UnmarshalCSER))
	require.Equal(f.s.Epochs(), got.Epochs())
	require.Equal(f.s.Next, got.Next)
	require.Equal(f.s.Genesis, got.Genesis)
}
