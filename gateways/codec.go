package gateways

import (
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/cser"
	"github.com/rony4d/go-ario/utils/fixed"
)

func marshalVaults(w *cser.Writer, vv map[string]WithdrawVault) {
	ids := sortedVaultIDs(vv)
	w.U56(uint64(len(ids)))
	for _, id := range ids {
		v := vv[id]
		w.String(id)
		w.U64(v.Balance)
		w.U64(uint64(v.StartTimestamp))
		w.U64(uint64(v.EndTimestamp))
	}
}

func unmarshalVaults(r *cser.Reader) map[string]WithdrawVault {
	n := r.Count()
	vv := make(map[string]WithdrawVault, n)
	prev := ""
	for i := 0; i < n; i++ {
		id := r.String()
		if i > 0 && id <= prev {
			panic(cser.ErrNonCanonicalEncoding)
		}
		prev = id
		vv[id] = WithdrawVault{
			Balance:        r.U64(),
			StartTimestamp: inter.Timestamp(r.U64()),
			EndTimestamp:   inter.Timestamp(r.U64()),
		}
	}
	return vv
}

func marshalStatus(s Status) bool {
	return s == Leaving
}

func unmarshalStatus(leaving bool) Status {
	if leaving {
		return Leaving
	}
	return Joined
}

// MarshalCSER writes gateways in operator order, delegates in address order.
func (r *Registry) MarshalCSER(w *cser.Writer) {
	ops := r.Operators()
	w.U56(uint64(len(ops)))
	for _, op := range ops {
		g := r.gateways[op]
		w.String(g.Operator)
		w.String(g.ObserverAddress)
		w.U64(g.OperatorStake)
		w.U64(g.TotalDelegatedStake)
		w.Bool(marshalStatus(g.Status))
		w.U64(uint64(g.StartTimestamp))
		w.U64(uint64(g.EndTimestamp))

		s := g.Settings
		w.String(s.FQDN)
		w.String(s.Label)
		w.String(s.Note)
		w.String(s.Properties)
		w.String(s.Protocol)
		w.U32(uint32(s.Port))
		w.Bool(s.AllowDelegatedStaking)
		w.U64(s.MinDelegatedStake)
		w.U32(s.DelegateRewardShareRatio)
		w.Bool(s.AutoStake)
		w.Strings(s.AllowedDelegates)

		st := g.Stats
		for _, v := range []uint32{st.PassedConsecutiveEpochs, st.FailedConsecutiveEpochs, st.TotalEpochCount,
			st.PassedEpochCount, st.FailedEpochCount, st.ObservedEpochCount, st.PrescribedEpochCount} {
			w.U32(v)
		}

		wt := g.Weights
		for _, v := range []fixed.Ratio{wt.StakeWeight, wt.TenureWeight, wt.GatewayPerformanceRatio,
			wt.ObserverPerformanceRatio, wt.CompositeWeight, wt.NormalizedCompositeWeight} {
			w.U64(uint64(v))
		}

		marshalVaults(w, g.Vaults)

		addrs := g.delegateAddresses()
		w.U56(uint64(len(addrs)))
		for _, a := range addrs {
			d := g.Delegates[a]
			w.String(d.Address)
			w.U64(d.DelegatedStake)
			w.U64(uint64(d.StartTimestamp))
			marshalVaults(w, d.Vaults)
		}
	}
}

func (r *Registry) UnmarshalCSER(rd *cser.Reader) error {
	n := rd.Count()
	r.gateways = make(map[string]*Gateway, n)
	prev := ""
	for i := 0; i < n; i++ {
		g := &Gateway{
			Operator:            rd.String(),
			ObserverAddress:     rd.String(),
			OperatorStake:       rd.U64(),
			TotalDelegatedStake: rd.U64(),
			Status:              unmarshalStatus(rd.Bool()),
			StartTimestamp:      inter.Timestamp(rd.U64()),
			EndTimestamp:        inter.Timestamp(rd.U64()),
		}
		if i > 0 && g.Operator <= prev {
			return cser.ErrNonCanonicalEncoding
		}
		prev = g.Operator

		g.Settings = Settings{
			FQDN:                     rd.String(),
			Label:                    rd.String(),
			Note:                     rd.String(),
			Properties:               rd.String(),
			Protocol:                 rd.String(),
			Port:                     int(rd.U32()),
			AllowDelegatedStaking:    rd.Bool(),
			MinDelegatedStake:        rd.U64(),
			DelegateRewardShareRatio: rd.U32(),
			AutoStake:                rd.Bool(),
			AllowedDelegates:         rd.Strings(),
		}

		st := &g.Stats
		for _, p := range []*uint32{&st.PassedConsecutiveEpochs, &st.FailedConsecutiveEpochs, &st.TotalEpochCount,
			&st.PassedEpochCount, &st.FailedEpochCount, &st.ObservedEpochCount, &st.PrescribedEpochCount} {
			*p = rd.U32()
		}

		wt := &g.Weights
		for _, p := range []*fixed.Ratio{&wt.StakeWeight, &wt.TenureWeight, &wt.GatewayPerformanceRatio,
			&wt.ObserverPerformanceRatio, &wt.CompositeWeight, &wt.NormalizedCompositeWeight} {
			*p = fixed.Ratio(rd.U64())
		}

		g.Vaults = unmarshalVaults(rd)

		m := rd.Count()
		g.Delegates = make(map[string]*Delegate, m)
		prevDelegate := ""
		for j := 0; j < m; j++ {
			d := &Delegate{
				Address:        rd.String(),
				DelegatedStake: rd.U64(),
				StartTimestamp: inter.Timestamp(rd.U64()),
			}
			if j > 0 && d.Address <= prevDelegate {
				return cser.ErrNonCanonicalEncoding
			}
			prevDelegate = d.Address
			d.Vaults = unmarshalVaults(rd)
			g.Delegates[d.Address] = d
		}
		r.gateways[g.Operator] = g
	}
	return nil
}
