package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/vaults"
)

const (
	processID = "AOS"
	alice     = "dQzhAKa0qKPtMR8NuJAL2yB_qsT0QfAuc2CwtiUyhts"
	now       = inter.Timestamp(1740009600000)
)

func balanced(t *testing.T) *State {
	rules := ario.DevNetRules()
	s := New(rules, processID)
	require.NoError(t, s.Ledger.Credit(processID, rules.TotalSupply-1_000))
	require.NoError(t, s.Ledger.Credit(alice, 600))
	require.NoError(t, s.Vaults.Add(vaults.Vault{
		ID:             "vault-1",
		Owner:          alice,
		Balance:        400,
		StartTimestamp: now,
		EndTimestamp:   now + 14*inter.Day,
	}))
	return s
}

func TestSupply(t *testing.T) {
	require := require.New(t)
	s := balanced(t)

	sup := s.Supply()
	require.Equal(ario.DefaultTotalSupply, sup.Total)
	require.Equal(uint64(600), sup.Circulating)
	require.Equal(uint64(400), sup.Locked)
	require.Equal(sup.Total-1_000, sup.ProtocolBalance)
	require.Equal(sup.Total, sup.Held())
	require.NoError(s.CheckInvariants())

	require.NoError(s.Ledger.Credit(alice, 1))
	err := s.CheckInvariants()
	var inv *InvariantError
	require.ErrorAs(err, &inv)
	require.Equal(sup.Total, inv.Expected)
	require.Equal(sup.Total+1, inv.Actual)
}

func TestCopyIsIndependent(t *testing.T) {
	require := require.New(t)
	s := balanced(t)
	before := s.Hash()

	cp := s.Copy()
	require.Equal(before, cp.Hash())
	require.NoError(cp.Ledger.Transfer(alice, processID, 100))
	require.NotEqual(before, cp.Hash())
	require.Equal(before, s.Hash())
	require.Equal(uint64(600), s.Ledger.Balance(alice))
}

func TestMarshalBinary(t *testing.T) {
	require := require.New(t)
	s := balanced(t)

	raw, err := s.MarshalBinary()
	require.NoError(err)
	decoded, err := Decode(raw)
	require.NoError(err)
	require.Equal(s.Hash(), decoded.Hash())
	require.Equal(s.Supply(), decoded.Supply())
	require.Equal(s.Rules.Name, decoded.Rules.Name)

	again, err := decoded.MarshalBinary()
	require.NoError(err)
	require.Equal(raw, again)

	_, err = Decode(raw[:len(raw)/2])
	require.Error(err)
}
