package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/names"
	"github.com/rony4d/go-ario/state"
)

func TestFakeGenesis(t *testing.T) {
	require := require.New(t)
	rules := ario.MainNetRules()
	g := FakeGenesis(rules, "FOOBAR", 60, 10)
	require.Equal(rules.TotalSupply, g.Allocated())

	s := state.New(rules, "AOS")
	require.NoError(g.Apply(s))

	sup := s.Supply()
	require.Equal(FakeProtocolBalance, sup.ProtocolBalance)
	require.Equal(60*rules.Gateways.MinOperatorStake, sup.Staked)
	require.Equal(2*fakeSpendable, sup.Locked)
	require.Equal(60, s.Gateways.Len())
	require.Equal(10, s.Names.Len())
	require.Len(s.Names.PrimaryNames(), 1)
	require.Len(s.Gateways.Eligible(FakeGenesisTime), 60)

	rec, ok := s.Names.Get(FakeName(1))
	require.True(ok)
	require.Equal(names.Lease, rec.Type)
	gw, ok := s.Gateways.Get(g.Gateways[0].Operator)
	require.True(ok)
	require.Equal(gateways.Joined, gw.Status)
	require.True(gw.Settings.AutoStake)

	require.ErrorIs(g.Apply(s), ErrNotEmpty)
	require.Equal(g, FakeGenesis(rules, "FOOBAR", 60, 10))
}

func TestFakeAddress(t *testing.T) {
	require := require.New(t)
	a := FakeAddress("gateway/0")
	require.Len(a, 43)
	require.Equal(a, FakeAddress("gateway/0"))
	require.NotEqual(a, FakeAddress("gateway/1"))
}

func TestApplyRejectsUnbalancedGenesis(t *testing.T) {
	require := require.New(t)
	rules := ario.DevNetRules()
	g := FakeGenesis(rules, "FOOBAR", 3, 2)
	g.Balances = g.Balances[:len(g.Balances)-1]

	err := g.Apply(state.New(rules, "AOS"))
	var inv *state.InvariantError
	require.ErrorAs(err, &inv)
	require.Equal(rules.TotalSupply, inv.Expected)
}

func TestFileRoundTrip(t *testing.T) {
	require := require.New(t)
	rules := ario.DevNetRules()
	g := FakeGenesis(rules, "FOOBAR", 4, 3)

	path := filepath.Join(t.TempDir(), "genesis.toml")
	f, err := os.Create(path)
	require.NoError(err)
	require.NoError(g.Write(f))
	require.NoError(f.Close())

	loaded, err := LoadFile(path)
	require.NoError(err)
	require.Equal(g, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(err)
}
