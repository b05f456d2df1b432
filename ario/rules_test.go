package ario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/inter"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		name    string
		rules   Rules
		genesis inter.Timestamp
		unsafe  bool
	}{
		{"main", MainNetRules(), MainNetGenesisTimestamp, false},
		{"test", TestNetRules(), MainNetGenesisTimestamp, true},
		{"dev", DevNetRules(), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			require.NoError(tt.rules.Validate())
			require.Equal(tt.name, tt.rules.Name)
			require.Equal(uint64(1e15), tt.rules.TotalSupply)
			require.Equal(inter.Timestamp(86_400_000), tt.rules.Epochs.Duration)
			require.Equal(uint32(50), tt.rules.Epochs.PrescribedObservers)
			require.Equal(uint32(2), tt.rules.Epochs.PrescribedNames)
			require.Equal(tt.genesis, tt.rules.Epochs.GenesisTimestamp)
			require.Equal(tt.unsafe, tt.rules.Ledger.AllowUnsafeAddresses)

			byName, ok := RulesByName(tt.name)
			require.True(ok)
			require.Equal(tt.rules, byName)
		})
	}

	_, ok := RulesByName("unknown")
	require.False(t, ok)
}

func TestBaseFees(t *testing.T) {
	fees := DefaultBaseFees()
	require.Len(t, fees, 51)
	require.Equal(t, 1_000_000*MARIOPerARIO, fees[0])
	require.Equal(t, 250*MARIOPerARIO, fees[11])
	require.Equal(t, 200*MARIOPerARIO, fees[12])
	require.Equal(t, 200*MARIOPerARIO, fees[50])
	for i := 1; i < len(fees); i++ {
		require.LessOrEqual(t, fees[i], fees[i-1])
	}
}

func TestCopyIsDeep(t *testing.T) {
	orig := MainNetRules()
	cp := orig.Copy()
	cp.Names.BaseFees[0] = 1
	require.Equal(t, 1_000_000*MARIOPerARIO, orig.Names.BaseFees[0])
}

func TestStringRoundTrip(t *testing.T) {
	require := require.New(t)

	orig := DevNetRules()
	parsed, err := ParseRules(orig.String())
	require.NoError(err)
	require.Equal(orig, parsed)
	require.Contains(orig.String(), `"Name":"dev"`)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Rules){
		"supply":   func(r *Rules) { r.TotalSupply = 0 },
		"duration": func(r *Rules) { r.Epochs.Duration = 0 },
		"steps":    func(r *Rules) { r.Epochs.MaxTickSteps = 0 },
		"fees":     func(r *Rules) { r.Names.BaseFees = r.Names.BaseFees[:3] },
		"demand":   func(r *Rules) { r.Demand.Min = 0 },
		"ratio":    func(r *Rules) { r.Gateways.MaxDelegateRewardShareRatio = 101 },
		"shares":   func(r *Rules) { r.Rewards.GatewayShare = r.Rewards.GatewayShare * 2 },
		"vaults":   func(r *Rules) { r.Vaults.MinLockLength = r.Vaults.MaxLockLength + 1 },
	} {
		t.Run(name, func(t *testing.T) {
			r := MainNetRules()
			mutate(&r)
			require.Error(t, r.Validate())
		})
	}
}

func TestFormatTokens(t *testing.T) {
	require := require.New(t)

	require.Equal("10000", FormatTokens(10_000*MARIOPerARIO))
	require.Equal("0.000001", FormatTokens(1))
	require.Equal("1000000000", FormatTokens(DefaultTotalSupply))

	v, err := ParseTokens("10.5")
	require.NoError(err)
	require.Equal(uint64(10_500_000), v)

	_, err = ParseTokens("-1")
	require.Error(err)
	_, err = ParseTokens("abc")
	require.Error(err)
}
