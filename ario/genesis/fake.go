package genesis

import (
	"encoding/base64"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/names"
)

// FakeGenesisTime is the start of every fake allocation (2024-01-01T00:00:00Z).
var FakeGenesisTime = inter.Timestamp(1704067200000)

const (
	// FakeProtocolBalance is the reserve a fake genesis funds (65M ARIO).
	FakeProtocolBalance = 65_000_000 * ario.MARIOPerARIO
	fakeSpendable       = 1_000 * ario.MARIOPerARIO
	fakeVaultCount      = 2
)

// FakeAddress derives a deterministic 43 character Arweave style address from seed.
func FakeAddress(seed string) string {
	return base64.RawURLEncoding.EncodeToString(hash.Of([]byte(seed)).Bytes())
}

// FakeName is the i-th generated record name.
func FakeName(i int) string {
	return fmt.Sprintf("fake-name-%04d", i)
}

// FakeGenesis builds a development genesis with gatewayCount joined gateways
// staked at the minimum and recordCount names, alternating permabuys and
// leases. The first record owner holds a primary name. Whatever remains of
// the total supply is credited to owner.
func FakeGenesis(rules ario.Rules, owner string, gatewayCount, recordCount int) *Genesis {
	g := &Genesis{
		Network:         rules.Name,
		ProtocolBalance: FakeProtocolBalance,
	}

	for i := 0; i < gatewayCount; i++ {
		op := FakeAddress(fmt.Sprintf("gateway/%d", i))
		g.Gateways = append(g.Gateways, Gateway{
			Operator:        op,
			ObserverAddress: FakeAddress(fmt.Sprintf("observer/%d", i)),
			OperatorStake:   rules.Gateways.MinOperatorStake,
			FQDN:            fmt.Sprintf("gateway-%d.ar-io.dev", i),
			Label:           fmt.Sprintf("Gateway %d", i),
			Port:            443,
			StartTimestamp:  FakeGenesisTime,
			AutoStake:       true,
			AllowDelegation: i%2 == 0,
		})
		g.Balances = append(g.Balances, Balance{Address: op, Amount: fakeSpendable})
	}

	for i := 0; i < recordCount; i++ {
		r := Record{
			Name:           FakeName(i),
			Owner:          FakeAddress(fmt.Sprintf("owner/%d", i)),
			ProcessID:      FakeAddress(fmt.Sprintf("ant/%d", i)),
			Type:           string(names.Permabuy),
			PurchasePrice:  rules.Names.BaseFees[len(FakeName(i))-1],
			UndernameLimit: rules.Names.DefaultUndernameLimit,
			StartTimestamp: FakeGenesisTime,
		}
		if i%2 == 1 {
			r.Type = string(names.Lease)
			r.EndTimestamp = FakeGenesisTime + 2*inter.Year
		}
		g.Records = append(g.Records, r)
		if i == 0 {
			g.PrimaryNames = append(g.PrimaryNames, PrimaryName{Owner: r.Owner, Name: r.Name, StartTimestamp: FakeGenesisTime})
		}
	}

	for i := 0; i < fakeVaultCount; i++ {
		g.Vaults = append(g.Vaults, Vault{
			ID:             FakeAddress(fmt.Sprintf("vault/%d", i)),
			Owner:          FakeAddress(fmt.Sprintf("holder/%d", i)),
			Amount:         fakeSpendable,
			StartTimestamp: FakeGenesisTime,
			EndTimestamp:   FakeGenesisTime + inter.Year,
		})
	}

	allocated := g.Allocated()
	if allocated > rules.TotalSupply {
		panic(fmt.Sprintf("fake genesis allocates %d of %d", allocated, rules.TotalSupply))
	}
	if rest := rules.TotalSupply - allocated; rest > 0 {
		g.Balances = append(g.Balances, Balance{Address: owner, Amount: rest})
	}
	return g
}
