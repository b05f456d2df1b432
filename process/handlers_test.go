package process

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/ario/genesis"
	"github.com/rony4d/go-ario/epochs"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/ledger"
	"github.com/rony4d/go-ario/names"
)

type page struct {
	Items      []json.RawMessage
	Limit      int
	TotalItems int
	SortBy     string
	SortOrder  string
	HasMore    bool
	NextCursor string
}

func reply(t *testing.T, res Result, action string, v interface{}) *inter.Notice {
	n := find(res, action+"-Notice")
	require.NotNil(t, n, "no %s-Notice in %v", action, res.Messages)
	if v != nil {
		decode(t, n, v)
	}
	return n
}

func requireRejected(t *testing.T, res Result, action string, cause error) {
	require.Len(t, res.Messages, 1)
	n := res.Messages[0]
	require.Equal(t, "Invalid-"+action+"-Notice", n.Tags.Value("Action"))
	require.Equal(t, cause.Error(), n.Tags.Value("Error"))
	require.Contains(t, res.Output, `"Error": `)
}

func TestInfo(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	var i info
	n := reply(t, p.Apply(message(ActionInfo)), ActionInfo, &i)
	require.Equal("ARIO", i.Name)
	require.Equal("ARIO", n.Tags.Value("Ticker"))
	require.Equal(owner, i.Owner)
	require.Contains(i.Handlers, ActionTransfer)
	require.Len(i.Handlers, len(routes))
	require.Nil(i.LastCreatedEpochIndex)
}

func TestSupplyReads(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)

	n := reply(t, p.Apply(message(ActionTotalSupply)), ActionTotalSupply, nil)
	require.Equal("1000000000000000", n.Data)

	var supply struct {
		Total           uint64 `json:"total"`
		ProtocolBalance uint64 `json:"protocolBalance"`
		Circulating     uint64 `json:"circulating"`
		Staked          uint64 `json:"staked"`
		Locked          uint64 `json:"locked"`
	}
	reply(t, p.Apply(message(ActionTotalTokenSupply)), ActionTotalTokenSupply, &supply)
	require.Equal(uint64(1_000_000_000_000_000), supply.Total)
	require.Equal(uint64(65_000_000_000_000), supply.ProtocolBalance)
	require.Equal(60*ario.DefaultGatewaysRules().MinOperatorStake, supply.Staked)
	require.Equal(uint64(2_000*ario.MARIOPerARIO), supply.Locked)

	var balances map[string]uint64
	reply(t, p.Apply(message(ActionBalances)), ActionBalances, &balances)
	require.Equal(genesis.FakeProtocolBalance, balances["AOS"])
	require.Equal(supply.Circulating+supply.ProtocolBalance, sum(balances))
}

func sum(m map[string]uint64) uint64 {
	var s uint64
	for _, v := range m {
		s += v
	}
	return s
}

func TestTransfer(t *testing.T) {
	for _, recipient := range []string{ethAddress, arweaveAddr} {
		recipient := recipient
		t.Run(recipient, func(t *testing.T) {
			require := require.New(t)
			p := newTestProcess(t)
			res := p.Apply(message(ActionTransfer, tag("Recipient", recipient), tag("Quantity", "1000000")))
			require.Len(res.Messages, 2)
			require.Equal("Debit-Notice", res.Messages[0].Tags.Value("Action"))
			require.Equal(owner, res.Messages[0].Target)
			require.Equal("Credit-Notice", res.Messages[1].Tags.Value("Action"))
			require.Equal(inter.FormatAddress(recipient), res.Messages[1].Target)

			n := reply(t, p.Apply(message(ActionBalance, tag("Address", recipient))), ActionBalance, nil)
			require.Equal("1000000", n.Tags.Value("Balance"))
			require.Equal("1000000", n.Data)
		})
	}

	t.Run("cast", func(t *testing.T) {
		res := newTestProcess(t).Apply(message(ActionTransfer, tag("Recipient", arweaveAddr), tag("Quantity", "1"), tag("Cast", "true")))
		require.Len(t, res.Messages, 1)
		require.Equal(t, "Credit-Notice", res.Messages[0].Tags.Value("Action"))
	})

	for name, tc := range map[string]struct {
		from  string
		tags  inter.Tags
		cause error
	}{
		"no recipient": {owner, inter.Tags{tag("Quantity", "1")}, ErrMissingTag},
		"bad address":  {owner, inter.Tags{tag("Recipient", "nope"), tag("Quantity", "1")}, ErrInvalidTag},
		"zero":         {owner, inter.Tags{tag("Recipient", arweaveAddr), tag("Quantity", "0")}, ErrInvalidTag},
		"fractional":   {owner, inter.Tags{tag("Recipient", arweaveAddr), tag("Quantity", "1.5")}, ErrInvalidTag},
		"broke":        {ethAddress, inter.Tags{tag("Recipient", arweaveAddr), tag("Quantity", "1")}, ledger.ErrInsufficientBalance},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			p := newTestProcess(t)
			before := p.State().Hash()
			res := p.Apply(from(message(ActionTransfer, tc.tags...), tc.from))
			requireRejected(t, res, ActionTransfer, tc.cause)
			require.Equal(t, before, p.State().Hash())
		})
	}
}

func TestPaginatedReads(t *testing.T) {
	p := newTestProcess(t)
	for action, total := range map[string]int{
		ActionGateways:     60,
		ActionRecords:      10,
		ActionVaults:       2,
		ActionPrimaryNames: 1,
	} {
		var pg page
		reply(t, p.Apply(message(action)), action, &pg)
		require.Equal(t, total, pg.TotalItems, action)
		require.Len(t, pg.Items, total, action)
		require.False(t, pg.HasMore, action)
		require.Equal(t, 100, pg.Limit, action)
	}
}

func TestGatewaysPagination(t *testing.T) {
	p := newTestProcess(t)
	for _, order := range []string{"asc", "desc"} {
		t.Run(order, func(t *testing.T) {
			require := require.New(t)
			var seen []string
			cursor := ""
			for pages := 0; ; pages++ {
				require.Less(pages, 4)
				tags := inter.Tags{tag("Limit", "25"), tag("Sort-Order", order)}
				if cursor != "" {
					tags = append(tags, tag("Cursor", cursor))
				}
				var pg page
				reply(t, p.Apply(message(ActionGateways, tags...)), ActionGateways, &pg)
				require.Equal(60, pg.TotalItems)
				require.Equal("gatewayAddress", pg.SortBy)
				for _, raw := range pg.Items {
					var g struct {
						GatewayAddress string `json:"gatewayAddress"`
					}
					require.NoError(json.Unmarshal(raw, &g))
					seen = append(seen, g.GatewayAddress)
				}
				if !pg.HasMore {
					break
				}
				cursor = pg.NextCursor
			}
			require.Len(seen, 60)
			for i := 1; i < len(seen); i++ {
				if order == "asc" {
					require.Less(seen[i-1], seen[i])
				} else {
					require.Greater(seen[i-1], seen[i])
				}
			}
		})
	}

	res := p.Apply(message(ActionGateways, tag("Sort-Order", "sideways")))
	require.Len(t, res.Messages, 1)
	require.Equal(t, "Invalid-Gateways-Notice", res.Messages[0].Tags.Value("Action"))
}

func TestNames(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)

	cost := reply(t, p.Apply(message(ActionTokenCost, tag("Intent", "Buy-Name"), tag("Name", "test-arns-name"))), ActionTokenCost, nil)

	var rec names.Record
	res := p.Apply(message(ActionBuyName, tag("Name", "test-arns-name"), tag("Process-Id", arweaveAddr)))
	reply(t, res, ActionBuyName, &rec)
	require.Equal(names.Lease, rec.Type)
	require.Equal(owner, rec.Owner)
	require.Equal(arweaveAddr, rec.ProcessID)
	require.Equal(cost.Tags.Value("Token-Cost"), strconv.FormatUint(rec.PurchasePrice, 10))
	require.NotZero(rec.PurchasePrice)
	require.Equal(uint32(10), rec.UndernameLimit)
	require.Equal(defaultTs+inter.Year, rec.EndTimestamp)

	var got names.Record
	reply(t, p.Apply(message(ActionRecord, tag("Name", "test-arns-name"))), ActionRecord, &got)
	require.Equal(rec, got)

	requireRejected(t, p.Apply(message(ActionBuyName, tag("Name", "test-arns-name"), tag("Process-Id", arweaveAddr))), ActionBuyName, names.ErrNameUnavailable)

	var extended struct {
		names.Record
		Cost uint64 `json:"cost"`
	}
	reply(t, p.Apply(message(ActionExtendLease, tag("Name", "test-arns-name"), tag("Years", "2"))), ActionExtendLease, &extended)
	require.Equal(defaultTs+3*inter.Year, extended.EndTimestamp)
	require.NotZero(extended.Cost)

	var upgraded names.Record
	reply(t, p.Apply(message(ActionUpgradeName, tag("Name", "test-arns-name"))), ActionUpgradeName, &upgraded)
	require.Equal(names.Permabuy, upgraded.Type)
	require.Zero(upgraded.EndTimestamp)

	var pg page
	reply(t, p.Apply(message(ActionRecords)), ActionRecords, &pg)
	require.Equal(11, pg.TotalItems)
	require.NoError(p.State().CheckInvariants())
}

func TestCreateVault(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	lock := 14 * inter.Day
	var v struct {
		ID             string          `json:"vaultId"`
		Balance        uint64          `json:"balance"`
		StartTimestamp inter.Timestamp `json:"startTimestamp"`
		EndTimestamp   inter.Timestamp `json:"endTimestamp"`
	}
	m := message(ActionCreateVault, tag("Lock-Length", strconv.FormatUint(uint64(lock), 10)), tag("Quantity", "1000000000000"))
	reply(t, p.Apply(m), ActionCreateVault, &v)
	require.Equal(m.ID, v.ID)
	require.Equal(uint64(1_000_000_000_000), v.Balance)
	require.Equal(defaultTs, v.StartTimestamp)
	require.Equal(v.StartTimestamp+lock, v.EndTimestamp)

	var pg page
	reply(t, p.Apply(message(ActionVaults)), ActionVaults, &pg)
	require.Equal(3, pg.TotalItems)

	res := p.Apply(message(ActionCreateVault, tag("Lock-Length", "1000"), tag("Quantity", "1")))
	require.Equal("Invalid-Create-Vault-Notice", res.Messages[0].Tags.Value("Action"))
}

func TestJoinNetwork(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	join := message(ActionJoinNetwork,
		tag("Observer-Address", ethAddress),
		tag("Label", "test-label"),
		tag("Note", "test-note"),
		tag("FQDN", "test-fqdn"),
		tag("Operator-Stake", "10000000000"),
		tag("Port", "443"),
		tag("Protocol", "https"),
		tag("Allow-Delegated-Staking", "true"),
		tag("Min-Delegated-Stake", "100000000"),
		tag("Delegate-Reward-Share-Ratio", "25"),
		tag("Properties", "FH1aVetOoulPGqgYukj0VE0wIhDy90WiQoV3U2PeY44"),
		tag("Auto-Stake", "true"),
	)
	var g map[string]interface{}
	reply(t, p.Apply(join), ActionJoinNetwork, &g)
	require.Equal(owner, g["gatewayAddress"])
	require.Equal(inter.FormatAddress(ethAddress), g["observerAddress"])
	require.Equal(float64(10_000_000_000), g["operatorStake"])
	require.Equal("joined", g["status"])
	require.Equal([]interface{}{}, g["delegates"])
	for k, w := range g["weights"].(map[string]interface{}) {
		require.Equal(float64(0), w, k)
	}
	settings := g["settings"].(map[string]interface{})
	require.Equal(true, settings["autoStake"])
	require.Equal(true, settings["allowDelegatedStaking"])
	require.Equal(float64(25), settings["delegateRewardShareRatio"])
	require.Equal("test-fqdn", settings["fqdn"])

	var pg page
	reply(t, p.Apply(message(ActionGateways)), ActionGateways, &pg)
	require.Equal(61, pg.TotalItems)

	requireRejected(t, p.Apply(join), ActionJoinNetwork, gateways.ErrGatewayExists)

	var updated gateways.Gateway
	reply(t, p.Apply(message(ActionUpdateGatewaySettings, tag("Label", "renamed"), tag("Port", "8443"))), ActionUpdateGatewaySettings, &updated)
	require.Equal("renamed", updated.Settings.Label)
	require.Equal(8443, updated.Settings.Port)
	require.Equal("test-note", updated.Settings.Note)
	require.Equal(uint32(25), updated.Settings.DelegateRewardShareRatio)
	require.Equal(inter.FormatAddress(ethAddress), updated.ObserverAddress)

	var left gateways.Gateway
	reply(t, p.Apply(message(ActionLeaveNetwork)), ActionLeaveNetwork, &left)
	require.Equal(gateways.Leaving, left.Status)
	require.Zero(left.OperatorStake)
	require.NoError(p.State().CheckInvariants())
}

func TestDelegation(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	gw := genesis.FakeAddress("gateway/0")
	qty := strconv.FormatUint(ario.DefaultGatewaysRules().MinDelegatedStake, 10)

	var d gateways.Delegate
	reply(t, p.Apply(message(ActionDelegateStake, tag("Target", gw), tag("Quantity", qty))), ActionDelegateStake, &d)
	require.Equal(owner, d.Address)
	require.Equal(ario.DefaultGatewaysRules().MinDelegatedStake, d.DelegatedStake)

	var pg page
	reply(t, p.Apply(message(ActionDelegations)), ActionDelegations, &pg)
	require.Equal(1, pg.TotalItems)

	odd := genesis.FakeAddress("gateway/1")
	requireRejected(t, p.Apply(message(ActionDelegateStake, tag("Target", odd), tag("Quantity", qty))), ActionDelegateStake, gateways.ErrDelegationDisabled)

	decrease := message(ActionDecreaseDelegateStake, tag("Target", gw), tag("Quantity", qty))
	var w gateways.Withdrawal
	reply(t, p.Apply(decrease), ActionDecreaseDelegateStake, &w)
	require.Equal(decrease.ID, w.VaultID)
	require.NotNil(w.Vault)
	require.Equal(defaultTs+ario.DefaultGatewaysRules().WithdrawLength, w.Vault.EndTimestamp)

	var restored gateways.Gateway
	reply(t, p.Apply(message(ActionCancelWithdrawal, tag("Target", gw), tag("Vault-Id", decrease.ID))), ActionCancelWithdrawal, &restored)
	require.Equal(ario.DefaultGatewaysRules().MinDelegatedStake, restored.TotalDelegatedStake)

	before := p.State().Ledger.Balance(owner)
	reply(t, p.Apply(message(ActionDecreaseDelegateStake, tag("Target", gw), tag("Quantity", qty), tag("Instant", "true"))), ActionDecreaseDelegateStake, &w)
	require.Equal(ario.DefaultGatewaysRules().MaxInstantWithdrawPenalty.Of(w.Amount), w.Penalty)
	require.Equal(before+w.Amount-w.Penalty, p.State().Ledger.Balance(owner))

	reply(t, p.Apply(message(ActionDelegations)), ActionDelegations, &pg)
	require.Zero(pg.TotalItems)
	require.NoError(p.State().CheckInvariants())
}

func TestOperatorStake(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	op := genesis.FakeAddress("gateway/1")
	minStake := ario.DefaultGatewaysRules().MinOperatorStake
	extra := uint64(1_000 * ario.MARIOPerARIO)
	qty := strconv.FormatUint(extra, 10)

	var g gateways.Gateway
	reply(t, p.Apply(from(message(ActionIncreaseOperatorStake, tag("Quantity", qty)), op)), ActionIncreaseOperatorStake, &g)
	require.Equal(minStake+extra, g.OperatorStake)
	require.Zero(p.State().Ledger.Balance(op))

	requireRejected(t, p.Apply(from(message(ActionDecreaseOperatorStake, tag("Quantity", strconv.FormatUint(extra+1, 10))), op)), ActionDecreaseOperatorStake, gateways.ErrInsufficientStake)

	decrease := from(message(ActionDecreaseOperatorStake, tag("Quantity", qty)), op)
	var w gateways.Withdrawal
	reply(t, p.Apply(decrease), ActionDecreaseOperatorStake, &w)
	require.Equal(decrease.ID, w.VaultID)

	var instant gateways.Withdrawal
	reply(t, p.Apply(from(message(ActionInstantWithdrawal, tag("Target", op), tag("Vault-Id", decrease.ID)), op)), ActionInstantWithdrawal, &instant)
	require.Equal(extra, instant.Amount)
	require.NotZero(instant.Penalty)
	require.Equal(extra-instant.Penalty, p.State().Ledger.Balance(op))

	requireRejected(t, p.Apply(from(message(ActionInstantWithdrawal, tag("Target", op), tag("Vault-Id", decrease.ID)), op)), ActionInstantWithdrawal, gateways.ErrVaultNotFound)
	require.NoError(p.State().CheckInvariants())
}

func tickAt(ts inter.Timestamp) inter.Message {
	m := message(ActionTick)
	m.Timestamp, m.HashChain = ts, hashChainArg
	return m
}

func TestTickCreatesGenesisEpoch(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)

	requireRejected(t, p.Apply(message(ActionEpoch)), ActionEpoch, epochs.ErrNoEpoch)

	res := p.Apply(tickAt(genesisTs))
	require.NotEmpty(res.Messages)
	require.NotEmpty(res.Messages[0].Data)
	require.NotNil(find(res, "Demand-Factor-Updated-Notice"))

	var e struct {
		EpochIndex          uint32                     `json:"epochIndex"`
		StartTimestamp      inter.Timestamp            `json:"startTimestamp"`
		EndTimestamp        inter.Timestamp            `json:"endTimestamp"`
		PrescribedObservers map[string]json.RawMessage `json:"prescribedObservers"`
		PrescribedNames     []string                   `json:"prescribedNames"`
	}
	decode(t, find(res, "Epoch-Created-Notice"), &e)
	require.Zero(e.EpochIndex)
	require.Equal(genesisTs, e.StartTimestamp)
	require.Equal(genesisTs+24*inter.Hour, e.EndTimestamp)
	require.Len(e.PrescribedObservers, 50)
	require.Len(e.PrescribedNames, 2)

	var summary tickSummary
	reply(t, res, ActionTick, &summary)
	require.Len(summary.Ticked, 1)

	var observers []epochs.PrescribedObserver
	reply(t, p.Apply(message(ActionPrescribedObservers, tag("Epoch-Index", "0"))), ActionPrescribedObservers, &observers)
	require.Len(observers, 50)

	// Observations are accepted from prescribed observers only.
	report := message(ActionSaveObservations, tag("Report-Tx-Id", arweaveAddr), tag("Failed-Gateways", observers[1].GatewayAddress))
	report.Timestamp = genesisTs + inter.Hour
	var obs epochs.Observations
	reply(t, p.Apply(from(report, observers[0].ObserverAddress)), ActionSaveObservations, &obs)
	require.Equal(arweaveAddr, obs.Reports[observers[0].ObserverAddress])
	require.Equal([]string{observers[0].ObserverAddress}, obs.FailureSummaries[observers[1].GatewayAddress])

	report.Timestamp = genesisTs + inter.Hour
	requireRejected(t, p.Apply(report), ActionSaveObservations, epochs.ErrNotPrescribed)

	var i info
	reply(t, p.Apply(message(ActionInfo)), ActionInfo, &i)
	require.NotNil(i.LastCreatedEpochIndex)
	require.Zero(*i.LastCreatedEpochIndex)
}

func TestTickTwoHundredEpochs(t *testing.T) {
	require := require.New(t)
	p := newTestProcess(t)
	p.Apply(tickAt(genesisTs))

	res := p.Apply(tickAt(genesisTs + 200*inter.Day))
	require.NotEmpty(res.Messages[0].Data)

	var summary tickSummary
	reply(t, res, ActionTick, &summary)
	require.Len(summary.Ticked, 400)

	var created, distributed []uint32
	for _, n := range res.Messages {
		var e struct {
			EpochIndex uint32 `json:"epochIndex"`
		}
		switch n.Tags.Value("Action") {
		case "Epoch-Created-Notice":
			decode(t, &n, &e)
			created = append(created, e.EpochIndex)
		case "Epoch-Distribution-Notice":
			decode(t, &n, &e)
			distributed = append(distributed, e.EpochIndex)
		}
	}
	require.Len(created, 200)
	require.Len(distributed, 200)
	for i := range created {
		require.Equal(uint32(i+1), created[i])
		require.Equal(uint32(i), distributed[i])
	}

	n := reply(t, p.Apply(message(ActionTotalSupply)), ActionTotalSupply, nil)
	require.Equal("1000000000000000", n.Data)
	supply := p.State().Supply()
	require.Equal(supply.Total, supply.Held())
	require.Less(supply.ProtocolBalance, genesis.FakeProtocolBalance)

	var e epochs.Epoch
	reply(t, p.Apply(message(ActionEpoch, tag("Epoch-Index", "200"))), ActionEpoch, &e)
	require.EqualValues(200, e.Index)
	requireRejected(t, p.Apply(message(ActionEpoch, tag("Epoch-Index", "0"))), ActionEpoch, epochs.ErrEpochNotFound)
}
