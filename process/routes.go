package process

import "sort"

type access uint8

const (
	open access = iota
	ownerOnly
)

type handler func(c *call) error

type route struct {
	access  access
	mutates bool
	handle  handler
}

// Actions understood by the process. Anything else reaches the default handler.
const (
	ActionEval                   = "Eval"
	ActionInfo                   = "Info"
	ActionBalance                = "Balance"
	ActionBalances               = "Balances"
	ActionTotalSupply            = "Total-Supply"
	ActionTotalTokenSupply       = "Total-Token-Supply"
	ActionTransfer               = "Transfer"
	ActionVaults                 = "Vaults"
	ActionVault                  = "Vault"
	ActionCreateVault            = "Create-Vault"
	ActionVaultedTransfer        = "Vaulted-Transfer"
	ActionExtendVault            = "Extend-Vault"
	ActionIncreaseVault          = "Increase-Vault"
	ActionReleaseVault           = "Release-Vault"
	ActionRecords                = "Records"
	ActionRecord                 = "Record"
	ActionTokenCost              = "Token-Cost"
	ActionDemandFactor           = "Demand-Factor"
	ActionDemandFactorInfo       = "Demand-Factor-Info"
	ActionBuyName                = "Buy-Name"
	ActionExtendLease            = "Extend-Lease"
	ActionUpgradeName            = "Upgrade-Name"
	ActionIncreaseUndernameLimit = "Increase-Undername-Limit"
	ActionPrimaryNames           = "Primary-Names"
	ActionPrimaryName            = "Primary-Name"
	ActionSetPrimaryName         = "Set-Primary-Name"
	ActionRemovePrimaryNames     = "Remove-Primary-Names"
	ActionGateways               = "Gateways"
	ActionGateway                = "Gateway"
	ActionDelegations            = "Delegations"
	ActionJoinNetwork            = "Join-Network"
	ActionLeaveNetwork           = "Leave-Network"
	ActionUpdateGatewaySettings  = "Update-Gateway-Settings"
	ActionIncreaseOperatorStake  = "Increase-Operator-Stake"
	ActionDecreaseOperatorStake  = "Decrease-Operator-Stake"
	ActionDelegateStake          = "Delegate-Stake"
	ActionDecreaseDelegateStake  = "Decrease-Delegate-Stake"
	ActionCancelWithdrawal       = "Cancel-Withdrawal"
	ActionInstantWithdrawal      = "Instant-Withdrawal"
	ActionEpoch                  = "Epoch"
	ActionEpochSettings          = "Epoch-Settings"
	ActionPrescribedObservers    = "Prescribed-Observers"
	ActionPrescribedNames        = "Prescribed-Names"
	ActionDistributions          = "Distributions"
	ActionSaveObservations       = "Save-Observations"
	ActionTick                   = "Tick"
)

var routes = map[string]route{
	ActionEval: {access: ownerOnly, mutates: true, handle: handleEval},

	ActionInfo:             {handle: handleInfo},
	ActionBalance:          {handle: handleBalance},
	ActionBalances:         {handle: handleBalances},
	ActionTotalSupply:      {handle: handleTotalSupply},
	ActionTotalTokenSupply: {handle: handleTotalTokenSupply},
	ActionTransfer:         {mutates: true, handle: handleTransfer},

	ActionVaults:          {handle: handleVaults},
	ActionVault:           {handle: handleVault},
	ActionCreateVault:     {mutates: true, handle: handleCreateVault},
	ActionVaultedTransfer: {mutates: true, handle: handleVaultedTransfer},
	ActionExtendVault:     {mutates: true, handle: handleExtendVault},
	ActionIncreaseVault:   {mutates: true, handle: handleIncreaseVault},
	ActionReleaseVault:    {mutates: true, handle: handleReleaseVault},

	ActionRecords:                {handle: handleRecords},
	ActionRecord:                 {handle: handleRecord},
	ActionTokenCost:              {handle: handleTokenCost},
	ActionDemandFactor:           {handle: handleDemandFactor},
	ActionDemandFactorInfo:       {handle: handleDemandFactorInfo},
	ActionBuyName:                {mutates: true, handle: handleBuyName},
	ActionExtendLease:            {mutates: true, handle: handleExtendLease},
	ActionUpgradeName:            {mutates: true, handle: handleUpgradeName},
	ActionIncreaseUndernameLimit: {mutates: true, handle: handleIncreaseUndernameLimit},
	ActionPrimaryNames:           {handle: handlePrimaryNames},
	ActionPrimaryName:            {handle: handlePrimaryName},
	ActionSetPrimaryName:         {mutates: true, handle: handleSetPrimaryName},
	ActionRemovePrimaryNames:     {mutates: true, handle: handleRemovePrimaryNames},

	ActionGateways:              {handle: handleGateways},
	ActionGateway:               {handle: handleGateway},
	ActionDelegations:           {handle: handleDelegations},
	ActionJoinNetwork:           {mutates: true, handle: handleJoinNetwork},
	ActionLeaveNetwork:          {mutates: true, handle: handleLeaveNetwork},
	ActionUpdateGatewaySettings: {mutates: true, handle: handleUpdateGatewaySettings},
	ActionIncreaseOperatorStake: {mutates: true, handle: handleIncreaseOperatorStake},
	ActionDecreaseOperatorStake: {mutates: true, handle: handleDecreaseOperatorStake},
	ActionDelegateStake:         {mutates: true, handle: handleDelegateStake},
	ActionDecreaseDelegateStake: {mutates: true, handle: handleDecreaseDelegateStake},
	ActionCancelWithdrawal:      {mutates: true, handle: handleCancelWithdrawal},
	ActionInstantWithdrawal:     {mutates: true, handle: handleInstantWithdrawal},

	ActionEpoch:               {handle: handleEpoch},
	ActionEpochSettings:       {handle: handleEpochSettings},
	ActionPrescribedObservers: {handle: handlePrescribedObservers},
	ActionPrescribedNames:     {handle: handlePrescribedNames},
	ActionDistributions:       {handle: handleDistributions},
	ActionSaveObservations:    {mutates: true, handle: handleSaveObservations},
	ActionTick:                {mutates: true, handle: handleTick},
}

// handlerNames lists the routed actions in ascending order.
var handlerNames []string

func init() {
	for a := range routes {
		handlerNames = append(handlerNames, a)
	}
	sort.Strings(handlerNames)
}

// Actions returns every routed action in ascending order.
func Actions() []string {
	return append([]string(nil), handlerNames...)
}

// Mutates reports whether action may change the state.
func Mutates(action string) bool {
	return routes[action].mutates
}
