// Package ario defines the network rules of the ARIO process: every policy
// constant consulted by the ledger, the registries and the epoch scheduler.
//
// Rules are part of the process snapshot, so a replica replaying the same
// messages from the same snapshot uses exactly the same policy.
package ario

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

const (
	// MARIOPerARIO is the number of base units in one token.
	MARIOPerARIO uint64 = 1_000_000

	// DefaultTotalSupply is one billion tokens.
	DefaultTotalSupply = 1_000_000_000 * MARIOPerARIO

	// MainNetGenesisTimestamp is the start of epoch zero on mainnet (2025-03-04T12:00:00Z).
	MainNetGenesisTimestamp inter.Timestamp = 1741176000000
)

// Rules is the full policy of a process instance.
type Rules struct {
	Name        string
	TotalSupply uint64

	Ledger   LedgerRules
	Vaults   VaultsRules
	Names    NamesRules
	Demand   DemandRules
	Gateways GatewaysRules
	Epochs   EpochsRules
	Rewards  RewardsRules
}

// LedgerRules controls address handling.
type LedgerRules struct {
	// AllowUnsafeAddresses accepts any non-empty recipient, not only Arweave and Ethereum addresses.
	AllowUnsafeAddresses bool
}

// VaultsRules bounds the lock length of balance vaults.
type VaultsRules struct {
	MinLockLength inter.Timestamp
	MaxLockLength inter.Timestamp
}

// NamesRules is the pricing and lifetime policy of name records.
type NamesRules struct {
	MaxNameLength int
	MinLeaseYears uint32
	MaxLeaseYears uint32

	DefaultUndernameLimit uint32
	MaxUndernameLimit     uint32

	// AnnualFee is charged per lease year on top of the base fee.
	AnnualFee fixed.Ratio
	// PermabuyYears is the number of annual fees a permanent purchase costs.
	PermabuyYears uint64
	// UndernameLeaseFee is charged per undername per remaining lease year.
	UndernameLeaseFee fixed.Ratio
	// UndernamePermabuyFee is charged per undername for permanent records.
	UndernamePermabuyFee fixed.Ratio

	// GracePeriod keeps an expired lease reserved for its owner.
	GracePeriod inter.Timestamp

	// BaseFees holds the genesis fee per name length; BaseFees[i] prices names of length i+1.
	BaseFees []uint64
}

// DemandRules parameterizes the demand factor engine.
type DemandRules struct {
	Base              fixed.Ratio
	Min               fixed.Ratio
	Up                fixed.Ratio
	Down              fixed.Ratio
	MovingAvgPeriods  uint32
	StepDownThreshold uint32
	FeeStepDown       fixed.Ratio
}

// GatewaysRules is the staking policy of gateways and their delegates.
type GatewaysRules struct {
	MinOperatorStake            uint64
	MinDelegatedStake           uint64
	MaxDelegateRewardShareRatio uint32
	MaxDelegates                uint32

	LeaveLength    inter.Timestamp
	WithdrawLength inter.Timestamp

	// Instant withdrawals pay a penalty decaying linearly from Max to Min over WithdrawLength.
	MinInstantWithdrawPenalty fixed.Ratio
	MaxInstantWithdrawPenalty fixed.Ratio

	TenurePeriod    inter.Timestamp
	MaxTenureWeight uint64

	Protocol         string
	MaxLabelLength   int
	MaxNoteLength    int
	MaxPropertiesLen int
	MaxFQDNLength    int
	UniqueFQDN       bool
}

// EpochsRules is the schedule of epochs and observation duties.
type EpochsRules struct {
	// GenesisTimestamp is the start of epoch zero; zero starts it at the first tick.
	GenesisTimestamp inter.Timestamp
	Duration         inter.Timestamp

	PrescribedObservers uint32
	PrescribedNames     uint32
	RetainedEpochs      uint32
	// MaxTickSteps bounds the creations and distributions of one tick; a
	// later tick resumes where it stopped.
	MaxTickSteps uint32
}

// RewardsRules is the distribution policy applied when an epoch closes.
type RewardsRules struct {
	// Rate is the share of the protocol balance distributed per epoch.
	Rate          fixed.Ratio
	GatewayShare  fixed.Ratio
	ObserverShare fixed.Ratio
	// MissedReportPenalty is withheld from gateway rewards of observers that did not report.
	MissedReportPenalty    fixed.Ratio
	MaxConsecutiveFailures uint32
}

// MainNetRules returns the production policy.
func MainNetRules() Rules {
	return Rules{
		Name:        "main",
		TotalSupply: DefaultTotalSupply,
		Vaults:      DefaultVaultsRules(),
		Names:       DefaultNamesRules(),
		Demand:      DefaultDemandRules(),
		Gateways:    DefaultGatewaysRules(),
		Epochs: EpochsRules{
			GenesisTimestamp:    MainNetGenesisTimestamp,
			Duration:            inter.Day,
			PrescribedObservers: 50,
			PrescribedNames:     2,
			RetainedEpochs:      14,
			MaxTickSteps:        512,
		},
		Rewards: DefaultRewardsRules(),
	}
}

// TestNetRules mirrors mainnet but accepts any recipient string.
func TestNetRules() Rules {
	r := MainNetRules()
	r.Name = "test"
	r.Ledger.AllowUnsafeAddresses = true
	return r
}

// DevNetRules starts epoch zero at the first tick and relaxes the gateway minimums.
func DevNetRules() Rules {
	r := MainNetRules()
	r.Name = "dev"
	r.Ledger.AllowUnsafeAddresses = true
	r.Epochs.GenesisTimestamp = 0
	r.Epochs.RetainedEpochs = 7
	r.Gateways.LeaveLength = 7 * inter.Day
	r.Gateways.WithdrawLength = 7 * inter.Day
	return r
}

func DefaultVaultsRules() VaultsRules {
	return VaultsRules{
		MinLockLength: 14 * inter.Day,
		MaxLockLength: 12 * inter.Year,
	}
}

func DefaultNamesRules() NamesRules {
	return NamesRules{
		MaxNameLength:         51,
		MinLeaseYears:         1,
		MaxLeaseYears:         5,
		DefaultUndernameLimit: 10,
		MaxUndernameLimit:     10_000,
		AnnualFee:             fixed.Percent(20),
		PermabuyYears:         20,
		UndernameLeaseFee:     fixed.Ratio(1_000),
		UndernamePermabuyFee:  fixed.Ratio(5_000),
		GracePeriod:           0,
		BaseFees:              DefaultBaseFees(),
	}
}

// DefaultBaseFees prices names by length, in mARIO.
func DefaultBaseFees() []uint64 {
	short := []uint64{1_000_000, 200_000, 20_000, 10_000, 2_500, 1_500, 800, 500, 400, 350, 300, 250}
	fees := make([]uint64, 51)
	for i := range fees {
		ario := uint64(200)
		if i < len(short) {
			ario = short[i]
		}
		fees[i] = ario * MARIOPerARIO
	}
	return fees
}

func DefaultDemandRules() DemandRules {
	return DemandRules{
		Base:              fixed.One,
		Min:               fixed.Ratio(500_000),
		Up:                fixed.Ratio(50_000),
		Down:              fixed.Ratio(15_000),
		MovingAvgPeriods:  7,
		StepDownThreshold: 3,
		FeeStepDown:       fixed.Percent(50),
	}
}

func DefaultGatewaysRules() GatewaysRules {
	return GatewaysRules{
		MinOperatorStake:            10_000 * MARIOPerARIO,
		MinDelegatedStake:           10 * MARIOPerARIO,
		MaxDelegateRewardShareRatio: 100,
		MaxDelegates:                10_000,
		LeaveLength:                 90 * inter.Day,
		WithdrawLength:              90 * inter.Day,
		MinInstantWithdrawPenalty:   fixed.Percent(10),
		MaxInstantWithdrawPenalty:   fixed.Percent(50),
		TenurePeriod:                180 * inter.Day,
		MaxTenureWeight:             4,
		Protocol:                    "https",
		MaxLabelLength:              64,
		MaxNoteLength:               256,
		MaxPropertiesLen:            64,
		MaxFQDNLength:               255,
		UniqueFQDN:                  true,
	}
}

func DefaultRewardsRules() RewardsRules {
	return RewardsRules{
		Rate:                   fixed.Ratio(1_000),
		GatewayShare:           fixed.Percent(90),
		ObserverShare:          fixed.Percent(10),
		MissedReportPenalty:    fixed.Percent(25),
		MaxConsecutiveFailures: 30,
	}
}

// RulesByName returns the preset rules for main, test or dev.
func RulesByName(name string) (Rules, bool) {
	switch name {
	case "main", "mainnet":
		return MainNetRules(), true
	case "test", "testnet":
		return TestNetRules(), true
	case "dev", "devnet", "fake", "fakenet":
		return DevNetRules(), true
	}
	return Rules{}, false
}

// Copy returns a deep copy.
func (r Rules) Copy() Rules {
	cp := r
	cp.Names.BaseFees = append([]uint64(nil), r.Names.BaseFees...)
	return cp
}

// String returns the JSON form of the rules.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}

// ParseRules decodes rules produced by String.
func ParseRules(s string) (Rules, error) {
	var r Rules
	err := json.Unmarshal([]byte(s), &r)
	return r, err
}

// Validate checks the internal consistency of the rules.
func (r Rules) Validate() error {
	switch {
	case r.TotalSupply == 0:
		return errors.New("total supply must be positive")
	case r.Epochs.Duration == 0:
		return errors.New("epoch duration must be positive")
	case r.Epochs.MaxTickSteps == 0:
		return errors.New("max tick steps must be positive")
	case r.Vaults.MinLockLength > r.Vaults.MaxLockLength:
		return errors.New("vault min lock length exceeds max lock length")
	case r.Names.MaxNameLength <= 0 || len(r.Names.BaseFees) != r.Names.MaxNameLength:
		return fmt.Errorf("expected %d base fees, got %d", r.Names.MaxNameLength, len(r.Names.BaseFees))
	case r.Names.MinLeaseYears == 0 || r.Names.MinLeaseYears > r.Names.MaxLeaseYears:
		return errors.New("invalid lease year bounds")
	case r.Demand.Min == 0 || r.Demand.Min > r.Demand.Base:
		return errors.New("demand factor minimum must be positive and not above base")
	case r.Demand.MovingAvgPeriods == 0:
		return errors.New("moving average needs at least one period")
	case r.Gateways.MinOperatorStake == 0:
		return errors.New("minimum operator stake must be positive")
	case r.Gateways.MaxDelegateRewardShareRatio > 100:
		return errors.New("delegate reward share ratio cannot exceed 100")
	case r.Gateways.MinInstantWithdrawPenalty > r.Gateways.MaxInstantWithdrawPenalty:
		return errors.New("instant withdrawal penalty bounds are inverted")
	case r.Rewards.GatewayShare+r.Rewards.ObserverShare > fixed.One:
		return errors.New("reward shares exceed one")
	}
	return nil
}
