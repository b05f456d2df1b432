package state

// Supply is the breakdown of the total supply by where tokens are held.
type Supply struct {
	Total           uint64 `json:"total"`
	Circulating     uint64 `json:"circulating"`
	Locked          uint64 `json:"locked"`
	Staked          uint64 `json:"staked"`
	Delegated       uint64 `json:"delegated"`
	Withdrawn       uint64 `json:"withdrawn"`
	ProtocolBalance uint64 `json:"protocolBalance"`
}

// Held sums every holding category.
func (s Supply) Held() uint64 {
	return s.Circulating + s.Locked + s.Staked + s.Delegated + s.Withdrawn + s.ProtocolBalance
}

// Supply computes the breakdown. Circulating is every spendable balance but
// the protocol reserve.
func (s *State) Supply() Supply {
	protocol := s.ProtocolBalance()
	stakes := s.Gateways.Totals()
	return Supply{
		Total:           s.Rules.TotalSupply,
		Circulating:     s.Ledger.Sum() - protocol,
		Locked:          s.Vaults.Sum(),
		Staked:          stakes.OperatorStake,
		Delegated:       stakes.DelegatedStake,
		Withdrawn:       stakes.Withdrawn,
		ProtocolBalance: protocol,
	}
}
