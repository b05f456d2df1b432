package process

import (
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-ario/epochs"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/fixed"
)

// epoch resolves the Epoch-Index tag, or the epoch active at the message time.
func (c *call) epoch() (epochs.Epoch, error) {
	s := c.st.Epochs
	if v, ok := c.msg.Tags.Get("Epoch-Index"); ok {
		i, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return epochs.Epoch{}, malformed("Epoch-Index", v, nil)
		}
		e, ok := s.Get(idx.Epoch(i))
		if !ok {
			return epochs.Epoch{}, epochs.ErrEpochNotFound
		}
		return e, nil
	}
	e, ok := s.Current(c.now())
	if !ok {
		return epochs.Epoch{}, epochs.ErrNoEpoch
	}
	return *e.Copy(), nil
}

func epochTag(e epochs.Epoch) inter.Tag {
	return tag("Epoch-Index", strconv.FormatUint(uint64(e.Index), 10))
}

func handleEpoch(c *call) error {
	e, err := c.epoch()
	if err != nil {
		return err
	}
	return c.reply(e, epochTag(e))
}

type epochSettings struct {
	EpochZeroStartTimestamp inter.Timestamp `json:"epochZeroStartTimestamp"`
	DurationMs              inter.Timestamp `json:"durationMs"`
	MaxObservers            uint32          `json:"maxObservers"`
	PrescribedNameCount     uint32          `json:"prescribedNameCount"`
	RetainedEpochs          uint32          `json:"retainedEpochs"`
	RewardRate              fixed.Ratio     `json:"rewardPercentage"`
	GatewayShare            fixed.Ratio     `json:"gatewayRewardShare"`
	ObserverShare           fixed.Ratio     `json:"observerRewardShare"`
	MaxConsecutiveFailures  uint32          `json:"maxConsecutiveFailures"`
}

func handleEpochSettings(c *call) error {
	rules := c.st.Rules
	genesis := rules.Epochs.GenesisTimestamp
	if c.st.Epochs.Started {
		genesis = c.st.Epochs.Genesis
	}
	return c.reply(epochSettings{
		EpochZeroStartTimestamp: genesis,
		DurationMs:              rules.Epochs.Duration,
		MaxObservers:            rules.Epochs.PrescribedObservers,
		PrescribedNameCount:     rules.Epochs.PrescribedNames,
		RetainedEpochs:          rules.Epochs.RetainedEpochs,
		RewardRate:              rules.Rewards.Rate,
		GatewayShare:            rules.Rewards.GatewayShare,
		ObserverShare:           rules.Rewards.ObserverShare,
		MaxConsecutiveFailures:  rules.Rewards.MaxConsecutiveFailures,
	})
}

func handlePrescribedObservers(c *call) error {
	e, err := c.epoch()
	if err != nil {
		return err
	}
	out := make([]epochs.PrescribedObserver, 0, len(e.PrescribedObservers))
	for _, o := range e.Observers() {
		out = append(out, e.PrescribedObservers[o])
	}
	return c.reply(out, epochTag(e))
}

func handlePrescribedNames(c *call) error {
	e, err := c.epoch()
	if err != nil {
		return err
	}
	return c.reply(e.PrescribedNames, epochTag(e))
}

func handleDistributions(c *call) error {
	e, err := c.epoch()
	if err != nil {
		return err
	}
	return c.reply(e.Distributions, epochTag(e))
}

type observationRequest struct {
	ReportTxID string
	Failed     []string
}

func parseSaveObservations(c *call) (observationRequest, error) {
	var req observationRequest
	var err error
	if req.ReportTxID, err = c.requireTag("Report-Tx-Id"); err != nil {
		return req, err
	}
	for _, v := range c.list("Failed-Gateways") {
		addr, err := inter.ParseAddress(v, c.st.Rules.Ledger.AllowUnsafeAddresses)
		if err != nil {
			return req, malformed("Failed-Gateways", v, err)
		}
		req.Failed = append(req.Failed, addr)
	}
	return req, nil
}

func handleSaveObservations(c *call) error {
	req, err := parseSaveObservations(c)
	if err != nil {
		return err
	}
	obs, err := c.st.Epochs.SaveObservations(c.st.Gateways, inter.FormatAddress(c.msg.From), req.ReportTxID, req.Failed, c.now())
	if err != nil {
		return err
	}
	return c.reply(obs)
}

type pruned struct {
	Vaults   int                  `json:"vaults"`
	Names    []string             `json:"names,omitempty"`
	Gateways gateways.PruneResult `json:"gateways"`
}

type tickSummary struct {
	Ticked []idx.Epoch `json:"tickedEpochIndexes"`
	Pruned pruned      `json:"pruned"`
}

func handleTick(c *call) error {
	st := c.st
	hashChain := c.msg.HashChain
	if hashChain == "" {
		hashChain = c.msg.Tag("Hash-Chain")
	}
	res, err := st.Epochs.Tick(st.EpochDeps(), c.now(), c.msg.BlockHeight, hashChain, c.msg.ID)
	if err != nil {
		return err
	}
	for _, step := range res.Steps {
		if step.Demand != nil {
			if err := c.send(c.msg.From, "Demand-Factor-Updated-Notice", step.Demand); err != nil {
				return err
			}
		}
		if e := step.Created; e != nil {
			if err := c.send(c.msg.From, "Epoch-Created-Notice", e, epochTag(*e)); err != nil {
				return err
			}
		}
		if e := step.Distributed; e != nil {
			if err := c.send(c.msg.From, "Epoch-Distribution-Notice", e, epochTag(*e)); err != nil {
				return err
			}
			for _, op := range step.Left {
				if err := c.send(op, "Gateway-Forced-Leave-Notice", e.Distributions, tag("Gateway", op)); err != nil {
					return err
				}
			}
		}
	}

	var summary tickSummary
	summary.Ticked = res.Ticked
	released, err := st.Vaults.PruneExpired(st.Ledger, c.now())
	if err != nil {
		return err
	}
	summary.Pruned.Vaults = len(released)
	for _, r := range st.Names.PruneExpired(st.Rules.Names, c.now()) {
		summary.Pruned.Names = append(summary.Pruned.Names, r.Name)
	}
	if summary.Pruned.Gateways, err = st.Gateways.Prune(st.Ledger, c.now()); err != nil {
		return err
	}

	c.ticked = res.Ticked
	return c.reply(summary)
}
