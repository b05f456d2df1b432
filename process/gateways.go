package process

import (
	"strconv"

	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
)

func handleGateways(c *call) error {
	all := c.st.Gateways.All()
	entries := make([]entry, len(all))
	for i, g := range all {
		entries[i] = entry{key: g.Operator, item: g}
	}
	return c.replyPage("gatewayAddress", entries)
}

func handleGateway(c *call) error {
	addr, err := c.addressOr(c.msg.From, "Address")
	if err != nil {
		return err
	}
	g, ok := c.st.Gateways.Get(addr)
	if !ok {
		return gateways.ErrGatewayNotFound
	}
	return c.reply(g)
}

func handleDelegations(c *call) error {
	addr, err := c.addressOr(c.msg.From, "Address")
	if err != nil {
		return err
	}
	all := c.st.Gateways.Delegations(addr)
	entries := make([]entry, len(all))
	for i, d := range all {
		entries[i] = entry{key: d.Key(), item: d}
	}
	return c.replyPage("gatewayAddress", entries)
}

// settings overlays the settings tags present on the message onto base.
func (c *call) settings(base gateways.Settings) (gateways.Settings, error) {
	s := base
	for name, dst := range map[string]*string{
		"FQDN":       &s.FQDN,
		"Label":      &s.Label,
		"Note":       &s.Note,
		"Properties": &s.Properties,
		"Protocol":   &s.Protocol,
	} {
		if v, ok := c.msg.Tags.Get(name); ok {
			*dst = v
		}
	}

	port, err := c.optionalUint("Port", uint64(s.Port))
	if err != nil {
		return s, err
	}
	if port > 65535 {
		return s, malformed("Port", c.msg.Tag("Port"), nil)
	}
	s.Port = int(port)
	if s.AllowDelegatedStaking, err = c.optionalBool("Allow-Delegated-Staking", s.AllowDelegatedStaking); err != nil {
		return s, err
	}
	if s.AutoStake, err = c.optionalBool("Auto-Stake", s.AutoStake); err != nil {
		return s, err
	}
	if s.MinDelegatedStake, err = c.optionalUint("Min-Delegated-Stake", s.MinDelegatedStake); err != nil {
		return s, err
	}
	if s.DelegateRewardShareRatio, err = c.optionalUint32("Delegate-Reward-Share-Ratio", s.DelegateRewardShareRatio); err != nil {
		return s, err
	}
	if _, ok := c.msg.Tags.Get("Allowed-Delegates"); ok {
		s.AllowedDelegates = nil
		for _, a := range c.list("Allowed-Delegates") {
			addr, err := inter.ParseAddress(a, c.st.Rules.Ledger.AllowUnsafeAddresses)
			if err != nil {
				return s, malformed("Allowed-Delegates", a, err)
			}
			s.AllowedDelegates = append(s.AllowedDelegates, addr)
		}
	}
	return s, nil
}

func parseJoinNetwork(c *call) (gateways.JoinRequest, error) {
	var req gateways.JoinRequest
	var err error
	if req.OperatorStake, err = c.quantity("Operator-Stake"); err != nil {
		return req, err
	}
	if req.ObserverAddress, err = c.addressOr(c.msg.From, "Observer-Address"); err != nil {
		return req, err
	}
	req.Settings, err = c.settings(gateways.DefaultSettings(c.st.Rules.Gateways))
	return req, err
}

func handleJoinNetwork(c *call) error {
	req, err := parseJoinNetwork(c)
	if err != nil {
		return err
	}
	g, err := c.st.Gateways.Join(c.st.Ledger, c.st.Rules.Gateways, inter.FormatAddress(c.msg.From), req, c.now())
	if err != nil {
		return err
	}
	return c.reply(g)
}

func handleLeaveNetwork(c *call) error {
	g, err := c.st.Gateways.Leave(c.st.Rules.Gateways, inter.FormatAddress(c.msg.From), c.msg.ID, c.now())
	if err != nil {
		return err
	}
	for _, d := range g.DelegateList() {
		if err := c.send(d.Address, "Gateway-Leaving-Notice", g, tag("Gateway", g.Operator)); err != nil {
			return err
		}
	}
	return c.reply(g)
}

func handleUpdateGatewaySettings(c *call) error {
	operator := inter.FormatAddress(c.msg.From)
	current, ok := c.st.Gateways.Get(operator)
	if !ok {
		return gateways.ErrGatewayNotFound
	}
	s, err := c.settings(current.Settings)
	if err != nil {
		return err
	}
	observer, err := c.addressOr(current.ObserverAddress, "Observer-Address")
	if err != nil {
		return err
	}
	g, err := c.st.Gateways.UpdateSettings(c.st.Rules.Gateways, operator, observer, s, c.msg.ID, c.now())
	if err != nil {
		return err
	}
	return c.reply(g)
}

func handleIncreaseOperatorStake(c *call) error {
	qty, err := c.quantity("Quantity")
	if err != nil {
		return err
	}
	g, err := c.st.Gateways.IncreaseOperatorStake(c.st.Ledger, inter.FormatAddress(c.msg.From), qty)
	if err != nil {
		return err
	}
	return c.reply(g)
}

type decreaseStakeRequest struct {
	Gateway  string
	Quantity uint64
	Instant  bool
}

func parseDecreaseStake(c *call, withGateway bool) (decreaseStakeRequest, error) {
	var req decreaseStakeRequest
	var err error
	if withGateway {
		if req.Gateway, err = c.gatewayTarget(); err != nil {
			return req, err
		}
	}
	if req.Quantity, err = c.quantity("Quantity"); err != nil {
		return req, err
	}
	req.Instant, err = c.optionalBool("Instant", false)
	return req, err
}

func (c *call) gatewayTarget() (string, error) {
	for _, name := range []string{"Target", "Address", "Gateway"} {
		if _, ok := c.msg.Tags.Get(name); ok {
			return c.address(name)
		}
	}
	return "", missing("Target")
}

func handleDecreaseOperatorStake(c *call) error {
	req, err := parseDecreaseStake(c, false)
	if err != nil {
		return err
	}
	st := c.st
	w, err := st.Gateways.DecreaseOperatorStake(st.Ledger, st.Rules.Gateways, c.protocol(), inter.FormatAddress(c.msg.From), req.Quantity, c.msg.ID, req.Instant, c.now())
	if err != nil {
		return err
	}
	return c.reply(w, tag("Penalty-Amount", strconv.FormatUint(w.Penalty, 10)))
}

func handleDelegateStake(c *call) error {
	operator, err := c.gatewayTarget()
	if err != nil {
		return err
	}
	qty, err := c.quantity("Quantity")
	if err != nil {
		return err
	}
	st := c.st
	delegator := inter.FormatAddress(c.msg.From)
	g, d, err := st.Gateways.DelegateStake(st.Ledger, st.Rules.Gateways, delegator, operator, qty, c.now())
	if err != nil {
		return err
	}
	if err := c.reply(d, tag("Gateway", g.Operator)); err != nil {
		return err
	}
	return c.send(g.Operator, "Delegate-Stake-Notice", d, tag("Delegator", delegator), tag("Quantity", strconv.FormatUint(qty, 10)))
}

func handleDecreaseDelegateStake(c *call) error {
	req, err := parseDecreaseStake(c, true)
	if err != nil {
		return err
	}
	st := c.st
	w, err := st.Gateways.DecreaseDelegateStake(st.Ledger, st.Rules.Gateways, c.protocol(), inter.FormatAddress(c.msg.From), req.Gateway, req.Quantity, c.msg.ID, req.Instant, c.now())
	if err != nil {
		return err
	}
	return c.reply(w, tag("Gateway", req.Gateway))
}

func (c *call) withdrawalTarget() (operator, vaultID string, err error) {
	if operator, err = c.gatewayTarget(); err != nil {
		return "", "", err
	}
	vaultID, err = c.requireTag("Vault-Id")
	return operator, vaultID, err
}

func handleCancelWithdrawal(c *call) error {
	operator, id, err := c.withdrawalTarget()
	if err != nil {
		return err
	}
	g, err := c.st.Gateways.CancelWithdrawal(inter.FormatAddress(c.msg.From), operator, id)
	if err != nil {
		return err
	}
	return c.reply(g, tag("Vault-Id", id))
}

func handleInstantWithdrawal(c *call) error {
	operator, id, err := c.withdrawalTarget()
	if err != nil {
		return err
	}
	st := c.st
	w, err := st.Gateways.InstantWithdrawal(st.Ledger, st.Rules.Gateways, c.protocol(), inter.FormatAddress(c.msg.From), operator, id, c.now())
	if err != nil {
		return err
	}
	return c.reply(w, tag("Vault-Id", id))
}
