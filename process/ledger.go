package process

import (
	"strconv"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/inter"
)

const (
	ticker       = "ARIO"
	denomination = 6
	logo         = "qUjrTmHdVjXX4D6rU6Fik02bUOzWkOR6oOqUg39g4-s"
)

type info struct {
	Name                  string   `json:"Name"`
	Ticker                string   `json:"Ticker"`
	Logo                  string   `json:"Logo"`
	Denomination          int      `json:"Denomination"`
	Owner                 string   `json:"Owner"`
	Network               string   `json:"Network"`
	Handlers              []string `json:"Handlers"`
	LastCreatedEpochIndex *uint32  `json:"LastCreatedEpochIndex,omitempty"`
	TotalSupply           string   `json:"TotalSupply"`
}

func handleInfo(c *call) error {
	name := c.env.Name
	if name == "" {
		name = ticker
	}
	i := info{
		Name:         name,
		Ticker:       ticker,
		Logo:         logo,
		Denomination: denomination,
		Owner:        c.env.Owner,
		Network:      c.st.Rules.Name,
		Handlers:     handlerNames,
		TotalSupply:  ario.FormatTokens(c.st.Rules.TotalSupply),
	}
	if e, ok := c.st.Epochs.Latest(); ok {
		idx := uint32(e.Index)
		i.LastCreatedEpochIndex = &idx
	}
	return c.reply(i,
		tag("Name", i.Name),
		tag("Ticker", ticker),
		tag("Logo", logo),
		tag("Denomination", strconv.Itoa(denomination)),
	)
}

func handleBalance(c *call) error {
	addr, err := c.addressOr(c.msg.From, "Address", "Recipient", "Target")
	if err != nil {
		return err
	}
	bal := c.st.Ledger.Balance(addr)
	return c.reply(bal,
		tag("Account", addr),
		tag("Balance", strconv.FormatUint(bal, 10)),
		tag("Ticker", ticker),
	)
}

func handleBalances(c *call) error {
	return c.reply(c.st.Ledger.Balances())
}

func handleTotalSupply(c *call) error {
	return c.reply(c.st.Rules.TotalSupply, tag("Ticker", ticker))
}

func handleTotalTokenSupply(c *call) error {
	return c.reply(c.st.Supply())
}

type transferRequest struct {
	Recipient string
	Quantity  uint64
	// Cast suppresses the debit notice to the sender.
	Cast bool
}

func parseTransfer(c *call) (transferRequest, error) {
	var req transferRequest
	var err error
	if req.Recipient, err = c.address("Recipient"); err != nil {
		return req, err
	}
	if req.Quantity, err = c.quantity("Quantity"); err != nil {
		return req, err
	}
	req.Cast, err = c.optionalBool("Cast", false)
	return req, err
}

type transferNotice struct {
	From      string `json:"from"`
	Recipient string `json:"recipient"`
	Quantity  uint64 `json:"quantity"`
}

func handleTransfer(c *call) error {
	req, err := parseTransfer(c)
	if err != nil {
		return err
	}
	from := inter.FormatAddress(c.msg.From)
	return c.transfer(from, req.Recipient, req.Quantity, req.Cast)
}

// transfer moves qty between spendable balances and queues the debit and credit notices.
func (c *call) transfer(from, to string, qty uint64, cast bool) error {
	if err := c.st.Ledger.Transfer(from, to, qty); err != nil {
		return err
	}
	n := transferNotice{From: from, Recipient: to, Quantity: qty}
	q := strconv.FormatUint(qty, 10)
	if !cast {
		if err := c.send(from, "Debit-Notice", n, tag("Recipient", to), tag("Quantity", q)); err != nil {
			return err
		}
	}
	return c.send(to, "Credit-Notice", n, tag("Sender", from), tag("Quantity", q))
}
