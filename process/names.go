package process

import (
	"strconv"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/names"
	"github.com/rony4d/go-ario/utils/fixed"
)

func handleRecords(c *call) error {
	recs := c.st.Names.Records()
	entries := make([]entry, len(recs))
	for i, r := range recs {
		entries[i] = entry{key: r.Name, item: r}
	}
	return c.replyPage("name", entries)
}

func handleRecord(c *call) error {
	name, err := c.requireTag("Name")
	if err != nil {
		return err
	}
	rec, ok := c.st.Names.Get(name)
	if !ok || !rec.Live(c.now(), c.st.Rules.Names.GracePeriod) {
		return names.ErrRecordNotFound
	}
	return c.reply(rec, tag("Name", rec.Name))
}

func (c *call) purchaseType() (names.Type, error) {
	v := c.msg.Tag("Purchase-Type")
	if v == "" {
		v = c.msg.Tag("Type")
	}
	if v == "" {
		return names.Lease, nil
	}
	return names.ParseType(v)
}

func parseCostRequest(c *call) (names.CostRequest, error) {
	var req names.CostRequest
	intent, err := c.requireTag("Intent")
	if err != nil {
		return req, err
	}
	if req.Intent, err = names.ParseIntent(intent); err != nil {
		return req, err
	}
	req.Name = c.msg.Tag("Name")
	if req.Type, err = c.purchaseType(); err != nil {
		return req, err
	}
	if req.Years, err = c.optionalUint32("Years", 0); err != nil {
		return req, err
	}
	req.Quantity, err = c.optionalUint32("Quantity", 0)
	return req, err
}

func handleTokenCost(c *call) error {
	req, err := parseCostRequest(c)
	if err != nil {
		return err
	}
	cost, err := c.st.Names.Cost(c.st.Demand, c.st.Rules.Names, req, c.now())
	if err != nil {
		return err
	}
	return c.reply(cost, tag("Token-Cost", strconv.FormatUint(cost, 10)))
}

func handleDemandFactor(c *call) error {
	return c.reply(c.st.Demand.DemandFactor())
}

type demandInfo struct {
	CurrentPeriod                         uint64      `json:"currentPeriod"`
	CurrentDemandFactor                   fixed.Ratio `json:"currentDemandFactor"`
	TrailingPeriodRevenues                []uint64    `json:"trailingPeriodRevenues"`
	RevenueThisPeriod                     uint64      `json:"revenueThisPeriod"`
	PurchasesThisPeriod                   uint64      `json:"purchasesThisPeriod"`
	ConsecutivePeriodsWithMinDemandFactor uint32      `json:"consecutivePeriodsWithMinDemandFactor"`
	Fees                                  []uint64    `json:"fees"`
}

func handleDemandFactorInfo(c *call) error {
	e := c.st.Demand
	return c.reply(demandInfo{
		CurrentPeriod:                         e.Period,
		CurrentDemandFactor:                   e.Factor,
		TrailingPeriodRevenues:                e.TrailingRevenues,
		RevenueThisPeriod:                     e.RevenueThisPeriod,
		PurchasesThisPeriod:                   e.PurchasesThisPeriod,
		ConsecutivePeriodsWithMinDemandFactor: e.ConsecutiveMinFactorRuns,
		Fees:                                  e.Fees,
	})
}

func parseBuyName(c *call) (names.BuyRequest, error) {
	var req names.BuyRequest
	var err error
	if req.Name, err = c.requireTag("Name"); err != nil {
		return req, err
	}
	if req.ProcessID, err = c.address("Process-Id"); err != nil {
		return req, err
	}
	if req.Type, err = c.purchaseType(); err != nil {
		return req, err
	}
	req.Years, err = c.optionalUint32("Years", 0)
	return req, err
}

func handleBuyName(c *call) error {
	req, err := parseBuyName(c)
	if err != nil {
		return err
	}
	st := c.st
	rec, err := st.Names.Buy(st.Ledger, st.Demand, st.Rules.Names, c.protocol(), inter.FormatAddress(c.msg.From), req, c.now())
	if err != nil {
		return err
	}
	return c.reply(rec, tag("Name", rec.Name))
}

type costNotice struct {
	names.Record
	Cost uint64 `json:"cost"`
}

func handleExtendLease(c *call) error {
	name, err := c.requireTag("Name")
	if err != nil {
		return err
	}
	years, err := c.optionalUint32("Years", 1)
	if err != nil {
		return err
	}
	st := c.st
	rec, cost, err := st.Names.ExtendLease(st.Ledger, st.Demand, st.Rules.Names, c.protocol(), inter.FormatAddress(c.msg.From), name, years, c.now())
	if err != nil {
		return err
	}
	return c.reply(costNotice{Record: rec, Cost: cost}, tag("Name", rec.Name))
}

func handleUpgradeName(c *call) error {
	name, err := c.requireTag("Name")
	if err != nil {
		return err
	}
	st := c.st
	rec, err := st.Names.Upgrade(st.Ledger, st.Demand, st.Rules.Names, c.protocol(), inter.FormatAddress(c.msg.From), name, c.now())
	if err != nil {
		return err
	}
	return c.reply(rec, tag("Name", rec.Name))
}

func handleIncreaseUndernameLimit(c *call) error {
	name, err := c.requireTag("Name")
	if err != nil {
		return err
	}
	qty, err := c.quantity("Quantity")
	if err != nil {
		return err
	}
	if qty > uint64(c.st.Rules.Names.MaxUndernameLimit) {
		return names.ErrUndernameLimit
	}
	st := c.st
	rec, cost, err := st.Names.IncreaseUndernameLimit(st.Ledger, st.Demand, st.Rules.Names, c.protocol(), inter.FormatAddress(c.msg.From), name, uint32(qty), c.now())
	if err != nil {
		return err
	}
	return c.reply(costNotice{Record: rec, Cost: cost}, tag("Name", rec.Name))
}

func handlePrimaryNames(c *call) error {
	pns := c.st.Names.PrimaryNames()
	entries := make([]entry, len(pns))
	for i, pn := range pns {
		entries[i] = entry{key: pn.Name, item: pn}
	}
	return c.replyPage("name", entries)
}

// handlePrimaryName looks a binding up by Name, or by Address defaulting to the caller.
func handlePrimaryName(c *call) error {
	if name := c.msg.Tag("Name"); name != "" {
		pn, ok := c.st.Names.PrimaryNameByName(name)
		if !ok {
			return names.ErrPrimaryNameNotFound
		}
		return c.reply(pn)
	}
	addr, err := c.addressOr(c.msg.From, "Address")
	if err != nil {
		return err
	}
	pn, ok := c.st.Names.PrimaryNameOf(addr)
	if !ok {
		return names.ErrPrimaryNameNotFound
	}
	return c.reply(pn)
}

func handleSetPrimaryName(c *call) error {
	name, err := c.requireTag("Name")
	if err != nil {
		return err
	}
	st := c.st
	pn, cost, err := st.Names.SetPrimaryName(st.Ledger, st.Demand, st.Rules.Names, c.protocol(), inter.FormatAddress(c.msg.From), name, c.now())
	if err != nil {
		return err
	}
	return c.reply(struct {
		names.PrimaryName
		Cost uint64 `json:"cost"`
	}{pn, cost}, tag("Name", pn.Name))
}

func handleRemovePrimaryNames(c *call) error {
	list := c.list("Names")
	if len(list) == 0 {
		return missing("Names")
	}
	caller := inter.FormatAddress(c.msg.From)
	removed, err := c.st.Names.RemovePrimaryNames(caller, list)
	if err != nil {
		return err
	}
	for _, pn := range removed {
		if pn.Owner == caller {
			continue
		}
		if err := c.send(pn.Owner, "Remove-Primary-Name-Notice", pn, tag("Name", pn.Name)); err != nil {
			return err
		}
	}
	return c.reply(removed)
}
