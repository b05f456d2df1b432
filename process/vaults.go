package process

import (
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/vaults"
)

func handleVaults(c *call) error {
	all := c.st.Vaults.All()
	entries := make([]entry, len(all))
	for i, v := range all {
		entries[i] = entry{key: v.Key(), item: v}
	}
	return c.replyPage("address", entries)
}

func handleVault(c *call) error {
	owner, err := c.addressOr(c.msg.From, "Address")
	if err != nil {
		return err
	}
	id, err := c.requireTag("Vault-Id")
	if err != nil {
		return err
	}
	v, ok := c.st.Vaults.Get(owner, id)
	if !ok {
		return vaults.ErrVaultNotFound
	}
	return c.reply(v)
}

type createVaultRequest struct {
	Quantity   uint64
	LockLength inter.Timestamp
}

func parseCreateVault(c *call) (createVaultRequest, error) {
	var req createVaultRequest
	var err error
	if req.Quantity, err = c.quantity("Quantity"); err != nil {
		return req, err
	}
	req.LockLength, err = c.duration("Lock-Length")
	return req, err
}

func handleCreateVault(c *call) error {
	req, err := parseCreateVault(c)
	if err != nil {
		return err
	}
	owner := inter.FormatAddress(c.msg.From)
	v, err := c.st.Vaults.Create(c.st.Ledger, c.st.Rules.Vaults, owner, c.msg.ID, req.Quantity, req.LockLength, c.now())
	if err != nil {
		return err
	}
	return c.reply(v, tag("Vault-Id", v.ID))
}

type vaultedTransferRequest struct {
	Recipient  string
	Quantity   uint64
	LockLength inter.Timestamp
}

func parseVaultedTransfer(c *call) (vaultedTransferRequest, error) {
	var req vaultedTransferRequest
	var err error
	if req.Recipient, err = c.address("Recipient"); err != nil {
		return req, err
	}
	if req.Quantity, err = c.quantity("Quantity"); err != nil {
		return req, err
	}
	req.LockLength, err = c.duration("Lock-Length")
	return req, err
}

func handleVaultedTransfer(c *call) error {
	req, err := parseVaultedTransfer(c)
	if err != nil {
		return err
	}
	from := inter.FormatAddress(c.msg.From)
	v, err := c.st.Vaults.VaultedTransfer(c.st.Ledger, c.st.Rules.Vaults, from, req.Recipient, c.msg.ID, req.Quantity, req.LockLength, c.now())
	if err != nil {
		return err
	}
	if err := c.reply(v, tag("Recipient", v.Owner), tag("Vault-Id", v.ID)); err != nil {
		return err
	}
	return c.send(v.Owner, "Create-Vault-Notice", v, tag("Sender", from), tag("Vault-Id", v.ID))
}

func handleExtendVault(c *call) error {
	id, err := c.requireTag("Vault-Id")
	if err != nil {
		return err
	}
	ext, err := c.duration("Extend-Length")
	if err != nil {
		return err
	}
	v, err := c.st.Vaults.Extend(c.st.Rules.Vaults, inter.FormatAddress(c.msg.From), id, ext, c.now())
	if err != nil {
		return err
	}
	return c.reply(v, tag("Vault-Id", id))
}

func handleIncreaseVault(c *call) error {
	id, err := c.requireTag("Vault-Id")
	if err != nil {
		return err
	}
	qty, err := c.quantity("Quantity")
	if err != nil {
		return err
	}
	v, err := c.st.Vaults.Increase(c.st.Ledger, inter.FormatAddress(c.msg.From), id, qty, c.now())
	if err != nil {
		return err
	}
	return c.reply(v, tag("Vault-Id", id))
}

type releaseNotice struct {
	vaults.Vault
	Released bool `json:"released"`
}

// handleReleaseVault unlocks an elapsed vault. A vault that no longer exists
// was already released and is reported as such.
func handleReleaseVault(c *call) error {
	id, err := c.requireTag("Vault-Id")
	if err != nil {
		return err
	}
	owner := inter.FormatAddress(c.msg.From)
	v, released, err := c.st.Vaults.Release(c.st.Ledger, owner, id, c.now())
	if err != nil {
		return err
	}
	if !released {
		v = vaults.Vault{ID: id, Owner: owner}
	}
	return c.reply(releaseNotice{Vault: v, Released: released}, tag("Vault-Id", id))
}
