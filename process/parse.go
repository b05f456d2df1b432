package process

import (
	"strconv"
	"strings"

	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/utils/paging"
)

func (c *call) requireTag(name string) (string, error) {
	v := strings.TrimSpace(c.msg.Tag(name))
	if v == "" {
		return "", missing(name)
	}
	return v, nil
}

// quantity parses a required positive integer amount.
func (c *call) quantity(name string) (uint64, error) {
	v, err := c.requireTag(name)
	if err != nil {
		return 0, err
	}
	q, err := strconv.ParseUint(v, 10, 64)
	if err != nil || q == 0 {
		return 0, malformed(name, v, nil)
	}
	return q, nil
}

func (c *call) optionalUint(name string, def uint64) (uint64, error) {
	v := strings.TrimSpace(c.msg.Tag(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, malformed(name, v, nil)
	}
	return n, nil
}

func (c *call) optionalUint32(name string, def uint32) (uint32, error) {
	n, err := c.optionalUint(name, uint64(def))
	if err != nil {
		return 0, err
	}
	if n > uint64(^uint32(0)) {
		return 0, malformed(name, c.msg.Tag(name), nil)
	}
	return uint32(n), nil
}

func (c *call) optionalBool(name string, def bool) (bool, error) {
	v := strings.TrimSpace(c.msg.Tag(name))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, malformed(name, v, nil)
	}
	return b, nil
}

func (c *call) duration(name string) (inter.Timestamp, error) {
	n, err := c.quantity(name)
	return inter.Timestamp(n), err
}

// address parses and canonicalizes a required address tag.
func (c *call) address(name string) (string, error) {
	v, err := c.requireTag(name)
	if err != nil {
		return "", err
	}
	addr, err := inter.ParseAddress(v, c.st.Rules.Ledger.AllowUnsafeAddresses)
	if err != nil {
		return "", malformed(name, v, err)
	}
	return addr, nil
}

// addressOr parses the first present tag of names, falling back to def.
func (c *call) addressOr(def string, names ...string) (string, error) {
	for _, n := range names {
		if _, ok := c.msg.Tags.Get(n); ok {
			return c.address(n)
		}
	}
	return inter.FormatAddress(def), nil
}

// list splits a comma separated tag, dropping blanks.
func (c *call) list(name string) []string {
	var out []string
	for _, v := range strings.Split(c.msg.Tag(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *call) pageRequest() (paging.Request, error) {
	limit, err := c.optionalUint("Limit", 0)
	if err != nil {
		return paging.Request{}, err
	}
	if limit > paging.MaxLimit {
		limit = paging.MaxLimit
	}
	req := paging.Request{
		Cursor:    c.msg.Tag("Cursor"),
		Limit:     int(limit),
		SortOrder: strings.ToLower(c.msg.Tag("Sort-Order")),
	}
	return req.Normalize()
}
