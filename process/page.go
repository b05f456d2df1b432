package process

import (
	"sort"

	"github.com/rony4d/go-ario/utils/paging"
)

type entry struct {
	key  string
	item interface{}
}

// paginate sorts entries by key and cuts the requested page out of them.
func paginate(req paging.Request, sortBy string, entries []entry) paging.Page {
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	from, to, next := paging.Window(keys, req)

	items := make([]interface{}, 0, to-from)
	if req.SortOrder == "desc" {
		for i := to - 1; i >= from; i-- {
			items = append(items, entries[i].item)
		}
	} else {
		for i := from; i < to; i++ {
			items = append(items, entries[i].item)
		}
	}
	return paging.Page{
		Items:      items,
		Limit:      req.Limit,
		TotalItems: len(entries),
		SortBy:     sortBy,
		SortOrder:  req.SortOrder,
		HasMore:    next != "",
		NextCursor: next,
	}
}

func (c *call) replyPage(sortBy string, entries []entry) error {
	req, err := c.pageRequest()
	if err != nil {
		return err
	}
	return c.reply(paginate(req, sortBy, entries))
}
