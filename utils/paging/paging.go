// Package paging implements cursor pagination over key-sorted snapshots.
package paging

import (
	"errors"
	"sort"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var ErrInvalidSortOrder = errors.New("sort order must be asc or desc")

// Request describes one page.
type Request struct {
	Cursor    string
	Limit     int
	SortOrder string
}

// Page is the response envelope of every paginated read.
type Page struct {
	Items      interface{} `json:"items"`
	Limit      int         `json:"limit"`
	TotalItems int         `json:"totalItems"`
	SortBy     string      `json:"sortBy"`
	SortOrder  string      `json:"sortOrder"`
	HasMore    bool        `json:"hasMore"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// Normalize fills defaults and clamps the limit.
func (r Request) Normalize() (Request, error) {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	switch r.SortOrder {
	case "":
		r.SortOrder = "asc"
	case "asc", "desc":
	default:
		return r, ErrInvalidSortOrder
	}
	return r, nil
}

// Window selects the page of keys strictly after the cursor.
// keys must be sorted ascending and unique; the returned indexes refer to keys.
func Window(keys []string, req Request) (from, to int, next string) {
	n := len(keys)
	if req.SortOrder == "desc" {
		start := n
		if req.Cursor != "" {
			start = sort.SearchStrings(keys, req.Cursor)
		}
		end := start - req.Limit
		if end < 0 {
			end = 0
		}
		if end > 0 {
			next = keys[end]
		}
		return end, start, next
	}
	start := 0
	if req.Cursor != "" {
		start = sort.SearchStrings(keys, req.Cursor)
		if start < n && keys[start] == req.Cursor {
			start++
		}
	}
	end := start + req.Limit
	if end > n {
		end = n
	}
	if end < n && end > start {
		next = keys[end-1]
	}
	return start, end, next
}
