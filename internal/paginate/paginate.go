// Package paginate implements the Paginator of spec.md §4.11: a page/
// offset/cursor discriminated union plus forward/backward walking, built
// on top of internal/envelope's generic key discovery. Grounded on
// original_source/core/utils/api/response.py's paginate/next_page/
// prev_page/first_page/last_page/walk_paginate.
package paginate

import (
	"strconv"

	"github.com/Amr-9/corehttp/internal/envelope"
)

// Mode names which pagination style an Envelope exposes, per the
// page_key/offset_key vs cursor_next_key/cursor_prev_key branch in
// response.py's paginate().
type Mode int

const (
	ModeNone Mode = iota
	ModePage
	ModeOffset
	ModeCursor
)

// DetectMode mirrors paginate()'s branch order: page/offset wins over
// cursor if both are present, matching "if page_key or offset_key: ...
// elif cursor_next_key or cursor_prev_key: ... else: plain page/limit".
func DetectMode(env *envelope.Envelope) Mode {
	if _, ok := env.FindMetaKey("page"); ok {
		return ModePage
	}
	if _, ok := env.FindMetaKey("offset"); ok {
		return ModeOffset
	}
	if _, ok := env.FindMetaKey("cursor_next"); ok {
		return ModeCursor
	}
	if _, ok := env.FindMetaKey("cursor_prev"); ok {
		return ModeCursor
	}
	return ModeNone
}

// Fetch re-issues the original request with params merged into its query
// string/body, returning the new attempt's Envelope. RequestCore supplies
// this as a closure over a cloned core, keeping internal/paginate free of
// any dependency on pkg/httpclient (it would otherwise import back the
// package that imports it).
type Fetch func(params map[string]string) (*envelope.Envelope, error)

// Walker drives one logical pagination session: the last-fetched Envelope,
// the base parameters every fetch starts from, and the default page size.
type Walker struct {
	fetch   Fetch
	base    map[string]string
	limit   int
	current *envelope.Envelope
}

// NewWalker builds a Walker around the first page's response.
func NewWalker(fetch Fetch, baseParams map[string]string, limit int, first *envelope.Envelope) *Walker {
	if limit <= 0 {
		limit = 15
	}
	merged := make(map[string]string, len(baseParams))
	for k, v := range baseParams {
		merged[k] = v
	}
	return &Walker{fetch: fetch, base: merged, limit: limit, current: first}
}

// Current returns the most recently fetched page.
func (w *Walker) Current() *envelope.Envelope {
	return w.current
}

// Paginate jumps to an arbitrary page/offset, per response.py's paginate().
// For ModePage/ModeOffset it issues one request with the page/limit (or
// offset/limit) query params set under the API's own discovered key names.
// For ModeCursor it walks forward or backward one cursor at a time from
// the current page, since a cursor API has no direct random-access jump.
func (w *Walker) Paginate(page int) (*envelope.Envelope, error) {
	if page < 1 {
		page = 1
	}

	switch DetectMode(w.current) {
	case ModePage, ModeOffset:
		return w.fetchPageOrOffset(page)

	case ModeCursor:
		return w.walkCursorTo(page)

	default:
		return w.fetchPageOrOffset(page)
	}
}

func (w *Walker) fetchPageOrOffset(page int) (*envelope.Envelope, error) {
	params := w.mergedParams()

	if key, ok := w.current.FindMetaKey("limit"); ok {
		params[key] = strconv.Itoa(w.limit)
	} else {
		params["limit"] = strconv.Itoa(w.limit)
	}

	if key, ok := w.current.FindMetaKey("page"); ok {
		params[key] = strconv.Itoa(page)
	} else if key, ok := w.current.FindMetaKey("offset"); ok {
		params[key] = strconv.Itoa((page - 1) * w.limit)
	} else {
		params["page"] = strconv.Itoa(page)
		params["limit"] = strconv.Itoa(w.limit)
	}

	env, err := w.fetch(params)
	if err != nil {
		return nil, err
	}
	w.current = env
	return env, nil
}

func (w *Walker) walkCursorTo(page int) (*envelope.Envelope, error) {
	currentPage := 1
	if v, ok := w.current.FindMetaItem("page"); ok {
		currentPage = int(v.Int())
	}
	if page == currentPage {
		return w.current, nil
	}

	forward := page > currentPage
	steps := page - currentPage
	if !forward {
		steps = currentPage - page
	}

	for i := 0; i < steps; i++ {
		var cursor string
		var ok bool
		if forward {
			cursor, ok = w.current.NextCursor()
		} else {
			cursor, ok = w.current.PrevCursor()
		}
		if !ok || cursor == "" {
			break
		}

		params := w.mergedParams()
		params["cursor"] = cursor

		env, err := w.fetch(params)
		if err != nil {
			return nil, err
		}
		w.current = env
	}

	return w.current, nil
}

// NextPage mirrors next_page(): a no-op once the last known page is
// reached (judged via TotalPages when page/limit/total are all known).
func (w *Walker) NextPage() (*envelope.Envelope, error) {
	current := w.currentPageOrOffset()
	total := w.current.TotalPages()
	if total > 0 && current >= total {
		return w.current, nil
	}
	return w.Paginate(current + 1)
}

// PrevPage mirrors prev_page(): a no-op at page 1.
func (w *Walker) PrevPage() (*envelope.Envelope, error) {
	current := w.currentPageOrOffset()
	if current <= 1 {
		return w.current, nil
	}
	return w.Paginate(current - 1)
}

// FirstPage mirrors first_page().
func (w *Walker) FirstPage() (*envelope.Envelope, error) {
	return w.Paginate(1)
}

// LastPage mirrors last_page(): a no-op when the total page count is
// unknown (TotalPages returns 0 for cursor-only APIs).
func (w *Walker) LastPage() (*envelope.Envelope, error) {
	total := w.current.TotalPages()
	if total < 1 {
		return w.current, nil
	}
	return w.Paginate(total)
}

func (w *Walker) currentPageOrOffset() int {
	if v, ok := w.current.FindMetaItem("page"); ok {
		return int(v.Int())
	}
	if v, ok := w.current.FindMetaItem("offset"); ok && w.limit > 0 {
		return int(v.Int())/w.limit + 1
	}
	return 1
}

func (w *Walker) mergedParams() map[string]string {
	out := make(map[string]string, len(w.base))
	for k, v := range w.base {
		out[k] = v
	}
	return out
}

// Direction selects WalkPaginate's traversal order.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// WalkPaginate mirrors walk_paginate(): it yields pages one at a time via
// visit, starting from the Walker's current page, advancing with
// NextPage/PrevPage until the matching has_next/has_prev is false or
// maxPages is reached (0 means unbounded). visit returning false stops
// the walk early.
func (w *Walker) WalkPaginate(direction Direction, maxPages int, visit func(*envelope.Envelope) bool) error {
	if !visit(w.current) {
		return nil
	}

	visited := 1
	for {
		if maxPages > 0 && visited >= maxPages {
			return nil
		}

		if direction == Forward {
			if !w.current.HasNext() {
				return nil
			}
			if _, err := w.NextPage(); err != nil {
				return err
			}
		} else {
			if !w.current.HasPrev() {
				return nil
			}
			if _, err := w.PrevPage(); err != nil {
				return err
			}
		}

		if !visit(w.current) {
			return nil
		}
		visited++
	}
}
