// Package envelope implements the ResponseModel of spec.md §4.7/§3: a
// JSON-tolerant view over a raw HTTP response that derives success/message/
// errors, strips envelope and pagination metadata from data(), and exposes
// generic deep-search helpers for auth tokens and pagination keys. Grounded
// on original_source/core/utils/api/base_response.py and response.py.
package envelope

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Amr-9/corehttp/internal/classify"
	"github.com/tidwall/gjson"
)

// dataUnwrapKeys is the sequential chain data() walks down through — each
// one unwraps the body if present and itself a list/dict, per
// base_response.py's data(). Order matters: "items" is tried before
// "results", which is tried before "rows", and so on.
var dataUnwrapKeys = []string{"items", "results", "rows", "records", "payload", "data"}

// dataStripKeys are popped from whatever object data() lands on, per
// base_response.py's data() trailing pop loop.
var dataStripKeys = []string{"errors", "error", "status", "message", "msg", "success"}

// authTokenKeys is the ordered list base_response.py's auth_token() probes,
// first match wins.
var authTokenKeys = []string{"token", "auth_token", "access_token", "oauth_token", "bearer_token"}

// paginationAliases maps each canonical pagination key to the literal JSON
// field names base_response.py's find_meta_item treats as synonyms for it
// (case-insensitive). This is the exact alias table from the Python
// original, not a guessed superset.
var paginationAliases = map[string][]string{
	"page":        {"page", "current_page", "pageindex", "page_index"},
	"limit":       {"limit", "per_page", "size", "pagesize", "first", "last", "count"},
	"offset":      {"offset", "skip"},
	"total":       {"total", "total_count", "totalcount"},
	"next":        {"next", "next_page", "nextpage", "hasnextpage", "hasnext"},
	"prev":        {"prev", "prev_page", "prevpage", "haspreviouspage", "hasprev"},
	"cursor_next": {"next_cursor", "endcursor", "end_cursor"},
	"cursor_prev": {"prev_cursor", "startcursor", "start_cursor"},
}

var paginationKeys = []string{"page", "limit", "total", "offset", "next", "prev", "cursor_next", "cursor_prev"}

// Envelope is a parsed response: raw transport facts plus a lazily-derived
// JSON view. Immutable once built — RequestCore builds a fresh Envelope per
// attempt rather than mutating one in place.
type Envelope struct {
	Status  int
	Headers http.Header
	Body    []byte

	json    gjson.Result
	isJSON  bool
}

// New parses body as JSON if possible; non-JSON bodies still produce a
// usable Envelope whose JSON-derived accessors report zero values.
func New(status int, headers http.Header, body []byte) *Envelope {
	e := &Envelope{Status: status, Headers: headers, Body: body}
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && gjson.Valid(trimmed) {
		e.json = gjson.Parse(trimmed)
		e.isJSON = true
	}
	return e
}

// Failed reports whether this attempt should be treated as an error, per
// base_response.py's __failed__: non-2xx is always a failure; a 2xx body
// that itself carries "success": false is also a failure (body overrides
// transport status in that one direction only).
func (e *Envelope) Failed() bool {
	if e.Status < 200 || e.Status >= 300 {
		return true
	}
	if e.isJSON && e.json.Get("success").Exists() && !e.json.Get("success").Bool() {
		return true
	}
	return false
}

// Success implements the body-first / transport-OK-fallback rule: if the
// body carries an explicit "success" key, trust it; otherwise fall back to
// the transport status code.
func (e *Envelope) Success() bool {
	if e.isJSON {
		if v := e.json.Get("success"); v.Exists() {
			return v.Bool()
		}
	}
	return e.Status >= 200 && e.Status < 300
}

// Message mirrors base_response.py's set_context()/raise_errors() pair: the
// first non-empty of message/msg/messages, flattening a list to its first
// element and a dict to its "message"/"msg" field or first "k: v" pair,
// falling back to the same flattening over errors/error/err, and finally
// the same generic placeholder the body-derived message() returns
// ("Success"/"Failed") if nothing was found — at which point raise_errors
// discards the placeholder and substitutes the Kind's own default message.
func (e *Envelope) Message(kind classify.Kind) string {
	msg := e.rawMessage()

	if msg == "" || strings.EqualFold(msg, "success") || strings.EqualFold(msg, "failed") {
		if kind == classify.KindNone {
			if msg != "" {
				return msg
			}
			return "Success"
		}
		return kind.DefaultMessage()
	}
	return msg
}

// rawMessage derives the body-level message before any Kind-specific
// default is applied, matching set_context()'s message/errors flattening.
func (e *Envelope) rawMessage() string {
	if !e.isJSON || !e.json.IsObject() {
		return ""
	}

	if msg := flattenContainer(firstTruthy(e.json, "message", "msg", "messages")); msg != "" {
		return msg
	}

	return flattenContainer(firstTruthy(e.json, "errors", "error", "err"))
}

// flattenContainer reduces a message-shaped gjson value to a single string:
// a dict yields its "message"/"msg" field or else its first "k: v" pair, a
// list yields its first element, and anything else is stringified as-is.
func flattenContainer(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	switch {
	case v.IsObject():
		if sub := firstTruthy(v, "message", "msg"); sub.Exists() {
			return sub.String()
		}
		var first string
		v.ForEach(func(k, val gjson.Result) bool {
			first = k.String() + ": " + val.String()
			return false
		})
		return first
	case v.IsArray():
		var first string
		v.ForEach(func(_, val gjson.Result) bool {
			first = val.String()
			return false
		})
		return first
	default:
		return v.String()
	}
}

// firstTruthy returns the first key whose value is Python-truthy (present,
// non-empty string, non-zero number, true, or a non-empty array/object),
// matching the `a.get(x) or a.get(y) or ...` chains in set_context().
func firstTruthy(root gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := root.Get(k); isTruthy(v) {
			return v
		}
	}
	return gjson.Result{}
}

func isTruthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.String() != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.False, gjson.Null:
		return false
	}
	if !v.Exists() {
		return false
	}
	if v.IsArray() {
		return len(v.Array()) > 0
	}
	if v.IsObject() {
		nonEmpty := false
		v.ForEach(func(_, _ gjson.Result) bool {
			nonEmpty = true
			return false
		})
		return nonEmpty
	}
	return false
}

// Errors returns the body's "errors" field flattened to strings, whatever
// shape it was sent in (string, array of strings, array of objects with a
// "message" field, or map of field→message).
func (e *Envelope) Errors() []string {
	if !e.isJSON {
		return nil
	}
	v := e.json.Get("errors")
	if !v.Exists() {
		return nil
	}

	var out []string
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			if item.Type == gjson.String {
				out = append(out, item.String())
			} else if m := item.Get("message"); m.Exists() {
				out = append(out, m.String())
			} else {
				out = append(out, item.Raw)
			}
			return true
		})
	case v.IsObject():
		v.ForEach(func(key, item gjson.Result) bool {
			out = append(out, key.String()+": "+item.String())
			return true
		})
	case v.Type == gjson.String:
		out = append(out, v.String())
	}
	return out
}

// Data walks dataUnwrapKeys in order, unwrapping into each key's value as
// long as it is itself a list or object, then strips dataStripKeys from
// whatever object it lands on — base_response.py's data(): items→results→
// rows→records→payload→data, each step applied to the previous step's
// result, followed by popping errors/error/status/message/msg/success.
func (e *Envelope) Data() any {
	if !e.isJSON {
		return nil
	}

	cur := e.json
	for _, key := range dataUnwrapKeys {
		if !cur.IsObject() {
			break
		}
		if v := cur.Get(key); v.Exists() && (v.IsObject() || v.IsArray()) {
			cur = v
		}
	}

	if cur.IsArray() {
		return toNative(cur)
	}

	if !cur.IsObject() {
		return map[string]any{}
	}

	out := map[string]any{}
	cur.ForEach(func(key, val gjson.Result) bool {
		k := key.String()
		if containsKey(dataStripKeys, k) {
			return true
		}
		out[k] = toNative(val)
		return true
	})
	return out
}

// AuthToken deep-searches the body for the first recognized token key, then
// falls back to the second space-separated field of the Authorization
// header (the credentials half of "Bearer <token>"), per base_response.py's
// auth_token().
func (e *Envelope) AuthToken() (string, bool) {
	if e.isJSON {
		for _, key := range authTokenKeys {
			if v, ok := deepFind(e.json, key); ok && v.Type == gjson.String && v.String() != "" {
				return v.String(), true
			}
		}
	}

	auth := strings.Fields(e.Headers.Get("Authorization"))
	switch len(auth) {
	case 0:
		return "", false
	case 1:
		return auth[0], true
	default:
		return auth[1], true
	}
}

// Meta returns the body's "meta"/"metadata"/"pagination" object, if present.
func (e *Envelope) Meta() map[string]any {
	if !e.isJSON {
		return nil
	}
	for _, key := range []string{"meta", "metadata", "pagination"} {
		if v := e.json.Get(key); v.Exists() && v.IsObject() {
			return toNative(v).(map[string]any)
		}
	}
	return nil
}

// FindMetaItem is the single generalized deep-search helper used for every
// pagination key, replacing the seven duplicated scan functions
// base_response.py carries for page/offset/cursor/next/prev/has_next/has_prev
// (see SPEC_FULL.md §12 item 2). canonical is one of paginationAliases'
// keys; FindMetaItem searches Meta() (falling back to the whole body) for
// any of its literal aliases, case-insensitively, depth-first.
func (e *Envelope) FindMetaItem(canonical string) (gjson.Result, bool) {
	v, _, ok := e.findMetaItem(canonical)
	return v, ok
}

// FindMetaKey is FindMetaItem's find_key=True counterpart: it returns the
// literal JSON field name that matched, for callers (internal/paginate)
// that need to build a next-page request using the API's own query
// parameter name rather than the canonical alias.
func (e *Envelope) FindMetaKey(canonical string) (string, bool) {
	_, key, ok := e.findMetaItem(canonical)
	return key, ok
}

func (e *Envelope) findMetaItem(canonical string) (gjson.Result, string, bool) {
	aliases := paginationAliases[canonical]
	if len(aliases) == 0 {
		aliases = []string{canonical}
	}

	root := e.json
	if meta := e.Meta(); meta != nil {
		root = mapToResult(meta)
	} else if !e.isJSON {
		return gjson.Result{}, "", false
	}

	return deepFindAliases(root, aliases)
}

// IsPaginated reports whether the body exposes any recognized pagination
// key, matching is_paginated's "any of page/limit/offset/total/next/prev/
// cursor_next/cursor_prev" check.
func (e *Envelope) IsPaginated() bool {
	for _, key := range paginationKeys {
		if v, ok := e.FindMetaItem(key); ok && nonZero(v) {
			return true
		}
	}
	return false
}

// HasNext mirrors has_next: an explicit "next"/"cursor_next" value wins
// outright; otherwise, given page+limit+total, another page exists iff
// page*limit < total.
func (e *Envelope) HasNext() bool {
	if v, ok := e.FindMetaItem("next"); ok && nonZero(v) {
		return true
	}
	if v, ok := e.FindMetaItem("cursor_next"); ok && nonZero(v) {
		return true
	}
	page, limit, total, ok := pageLimitTotal(e)
	return ok && page*limit < total
}

// HasPrev mirrors has_prev: an explicit "prev"/"cursor_prev" value wins
// outright; otherwise page > 1 implies a previous page.
func (e *Envelope) HasPrev() bool {
	if v, ok := e.FindMetaItem("prev"); ok && nonZero(v) {
		return true
	}
	if v, ok := e.FindMetaItem("cursor_prev"); ok && nonZero(v) {
		return true
	}
	if v, ok := e.FindMetaItem("page"); ok && v.Int() > 1 {
		return true
	}
	return false
}

// TotalPages mirrors total_pages: ceil(total/limit) given page+limit+total,
// else 0 (unknown).
func (e *Envelope) TotalPages() int {
	page, limit, total, ok := pageLimitTotal(e)
	if !ok || limit <= 0 {
		return 0
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}

func pageLimitTotal(e *Envelope) (page, limit, total int, ok bool) {
	pv, pOk := e.FindMetaItem("page")
	lv, lOk := e.FindMetaItem("limit")
	tv, tOk := e.FindMetaItem("total")
	if !pOk || !lOk || !tOk {
		return 0, 0, 0, false
	}
	if pv.Int() == 0 || lv.Int() == 0 || tv.Int() == 0 {
		return 0, 0, 0, false
	}
	return int(pv.Int()), int(lv.Int()), int(tv.Int()), true
}

// NextCursor / PrevCursor expose the raw cursor values for
// internal/paginate's cursor-walking mode.
func (e *Envelope) NextCursor() (string, bool) {
	v, ok := e.FindMetaItem("cursor_next")
	return v.String(), ok && v.String() != ""
}

func (e *Envelope) PrevCursor() (string, bool) {
	v, ok := e.FindMetaItem("cursor_prev")
	return v.String(), ok && v.String() != ""
}

// PaginationInfo collects every recognized pagination field into one map,
// for callers who want the raw metadata rather than the has_next/has_prev
// booleans, matching pagination_info's shape.
func (e *Envelope) PaginationInfo() map[string]any {
	out := map[string]any{
		"has_next": e.HasNext(),
		"has_prev": e.HasPrev(),
	}
	for _, key := range paginationKeys {
		if v, ok := e.FindMetaItem(key); ok {
			out[key] = toNative(v)
		}
	}
	return out
}

func nonZero(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.String() != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return v.Exists()
	}
}

// --- helpers ---

func containsKey(keys []string, k string) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

// deepFind performs a single-key recursive scan, for callers (AuthToken)
// that don't need the alias-set/matched-key machinery.
func deepFind(root gjson.Result, key string) (gjson.Result, bool) {
	v, _, ok := deepFindAliases(root, []string{key})
	return v, ok
}

// deepFindAliases recursively scans a gjson tree (an object's own keys
// first, then its nested objects and arrays in key order) for the first
// value whose key
// case-insensitively matches any of aliases, matching base_response.py's
// expect()/deep_find walk. It returns the literal key that matched, for
// FindMetaKey's find_key=True behavior.
func deepFindAliases(root gjson.Result, aliases []string) (gjson.Result, string, bool) {
	if len(aliases) == 0 {
		return gjson.Result{}, "", false
	}

	if root.IsObject() {
		var found gjson.Result
		var matched string
		var ok bool
		var nested []gjson.Result

		root.ForEach(func(k, val gjson.Result) bool {
			if matchesAlias(k.String(), aliases) {
				found, matched, ok = val, k.String(), true
				return false
			}
			if val.IsObject() || val.IsArray() {
				nested = append(nested, val)
			}
			return true
		})
		if ok {
			return found, matched, true
		}
		for _, n := range nested {
			if v, k, inner := deepFindAliases(n, aliases); inner {
				return v, k, true
			}
		}
		return gjson.Result{}, "", false
	}

	if root.IsArray() {
		var result gjson.Result
		var matched string
		var ok bool
		root.ForEach(func(_, val gjson.Result) bool {
			if v, k, inner := deepFindAliases(val, aliases); inner {
				result, matched, ok = v, k, true
				return false
			}
			return true
		})
		return result, matched, ok
	}

	return gjson.Result{}, "", false
}

func matchesAlias(key string, aliases []string) bool {
	lk := strings.ToLower(key)
	for _, a := range aliases {
		if lk == a {
			return true
		}
	}
	return false
}

// toNative converts a gjson.Result to plain any (map[string]any,
// []any, string, float64, bool, nil) for data() consumers that don't want
// to depend on gjson themselves.
func toNative(v gjson.Result) any {
	switch {
	case v.IsObject():
		out := map[string]any{}
		v.ForEach(func(key, val gjson.Result) bool {
			out[key.String()] = toNative(val)
			return true
		})
		return out
	case v.IsArray():
		var out []any
		v.ForEach(func(_, val gjson.Result) bool {
			out = append(out, toNative(val))
			return true
		})
		return out
	case v.Type == gjson.String:
		return v.String()
	case v.Type == gjson.Number:
		return v.Num
	case v.Type == gjson.True, v.Type == gjson.False:
		return v.Bool()
	default:
		return nil
	}
}

// mapToResult round-trips a map[string]any back into a gjson.Result so
// FindMetaItem can reuse deepFind over an already-extracted Meta() map.
func mapToResult(m map[string]any) gjson.Result {
	return gjson.Parse(toJSON(m))
}

func toJSON(v any) string {
	var b strings.Builder
	writeJSON(&b, v)
	return b.String()
}

func writeJSON(b *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		b.WriteByte('{')
		first := true
		for k, val := range t {
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(k, `"`, `\"`))
			b.WriteString(`":`)
			writeJSON(b, val)
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, val := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSON(b, val)
		}
		b.WriteByte(']')
	case string:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(t, `"`, `\"`))
		b.WriteByte('"')
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		b.WriteString("null")
	}
}

// ApiError wraps a classified failure with the Envelope that produced it,
// per SPEC_FULL.md §10.2 — the single error type the classifier/envelope
// layer returns, letting callers errors.As into the Kind and the raw
// Envelope rather than string-matching messages.
type ApiError struct {
	Kind    classify.Kind
	Message string
	Env     *Envelope
}

func (e *ApiError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewAPIError classifies status/body and builds the wrapping error, unless
// the attempt succeeded (Kind == KindNone), in which case it returns nil.
func NewAPIError(env *Envelope) *ApiError {
	kind := classify.Classify(env.Status, string(env.Body))
	if kind == classify.KindNone {
		return nil
	}
	return &ApiError{Kind: kind, Message: env.Message(kind), Env: env}
}
