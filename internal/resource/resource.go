// Package resource implements the Resource surface of spec.md §4.14: an
// immutable path-segment chain plus a small fixed verb vocabulary, each
// verb tagged to its HTTP method. This deliberately replaces the Python
// original's dynamic __getattr__-based path/verb dispatch (any attribute
// access either extends the path or, if it matches a known verb name,
// sends a request) with static Go methods, per spec.md §9's Design Notes:
// Go has no attribute-interception hook to imitate that pattern safely,
// and a typo in a dynamically dispatched path segment silently becomes a
// navigation step rather than an error. Grounded on
// original_source/core/utils/api/async_client.py's Resource/Model.
package resource

import "strings"

// Verb is one of the fixed resource actions, each bound to an HTTP method.
type Verb string

const (
	List    Verb = "list"
	Get     Verb = "get"
	Find    Verb = "find"
	Create  Verb = "create"
	Add     Verb = "add"
	Update  Verb = "update"
	Patch   Verb = "patch"
	Delete  Verb = "delete"
	Destroy Verb = "destroy"
	Remove  Verb = "remove"

	Download Verb = "download"
	Upload   Verb = "upload"
)

// verbMethod mirrors async_client.py's Resource.ACTIONS table exactly.
var verbMethod = map[Verb]string{
	List:     "GET",
	Get:      "GET",
	Find:     "GET",
	Create:   "POST",
	Add:      "POST",
	Update:   "PUT",
	Patch:    "PATCH",
	Delete:   "DELETE",
	Destroy:  "DELETE",
	Remove:   "DELETE",
	Download: "GET",
	Upload:   "POST",
}

// Caller is the one method Resource needs from a request core: execute a
// call against a path with a verb's HTTP method and return its decoded
// data. Defined here (not imported from pkg/httpclient) so
// internal/resource never imports the package that will import it —
// pkg/httpclient's RequestCore implements Caller.
type Caller interface {
	Call(method, path string, params map[string]any) (any, error)
}

// Resource is an immutable chain of path segments bound to one Caller.
// Path extends by producing a new Resource rather than mutating the
// receiver, matching the original's "each attribute access returns a new
// Resource" behavior without the dynamic dispatch.
type Resource struct {
	caller Caller
	parts  []string
}

// New starts a Resource chain rooted at the given Caller.
func New(caller Caller, parts ...string) *Resource {
	return &Resource{caller: caller, parts: append([]string(nil), parts...)}
}

// Path appends one more path segment, returning a new Resource — the
// static replacement for client.users.123.posts-style dynamic chaining:
// callers write Path("users").Path("123").Path("posts") instead.
func (r *Resource) Path(segment string) *Resource {
	parts := make([]string, len(r.parts)+1)
	copy(parts, r.parts)
	parts[len(r.parts)] = segment
	return &Resource{caller: r.caller, parts: parts}
}

func (r *Resource) path() string {
	return strings.Join(r.parts, "/")
}

// Do sends a request for verb with params, returning whatever Caller.Call
// decodes the response into.
func (r *Resource) Do(verb Verb, params map[string]any) (any, error) {
	method, ok := verbMethod[verb]
	if !ok {
		method = "GET"
	}
	return r.caller.Call(method, r.path(), params)
}

// The tagged verb methods below are the static dispatch surface replacing
// Python's ACTIONS-driven __getattr__: one method per recognized action,
// so an unrecognized verb is a compile error instead of a silent path
// segment.

func (r *Resource) List(params map[string]any) (any, error)   { return r.Do(List, params) }
func (r *Resource) Get(params map[string]any) (any, error)    { return r.Do(Get, params) }
func (r *Resource) Find(params map[string]any) (any, error)   { return r.Do(Find, params) }
func (r *Resource) Create(params map[string]any) (any, error) { return r.Do(Create, params) }
func (r *Resource) Add(params map[string]any) (any, error)    { return r.Do(Add, params) }
func (r *Resource) Update(params map[string]any) (any, error) { return r.Do(Update, params) }
func (r *Resource) Patch(params map[string]any) (any, error)  { return r.Do(Patch, params) }
func (r *Resource) Delete(params map[string]any) (any, error) { return r.Do(Delete, params) }
func (r *Resource) Destroy(params map[string]any) (any, error) {
	return r.Do(Destroy, params)
}
func (r *Resource) Remove(params map[string]any) (any, error) { return r.Do(Remove, params) }
func (r *Resource) Download(params map[string]any) (any, error) {
	return r.Do(Download, params)
}
func (r *Resource) Upload(params map[string]any) (any, error) { return r.Do(Upload, params) }

// Model is the Go analogue of async_client.py's Model: a thin dotted-path
// view over a decoded JSON object, for callers who want attribute-style
// access to Resource results without re-declaring a struct per endpoint.
type Model struct {
	raw map[string]any
}

// NewModel wraps a decoded object. A nil map is treated as empty.
func NewModel(raw map[string]any) Model {
	if raw == nil {
		raw = map[string]any{}
	}
	return Model{raw: raw}
}

// Get mirrors Model.__getattr__: a nested object becomes another Model, a
// list of objects becomes a []Model with non-object entries passed
// through unwrapped, and anything else is returned as-is.
func (m Model) Get(name string) any {
	val, ok := m.raw[name]
	if !ok {
		return nil
	}

	switch v := val.(type) {
	case map[string]any:
		return NewModel(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out[i] = NewModel(obj)
			} else {
				out[i] = item
			}
		}
		return out
	default:
		return val
	}
}

// Dict returns the underlying raw map, matching Model.dict().
func (m Model) Dict() map[string]any {
	return m.raw
}

// ModelsFrom converts a Resource/Caller result (as Data() would shape it)
// into Model(s): a single object becomes one Model, a list of objects
// becomes []Model, anything else passes through unchanged — matching
// Resource._send's result-shaping branch.
func ModelsFrom(data any) any {
	switch v := data.(type) {
	case map[string]any:
		return NewModel(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out[i] = NewModel(obj)
			} else {
				out[i] = item
			}
		}
		return out
	default:
		return data
	}
}
