package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCaller struct {
	method string
	path   string
	params map[string]any
	result any
	err    error
}

func (c *recordingCaller) Call(method, path string, params map[string]any) (any, error) {
	c.method = method
	c.path = path
	c.params = params
	return c.result, c.err
}

func TestPathChainsSegmentsImmutably(t *testing.T) {
	caller := &recordingCaller{}
	root := New(caller, "users")
	child := root.Path("123").Path("posts")

	_, _ = root.List(nil)
	assert.Equal(t, "users", caller.path)

	_, _ = child.List(nil)
	assert.Equal(t, "users/123/posts", caller.path)
}

func TestVerbMethodsMapToCorrectHTTPMethod(t *testing.T) {
	cases := map[Verb]string{
		List: "GET", Get: "GET", Find: "GET",
		Create: "POST", Add: "POST", Upload: "POST",
		Update: "PUT",
		Patch:  "PATCH",
		Delete: "DELETE", Destroy: "DELETE", Remove: "DELETE",
		Download: "GET",
	}

	for verb, wantMethod := range cases {
		caller := &recordingCaller{}
		r := New(caller, "things")
		_, err := r.Do(verb, nil)
		require.NoError(t, err)
		assert.Equal(t, wantMethod, caller.method, "verb %s", verb)
	}
}

func TestCreatePassesParamsThrough(t *testing.T) {
	caller := &recordingCaller{}
	r := New(caller, "users")
	params := map[string]any{"name": "ada"}

	_, err := r.Create(params)
	require.NoError(t, err)
	assert.Equal(t, params, caller.params)
	assert.Equal(t, "POST", caller.method)
}

func TestModelGetWrapsNestedObject(t *testing.T) {
	m := NewModel(map[string]any{
		"name":    "ada",
		"address": map[string]any{"city": "london"},
	})

	nested, ok := m.Get("address").(Model)
	require.True(t, ok)
	assert.Equal(t, "london", nested.Get("city"))
	assert.Equal(t, "ada", m.Get("name"))
}

func TestModelGetWrapsListOfObjects(t *testing.T) {
	m := NewModel(map[string]any{
		"tags": []any{map[string]any{"id": 1.0}, "plain", map[string]any{"id": 2.0}},
	})

	tags, ok := m.Get("tags").([]any)
	require.True(t, ok)
	require.Len(t, tags, 3)

	first, ok := tags[0].(Model)
	require.True(t, ok)
	assert.EqualValues(t, 1.0, first.Get("id"))
	assert.Equal(t, "plain", tags[1])
}

func TestModelGetMissingKeyReturnsNil(t *testing.T) {
	m := NewModel(map[string]any{"a": 1})
	assert.Nil(t, m.Get("missing"))
}

func TestModelsFromSingleObject(t *testing.T) {
	out := ModelsFrom(map[string]any{"id": 1.0})
	_, ok := out.(Model)
	assert.True(t, ok)
}

func TestModelsFromListOfObjects(t *testing.T) {
	out := ModelsFrom([]any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}})
	list, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	_, ok = list[0].(Model)
	assert.True(t, ok)
}

func TestModelsFromPassesThroughScalars(t *testing.T) {
	assert.Equal(t, "raw", ModelsFrom("raw"))
}
