package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckContainsPassesAndFails(t *testing.T) {
	body := []byte(`{"status":"ok"}`)
	assert.NoError(t, Check(body, Assertion{Kind: Contains, Value: "ok"}))

	err := Check(body, Assertion{Kind: Contains, Value: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain")
}

func TestCheckJSONPathComparesExpectedValue(t *testing.T) {
	body := []byte(`{"user":{"id":42,"name":"ada"}}`)
	assert.NoError(t, Check(body, Assertion{Kind: JSONPath, Path: "user.name", Value: "ada"}))

	err := Check(body, Assertion{Kind: JSONPath, Path: "user.name", Value: "grace"})
	require.Error(t, err)

	err = Check(body, Assertion{Kind: JSONPath, Path: "user.missing"})
	require.Error(t, err)
}

func TestCheckRegexMatchesBody(t *testing.T) {
	body := []byte(`request-id: abc-123`)
	assert.NoError(t, Check(body, Assertion{Kind: Regex, Value: `abc-\d+`}))
	assert.Error(t, Check(body, Assertion{Kind: Regex, Value: `xyz-\d+`}))
}

func TestCheckAllStopsAtFirstFailure(t *testing.T) {
	body := []byte(`{"ok":true}`)
	err := CheckAll(body, []Assertion{
		{Kind: Contains, Value: "ok"},
		{Kind: Contains, Value: "nope"},
		{Kind: Contains, Value: "unreached"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
