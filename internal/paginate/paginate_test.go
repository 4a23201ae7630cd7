package paginate

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envWithBody(t *testing.T, body string) *envelope.Envelope {
	t.Helper()
	return envelope.New(200, http.Header{}, []byte(body))
}

func TestDetectModePage(t *testing.T) {
	env := envWithBody(t, `{"data":[],"page":1,"limit":10,"total":100}`)
	assert.Equal(t, ModePage, DetectMode(env))
}

func TestDetectModeCursor(t *testing.T) {
	env := envWithBody(t, `{"data":[],"next_cursor":"abc"}`)
	assert.Equal(t, ModeCursor, DetectMode(env))
}

func TestDetectModeNone(t *testing.T) {
	env := envWithBody(t, `{"data":[]}`)
	assert.Equal(t, ModeNone, DetectMode(env))
}

func TestWalkerPaginatePageMode(t *testing.T) {
	first := envWithBody(t, `{"data":[1,2],"page":1,"limit":2,"total":6}`)

	var lastParams map[string]string
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		lastParams = params
		return envWithBody(t, `{"data":[3,4],"page":2,"limit":2,"total":6}`), nil
	}

	w := NewWalker(fetch, nil, 2, first)
	env, err := w.NextPage()
	require.NoError(t, err)

	assert.Equal(t, "2", lastParams["page"])
	assert.Equal(t, "2", lastParams["limit"])
	pageVal, ok := env.FindMetaItem("page")
	require.True(t, ok)
	assert.EqualValues(t, 2, pageVal.Int())
}

func TestWalkerNextPageNoopAtLastPage(t *testing.T) {
	first := envWithBody(t, `{"data":[],"page":3,"limit":2,"total":6}`)
	called := false
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		called = true
		return first, nil
	}

	w := NewWalker(fetch, nil, 2, first)
	_, err := w.NextPage()
	require.NoError(t, err)
	assert.False(t, called)
}

func TestWalkerPrevPageNoopAtFirstPage(t *testing.T) {
	first := envWithBody(t, `{"data":[],"page":1,"limit":2,"total":6}`)
	called := false
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		called = true
		return first, nil
	}

	w := NewWalker(fetch, nil, 2, first)
	_, err := w.PrevPage()
	require.NoError(t, err)
	assert.False(t, called)
}

func TestWalkerCursorWalksForward(t *testing.T) {
	first := envWithBody(t, `{"data":[1],"next_cursor":"c1"}`)
	pages := []string{
		`{"data":[2],"next_cursor":"c2"}`,
		`{"data":[3]}`,
	}
	call := 0
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		body := pages[call]
		call++
		assert.NotEmpty(t, params["cursor"])
		return envWithBody(t, body), nil
	}

	w := NewWalker(fetch, nil, 15, first)

	var seen []*envelope.Envelope
	err := w.WalkPaginate(Forward, 0, func(e *envelope.Envelope) bool {
		seen = append(seen, e)
		return true
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, 2, call)
}

func TestWalkPaginateStopsEarlyWhenVisitReturnsFalse(t *testing.T) {
	first := envWithBody(t, `{"data":[1],"page":1,"limit":1,"total":5}`)
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		return envWithBody(t, `{"data":[2],"page":2,"limit":1,"total":5}`), nil
	}

	w := NewWalker(fetch, nil, 1, first)

	count := 0
	err := w.WalkPaginate(Forward, 0, func(e *envelope.Envelope) bool {
		count++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkPaginateRespectsMaxPages(t *testing.T) {
	first := envWithBody(t, `{"data":[1],"page":1,"limit":1,"total":100}`)
	page := 1
	fetch := func(params map[string]string) (*envelope.Envelope, error) {
		page++
		return envWithBody(t, `{"data":[],"page":`+strconv.Itoa(page)+`,"limit":1,"total":100}`), nil
	}

	w := NewWalker(fetch, nil, 1, first)

	count := 0
	err := w.WalkPaginate(Forward, 3, func(e *envelope.Envelope) bool {
		count++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

