package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amr-9/corehttp/internal/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamParsesSSEEventsAndDispatchesOnStreamHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("event: tick\ndata: one\n\n"))
		w.Write([]byte("event: tick\ndata: two\n\n"))
	}))
	defer srv.Close()

	core := newTestCore(t, srv)

	var mu sync.Mutex
	var got []sse.Event
	core.OnStream(func(payload any) {
		if ev, ok := payload.(sse.Event); ok {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		}
	})

	require.NoError(t, core.Stream(context.Background(), "/events", true, 4096))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "one", got[0].Data)
	assert.Equal(t, "two", got[1].Data)
}

func TestStopStreamSetsStopFlag(t *testing.T) {
	core, err := New(DefaultConfig())
	require.NoError(t, err)
	defer core.Close()

	core.StopStream()
	assert.EqualValues(t, 1, atomic.LoadInt32(&core.stopStream))
}
