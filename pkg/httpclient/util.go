package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// toQueryString renders a non-string param value for the query string:
// numbers/bools use their natural text form, everything else falls back to
// JSON encoding.
func toQueryString(v any) string {
	switch t := v.(type) {
	case fmt.Stringer:
		return t.String()
	case float64, float32, int, int64, bool:
		return fmt.Sprintf("%v", t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// sleep waits out d or returns ctx.Err() early if ctx is cancelled first,
// matching the teacher's executeStepWithRetry select/time.After idiom.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
