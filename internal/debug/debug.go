// Package debug implements a verbose dry-run: one request executed
// through pkg/httpclient with the full request/response detail printed to
// the terminal, the corehttp analogue of the teacher's
// internal/debug.RunDebugMode single-iteration scenario dump. Grounded on
// internal/debug/debug.go's printRequest/printResponse/printAssertions.
package debug

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/Amr-9/corehttp/internal/validator"
	"github.com/Amr-9/corehttp/pkg/httpclient"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
	dim    = "\033[2m"
)

// Run executes method against endpoint on core once, printing the request
// and response in full, then checking assertions against the body. headers
// is only printed with the request line; it is not sent. Any headers core
// should send must already be set on it via core.Headers before calling
// Run — the dry run reuses the core's own configuration.
func Run(core *httpclient.RequestCore, method, endpoint string, headers map[string]string, assertions []validator.Assertion) error {
	fmt.Printf("\n%s%s🛠️  DRY RUN%s\n", bold, cyan, reset)
	fmt.Printf("%sone iteration, verbose output%s\n\n", dim, reset)

	printRequestLine(method, endpoint, headers)

	start := time.Now()
	env, err := dispatch(core, method, endpoint)
	latency := time.Since(start)

	if err != nil && env == nil {
		fmt.Printf("\n%s[RESPONSE]%s\n", bold, reset)
		fmt.Printf("%s❌ request failed%s %s(%s)%s\n", red, reset, dim, latency.Round(time.Millisecond), reset)
		fmt.Printf("  %serror:%s %v\n", red, reset, err)
		return err
	}

	printResponse(env.Status, env.Headers, env.Body, latency)

	if len(assertions) > 0 {
		printAssertions(env.Body, assertions)
	} else {
		printStatusAssertion(env.Status)
	}

	return nil
}

func dispatch(core *httpclient.RequestCore, method, endpoint string) (*envelope.Envelope, error) {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return core.Post(endpoint)
	case http.MethodPut:
		return core.Put(endpoint)
	case http.MethodPatch:
		return core.Patch(endpoint)
	case http.MethodDelete:
		return core.Delete(endpoint)
	case http.MethodOptions:
		return core.Options(endpoint)
	case http.MethodHead:
		return core.Head(endpoint)
	default:
		return core.Get(endpoint)
	}
}

func printRequestLine(method, endpoint string, headers map[string]string) {
	fmt.Printf("%s[REQUEST]%s\n", bold, reset)
	fmt.Printf("%s%s%s %s%s%s\n", bold, green, method, cyan, endpoint, reset)
	if len(headers) > 0 {
		fmt.Printf("%sheaders:%s\n", dim, reset)
		keys := sortedKeys(headers)
		for _, k := range keys {
			fmt.Printf("  %s%s:%s %s\n", yellow, k, reset, headers[k])
		}
	}
}

func printResponse(status int, headers http.Header, body []byte, latency time.Duration) {
	fmt.Printf("\n%s[RESPONSE]%s\n", bold, reset)

	statusColor := green
	if status >= 500 || status == 0 {
		statusColor = red
	} else if status >= 400 {
		statusColor = yellow
	}
	fmt.Printf("%sstatus:%s %s%d%s %s(%s)%s\n", dim, reset, statusColor, status, reset, dim, latency.Round(time.Millisecond), reset)

	important := []string{"Content-Type", "Set-Cookie", "X-Request-Id", "Location"}
	for _, h := range important {
		if v := headers.Get(h); v != "" {
			fmt.Printf("  %s%s:%s %s\n", yellow, h, reset, truncateStr(v, 80))
		}
	}

	if len(body) > 0 {
		fmt.Printf("%sbody:%s\n", dim, reset)
		printFormattedJSON(body, "  ")
	}
}

func printAssertions(body []byte, assertions []validator.Assertion) {
	fmt.Printf("\n%s[🛡️ ASSERTIONS]%s\n", bold, reset)
	for _, a := range assertions {
		if err := validator.Check(body, a); err != nil {
			fmt.Printf("  %s❌ %s%s\n", red, describe(a), reset)
			fmt.Printf("     %s└─ %v%s\n", dim, err, reset)
		} else {
			fmt.Printf("  %s✅ %s%s\n", green, describe(a), reset)
		}
	}
}

func printStatusAssertion(status int) {
	fmt.Printf("\n%s[🛡️ STATUS]%s\n", bold, reset)
	if status >= 200 && status < 400 {
		fmt.Printf("  %s✅ %d OK%s\n", green, status, reset)
	} else {
		fmt.Printf("  %s❌ %d%s\n", red, status, reset)
	}
}

func describe(a validator.Assertion) string {
	switch a.Kind {
	case validator.Contains:
		return fmt.Sprintf("contains %q", truncateStr(a.Value, 40))
	case validator.Regex:
		return fmt.Sprintf("regex %q", truncateStr(a.Value, 40))
	case validator.JSONPath:
		if a.Value != "" {
			return fmt.Sprintf("json path %q = %q", a.Path, truncateStr(a.Value, 30))
		}
		return fmt.Sprintf("json path %q exists", a.Path)
	default:
		return "assertion"
	}
}

func printFormattedJSON(body []byte, prefix string) {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		pretty, err := json.MarshalIndent(v, prefix, "  ")
		if err == nil {
			fmt.Printf("%s%s\n", prefix, string(pretty))
			return
		}
	}
	for _, line := range strings.Split(string(body), "\n") {
		fmt.Printf("%s%s\n", prefix, line)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
