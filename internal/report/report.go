// Package report prints and persists a finished fan-out's
// internal/metrics.Report, the corehttp analogue of the teacher's
// internal/report console/JSON/HTML output, retargeted from
// pkg/models.Report onto the domain-generic metrics.Report.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"time"

	"github.com/Amr-9/corehttp/internal/metrics"
)

// PrintConsoleReport writes a plain-text summary of rep to stdout, the
// same section layout (traffic, latency, status codes, errors) as the
// teacher's console report.
func PrintConsoleReport(rep metrics.Report) {
	fmt.Println()
	fmt.Println("📊 Run Summary")
	fmt.Println("──────────────")
	fmt.Printf("  Total Requests : %d\n", rep.TotalRequests)
	fmt.Printf("  Success Rate   : %.2f%%\n", rep.SuccessRate)
	fmt.Printf("  RPS (avg)      : %.2f\n", rep.RPS)
	fmt.Printf("  Total Data     : %s\n", formatBytes(rep.TotalBytes))
	fmt.Printf("  Elapsed        : %s\n", rep.Elapsed.Round(10*time.Millisecond))
	fmt.Println()
	fmt.Println("  Latency:")
	fmt.Printf("    min=%s p50=%s p90=%s p99=%s max=%s\n",
		formatDuration(rep.Min), formatDuration(rep.P50), formatDuration(rep.P90),
		formatDuration(rep.P99), formatDuration(rep.Max))

	if len(rep.StatusCodes) > 0 {
		fmt.Println()
		fmt.Println("  Status Codes:")
		for _, code := range sortedCodes(rep.StatusCodes) {
			fmt.Printf("    %-10s %d\n", code, rep.StatusCodes[code])
		}
	}

	if len(rep.Errors) > 0 {
		fmt.Println()
		fmt.Println("  Errors:")
		for msg, count := range rep.Errors {
			fmt.Printf("    %-40s %d\n", msg, count)
		}
	}
}

// SaveJSON writes rep to path as indented JSON.
func SaveJSON(path string, rep metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %q: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Sync()
}

// StatusCodeRow is one row of the HTML report's status code table.
type StatusCodeRow struct {
	Code       string
	Count      int64
	Percentage float64
	IsSuccess  bool
}

// ErrorRow is one row of the HTML report's error table.
type ErrorRow struct {
	Message string
	Count   int64
}

type templateData struct {
	GeneratedAt      string
	TotalRequests    int64
	SuccessCount     int64
	FailureCount     int64
	SuccessRate      float64
	RPS              float64
	Throughput       string
	Min, P50, P90, P99, Max string
	StatusCodesTable []StatusCodeRow
	Errors           []ErrorRow
}

// GenerateHTML writes a self-contained, CDN-free HTML summary of rep to
// filename. The teacher's HTML report embeds chart.js from a CDN for
// interactive graphs; this demo keeps the same card/table layout but
// drops the charting library so the file renders identically offline,
// the ambient-stack trim recorded in DESIGN.md rather than wired through
// an external script tag.
func GenerateHTML(rep metrics.Report, filename string) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var rows []StatusCodeRow
	for _, code := range sortedCodes(rep.StatusCodes) {
		count := rep.StatusCodes[code]
		var pct float64
		if rep.TotalRequests > 0 {
			pct = float64(count) / float64(rep.TotalRequests) * 100
		}
		var isSuccess bool
		var codeInt int
		if n, _ := fmt.Sscanf(code, "%d", &codeInt); n > 0 {
			isSuccess = codeInt >= 200 && codeInt < 300
		}
		rows = append(rows, StatusCodeRow{Code: code, Count: count, Percentage: pct, IsSuccess: isSuccess})
	}

	var errRows []ErrorRow
	for msg, count := range rep.Errors {
		errRows = append(errRows, ErrorRow{Message: msg, Count: count})
	}
	sort.Slice(errRows, func(i, j int) bool { return errRows[i].Count > errRows[j].Count })

	data := templateData{
		GeneratedAt:      time.Now().Format("2006-01-02 15:04:05"),
		TotalRequests:    rep.TotalRequests,
		SuccessCount:     rep.SuccessCount,
		FailureCount:     rep.FailureCount,
		SuccessRate:      rep.SuccessRate,
		RPS:              rep.RPS,
		Throughput:       formatBytes(int64(rep.Throughput)) + "/s",
		Min:              formatDuration(rep.Min),
		P50:              formatDuration(rep.P50),
		P90:              formatDuration(rep.P90),
		P99:              formatDuration(rep.P99),
		Max:              formatDuration(rep.Max),
		StatusCodesTable: rows,
		Errors:           errRows,
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

func sortedCodes(codes map[string]int64) []string {
	out := make([]string, 0, len(codes))
	for k := range codes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>httpcli run report</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; background: #0f1222; color: #e4e4f0; padding: 2rem; }
.container { max-width: 1000px; margin: 0 auto; }
h1 { color: #00ffc8; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 1rem; margin: 2rem 0; }
.card { background: #181c35; border-radius: 10px; padding: 1.2rem; text-align: center; }
.card .value { font-size: 1.8rem; font-weight: bold; color: #00d9ff; }
.card .label { color: #888; margin-top: .4rem; text-transform: uppercase; font-size: .8rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { padding: .6rem; text-align: left; border-bottom: 1px solid #2a2f52; }
th { color: #00d9ff; text-transform: uppercase; font-size: .8rem; }
.ok { color: #00ff88; }
.err { color: #ff6b6b; }
</style>
</head>
<body>
<div class="container">
<h1>httpcli run report</h1>
<p>Generated at {{.GeneratedAt}}</p>
<div class="grid">
<div class="card"><div class="value">{{.TotalRequests}}</div><div class="label">Total</div></div>
<div class="card"><div class="value">{{printf "%.1f" .SuccessRate}}%</div><div class="label">Success rate</div></div>
<div class="card"><div class="value">{{printf "%.0f" .RPS}}</div><div class="label">RPS</div></div>
<div class="card"><div class="value">{{.Throughput}}</div><div class="label">Throughput</div></div>
<div class="card"><div class="value">{{.P50}}</div><div class="label">P50</div></div>
<div class="card"><div class="value">{{.P99}}</div><div class="label">P99</div></div>
<div class="card"><div class="value">{{.Max}}</div><div class="label">Max latency</div></div>
<div class="card"><div class="value">{{.SuccessCount}}</div><div class="label">Successful</div></div>
</div>
<table>
<thead><tr><th>Status</th><th>Count</th><th>%</th></tr></thead>
<tbody>
{{range .StatusCodesTable}}<tr><td class="{{if .IsSuccess}}ok{{else}}err{{end}}">{{.Code}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .Percentage}}%</td></tr>
{{end}}
</tbody>
</table>
{{if .Errors}}
<table>
<thead><tr><th>Error</th><th>Count</th></tr></thead>
<tbody>
{{range .Errors}}<tr><td class="err">{{.Message}}</td><td>{{.Count}}</td></tr>
{{end}}
</tbody>
</table>
{{end}}
</div>
</body>
</html>`
