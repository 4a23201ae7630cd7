package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Amr-9/corehttp/internal/metrics"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashModel renders the live view of a running fan-out: a completed/total
// progress bar plus the same three metric boxes (throughput, latency,
// results) the teacher's dashboard showed for a load test, now fed by
// internal/metrics instead of a time-series report.
type DashModel struct {
	spec     RunSpec
	report   metrics.Report
	done     int64
	start    time.Time
	progress progress.Model
	history  []string
	tick     int
}

func NewDashModel(spec RunSpec, history []string) *DashModel {
	p := progress.New(
		progress.WithScaledGradient("#00FFFF", "#FF6B9D"),
		progress.WithoutPercentage(),
	)
	return &DashModel{
		spec:     spec,
		start:    time.Now(),
		progress: p,
		history:  history,
	}
}

type progressMsg struct {
	report metrics.Report
	done   int64
}

func (m *DashModel) Init() tea.Cmd {
	return nil
}

func (m *DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.report = msg.report
		m.done = msg.done
		m.tick++
	}
	return m, nil
}

func (m *DashModel) View() string {
	var s strings.Builder

	logo := logoStyle.Render(asciiLogo)
	subtitle := subtitleStyle.Render("HTTP Client Runtime Demo")
	s.WriteString(borderStyle.Render(logo + subtitle))
	s.WriteString("\n\n")

	targetLine := fmt.Sprintf("🎯 %s  %s",
		highlight.Render(m.spec.BaseURL+m.spec.Endpoint),
		subtext.Render(fmt.Sprintf("│ %s │ %d workers │ %v timeout", m.spec.Method, m.spec.Concurrency, m.spec.Timeout)))
	s.WriteString(targetLine)
	s.WriteString("\n\n")

	elapsed := time.Since(m.start)
	var pct float64
	if m.spec.Count > 0 {
		pct = float64(m.done) / float64(m.spec.Count)
	}
	if pct > 1.0 {
		pct = 1.0
	}

	s.WriteString(dividerStyle.Render(strings.Repeat("━", 80)))
	s.WriteString("\n")

	progressBar := m.progress.ViewAs(pct)
	doneInfo := fmt.Sprintf("%d / %d calls  (%s elapsed)",
		m.done, m.spec.Count, elapsed.Round(time.Second))

	s.WriteString(progressBar)
	s.WriteString("\n")
	s.WriteString(doneInfo)
	s.WriteString("\n")
	s.WriteString(dividerStyle.Render(strings.Repeat("━", 80)))
	s.WriteString("\n\n")

	rps := fmt.Sprintf("%.1f", m.report.RPS)
	tput := formatThroughput(m.report.Throughput)
	totalData := formatBytes(m.report.TotalBytes)

	box1Content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s",
		lipgloss.NewStyle().Foreground(purpleColor).Bold(true).Render("📈 Throughput"),
		subtext.Render("RPS:"), lipgloss.NewStyle().Bold(true).Render(rps),
		subtext.Render("Flow:"), lipgloss.NewStyle().Bold(true).Render(tput),
		subtext.Render("Data:"), lipgloss.NewStyle().Bold(true).Render(totalData))
	box1 := dashBoxStyle.BorderForeground(purpleColor).Width(24).Render(box1Content)

	box2Content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s\n%s %s",
		lipgloss.NewStyle().Foreground(orangeColor).Bold(true).Render("⏱️  Latency"),
		subtext.Render("P50:"), lipgloss.NewStyle().Bold(true).Render(fmtDuration(m.report.P50)),
		subtext.Render("P90:"), lipgloss.NewStyle().Bold(true).Render(fmtDuration(m.report.P90)),
		subtext.Render("P99:"), lipgloss.NewStyle().Bold(true).Render(fmtDuration(m.report.P99)),
		subtext.Render("Max:"), lipgloss.NewStyle().Foreground(yellowColor).Bold(true).Render(fmtDuration(m.report.Max)))
	box2 := dashBoxStyle.BorderForeground(orangeColor).Width(24).Render(box2Content)

	failColor := successText
	if m.report.FailureCount > 0 {
		failColor = warnText
	}
	if m.report.TotalRequests > 0 && float64(m.report.FailureCount)/float64(m.report.TotalRequests) > 0.05 {
		failColor = errText
	}

	box3Content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s",
		lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("✅ Results"),
		subtext.Render("Total:"), lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", m.report.TotalRequests)),
		subtext.Render("Success:"), successText.Bold(true).Render(fmt.Sprintf("%d (%.1f%%)", m.report.SuccessCount, m.report.SuccessRate)),
		subtext.Render("Failed:"), failColor.Bold(true).Render(fmt.Sprintf("%d", m.report.FailureCount)))
	box3 := dashBoxStyle.BorderForeground(accentColor).Width(26).Render(box3Content)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, box1, box2, box3))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("📊 Status Codes"))
	s.WriteString("\n")

	if len(m.report.StatusCodes) > 0 {
		s.WriteString(renderStatusBars(m.report.StatusCodes, int(m.report.TotalRequests)))
	} else {
		s.WriteString(subtext.Render("  Waiting for responses...") + "\n")
	}

	return s.String()
}

func renderStatusBars(codes map[string]int64, total int) string {
	type kv struct {
		Code  string
		Count int64
	}
	sorted := make([]kv, 0, len(codes))
	for k, v := range codes {
		sorted = append(sorted, kv{k, v})
	}
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Count < sorted[j].Count {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	var maxCount int64
	for _, item := range sorted {
		if item.Count > maxCount {
			maxCount = item.Count
		}
	}

	const barWidth = 20
	var b strings.Builder
	for _, item := range sorted {
		label := item.Code
		barStyle := successText
		if label == "NetErr" {
			barStyle = errText
		} else {
			var code int
			if _, err := fmt.Sscanf(label, "%d", &code); err == nil {
				switch {
				case code >= 500:
					barStyle = errText
				case code >= 400:
					barStyle = warnText
				case code >= 300:
					barStyle = warnText
				}
			}
		}

		barLen := 0
		if maxCount > 0 {
			barLen = int(item.Count * barWidth / maxCount)
		}
		if barLen < 1 && item.Count > 0 {
			barLen = 1
		}
		bar := strings.Repeat("█", barLen) + strings.Repeat("░", barWidth-barLen)

		var pct float64
		if total > 0 {
			pct = float64(item.Count) / float64(total) * 100
		}

		fmt.Fprintf(&b, "  %-10s %s %6d %s\n", label, barStyle.Render(bar), item.Count, subtext.Render(fmt.Sprintf("(%5.1f%%)", pct)))
	}
	return b.String()
}
