package tui

import (
	"fmt"
	"strings"

	"github.com/Amr-9/corehttp/internal/metrics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SummaryModel struct {
	report metrics.Report
}

func NewSummaryModel(report metrics.Report) *SummaryModel {
	return &SummaryModel{report: report}
}

func (m *SummaryModel) Init() tea.Cmd {
	return nil
}

func (m *SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

var (
	sumHeaderStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).MarginBottom(1)
	sumStatStyle   = lipgloss.NewStyle().Foreground(subColor).MarginRight(2)
	sumValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

func (m *SummaryModel) View() string {
	var s strings.Builder

	logo := logoStyle.Render(asciiLogo)
	s.WriteString(borderStyle.Render(logo))
	s.WriteString("\n")
	s.WriteString(subtitleStyle.Render("HTTP Client Runtime Demo"))
	s.WriteString("\n\n")

	s.WriteString(sumHeaderStyle.Render("📊 Run Summary"))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(secondColor).Bold(true).Render("🚀 Traffic & Throughput"))
	s.WriteString("\n")

	tData := [][]string{
		{"Total Requests", fmt.Sprintf("%d", m.report.TotalRequests)},
		{"Success Rate", fmt.Sprintf("%.2f%%", m.report.SuccessRate)},
		{"RPS (Avg)", fmt.Sprintf("%.2f", m.report.RPS)},
		{"Total Data", formatBytes(m.report.TotalBytes)},
		{"Throughput", formatThroughput(m.report.Throughput)},
		{"Elapsed", m.report.Elapsed.Round(1e7).String()},
	}
	for _, row := range tData {
		s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-15s", row[0]+":")), sumValueStyle.Render(row[1])))
	}
	s.WriteString("\n")

	s.WriteString(lipgloss.NewStyle().Foreground(purpleColor).Bold(true).Render("Latency Distribution:"))
	s.WriteString("\n")

	lData := [][]string{
		{"Min", fmtDuration(m.report.Min)},
		{"P50", fmtDuration(m.report.P50)},
		{"P75", fmtDuration(m.report.P75)},
		{"P90", fmtDuration(m.report.P90)},
		{"P95", fmtDuration(m.report.P95)},
		{"P99", fmtDuration(m.report.P99)},
		{"Max", fmtDuration(m.report.Max)},
	}
	for i := 0; i < len(lData); i += 2 {
		r1 := lData[i]
		s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", r1[0]+":")), sumValueStyle.Render(fmt.Sprintf("%-12s", r1[1]))))
		if i+1 < len(lData) {
			r2 := lData[i+1]
			s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", r2[0]+":")), sumValueStyle.Render(r2[1])))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.report.StatusCodes) > 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(secondColor).Bold(true).Render("📊 Status Codes"))
		s.WriteString("\n")

		codes := make([]string, 0, len(m.report.StatusCodes))
		for k := range m.report.StatusCodes {
			codes = append(codes, k)
		}
		for i := 0; i < len(codes); i++ {
			for j := i + 1; j < len(codes); j++ {
				if codes[i] > codes[j] {
					codes[i], codes[j] = codes[j], codes[i]
				}
			}
		}

		for _, code := range codes {
			count := m.report.StatusCodes[code]
			label := fmt.Sprintf("Code %s", code)
			style := sumValueStyle
			var codeInt int
			if _, err := fmt.Sscanf(code, "%d", &codeInt); err == nil {
				if codeInt >= 400 {
					style = errText.Bold(true)
				} else {
					style = successText.Bold(true)
				}
			} else {
				label = code
				style = errText.Bold(true)
			}
			s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-15s", label+":")), style.Render(fmt.Sprintf("%d", count))))
		}
		s.WriteString("\n")

		if len(m.report.Errors) > 0 {
			s.WriteString(errText.Bold(true).Render("❌ Error Breakdown"))
			s.WriteString("\n")
			for errStr, count := range m.report.Errors {
				clean := errStr
				if len(clean) > 50 {
					clean = clean[:47] + "..."
				}
				s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-30s", clean+":")), sumValueStyle.Render(fmt.Sprintf("%d", count))))
			}
		}
	}

	s.WriteString("\n")
	s.WriteString(highlight.Render("✨ Report saved to report.json"))
	s.WriteString("\n" + subtext.Render("Press Ctrl+C to exit."))

	return s.String()
}
