package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// RunSpec describes one fan-out demo run: count identical calls to
// Method/Endpoint against BaseURL, spread across Concurrency workers.
type RunSpec struct {
	BaseURL     string
	Method      string
	Endpoint    string
	Concurrency int
	Count       int
	Timeout     time.Duration
}

func defaultRunSpec() *RunSpec {
	return &RunSpec{
		Method:      "GET",
		Endpoint:    "/",
		Concurrency: 10,
		Count:       50,
		Timeout:     10 * time.Second,
	}
}

type Step int

const (
	StepURL Step = iota
	StepMethod
	StepEndpoint
	StepConcurrency
	StepCount
	StepTimeout
	StepDone
)

type stepResult struct {
	label string
	value string
}

// SetupModel is the huh-driven wizard that fills in a RunSpec before the
// fan-out starts, the corehttp analogue of the teacher's load-test setup
// wizard, stripped down to the handful of knobs RequestCore.Gather/Dos
// actually take.
type SetupModel struct {
	spec    *RunSpec
	current Step
	history []stepResult
	form    *huh.Form

	tempConcurrency string
	tempCount       string
	tempTimeout     string
}

func NewSetupModel(spec *RunSpec) *SetupModel {
	m := &SetupModel{
		spec:            spec,
		current:         StepURL,
		history:         make([]stepResult, 0),
		tempConcurrency: fmt.Sprintf("%d", spec.Concurrency),
		tempCount:       fmt.Sprintf("%d", spec.Count),
		tempTimeout:     spec.Timeout.String(),
	}
	m.nextForm()
	return m
}

func (m *SetupModel) nextForm() {
	neon := MakeNeonTheme()

	switch m.current {
	case StepURL:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Base URL").
					Placeholder("https://api.example.com").
					Value(&m.spec.BaseURL).
					Validate(func(s string) error {
						if len(s) < 4 || !strings.HasPrefix(s, "http") {
							return fmt.Errorf("URL must start with http")
						}
						return nil
					}),
			),
		).WithTheme(neon)
	case StepMethod:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("HTTP Method").
					Options(
						huh.NewOption("GET", "GET"),
						huh.NewOption("POST", "POST"),
						huh.NewOption("PUT", "PUT"),
						huh.NewOption("DELETE", "DELETE"),
						huh.NewOption("PATCH", "PATCH"),
					).
					Value(&m.spec.Method),
			),
		).WithTheme(neon)
	case StepEndpoint:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Endpoint").
					Description("Path appended to the base URL").
					Placeholder("/").
					Value(&m.spec.Endpoint),
			),
		).WithTheme(neon)
	case StepConcurrency:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Concurrency").
					Description("Simultaneous workers").
					Value(&m.tempConcurrency),
			),
		).WithTheme(neon)
	case StepCount:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Call Count").
					Description("Total identical calls to fire").
					Value(&m.tempCount),
			),
		).WithTheme(neon)
	case StepTimeout:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Request Timeout").
					Description("Max time to wait (e.g., 5s, 30s, 1m)").
					Value(&m.tempTimeout).
					Validate(func(s string) error {
						if _, err := time.ParseDuration(s); err != nil {
							return fmt.Errorf("invalid duration (use 10s, 1m, etc)")
						}
						return nil
					}),
			),
		).WithTheme(neon)
	case StepDone:
		m.form = nil
	}

	if m.form != nil {
		m.form.Init()
	}
}

func (m *SetupModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.current == StepDone {
		return m, nil
	}

	var cmd tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		switch m.current {
		case StepURL:
			m.history = append(m.history, stepResult{"Base URL", m.spec.BaseURL})
			m.current = StepMethod
		case StepMethod:
			m.history = append(m.history, stepResult{"Method", m.spec.Method})
			m.current = StepEndpoint
		case StepEndpoint:
			m.history = append(m.history, stepResult{"Endpoint", m.spec.Endpoint})
			m.current = StepConcurrency
		case StepConcurrency:
			m.history = append(m.history, stepResult{"Concurrency", m.tempConcurrency})
			m.current = StepCount
		case StepCount:
			m.history = append(m.history, stepResult{"Count", m.tempCount})
			m.current = StepTimeout
		case StepTimeout:
			m.history = append(m.history, stepResult{"Timeout", m.tempTimeout})

			fmt.Sscanf(m.tempConcurrency, "%d", &m.spec.Concurrency)
			if m.spec.Concurrency < 1 {
				m.spec.Concurrency = 1
			}
			fmt.Sscanf(m.tempCount, "%d", &m.spec.Count)
			if m.spec.Count < 1 {
				m.spec.Count = 1
			}
			if d, err := time.ParseDuration(m.tempTimeout); err == nil {
				m.spec.Timeout = d
			}

			m.current = StepDone
		}

		if m.current != StepDone {
			m.nextForm()
			return m, m.form.Init()
		}
	}

	return m, cmd
}

func (m *SetupModel) View() string {
	var s strings.Builder

	logo := logoStyle.Render(asciiLogo)
	subtitle := subtitleStyle.Render("HTTP Client Runtime Demo")
	s.WriteString(borderStyle.Render(logo + subtitle))
	s.WriteString("\n\n")

	for _, h := range m.history {
		mark := check.Render("✓")
		label := subtext.Render(h.label + ":")
		val := finalValue.Render(h.value)
		s.WriteString(fmt.Sprintf("  %s %s %s\n", mark, label, val))
	}

	if m.form != nil {
		if len(m.history) > 0 {
			s.WriteString("\n")
		}

		stepNum := len(m.history) + 1
		totalSteps := 6
		header := questionHeader.Render(fmt.Sprintf("› Step %d/%d", stepNum, totalSteps))
		s.WriteString(header + "\n")

		s.WriteString(m.form.View())
	} else {
		s.WriteString("\n" + highlight.Render("🚀 Ready! Press Enter to start..."))
	}

	return s.String()
}
