package tui

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Amr-9/corehttp/internal/envelope"
	"github.com/Amr-9/corehttp/internal/metrics"
	"github.com/Amr-9/corehttp/pkg/httpclient"
	tea "github.com/charmbracelet/bubbletea"
)

type State int

const (
	StateSetup State = iota
	StateRunning
	StateSummary
)

// MainModel drives the three-phase demo: a setup wizard collects a
// RunSpec, a dashboard shows a live fan-out against it, and a summary
// prints the final internal/metrics.Report — the same three-phase shape
// as the teacher's load-test TUI, retargeted from models.Config/Report
// and internal/attacker onto cloned RequestCores driven by startFanout's
// own bounded worker pool, and internal/metrics.
type MainModel struct {
	state    State
	spec     RunSpec
	report   metrics.Report
	quitting bool

	core *httpclient.RequestCore

	setupModel tea.Model
	dashModel  tea.Model
	sumModel   tea.Model

	monitor  *metrics.Monitor
	done     chan struct{}
	progress chan progressMsg
}

// NewModel builds a MainModel around core. If spec is nil the user is
// walked through the setup wizard first; if startRunning is true the
// wizard is skipped and the fan-out begins immediately.
func NewModel(core *httpclient.RequestCore, spec *RunSpec, startRunning bool) MainModel {
	if spec == nil {
		spec = defaultRunSpec()
	}

	initialState := StateSetup
	if startRunning {
		initialState = StateRunning
	}

	m := MainModel{
		state:      initialState,
		spec:       *spec,
		core:       core,
		setupModel: NewSetupModel(spec),
	}

	if startRunning {
		m.monitor = metrics.NewMonitor()
		m.done = make(chan struct{})
		m.progress = make(chan progressMsg, 256)
		m.dashModel = NewDashModel(m.spec, []string{"Loaded from flags"})
	}

	return m
}

func (m MainModel) Init() tea.Cmd {
	if m.state == StateRunning {
		return tea.Batch(m.startFanout(), m.tick())
	}
	return nil
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.state {
	case StateSetup:
		m.setupModel, cmd = m.setupModel.Update(msg)
		if sm, ok := m.setupModel.(*SetupModel); ok && sm.current == StepDone {
			m.spec = *sm.spec
			m.state = StateRunning
			m.monitor = metrics.NewMonitor()
			m.done = make(chan struct{})
			m.progress = make(chan progressMsg, 256)
			m.dashModel = NewDashModel(m.spec, historyLines(sm.history))

			return m, tea.Batch(m.startFanout(), m.tick())
		}
	case StateRunning:
		m.dashModel, cmd = m.dashModel.Update(msg)
		switch msg.(type) {
		case tickMsg:
			select {
			case p := <-m.progress:
				m.dashModel, _ = m.dashModel.Update(p)
			default:
			}
			select {
			case <-m.done:
				m.state = StateSummary
				m.report = m.monitor.Snapshot()
				m.sumModel = NewSummaryModel(m.report)
			default:
				return m, m.tick()
			}
		}
	}

	return m, cmd
}

type tickMsg time.Time

func (m MainModel) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// startFanout fires spec.Count calls through bounded-concurrency clones of
// m.core, feeding each completion into the monitor and periodically onto
// m.progress for the dashboard to pick up on its next tick, the same
// split-goroutine shape as the teacher's startAttacking/processResults
// pair adapted to a single streaming dispatch loop.
func (m MainModel) startFanout() tea.Cmd {
	return func() tea.Msg {
		var wg sync.WaitGroup
		sem := make(chan struct{}, m.spec.Concurrency)
		var completed int64 // atomic

		for i := 0; i < m.spec.Count; i++ {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				clone, err := m.core.Clone()
				if err != nil {
					m.monitor.Add(metrics.Sample{Success: false, Err: err})
				} else {
					start := time.Now()
					env, callErr := dispatchVerb(clone, m.spec.Method, m.spec.Endpoint)
					clone.Close()
					latency := time.Since(start)

					if callErr != nil {
						m.monitor.Add(metrics.Sample{Success: false, Err: callErr, Latency: latency})
					} else {
						m.monitor.Add(metrics.Sample{
							Status:  env.Status,
							Latency: latency,
							Bytes:   int64(len(env.Body)),
							Success: !env.Failed(),
						})
					}
				}

				done := atomic.AddInt64(&completed, 1)
				select {
				case m.progress <- progressMsg{report: m.monitor.Snapshot(), done: done}:
				default:
				}
			}()
		}

		wg.Wait()
		close(m.done)
		return nil
	}
}

func dispatchVerb(core *httpclient.RequestCore, method, endpoint string) (*envelope.Envelope, error) {
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

func historyLines(history []stepResult) []string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, check.Render("✓")+" "+subtext.Render(h.label+":")+" "+finalValue.Render(h.value))
	}
	return lines
}

func (m MainModel) View() string {
	if m.quitting {
		return "Exiting...\n"
	}

	switch m.state {
	case StateSetup:
		return m.setupModel.View()
	case StateRunning:
		return m.dashModel.View()
	case StateSummary:
		return m.sumModel.View()
	default:
		return "Unknown state"
	}
}

func (m MainModel) Report() metrics.Report {
	return m.report
}
