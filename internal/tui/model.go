// Package tui is the interactive console: a live, filterable log view
// over one server source at a time, a progress console pane, and the
// bulk deploy prompt.
package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/woconsole/internal/bulk"
	"github.com/charliek/woconsole/internal/console"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/logs"
	"github.com/charliek/woconsole/internal/stream"
)

// Mode represents the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeStringFilter
	ModeDeploy
	ModeHelp
)

// Deployer runs a bulk deploy. *bulk.Orchestrator implements it.
type Deployer interface {
	Run(ctx context.Context, items []string, cfg bulk.Config) (*bulk.Report, error)
}

// Options wires the model to its collaborators
type Options struct {
	Sources  []string
	Initial  string
	Consumer *stream.Consumer
	Tracker  *console.Tracker
	Deployer Deployer
	Deploy   bulk.Config
	Filter   domain.LogFilter
	Logger   *slog.Logger
}

// Model is the bubbletea model for the TUI
type Model struct {
	// Dependencies
	ctx       context.Context
	consumer  *stream.Consumer
	tracker   *console.Tracker
	deployer  Deployer
	deployCfg bulk.Config
	logger    *slog.Logger
	changes   <-chan struct{}

	// State
	sources   []string
	initial   string
	filter    domain.LogFilter
	matcher   *logs.Filter
	snapshot  console.Snapshot
	deploying bool
	banner    string

	// UI components
	viewport  viewport.Model
	textInput textinput.Model

	mode       Mode
	followMode bool

	// Dimensions
	width  int
	height int
	ready  bool
}

// streamEventMsg carries one event from the consumer's pump
type streamEventMsg struct{ ev stream.Event }

// consoleChangedMsg is sent when the tracker state changed
type consoleChangedMsg struct{}

// deployDoneMsg is sent when a bulk deploy returns
type deployDoneMsg struct {
	report *bulk.Report
	err    error
}

// NewModel creates a new TUI model. changes is a tracker subscription;
// ctx bounds deploys started from the prompt.
func NewModel(ctx context.Context, opts Options, changes <-chan struct{}) Model {
	ti := textinput.New()
	ti.CharLimit = 4096
	ti.Width = 60

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		ctx:        ctx,
		consumer:   opts.Consumer,
		tracker:    opts.Tracker,
		deployer:   opts.Deployer,
		deployCfg:  opts.Deploy,
		logger:     logger,
		changes:    changes,
		sources:    opts.Sources,
		initial:    opts.Initial,
		viewport:   viewport.New(0, 0),
		textInput:  ti,
		followMode: true,
	}
	if opts.Tracker != nil {
		m.snapshot = opts.Tracker.Snapshot()
	}
	m.setFilter(opts.Filter)
	return m
}

// Init selects the initial source and starts listening
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForStreamEvent(m.consumer.Events())}
	if m.changes != nil {
		cmds = append(cmds, waitForConsoleChange(m.changes))
	}
	if m.initial != "" {
		cmds = append(cmds, selectSource(m.initial))
	}
	return tea.Batch(cmds...)
}

// selectSourceMsg asks the update loop to switch source
type selectSourceMsg string

func selectSource(name string) tea.Cmd {
	return func() tea.Msg { return selectSourceMsg(name) }
}

func waitForStreamEvent(ch <-chan stream.Event) tea.Cmd {
	return func() tea.Msg {
		return streamEventMsg{ev: <-ch}
	}
}

func waitForConsoleChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return consoleChangedMsg{}
	}
}

// runDeploy starts the orchestrator off the update loop
func (m Model) runDeploy(items []string) tea.Cmd {
	deployer, ctx, cfg := m.deployer, m.ctx, m.deployCfg
	return func() tea.Msg {
		report, err := deployer.Run(ctx, items, cfg)
		return deployDoneMsg{report: report, err: err}
	}
}

// setFilter installs a filter. An invalid pattern keeps the previous
// matcher and raises the banner.
func (m *Model) setFilter(f domain.LogFilter) {
	matcher, err := logs.NewFilter(f)
	if err != nil {
		m.banner = err.Error()
		if m.matcher == nil {
			m.matcher, _ = logs.NewFilter(domain.LogFilter{})
		}
		return
	}
	m.filter = f
	m.matcher = matcher
}

// visibleLines returns the buffered lines that pass the filter
func (m *Model) visibleLines() []domain.LogLine {
	lines := m.consumer.Lines()
	if m.filter.IsEmpty() {
		return lines
	}
	out := make([]domain.LogLine, 0, len(lines))
	for _, l := range lines {
		if m.matcher.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
