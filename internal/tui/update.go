package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/woconsole/internal/bulk"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/stream"
)

// nearBottomThreshold is the scroll percentage (0.0-1.0) at which we consider
// the viewport to be "near" the bottom for auto-follow purposes.
const nearBottomThreshold = 0.98

// consoleLines is the number of console entries shown when the pane is open
const consoleLines = 8

// levelCycle is the order the level key steps through
var levelCycle = []domain.Category{domain.CategoryNormal, domain.CategoryWarning, domain.CategoryError}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.updateViewport()
		return m, nil

	case selectSourceMsg:
		m.switchSource(string(msg))
		return m, nil

	case streamEventMsg:
		if m.consumer.Handle(msg.ev) {
			if _, ok := msg.ev.(stream.Line); ok {
				m.appendedLines()
			} else {
				m.layout()
			}
		}
		return m, waitForStreamEvent(m.consumer.Events())

	case consoleChangedMsg:
		m.snapshot = m.tracker.Snapshot()
		m.layout()
		return m, waitForConsoleChange(m.changes)

	case deployDoneMsg:
		m.deploying = false
		if msg.err != nil {
			m.banner = "Deploy not started: " + msg.err.Error()
			m.layout()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeStringFilter:
		return m.handleStringFilterKey(msg)
	case ModeDeploy:
		return m.handleDeployKey(msg)
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	// Any other key acknowledges the banner
	hadBanner := m.banner != ""
	m.banner = ""

	switch {
	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.NextSource):
		m.stepSource(1)

	case key.Matches(msg, keys.PrevSource):
		m.stepSource(-1)

	case isSourceDigit(msg):
		idx := int(msg.Runes[0] - '1')
		if idx < len(m.sources) {
			m.switchSource(m.sources[idx])
		}

	case key.Matches(msg, keys.Tailing):
		m.consumer.SetTailing(!m.consumer.Tailing())

	case key.Matches(msg, keys.Reconnect):
		m.consumer.Reconnect()
		m.updateViewport()

	case key.Matches(msg, keys.Filter):
		m.mode = ModeStringFilter
		m.textInput.Placeholder = "Type to filter..."
		m.textInput.SetValue(m.filter.Pattern)
		m.textInput.Focus()

	case key.Matches(msg, keys.Level):
		f := m.filter
		f.MinCategory = nextLevel(f.MinCategory)
		m.setFilter(f)
		m.updateViewport()

	case key.Matches(msg, keys.Clear):
		m.setFilter(domain.LogFilter{})
		m.updateViewport()

	case key.Matches(msg, keys.Console):
		m.toggleConsole()

	case key.Matches(msg, keys.CloseCons):
		m.tracker.SetVisibility(domain.VisibilityClosed)
		m.snapshot = m.tracker.Snapshot()

	case key.Matches(msg, keys.Deploy):
		if m.deploying {
			m.banner = "A bulk deploy is already running"
			break
		}
		m.mode = ModeDeploy
		m.textInput.Placeholder = "a.com, b.com c.com"
		m.textInput.SetValue("")
		m.textInput.Focus()

	default:
		m.handleNavigationKey(msg)
	}

	if hadBanner || m.banner != "" {
		m.layout()
	}
	return m, nil
}

// handleNavigationKey handles viewport scrolling keys
func (m *Model) handleNavigationKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, keys.Up):
		m.viewport.LineUp(1)
		m.followMode = false
	case key.Matches(msg, keys.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, keys.PageUp):
		m.viewport.HalfViewUp()
		m.followMode = false
	case key.Matches(msg, keys.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, keys.Top):
		m.viewport.GotoTop()
		m.followMode = false
	case key.Matches(msg, keys.Bottom):
		m.viewport.GotoBottom()
		m.followMode = true
	case key.Matches(msg, keys.Follow):
		m.followMode = !m.followMode
		if m.followMode {
			m.viewport.GotoBottom()
		}
	}
}

// handleStringFilterKey edits the substring filter live
func (m Model) handleStringFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		f := m.filter
		f.Pattern = ""
		m.setFilter(f)
		m.updateViewport()
		return m, nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	f := m.filter
	f.Pattern = m.textInput.Value()
	m.setFilter(f)
	m.updateViewport()
	return m, cmd
}

// handleDeployKey reads the domain list and starts the bulk deploy
func (m Model) handleDeployKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()

		items := bulk.ParseDomains(m.textInput.Value())
		if err := bulk.ValidateItems(items); err != nil {
			m.banner = err.Error()
			m.layout()
			return m, nil
		}
		if m.deployer == nil {
			m.banner = "Bulk deploy is not available"
			m.layout()
			return m, nil
		}

		m.deploying = true
		return m, m.runDeploy(items)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// switchSource selects name. Re-selecting the current source only
// reconnects when its stream has failed.
func (m *Model) switchSource(name string) {
	if name == m.consumer.Source() && m.consumer.Status() != domain.ConnStatusError {
		return
	}
	m.consumer.Select(name)
	m.followMode = true
	m.layout()
	m.updateViewport()
}

func (m *Model) stepSource(delta int) {
	if len(m.sources) == 0 {
		return
	}
	idx := 0
	for i, s := range m.sources {
		if s == m.consumer.Source() {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(m.sources)) % len(m.sources)
	m.switchSource(m.sources[idx])
}

// toggleConsole opens a closed or minimized console and minimizes an
// open one
func (m *Model) toggleConsole() {
	next := domain.VisibilityOpen
	if m.snapshot.Visibility == domain.VisibilityOpen {
		next = domain.VisibilityMinimized
	}
	m.tracker.SetVisibility(next)
	m.snapshot = m.tracker.Snapshot()
	m.layout()
}

func nextLevel(c domain.Category) domain.Category {
	for i, l := range levelCycle {
		if l.Severity() == c.Severity() {
			return levelCycle[(i+1)%len(levelCycle)]
		}
	}
	return domain.CategoryNormal
}

func isSourceDigit(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9'
}

// appendedLines refreshes the viewport after new lines, keeping the
// bottom pinned while following
func (m *Model) appendedLines() {
	wasNearBottom := m.isNearBottom()
	m.updateViewport()

	if wasNearBottom {
		m.followMode = true
		m.viewport.GotoBottom()
	} else if m.followMode {
		m.viewport.GotoBottom()
	}
}

// isNearBottom checks if the viewport is at or near the bottom
func (m *Model) isNearBottom() bool {
	if m.viewport.AtBottom() {
		return true
	}
	return m.viewport.ScrollPercent() >= nearBottomThreshold
}

// layout sizes the viewport around the header, banner, console pane and
// status bar
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	used := 2 // header + status bar
	if m.bannerText() != "" {
		used++
	}
	used += m.consoleHeight()

	h := m.height - used
	if h < 1 {
		h = 1
	}

	m.viewport.Width = m.width
	m.viewport.Height = h
	m.ready = true
	if m.followMode {
		m.viewport.GotoBottom()
	}
}

// consoleHeight is the number of rows the console pane takes
func (m *Model) consoleHeight() int {
	switch m.snapshot.Visibility {
	case domain.VisibilityOpen:
		return consoleLines + 3 // title + borders
	case domain.VisibilityMinimized:
		return 1
	default:
		return 0
	}
}

// bannerText is the error banner: a local error, else the stream error
func (m *Model) bannerText() string {
	if m.banner != "" {
		return m.banner
	}
	if m.consumer.Status() == domain.ConnStatusError && m.consumer.Err() != nil {
		return fmt.Sprintf("%s: %v (r to reconnect)", m.consumer.Source(), m.consumer.Err())
	}
	return ""
}
