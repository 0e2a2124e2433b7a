package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/charliek/woconsole/internal/console"
	"github.com/charliek/woconsole/internal/domain"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.mode == ModeHelp {
		return m.helpView()
	}

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n")
	if banner := m.bannerText(); banner != "" {
		sb.WriteString(bannerStyle.Width(m.width).Render(ansi.Truncate(banner, m.width-2, "…")))
		sb.WriteString("\n")
	}
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if pane := m.consolePane(); pane != "" {
		sb.WriteString(pane)
		sb.WriteString("\n")
	}
	sb.WriteString(m.statusBar())
	return sb.String()
}

// header renders the source list and the connection state
func (m Model) header() string {
	items := make([]string, 0, len(m.sources))
	for i, name := range m.sources {
		label := name
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, name)
		}
		if name == m.consumer.Source() {
			label = activeSourceStyle.Render(label)
		}
		items = append(items, label)
	}

	status := m.consumer.Status()
	right := connStyle(status).Render(status.String())
	return headerStyle.Width(m.width).Render(strings.Join(items, "  ") + "  " + right)
}

// updateViewport re-renders the filtered log into the viewport
func (m *Model) updateViewport() {
	lines := m.visibleLines()
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = formatLine(l)
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
}

// formatLine renders one log or console line
func formatLine(l domain.LogLine) string {
	return dimStyle.Render(l.DisplayTime()) + " " + categoryStyle(l.Category).Render(l.Message)
}

// consolePane renders the console: a bordered pane when open, the
// one-line indicator when minimized, nothing when closed
func (m Model) consolePane() string {
	if indicator := m.snapshot.Indicator(); indicator != "" {
		return consoleIndicatorStyle(m.snapshot).Render(indicator + "  (c to open)")
	}

	entries := m.snapshot.Visible()
	if entries == nil && m.snapshot.Visibility != domain.VisibilityOpen {
		return ""
	}

	inner := m.width - 4 // border + padding
	if inner < 10 {
		inner = 10
	}

	if len(entries) > consoleLines {
		entries = entries[len(entries)-consoleLines:]
	}
	rows := make([]string, 0, consoleLines+1)
	rows = append(rows, consoleTitleStyle.Render(consoleTitle(m.snapshot)))
	for _, e := range entries {
		rows = append(rows, ansi.Truncate(formatLine(e), inner, "…"))
	}
	for len(rows) < consoleLines+1 {
		rows = append(rows, "")
	}

	return consoleStyle.Width(m.width - 2).Render(strings.Join(rows, "\n"))
}

func consoleTitle(s console.Snapshot) string {
	name := s.Name
	if name == "" {
		name = "Console"
	}
	state := "idle"
	switch s.Status {
	case domain.ProcessStatusRunning:
		state = "running"
	case domain.ProcessStatusSuccess:
		state = "done"
	case domain.ProcessStatusError:
		state = "finished with errors"
	}
	return fmt.Sprintf("%s [%s]  (c minimize, x close)", name, state)
}

func consoleIndicatorStyle(s console.Snapshot) lipgloss.Style {
	switch {
	case s.Running():
		return runningStyle
	case s.Status == domain.ProcessStatusError:
		return errorStyle
	case s.Status == domain.ProcessStatusSuccess:
		return successStyle
	default:
		return dimStyle
	}
}

// statusBar renders the prompt in input modes, otherwise the view state
func (m Model) statusBar() string {
	switch m.mode {
	case ModeStringFilter:
		return statusStyle.Width(m.width).Render("Filter: " + m.textInput.View())
	case ModeDeploy:
		return statusStyle.Width(m.width).Render("Deploy domains: " + m.textInput.View())
	}

	follow := "[FOLLOW]"
	if !m.followMode {
		follow = "[PAUSED]"
	}
	tail := "[TAIL]"
	if !m.consumer.Tailing() {
		tail = "[HOLD]"
	}
	right := fmt.Sprintf("%s %s %d/%d lines", follow, tail, len(m.visibleLines()), m.consumer.Len())

	var left string
	switch {
	case m.filter.Pattern != "" || m.filter.MinCategory.Severity() > 0:
		left = "Filter: " + describeFilter(m.filter) + " (ESC to clear)"
	case m.deploying:
		left = "Deploying... | ? for help"
	default:
		left = "d: deploy | c: console | ? for help"
	}

	// Padding on both parts plus the gap
	avail := m.width - runewidth.StringWidth(right) - 6
	if avail < 0 {
		avail = 0
	}
	left = runewidth.Truncate(left, avail, "…")

	leftPart := statusStyle.Width(avail + 2).Render(left)
	rightPart := statusStyle.Render(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

func describeFilter(f domain.LogFilter) string {
	var parts []string
	if f.Pattern != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Pattern))
	}
	if f.MinCategory.Severity() > 0 {
		parts = append(parts, ">= "+f.MinCategory.String())
	}
	return strings.Join(parts, " ")
}

// helpView renders the help overlay
func (m Model) helpView() string {
	var sb strings.Builder
	sb.WriteString("woconsole - Live Console\n")
	for _, section := range keys.helpSections() {
		sb.WriteString("\n" + section.title + ":\n")
		for _, b := range section.bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "  %-10s %s\n", h.Key, h.Desc)
		}
	}
	sb.WriteString("  1-9        select source\n")
	sb.WriteString("\nPress any key to close help...")
	return helpStyle.Render(sb.String())
}
