package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the normal-mode bindings
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	NextSource key.Binding
	PrevSource key.Binding
	Tailing    key.Binding
	Reconnect  key.Binding
	Filter     key.Binding
	Level      key.Binding
	Clear      key.Binding
	Console    key.Binding
	CloseCons  key.Binding
	Deploy     key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Follow     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	NextSource: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next source"),
	),
	PrevSource: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("Shift+Tab", "previous source"),
	),
	Tailing: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause/resume tailing"),
	),
	Reconnect: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reconnect"),
	),
	Filter: key.NewBinding(
		key.WithKeys("s", "/"),
		key.WithHelp("s", "string filter"),
	),
	Level: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "cycle minimum level"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("ESC", "clear filters"),
	),
	Console: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "open/minimize console"),
	),
	CloseCons: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "close console"),
	),
	Deploy: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "bulk deploy"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/↑", "scroll up (pauses follow)"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/↓", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "bottom (resumes follow)"),
	),
	Follow: key.NewBinding(
		key.WithKeys("F"),
		key.WithHelp("F", "toggle follow"),
	),
}

// helpSections groups bindings for the help overlay
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{"Sources", []key.Binding{k.NextSource, k.PrevSource, k.Tailing, k.Reconnect}},
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Follow}},
		{"Filtering", []key.Binding{k.Filter, k.Level, k.Clear}},
		{"Console", []key.Binding{k.Deploy, k.Console, k.CloseCons}},
		{"Other", []key.Binding{k.Help, k.Quit}},
	}
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
