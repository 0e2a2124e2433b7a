package console

import (
	"fmt"

	"github.com/charliek/woconsole/internal/domain"
)

// Indicator returns the one-line minimized indicator, or "" when the
// console is not minimized
func (s Snapshot) Indicator() string {
	if s.Visibility != domain.VisibilityMinimized {
		return ""
	}
	state := "idle"
	if s.Running() {
		state = "running"
	}
	return fmt.Sprintf("[%s] %s", state, s.Name)
}

// Visible returns the entries that should be rendered: none when closed
// or minimized, all of them oldest first when open
func (s Snapshot) Visible() []Entry {
	if s.Visibility != domain.VisibilityOpen {
		return nil
	}
	return s.Entries
}
