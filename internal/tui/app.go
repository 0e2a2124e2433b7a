package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI application and blocks until the operator quits
// or ctx is cancelled. Quitting cancels any deploy still scheduling
// items and closes the live stream.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, unsubscribe := opts.Tracker.Subscribe()
	defer unsubscribe()
	defer opts.Consumer.Close()

	model := NewModel(ctx, opts, changes)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	_, err := p.Run()
	if ctx.Err() != nil && err != nil {
		// Cancelled from outside (signal); not a failure
		return nil
	}
	return err
}
