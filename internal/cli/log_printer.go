package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charliek/woconsole/internal/console"
	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
)

// LogPrinter writes log and console lines with category colors
type LogPrinter struct {
	mu         sync.Mutex
	w          io.Writer
	color      bool
	showSource bool
}

// NewLogPrinter creates a new LogPrinter
func NewLogPrinter(w io.Writer, color, showSource bool) *LogPrinter {
	return &LogPrinter{w: w, color: color, showSource: showSource}
}

// PrintLine prints one line as "15:04:05 [source] message"
func (lp *LogPrinter) PrintLine(line domain.LogLine) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	ts := line.DisplayTime()
	msg := line.Message
	if lp.color {
		ts = constants.ColorDim + ts + constants.ColorReset
		if c := categoryColor(line.Category); c != "" {
			msg = c + msg + constants.ColorReset
		}
	}

	if lp.showSource && line.Source != "" {
		fmt.Fprintf(lp.w, "%s %-12s | %s\n", ts, line.Source, msg)
		return
	}
	fmt.Fprintf(lp.w, "%s %s\n", ts, msg)
}

// PrintEntries prints console entries starting at index from and returns
// the index of the next unprinted entry
func (lp *LogPrinter) PrintEntries(snap console.Snapshot, from int) int {
	if from > len(snap.Entries) {
		from = 0
	}
	for _, e := range snap.Entries[from:] {
		lp.PrintLine(e)
	}
	return len(snap.Entries)
}

func categoryColor(c domain.Category) string {
	switch c {
	case domain.CategoryError:
		return constants.ColorBrightRed
	case domain.CategoryWarning:
		return constants.ColorYellow
	case domain.CategorySuccess:
		return constants.ColorGreen
	case domain.CategoryRunning:
		return constants.ColorCyan
	default:
		return ""
	}
}
