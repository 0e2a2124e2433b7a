package domain

import "time"

// Category is the display category of a log line
type Category string

const (
	CategoryNormal  Category = "normal"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
	// CategorySuccess and CategoryRunning are only produced by console
	// progress reporting, never by the line classifier.
	CategorySuccess Category = "success"
	CategoryRunning Category = "running"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Severity orders categories for minimum-level filtering.
// Success and running lines rank with normal output.
func (c Category) Severity() int {
	switch c {
	case CategoryError:
		return 2
	case CategoryWarning:
		return 1
	default:
		return 0
	}
}

// ParseCategory converts a string to a Category.
// Unknown values map to CategoryNormal.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryWarning, CategoryError, CategorySuccess, CategoryRunning:
		return Category(s)
	default:
		return CategoryNormal
	}
}

// LogLine is a single classified log line. It is a value type and is
// never modified after creation.
type LogLine struct {
	Time     time.Time `json:"time"`
	Source   string    `json:"source,omitempty"`
	Message  string    `json:"message"`
	Category Category  `json:"category"`
	// Raw is the text as read, escape sequences included. Category is
	// always derived from it.
	Raw string `json:"-"`
}

// RawText returns the line as read, or Message for lines built without
// raw text
func (l LogLine) RawText() string {
	if l.Raw != "" {
		return l.Raw
	}
	return l.Message
}

// DisplayTime returns the capture time formatted for display
func (l LogLine) DisplayTime() string {
	return l.Time.Format("15:04:05")
}

// LogFilter defines criteria for filtering log lines
type LogFilter struct {
	Pattern     string   // Filter by pattern match
	IsRegex     bool     // If true, Pattern is a regex; otherwise case-insensitive substring match
	MinCategory Category // Only lines at or above this severity; empty means all
}

// IsEmpty returns true if no filters are set
func (f LogFilter) IsEmpty() bool {
	return f.Pattern == "" && f.MinCategory.Severity() == 0
}

// LogStats contains statistics about a log buffer
type LogStats struct {
	TotalEntries int
	BufferSize   int
	Subscribers  int
}
