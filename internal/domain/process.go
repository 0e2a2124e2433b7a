package domain

// ProcessStatus is the lifecycle state of the console process.
// A process moves idle -> running -> completed_success|completed_error.
type ProcessStatus string

const (
	// ProcessStatusIdle means no process has been started yet
	ProcessStatusIdle ProcessStatus = "idle"
	// ProcessStatusRunning means the operation is still issuing work
	ProcessStatusRunning ProcessStatus = "running"
	// ProcessStatusSuccess means every step of the operation succeeded
	ProcessStatusSuccess ProcessStatus = "completed_success"
	// ProcessStatusError means at least one step failed
	ProcessStatusError ProcessStatus = "completed_error"
)

// String returns the string representation of ProcessStatus
func (s ProcessStatus) String() string {
	return string(s)
}

// IsRunning returns true if the process is still running
func (s ProcessStatus) IsRunning() bool {
	return s == ProcessStatusRunning
}

// IsTerminal returns true for the two completed states
func (s ProcessStatus) IsTerminal() bool {
	return s == ProcessStatusSuccess || s == ProcessStatusError
}

// Visibility is the window state of the console viewer.
// It is independent of ProcessStatus.
type Visibility string

const (
	VisibilityClosed    Visibility = "closed"
	VisibilityOpen      Visibility = "open"
	VisibilityMinimized Visibility = "minimized"
)

// String returns the string representation of Visibility
func (v Visibility) String() string {
	return string(v)
}

// ConnStatus is the state of a live stream connection
type ConnStatus string

const (
	// ConnStatusIdle is used before any source is selected and after Close
	ConnStatusIdle       ConnStatus = "idle"
	ConnStatusConnecting ConnStatus = "connecting"
	ConnStatusConnected  ConnStatus = "connected"
	ConnStatusError      ConnStatus = "error"
)

// String returns the string representation of ConnStatus
func (s ConnStatus) String() string {
	return string(s)
}
