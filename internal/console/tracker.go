// Package console tracks the single current background operation shown in
// the operator console.
package console

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charliek/woconsole/internal/domain"
)

// Entry is one console line
type Entry = domain.LogLine

// Snapshot is a copy of the tracker state at one point in time
type Snapshot struct {
	ID         string
	Name       string
	Status     domain.ProcessStatus
	Visibility domain.Visibility
	Entries    []Entry
	StartedAt  time.Time
	FinishedAt time.Time
}

// Running reports whether the process is still issuing work
func (s Snapshot) Running() bool {
	return s.Status.IsRunning()
}

// Tracker holds the current console process. One Tracker is created per
// application and shared by the orchestrator (the writer) and any number
// of views (readers).
type Tracker struct {
	mu   sync.Mutex
	now  func() time.Time
	proc Snapshot
	// started is false until the first Start
	started bool

	subs   map[int]chan struct{}
	nextID int
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the capture-time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates an idle, closed tracker
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now: time.Now,
		proc: Snapshot{
			Status:     domain.ProcessStatusIdle,
			Visibility: domain.VisibilityClosed,
		},
		subs: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start replaces the current process with a new running one. Previous
// entries are discarded and the console is opened. Returns the process id.
func (t *Tracker) Start(name string) string {
	t.mu.Lock()
	now := t.now()
	t.proc = Snapshot{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     domain.ProcessStatusRunning,
		Visibility: domain.VisibilityOpen,
		StartedAt:  now,
		Entries: []Entry{{
			Time:     now,
			Message:  fmt.Sprintf("Starting process: %s...", name),
			Category: domain.CategoryNormal,
		}},
	}
	t.started = true
	id := t.proc.ID
	t.mu.Unlock()

	t.notify()
	return id
}

// Log appends an entry. Logging after completion is allowed.
func (t *Tracker) Log(message string, category domain.Category) error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return domain.ErrNoProcess
	}
	t.proc.Entries = append(t.proc.Entries, Entry{
		Time:     t.now(),
		Message:  message,
		Category: category,
	})
	t.mu.Unlock()

	t.notify()
	return nil
}

// Complete moves the running process to a terminal status and appends a
// summary entry. Visibility is left alone.
func (t *Tracker) Complete(outcome domain.ProcessStatus) error {
	if !outcome.IsTerminal() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidOutcome, outcome)
	}

	t.mu.Lock()
	switch {
	case !t.started:
		t.mu.Unlock()
		return domain.ErrNoProcess
	case t.proc.Status.IsTerminal():
		t.mu.Unlock()
		return domain.ErrProcessCompleted
	}

	now := t.now()
	t.proc.Status = outcome
	t.proc.FinishedAt = now

	summary := Entry{Time: now, Message: "Process completed successfully.", Category: domain.CategorySuccess}
	if outcome == domain.ProcessStatusError {
		summary = Entry{Time: now, Message: "Process finished with errors.", Category: domain.CategoryError}
	}
	t.proc.Entries = append(t.proc.Entries, summary)
	t.mu.Unlock()

	t.notify()
	return nil
}

// SetVisibility changes how the console is shown. It never affects the
// running operation.
func (t *Tracker) SetVisibility(v domain.Visibility) {
	t.mu.Lock()
	if t.proc.Visibility == v {
		t.mu.Unlock()
		return
	}
	t.proc.Visibility = v
	t.mu.Unlock()

	t.notify()
}

// Snapshot returns a copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.proc
	s.Entries = append([]Entry(nil), t.proc.Entries...)
	return s
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications coalesce: a reader that falls behind sees one pending
// signal and re-reads Snapshot.
func (t *Tracker) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = ch
	t.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
	return ch, cancel
}

func (t *Tracker) notify() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
