// Package stream consumes a server-pushed log stream for one source at a time.
//
// A Consumer is owned by a single goroutine (the TUI update loop or the
// plain printer loop). Network work happens on a per-connection pump
// goroutine that only talks to the owner through Events(); the owner
// applies each event with Handle.
package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/logs"
)

// Conn is an open push channel
type Conn interface {
	// Next blocks until the next payload arrives. It returns io.EOF when
	// the server ends the stream.
	Next() (string, error)
	Close() error
}

// Dialer opens a push channel for a source. The token travels as a
// request parameter.
type Dialer interface {
	Dial(ctx context.Context, source, token string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, source, token string) (Conn, error)

// Dial calls f
func (f DialerFunc) Dial(ctx context.Context, source, token string) (Conn, error) {
	return f(ctx, source, token)
}

// Config configures a Consumer
type Config struct {
	Dialer      Dialer
	Token       string
	BufferSize  int // lines kept for the active source
	EventBuffer int // capacity of the events channel
	Now         func() time.Time
	Logger      *slog.Logger
}

// Consumer owns at most one live connection and the bounded buffer of
// the currently selected source
type Consumer struct {
	dialer Dialer
	token  string
	now    func() time.Time
	log    *slog.Logger

	events chan Event
	buffer *logs.Buffer

	source  string
	status  domain.ConnStatus
	err     error
	tailing bool
	gen     uint64
	active  *pump
}

type pump struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Consumer in the idle state with tailing enabled
func New(cfg Config) *Consumer {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = constants.DefaultSubscriptionBuffer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Consumer{
		dialer:  cfg.Dialer,
		token:   cfg.Token,
		now:     cfg.Now,
		log:     cfg.Logger,
		events:  make(chan Event, cfg.EventBuffer),
		buffer:  logs.NewBuffer(cfg.BufferSize),
		status:  domain.ConnStatusIdle,
		tailing: true,
	}
}

// Events returns the channel the owner must drain and feed to Handle
func (c *Consumer) Events() <-chan Event {
	return c.events
}

// Select switches to source. The active connection is torn down, the
// buffer is cleared and a new connection is started. The new dial does
// not begin until the previous connection has been closed.
func (c *Consumer) Select(source string) {
	prev := c.teardown()

	c.gen++
	c.source = source
	c.buffer.Clear()
	c.err = nil

	if c.token == "" {
		c.status = domain.ConnStatusError
		c.err = domain.ErrMissingCredential
		c.log.Warn("log stream not opened", "source", source, "error", c.err)
		return
	}

	c.status = domain.ConnStatusConnecting

	ctx, cancel := context.WithCancel(context.Background())
	p := &pump{gen: c.gen, cancel: cancel, done: make(chan struct{})}
	c.active = p
	go c.run(ctx, p, prev, source)
}

// Reconnect re-selects the current source. It does nothing before the
// first Select.
func (c *Consumer) Reconnect() {
	if c.source == "" {
		return
	}
	c.Select(c.source)
}

// Close tears down the active connection and returns the status to idle.
// Events still queued are stale and Handle ignores them.
func (c *Consumer) Close() {
	c.teardown()
	c.gen++
	c.status = domain.ConnStatusIdle
	c.err = nil
}

// SetTailing gates whether received lines are appended. It never
// touches the connection.
func (c *Consumer) SetTailing(on bool) {
	c.tailing = on
}

// Tailing reports whether received lines are appended
func (c *Consumer) Tailing() bool {
	return c.tailing
}

// Handle applies one event and reports whether visible state changed.
// Events from a superseded connection are dropped.
func (c *Consumer) Handle(ev Event) bool {
	if ev == nil || ev.Generation() != c.gen {
		return false
	}

	switch e := ev.(type) {
	case Opened:
		if c.status != domain.ConnStatusConnecting {
			return false
		}
		c.status = domain.ConnStatusConnected
		c.log.Debug("log stream connected", "source", c.source)
		return true

	case Line:
		if !c.tailing {
			return false
		}
		c.buffer.Append(logs.NewLine(c.source, e.Raw, e.At))
		return true

	case Failed:
		c.status = domain.ConnStatusError
		c.err = e.Err
		// Keep the pump referenced so the next Select waits for its conn to close
		if c.active != nil {
			c.active.cancel()
		}
		c.log.Warn("log stream failed", "source", c.source, "error", e.Err)
		return true
	}

	return false
}

// Source returns the selected source, empty before the first Select
func (c *Consumer) Source() string {
	return c.source
}

// Status returns the connection status
func (c *Consumer) Status() domain.ConnStatus {
	return c.status
}

// Err returns the error behind an error status
func (c *Consumer) Err() error {
	return c.err
}

// Lines returns the buffered lines of the current source, oldest first
func (c *Consumer) Lines() []domain.LogLine {
	return c.buffer.Lines()
}

// Len returns the number of buffered lines
func (c *Consumer) Len() int {
	return c.buffer.Len()
}

// teardown cancels the active pump and returns its done channel
func (c *Consumer) teardown() <-chan struct{} {
	p := c.active
	if p == nil {
		return nil
	}
	c.active = nil
	p.cancel()
	return p.done
}

func (c *Consumer) run(ctx context.Context, p *pump, prev <-chan struct{}, source string) {
	defer close(p.done)

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	conn, err := c.dialer.Dial(ctx, source, c.token)
	if err != nil {
		if ctx.Err() == nil {
			c.post(ctx, Failed{Gen: p.gen, Err: err})
		}
		return
	}

	// Cancellation closes the conn to unblock Next. done is only closed
	// after Close has returned.
	var once sync.Once
	closeConn := func() {
		once.Do(func() {
			if err := conn.Close(); err != nil {
				c.log.Debug("closing log stream", "source", source, "error", err)
			}
		})
	}
	stop := context.AfterFunc(ctx, closeConn)
	defer func() {
		stop()
		closeConn()
	}()

	if !c.post(ctx, Opened{Gen: p.gen}) {
		return
	}

	for {
		raw, err := conn.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = domain.ErrStreamClosed
			}
			c.post(ctx, Failed{Gen: p.gen, Err: err})
			return
		}
		if !c.post(ctx, Line{Gen: p.gen, Raw: raw, At: c.now()}) {
			return
		}
	}
}

func (c *Consumer) post(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
