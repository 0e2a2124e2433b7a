package logs

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/google/uuid"
)

// Subscription represents a log subscriber
type Subscription struct {
	id      string
	ch      chan domain.LogLine
	filter  *Filter
	closed  atomic.Bool
	dropped atomic.Uint64
}

// newSubscription creates a new subscription
func newSubscription(filter domain.LogFilter, bufferSize int) (*Subscription, error) {
	f, err := NewFilter(filter)
	if err != nil {
		return nil, err
	}

	return &Subscription{
		id:     "sub-" + uuid.NewString(),
		ch:     make(chan domain.LogLine, bufferSize),
		filter: f,
	}, nil
}

// ID returns the subscription ID
func (s *Subscription) ID() string {
	return s.id
}

// Channel returns the channel for receiving log lines
func (s *Subscription) Channel() <-chan domain.LogLine {
	return s.ch
}

// Dropped returns how many lines were dropped because the subscriber lagged
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Send attempts to send a line to the subscriber.
// Returns false if the channel is full or closed.
func (s *Subscription) Send(line domain.LogLine) bool {
	if s.closed.Load() {
		return false
	}

	if !s.filter.Matches(line) {
		return true // filtered out, but not a failure
	}

	select {
	case s.ch <- line:
		return true
	default:
		// Only the first drop is logged; a stuck client would flood the log otherwise
		if s.dropped.Add(1) == 1 {
			slog.Warn("subscription lagging, dropping lines", "subscription", s.id, "source", line.Source)
		}
		return false
	}
}

// Close closes the subscription
func (s *Subscription) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}

// SubscriptionManager manages multiple subscriptions
type SubscriptionManager struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	bufferSize    int
}

// NewSubscriptionManager creates a new subscription manager
func NewSubscriptionManager(bufferSize int) *SubscriptionManager {
	if bufferSize <= 0 {
		bufferSize = constants.DefaultSubscriptionBuffer
	}
	return &SubscriptionManager{
		subscriptions: make(map[string]*Subscription),
		bufferSize:    bufferSize,
	}
}

// Subscribe creates a new subscription
func (m *SubscriptionManager) Subscribe(filter domain.LogFilter) (string, <-chan domain.LogLine, error) {
	sub, err := newSubscription(filter, m.bufferSize)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	m.subscriptions[sub.id] = sub
	m.mu.Unlock()

	return sub.id, sub.ch, nil
}

// Unsubscribe removes a subscription
func (m *SubscriptionManager) Unsubscribe(id string) {
	m.mu.Lock()
	sub, ok := m.subscriptions[id]
	if ok {
		delete(m.subscriptions, id)
	}
	m.mu.Unlock()

	if ok {
		sub.Close()
	}
}

// Broadcast sends a line to all subscribers
func (m *SubscriptionManager) Broadcast(line domain.LogLine) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscriptions {
		sub.Send(line)
	}
}

// Count returns the number of active subscriptions
func (m *SubscriptionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes all subscriptions
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.subscriptions = make(map[string]*Subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
