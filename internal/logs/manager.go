package logs

import (
	"sync"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
)

// ManagerConfig holds configuration for the log manager
type ManagerConfig struct {
	BufferSize         int // Number of lines to keep in the buffer
	SubscriptionBuffer int // Buffer size for subscription channels
}

// DefaultManagerConfig returns the default configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BufferSize:         constants.RelayBufferSize,
		SubscriptionBuffer: constants.DefaultSubscriptionBuffer,
	}
}

// Manager stores the lines of one log source and fans them out to subscribers
type Manager struct {
	// mu orders Write against SubscribeWithBacklog so a new subscriber
	// sees every line exactly once, either in its backlog or on its channel.
	mu            sync.Mutex
	buffer        *Buffer
	subscriptions *SubscriptionManager
}

// NewManager creates a new log manager
func NewManager(config ManagerConfig) *Manager {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultManagerConfig().BufferSize
	}
	if config.SubscriptionBuffer <= 0 {
		config.SubscriptionBuffer = DefaultManagerConfig().SubscriptionBuffer
	}

	return &Manager{
		buffer:        NewBuffer(config.BufferSize),
		subscriptions: NewSubscriptionManager(config.SubscriptionBuffer),
	}
}

// Write adds a line to the buffer and broadcasts it to subscribers
func (m *Manager) Write(line domain.LogLine) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer.Append(line)
	m.subscriptions.Broadcast(line)
}

// QueryLast retrieves the last n lines matching the filter.
// Returns the lines and the total count before limiting.
func (m *Manager) QueryLast(filter domain.LogFilter, n int) ([]domain.LogLine, int, error) {
	return FilterLinesLimit(m.buffer.Lines(), filter, n)
}

// Subscribe creates a subscription for lines matching the filter
func (m *Manager) Subscribe(filter domain.LogFilter) (string, <-chan domain.LogLine, error) {
	return m.subscriptions.Subscribe(filter)
}

// SubscribeWithBacklog returns the last n matching lines together with a
// subscription that starts right after them
func (m *Manager) SubscribeWithBacklog(filter domain.LogFilter, n int) ([]domain.LogLine, string, <-chan domain.LogLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	backlog, _, err := m.QueryLast(filter, n)
	if err != nil {
		return nil, "", nil, err
	}

	id, ch, err := m.subscriptions.Subscribe(filter)
	if err != nil {
		return nil, "", nil, err
	}

	return backlog, id, ch, nil
}

// Unsubscribe removes a subscription
func (m *Manager) Unsubscribe(id string) {
	m.subscriptions.Unsubscribe(id)
}

// Stats returns statistics about the log manager
func (m *Manager) Stats() domain.LogStats {
	return domain.LogStats{
		TotalEntries: m.buffer.Len(),
		BufferSize:   m.buffer.Cap(),
		Subscribers:  m.subscriptions.Count(),
	}
}

// Close closes the manager and all subscriptions
func (m *Manager) Close() {
	m.subscriptions.Close()
}
