package logs

import (
	"sync"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
)

// Buffer is a bounded, append-only log buffer. Once full, each append
// evicts the oldest line, so it always holds the newest Cap() lines in
// insertion order.
type Buffer struct {
	mu       sync.RWMutex
	lines    []domain.LogLine
	head     int // next write position
	count    int // current number of lines
	capacity int // max lines
}

// NewBuffer creates a new buffer with the given capacity.
// A non-positive capacity selects constants.ConsoleBufferSize.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = constants.ConsoleBufferSize
	}
	return &Buffer{
		lines:    make([]domain.LogLine, capacity),
		capacity: capacity,
	}
}

// Append adds a line at the end, evicting the oldest line on overflow
func (b *Buffer) Append(line domain.LogLine) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.capacity

	if b.count < b.capacity {
		b.count++
	}
}

// Lines returns all lines oldest first
func (b *Buffer) Lines() []domain.LogLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastLocked(b.count)
}

// Last returns the newest n lines, oldest first
func (b *Buffer) Last(n int) []domain.LogLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastLocked(n)
}

func (b *Buffer) lastLocked(n int) []domain.LogLine {
	if b.count == 0 || n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]domain.LogLine, n)

	// When full the oldest line sits at head; otherwise at index 0
	var start int
	if b.count == b.capacity {
		start = (b.head - n + b.capacity) % b.capacity
	} else {
		start = b.count - n
	}

	for i := 0; i < n; i++ {
		result[i] = b.lines[(start+i)%b.capacity]
	}

	return result
}

// Len returns the current number of lines
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the maximum number of lines
func (b *Buffer) Cap() int {
	return b.capacity
}

// Clear removes all lines
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.lines)
	b.head = 0
	b.count = 0
}
