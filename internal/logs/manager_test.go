package logs

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charliek/woconsole/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Write(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 10})
	defer m.Close()

	m.Write(makeLine("hello"))
	m.Write(makeLine("world"))

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
}

func TestManager_QueryLast(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 100})
	defer m.Close()

	for i := 0; i < 20; i++ {
		m.Write(makeLine(string(rune('A' + i))))
	}

	lines, total, err := m.QueryLast(domain.LogFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, lines, 5)
	assert.Equal(t, 20, total)

	assert.Equal(t, "P", lines[0].Message)
	assert.Equal(t, "T", lines[4].Message)
}

func TestManager_QueryLastWithFilter(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 100})
	defer m.Close()

	m.Write(makeLine("GET /"))
	m.Write(makeLine("error: upstream"))
	m.Write(makeLine("GET /about"))

	lines, total, err := m.QueryLast(domain.LogFilter{MinCategory: domain.CategoryError}, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "error: upstream", lines[0].Message)
}

func TestManager_Subscribe(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 10, SubscriptionBuffer: 10})
	defer m.Close()

	id, ch, err := m.Subscribe(domain.LogFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	m.Write(makeLine("after subscribe"))

	select {
	case msg := <-ch:
		assert.Equal(t, "after subscribe", msg.Message)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected to receive message")
	}
}

func TestManager_SubscribeWithFilter(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 10, SubscriptionBuffer: 10})
	defer m.Close()

	_, ch, err := m.Subscribe(domain.LogFilter{Pattern: "php"})
	require.NoError(t, err)

	m.Write(makeLine("nginx message"))
	m.Write(makeLine("php message"))

	select {
	case msg := <-ch:
		assert.Equal(t, "php message", msg.Message)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected to receive php message")
	}

	select {
	case <-ch:
		t.Fatal("should not receive nginx message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_SubscribeWithBacklog(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 100, SubscriptionBuffer: 10})
	defer m.Close()

	for i := 0; i < 30; i++ {
		m.Write(makeLine(strconv.Itoa(i)))
	}

	backlog, id, ch, err := m.SubscribeWithBacklog(domain.LogFilter{}, 20)
	require.NoError(t, err)
	defer m.Unsubscribe(id)

	require.Len(t, backlog, 20)
	assert.Equal(t, "10", backlog[0].Message)
	assert.Equal(t, "29", backlog[19].Message)

	m.Write(makeLine("30"))
	select {
	case msg := <-ch:
		assert.Equal(t, "30", msg.Message)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected live line after backlog")
	}
}

func TestManager_SubscribeWithBacklog_InvalidPattern(t *testing.T) {
	m := NewManager(ManagerConfig{})
	defer m.Close()

	_, _, _, err := m.SubscribeWithBacklog(domain.LogFilter{Pattern: "(", IsRegex: true}, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidPattern)
	assert.Equal(t, 0, m.Stats().Subscribers)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 10, SubscriptionBuffer: 10})
	defer m.Close()

	id, ch, _ := m.Subscribe(domain.LogFilter{})
	m.Unsubscribe(id)

	m.Write(makeLine("after unsubscribe"))

	_, ok := <-ch
	assert.False(t, ok)
}

func TestManager_Stats(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 100, SubscriptionBuffer: 10})
	defer m.Close()

	for i := 0; i < 10; i++ {
		m.Write(makeLine("line"))
	}

	_, _, _ = m.Subscribe(domain.LogFilter{})
	_, _, _ = m.Subscribe(domain.LogFilter{})

	stats := m.Stats()
	assert.Equal(t, 10, stats.TotalEntries)
	assert.Equal(t, 100, stats.BufferSize)
	assert.Equal(t, 2, stats.Subscribers)
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(ManagerConfig{BufferSize: 1000, SubscriptionBuffer: 100})
	defer m.Close()

	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Write(makeLine("concurrent write"))
			}
		}()
	}

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _, _ = m.QueryLast(domain.LogFilter{}, 10)
			}
		}()
	}

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, id, _, _ := m.SubscribeWithBacklog(domain.LogFilter{}, 5)
				m.Unsubscribe(id)
			}
		}()
	}

	wg.Wait()

	stats := m.Stats()
	assert.Equal(t, 500, stats.TotalEntries)
}

func TestManager_DefaultConfig(t *testing.T) {
	m := NewManager(ManagerConfig{})
	defer m.Close()

	stats := m.Stats()
	assert.Equal(t, 1000, stats.BufferSize)
}
