package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/logs"
	"github.com/charliek/woconsole/internal/stream"
)

// scriptedConn replays payloads, then blocks or ends the stream
type scriptedConn struct {
	mu       sync.Mutex
	payloads []string
	block    bool
	closed   chan struct{}
	once     sync.Once
}

func newScriptedConn(block bool, payloads ...string) *scriptedConn {
	return &scriptedConn{payloads: payloads, block: block, closed: make(chan struct{})}
}

func (c *scriptedConn) Next() (string, error) {
	c.mu.Lock()
	if len(c.payloads) > 0 {
		p := c.payloads[0]
		c.payloads = c.payloads[1:]
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	if c.block {
		<-c.closed
		return "", io.ErrClosedPipe
	}
	return "", io.EOF
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func newPlainConsumer(conn stream.Conn, token string) *stream.Consumer {
	return stream.New(stream.Config{
		Dialer: stream.DialerFunc(func(ctx context.Context, source, tok string) (stream.Conn, error) {
			return conn, nil
		}),
		Token: token,
		Now:   func() time.Time { return printerTime },
	})
}

func TestPickSource(t *testing.T) {
	sources := []string{"audit", "php"}

	got, err := pickSource(sources, nil)
	require.NoError(t, err)
	assert.Equal(t, "audit", got)

	got, err = pickSource(sources, []string{"php"})
	require.NoError(t, err)
	assert.Equal(t, "php", got)

	_, err = pickSource(sources, []string{"mysql"})
	assert.ErrorIs(t, err, domain.ErrUnknownSource)

	_, err = pickSource(nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSource)
}

func TestFollowPlain_PrintsMatchingLinesUntilServerCloses(t *testing.T) {
	conn := newScriptedConn(false,
		"GET /index.php 200",
		"[warning] upstream slow",
		"PHP Fatal error: boom",
	)
	filter, err := logs.NewFilter(domain.LogFilter{MinCategory: domain.CategoryWarning})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = followPlain(context.Background(), newPlainConsumer(conn, "tok"), "php", filter, NewLogPrinter(&buf, false, false))

	assert.ErrorIs(t, err, domain.ErrStreamClosed)
	assert.Equal(t, "12:30:45 [warning] upstream slow\n12:30:45 PHP Fatal error: boom\n", buf.String())
}

func TestFollowPlain_StopsOnCancel(t *testing.T) {
	conn := newScriptedConn(true, "first line")
	filter, err := logs.NewFilter(domain.LogFilter{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	lp := NewLogPrinter(&buf, false, false)

	done := make(chan error, 1)
	go func() {
		done <- followPlain(ctx, newPlainConsumer(conn, "tok"), "audit", filter, lp)
	}()

	require.Eventually(t, func() bool {
		lp.mu.Lock()
		defer lp.mu.Unlock()
		return buf.Len() > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("followPlain did not return after cancel")
	}

	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("connection was not closed")
	}
}

func TestFollowPlain_MissingCredential(t *testing.T) {
	filter, err := logs.NewFilter(domain.LogFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = followPlain(context.Background(), newPlainConsumer(newScriptedConn(false), ""), "audit", filter, NewLogPrinter(&buf, false, false))
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Empty(t, buf.String())
}
