package integration

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

const (
	testRelayPort = 18765
	testRelayAddr = "http://127.0.0.1:18765"
)

// buildBinary builds the woconsole binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	// Get project root (two directories up from test/integration)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	projectRoot := filepath.Join(wd, "..", "..")

	binary := filepath.Join(t.TempDir(), "woconsole")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/woconsole")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

// waitForRelay waits for the relay to answer its health check
func waitForRelay(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("relay did not become ready within %v", timeout)
}

// startWoconsole starts the binary in dir with the given arguments.
// HOME points at dir so generated tokens stay in the test sandbox.
func startWoconsole(t *testing.T, binary, dir string, stdout io.Writer, args ...string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+dir, "NO_COLOR=1")
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start woconsole: %v", err)
	}

	return cmd
}

// startRelay runs "woconsole relay" on testRelayPort with the given sources
func startRelay(t *testing.T, binary, dir string, sources map[string]string, extra ...string) *exec.Cmd {
	t.Helper()

	args := []string{"relay", "--port", fmt.Sprint(testRelayPort)}
	for name, path := range sources {
		args = append(args, "--source", name+"="+path)
	}
	args = append(args, extra...)

	cmd := startWoconsole(t, binary, dir, os.Stdout, args...)
	t.Cleanup(func() { killWoconsole(cmd) })
	waitForRelay(t, testRelayAddr, 10*time.Second)
	return cmd
}

// interrupt sends SIGINT and waits for the process to exit
func interrupt(t *testing.T, cmd *exec.Cmd, timeout time.Duration) error {
	t.Helper()

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		t.Fatalf("process did not exit within %v", timeout)
		return nil
	}
}

// killWoconsole forcefully kills the process
func killWoconsole(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil && cmd.ProcessState == nil {
		cmd.Process.Kill()
		cmd.Wait()
	}
}

// appendLines appends lines to a log file
func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	requireNoError(t, err, "opening log file")
	defer f.Close()

	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		requireNoError(t, err, "writing log file")
	}
}

// readEvents reads data payloads from an SSE body until n arrive or the
// timeout passes
func readEvents(body io.Reader, n int, timeout time.Duration) []string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				out <- data
			}
		}
	}()

	var events []string
	deadline := time.After(timeout)
	for len(events) < n {
		select {
		case e, ok := <-out:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-deadline:
			return events
		}
	}
	return events
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// syncBuffer collects process output across goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
