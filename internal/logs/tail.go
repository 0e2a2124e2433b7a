package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/fsnotify/fsnotify"
)

// DefaultBacklogBytes is how far back from the end of an existing file
// the tailer starts reading
const DefaultBacklogBytes = 64 * 1024

// LineWriter receives tailed lines. *Manager implements it.
type LineWriter interface {
	Write(line domain.LogLine)
}

// TailerConfig configures a Tailer
type TailerConfig struct {
	Source       string
	Path         string
	PollInterval time.Duration
	BacklogBytes int64
	Logger       *slog.Logger
	Now          func() time.Time
}

// Tailer follows a log file across appends, truncation and rotation and
// writes every complete line to a LineWriter
type Tailer struct {
	cfg  TailerConfig
	out  LineWriter
	log  *slog.Logger
	file *os.File
	rd   *bufio.Reader

	offset  int64
	partial string
	// started is set once the first open happened; files that appear
	// later are read from the beginning
	started bool
}

// NewTailer creates a tailer for cfg.Path
func NewTailer(cfg TailerConfig, out LineWriter) *Tailer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.TailPollInterval
	}
	if cfg.BacklogBytes <= 0 {
		cfg.BacklogBytes = DefaultBacklogBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tailer{
		cfg: cfg,
		out: out,
		log: logger.With("source", cfg.Source, "path", cfg.Path),
	}
}

// Run follows the file until ctx is cancelled. A missing file is not an
// error; the tailer waits for it to appear.
func (t *Tailer) Run(ctx context.Context) error {
	defer t.closeFile()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.log.Warn("file watcher unavailable, polling only", "error", err)
	} else {
		defer watcher.Close()
		// Watch the directory so rotated and recreated files are noticed
		if err := watcher.Add(filepath.Dir(t.cfg.Path)); err != nil {
			t.log.Warn("cannot watch log directory, polling only", "error", err)
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	t.poll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(t.cfg.Path) {
				t.poll()
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			t.log.Warn("file watcher error", "error", err)
		case <-ticker.C:
			t.poll()
		}
	}
}

// poll reads whatever was appended since the last call
func (t *Tailer) poll() {
	if t.file == nil {
		if err := t.open(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				t.log.Debug("open failed", "error", err)
			}
			return
		}
	}

	info, err := t.file.Stat()
	if err != nil {
		t.log.Debug("stat failed", "error", err)
		return
	}

	if info.Size() < t.offset {
		t.log.Info("log file truncated, reading from start")
		if err := t.seek(0); err != nil {
			t.log.Warn("seek failed", "error", err)
			t.closeFile()
			return
		}
	}

	t.readLines()

	// Rotation: the path now names a different file. Drain the old one
	// first, then switch.
	current, err := os.Stat(t.cfg.Path)
	if err != nil || !os.SameFile(info, current) {
		t.log.Info("log file rotated")
		t.flushPartial()
		t.closeFile()
		if err == nil {
			t.poll()
		}
	}
}

func (t *Tailer) open() error {
	f, err := os.Open(t.cfg.Path)
	if err != nil {
		return err
	}
	t.file = f
	t.rd = bufio.NewReaderSize(f, constants.ScannerBufferSize)
	t.partial = ""

	var start int64
	if !t.started {
		info, err := f.Stat()
		if err != nil {
			t.closeFile()
			return fmt.Errorf("stat %s: %w", t.cfg.Path, err)
		}
		start = max(info.Size()-t.cfg.BacklogBytes, 0)
	}
	t.started = true

	if err := t.seek(start); err != nil {
		t.closeFile()
		return err
	}
	if start > 0 {
		// Skip the partial line we landed in. If it has no newline yet it
		// is the line still being written, so keep its tail pending.
		skipped, err := t.rd.ReadString('\n')
		t.offset += int64(len(skipped))
		if err != nil {
			t.partial = skipped
		}
	}
	t.log.Debug("tailing log file", "offset", t.offset)
	return nil
}

func (t *Tailer) seek(offset int64) error {
	if _, err := t.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", t.cfg.Path, err)
	}
	t.rd.Reset(t.file)
	t.offset = offset
	t.partial = ""
	return nil
}

func (t *Tailer) readLines() {
	for {
		chunk, err := t.rd.ReadString('\n')
		t.offset += int64(len(chunk))
		if err != nil {
			// Incomplete last line stays pending until its newline arrives
			t.partial += chunk
			if len(t.partial) > constants.ScannerMaxBufferSize {
				t.flushPartial()
			}
			return
		}
		t.emit(t.partial + chunk)
		t.partial = ""
	}
}

func (t *Tailer) flushPartial() {
	if t.partial != "" {
		t.emit(t.partial)
		t.partial = ""
	}
}

func (t *Tailer) emit(raw string) {
	raw = strings.TrimRight(raw, "\r\n")
	t.out.Write(NewLine(t.cfg.Source, raw, t.cfg.Now()))
}

func (t *Tailer) closeFile() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
		t.rd = nil
	}
}
