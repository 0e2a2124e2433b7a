package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/charliek/woconsole/internal/domain"
)

// StreamLogs handles GET /api/v1/system/logs/stream/{source} (SSE).
// It sends the newest backlog lines, then follows the file.
func (h *Handlers) StreamLogs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "streaming not supported",
			Code:  domain.ErrCodeStreamingNotSupported,
		})
		return
	}

	src, known := h.registry.Lookup(name)

	// Subscribe before writing headers so a bad pattern can still get a 400
	var (
		backlog []domain.LogLine
		subID   string
		ch      <-chan domain.LogLine
	)
	if known && fileExists(src.Path) {
		var err error
		backlog, subID, ch, err = src.manager.SubscribeWithBacklog(parseFilter(r), h.backlog)
		if err != nil {
			writeError(w, err)
			return
		}
		defer src.manager.Unsubscribe(subID)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if ch == nil {
		missing := name
		if known {
			missing = src.Path
		}
		h.logger.Warn("log stream requested for missing file", "source", name, "path", missing)
		_ = writeEvent(w, "[ERROR] Log file not found: "+missing)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, ": connected\n\n")
	// Payloads are the raw lines so clients classify exactly what the
	// level filter saw
	for _, line := range backlog {
		if err := writeEvent(w, line.RawText()); err != nil {
			return
		}
	}
	flusher.Flush()

	h.logger.Debug("log stream opened", "source", name, "backlog", len(backlog))

	// Slow clients lose lines at the subscription; write errors and client
	// disconnects end the handler and release the subscription.
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("log stream closed by client", "source", name)
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, line.RawText()); err != nil {
				h.logger.Debug("SSE write error (client likely disconnected)", "source", name, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one single-line data event
func writeEvent(w http.ResponseWriter, payload string) error {
	payload = strings.TrimSpace(strings.ReplaceAll(payload, "\n", " "))
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
