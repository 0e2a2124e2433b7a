package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *Registry
	backlog  int
	logger   *slog.Logger
}

// NewHandlers creates new HTTP handlers. A non-positive backlog selects
// constants.RelayBacklogLines.
func NewHandlers(registry *Registry, backlog int, logger *slog.Logger) *Handlers {
	if backlog <= 0 {
		backlog = constants.RelayBacklogLines
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		registry: registry,
		backlog:  backlog,
		logger:   logger,
	}
}

// LogHealth handles GET /api/v1/system/logs/health
func (h *Handlers) LogHealth(w http.ResponseWriter, r *http.Request) {
	health := h.registry.Health()

	resp := make(map[string]SourceHealthResponse, len(health))
	for name, sh := range health {
		resp[name] = ToSourceHealthResponse(sh)
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseFilter extracts the optional stream filter from the query string
func parseFilter(r *http.Request) domain.LogFilter {
	q := r.URL.Query()
	return domain.LogFilter{
		Pattern:     q.Get("pattern"),
		IsRegex:     q.Get("regex") == "true",
		MinCategory: domain.ParseCategory(q.Get("level")),
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrUnknownSource):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidPattern):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  domain.ErrorCode(err),
	})
}
