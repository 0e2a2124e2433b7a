package api

import "github.com/charliek/woconsole/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SourceHealthResponse is one entry of GET /system/logs/health
type SourceHealthResponse struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Readable bool   `json:"readable"`
	Status   string `json:"status"`
}

// ToSourceHealthResponse converts a domain.SourceHealth to its wire form
func ToSourceHealthResponse(h domain.SourceHealth) SourceHealthResponse {
	return SourceHealthResponse{
		Path:     h.Path,
		Exists:   h.Exists,
		Readable: h.Readable,
		Status:   h.Status,
	}
}
