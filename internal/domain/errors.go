package domain

import "errors"

// Domain errors
var (
	ErrMissingCredential = errors.New("no credential available for log stream")
	ErrStreamClosed      = errors.New("log stream closed by server")
	ErrUnknownSource     = errors.New("unknown log source")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNoProcess         = errors.New("no console process started")
	ErrProcessCompleted  = errors.New("console process already completed")
	ErrInvalidOutcome    = errors.New("invalid completion outcome")
	ErrNoItems           = errors.New("at least one domain is required")
	ErrInvalidDomain     = errors.New("invalid domain")
	ErrDuplicateItem     = errors.New("duplicate domain")
	ErrInvalidPattern    = errors.New("invalid filter pattern")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Error codes for API responses
const (
	ErrCodeUnknownSource  = "UNKNOWN_SOURCE"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInvalidPattern = "INVALID_PATTERN"
	ErrCodeInvalidDomain  = "INVALID_DOMAIN"

	// API-only code, no sentinel error
	ErrCodeStreamingNotSupported = "STREAMING_NOT_SUPPORTED"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownSource):
		return ErrCodeUnknownSource
	case errors.Is(err, ErrUnauthorized):
		return ErrCodeUnauthorized
	case errors.Is(err, ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, ErrInvalidDomain):
		return ErrCodeInvalidDomain
	default:
		return "INTERNAL_ERROR"
	}
}
