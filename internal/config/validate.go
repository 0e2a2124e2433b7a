package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charliek/woconsole/internal/domain"
)

var phpVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	u, err := url.Parse(config.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.url: must be an http(s) URL, got %q", config.API.URL))
	}
	if config.API.Timeout != "" {
		if d, err := time.ParseDuration(config.API.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("api.timeout: must be a positive duration, got %q", config.API.Timeout))
		}
	}

	seen := make(map[string]bool, len(config.Sources))
	for _, name := range config.Sources {
		if err := ValidateSourceName(name); err != nil {
			errs = append(errs, fmt.Sprintf("sources: %v", err))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("sources: duplicate source %q", name))
		}
		seen[name] = true
	}

	if !phpVersionPattern.MatchString(config.Deploy.PHPVersion) {
		errs = append(errs, fmt.Sprintf("deploy.php_version: must look like 8.1, got %q", config.Deploy.PHPVersion))
	}
	if config.Deploy.TenantID != nil && *config.Deploy.TenantID <= 0 {
		errs = append(errs, "deploy.tenant_id: must be positive")
	}

	if config.Relay.Port < 0 || config.Relay.Port > 65535 {
		errs = append(errs, fmt.Sprintf("relay.port: must be between 0 and 65535, got %d", config.Relay.Port))
	}
	if config.Relay.Backlog < 0 {
		errs = append(errs, "relay.backlog: must be non-negative")
	}

	names := make([]string, 0, len(config.Relay.Sources))
	for name := range config.Relay.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ValidateSourceName(name); err != nil {
			errs = append(errs, fmt.Sprintf("relay.sources: %v", err))
		}
		if config.Relay.Sources[name].Path == "" {
			errs = append(errs, fmt.Sprintf("relay.sources.%s.path: path is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ValidateSourceName checks if a log source name is valid
func ValidateSourceName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "source name cannot be empty"}
	}
	if strings.ContainsAny(name, " \t\n/\\?#") {
		return &ValidationError{Field: "name", Message: "source name cannot contain whitespace, path separators or URL delimiters"}
	}
	return nil
}
