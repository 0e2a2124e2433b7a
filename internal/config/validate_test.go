package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charliek/woconsole/internal/domain"
)

func TestValidate(t *testing.T) {
	negative := -1

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"relative api url", func(c *Config) { c.API.URL = "/api" }, "api.url"},
		{"ftp api url", func(c *Config) { c.API.URL = "ftp://panel" }, "api.url"},
		{"bad timeout", func(c *Config) { c.API.Timeout = "-5s" }, "api.timeout"},
		{"duplicate source", func(c *Config) { c.Sources = []string{"audit", "audit"} }, "duplicate source"},
		{"source with slash", func(c *Config) { c.Sources = []string{"../etc"} }, "sources"},
		{"php version", func(c *Config) { c.Deploy.PHPVersion = "eight" }, "deploy.php_version"},
		{"tenant id", func(c *Config) { c.Deploy.TenantID = &negative }, "deploy.tenant_id"},
		{"relay port", func(c *Config) { c.Relay.Port = -1 }, "relay.port"},
		{"relay backlog", func(c *Config) { c.Relay.Backlog = -1 }, "relay.backlog"},
		{"relay source path", func(c *Config) { c.Relay.Sources["php"] = SourceConfig{} }, "relay.sources.php.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.API.URL = "nope"
	cfg.Relay.Port = 99999

	err := Validate(cfg)
	assert.Contains(t, err.Error(), "api.url")
	assert.Contains(t, err.Error(), "relay.port")
	assert.Contains(t, err.Error(), "; ")
}

func TestValidateSourceName(t *testing.T) {
	assert.NoError(t, ValidateSourceName("nginx-access"))
	assert.Error(t, ValidateSourceName(""))
	assert.Error(t, ValidateSourceName("a b"))
	assert.Error(t, ValidateSourceName("a/b"))
	assert.Error(t, ValidateSourceName("a?b"))

	var ve *ValidationError
	assert.ErrorAs(t, ValidateSourceName(""), &ve)
	assert.Equal(t, "name", ve.Field)
}
