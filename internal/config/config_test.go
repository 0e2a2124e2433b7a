package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/woconsole/internal/domain"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "configs", name)
}

func TestLoad_SimpleForm(t *testing.T) {
	cfg, err := Load(fixture("simple.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://panel.example.com", cfg.API.URL)
	assert.Equal(t, []string{"audit", "nginx-access", "nginx-error", "php"}, cfg.Sources)
	assert.Equal(t, "8.1", cfg.Deploy.PHPVersion)
	assert.Equal(t, "127.0.0.1", cfg.Relay.Host)
	assert.Equal(t, 8765, cfg.Relay.Port)
	assert.Equal(t, 20, cfg.Relay.Backlog)
	assert.Nil(t, cfg.Relay.Auth)
	assert.Equal(t, "/var/log/nginx/access.log", cfg.Relay.Sources["nginx-access"].Path)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout())
}

func TestLoad_ExpandedForm(t *testing.T) {
	cfg, err := Load(fixture("expanded.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://panel.example.com/", cfg.API.URL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout())
	assert.Equal(t, ".env", cfg.EnvFile)
	assert.Equal(t, []string{"audit", "nginx-error"}, cfg.Sources)

	assert.Equal(t, "8.2", cfg.Deploy.PHPVersion)
	assert.Equal(t, []string{"wp", "le"}, cfg.Deploy.Features)
	assert.Equal(t, []string{"akismet"}, cfg.Deploy.Plugins)
	require.NotNil(t, cfg.Deploy.TenantID)
	assert.Equal(t, 4, *cfg.Deploy.TenantID)

	assert.Equal(t, "0.0.0.0", cfg.Relay.Host)
	assert.Equal(t, 9000, cfg.Relay.Port)
	require.NotNil(t, cfg.Relay.Auth)
	assert.True(t, *cfg.Relay.Auth)
	assert.Equal(t, 50, cfg.Relay.Backlog)
	assert.Equal(t, map[string]string{
		"audit":       "/var/log/wo/wordops.log",
		"nginx-error": "/var/log/nginx/error.log",
	}, cfg.RelayPaths())
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"invalid_url.yaml", "api.url"},
		{"invalid_port.yaml", "relay.port"},
		{"invalid_source.yaml", "relay.sources.audit.path"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(fixture(tt.file))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("api: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing yaml")
}

func TestParse_InvalidSourceType(t *testing.T) {
	_, err := Parse([]byte("relay:\n  sources:\n    audit: 42\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `relay source "audit"`)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.URL)
	assert.Len(t, cfg.Relay.Sources, 4)
	assert.NoError(t, Validate(cfg))
}

func TestRequestTimeout_Invalid(t *testing.T) {
	cfg := Default()
	cfg.API.Timeout = "soon"
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout())
}
