package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withConfigPath points the global --config flag at path for one test
func withConfigPath(t *testing.T, path string) {
	t.Helper()
	original := configPath
	configPath = path
	t.Cleanup(func() { configPath = original })
}

func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api", "", "")
	flags.String("token", "", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeTestConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "woconsole.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	withConfigPath(t, writeTestConfig(t, dir, `
api:
  url: https://file.example.com/
  token: file-token
env_file: secrets.env
`))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.env"),
		[]byte("WOCONSOLE_TOKEN=envfile-token\nWOCONSOLE_API_URL=https://envfile.example.com\n"), 0o600))

	t.Run("env_file beats config file", func(t *testing.T) {
		t.Setenv("WOCONSOLE_TOKEN", "")
		t.Setenv("WOCONSOLE_API_TOKEN", "")
		t.Setenv("WOCONSOLE_API_URL", "")

		s, err := loadSettings(newTestFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "envfile-token", s.Token)
		assert.Equal(t, "https://envfile.example.com", s.APIURL)
	})

	t.Run("environment beats env_file", func(t *testing.T) {
		t.Setenv("WOCONSOLE_TOKEN", "env-token")
		t.Setenv("WOCONSOLE_API_URL", "https://env.example.com")

		s, err := loadSettings(newTestFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "env-token", s.Token)
		assert.Equal(t, "https://env.example.com", s.APIURL)
	})

	t.Run("flags beat environment", func(t *testing.T) {
		t.Setenv("WOCONSOLE_TOKEN", "env-token")
		t.Setenv("WOCONSOLE_API_URL", "https://env.example.com")

		s, err := loadSettings(newTestFlags(t, "--token", "flag-token", "--api", "https://flag.example.com/"))
		require.NoError(t, err)
		assert.Equal(t, "flag-token", s.Token)
		assert.Equal(t, "https://flag.example.com", s.APIURL)
	})
}

func TestLoadSettings_ConfigFileOnly(t *testing.T) {
	t.Setenv("WOCONSOLE_TOKEN", "")
	t.Setenv("WOCONSOLE_API_TOKEN", "")
	t.Setenv("WOCONSOLE_API_URL", "")

	dir := t.TempDir()
	path := writeTestConfig(t, dir, "api:\n  url: https://file.example.com/\n  token: file-token\n")
	withConfigPath(t, path)

	s, err := loadSettings(newTestFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", s.APIURL)
	assert.Equal(t, "file-token", s.Token)
	assert.Equal(t, path, s.ConfigPath)
}

func TestLoadSettings_MissingExplicitConfig(t *testing.T) {
	withConfigPath(t, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := loadSettings(newTestFlags(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestLoadSettings_MissingEnvFile(t *testing.T) {
	dir := t.TempDir()
	withConfigPath(t, writeTestConfig(t, dir, "env_file: nope.env\n"))

	_, err := loadSettings(newTestFlags(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env file not found")
}

func TestLoadConfig_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir, "api:\n  url: https://found.example.com\n")
	t.Chdir(dir)

	cfg, path, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://found.example.com", cfg.API.URL)
	assert.Equal(t, filepath.Join(dir, "woconsole.yaml"), path)
}

func TestLoadConfig_DefaultsWhenNothingFound(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.URL)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty("", ""))
}
