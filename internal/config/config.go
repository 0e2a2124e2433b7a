package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level woconsole configuration
type Config struct {
	API     APIConfig    `yaml:"api"`
	EnvFile string       `yaml:"env_file"`
	Sources []string     `yaml:"sources"`
	Deploy  DeployConfig `yaml:"deploy"`
	Relay   RelayConfig  `yaml:"relay"`
}

// APIConfig defines how to reach the management API
type APIConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// DeployConfig holds the per-site defaults for bulk deploys
type DeployConfig struct {
	PHPVersion string   `yaml:"php_version"`
	Features   []string `yaml:"features"`
	Plugins    []string `yaml:"plugins"`
	TenantID   *int     `yaml:"tenant_id,omitempty"`
}

// RelayConfig defines the log relay server
type RelayConfig struct {
	Host    string                  `yaml:"host"`
	Port    int                     `yaml:"port"`
	Auth    *bool                   `yaml:"auth,omitempty"` // nil = auto-determine based on host
	Token   string                  `yaml:"token"`
	Backlog int                     `yaml:"backlog"`
	Sources map[string]SourceConfig `yaml:"sources"`
}

// SourceConfig is one relayed log file. It can be written as a plain
// path or in expanded form.
type SourceConfig struct {
	Path string `yaml:"path"`
}

// rawConfig is used for initial YAML parsing to handle the flexible source format
type rawConfig struct {
	API     APIConfig    `yaml:"api"`
	EnvFile string       `yaml:"env_file"`
	Sources []string     `yaml:"sources"`
	Deploy  DeployConfig `yaml:"deploy"`
	Relay   struct {
		Host    string         `yaml:"host"`
		Port    int            `yaml:"port"`
		Auth    *bool          `yaml:"auth,omitempty"`
		Token   string         `yaml:"token"`
		Backlog int            `yaml:"backlog"`
		Sources map[string]any `yaml:"sources"`
	} `yaml:"relay"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	// The file may carry the API token
	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	config := &Config{
		API:     raw.API,
		EnvFile: raw.EnvFile,
		Sources: raw.Sources,
		Deploy:  raw.Deploy,
		Relay: RelayConfig{
			Host:    raw.Relay.Host,
			Port:    raw.Relay.Port,
			Auth:    raw.Relay.Auth,
			Token:   raw.Relay.Token,
			Backlog: raw.Relay.Backlog,
		},
	}

	// Parse relay sources (can be a path string or expanded form)
	if raw.Relay.Sources != nil {
		config.Relay.Sources = make(map[string]SourceConfig, len(raw.Relay.Sources))
		for name, value := range raw.Relay.Sources {
			src, err := parseSourceConfig(value)
			if err != nil {
				return nil, fmt.Errorf("relay source %q: %w", name, err)
			}
			config.Relay.Sources[name] = src
		}
	}

	applyDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(c *Config) {
	if c.API.URL == "" {
		c.API.URL = constants.DefaultAPIAddress
	}
	if len(c.Sources) == 0 {
		c.Sources = append([]string(nil), constants.DefaultSources...)
	}
	if c.Deploy.PHPVersion == "" {
		c.Deploy.PHPVersion = constants.DefaultPHPVersion
	}
	if c.Relay.Host == "" {
		c.Relay.Host = constants.DefaultRelayHost
	}
	if c.Relay.Port == 0 {
		c.Relay.Port = constants.DefaultRelayPort
	}
	if c.Relay.Backlog == 0 {
		c.Relay.Backlog = constants.RelayBacklogLines
	}
	if len(c.Relay.Sources) == 0 {
		c.Relay.Sources = make(map[string]SourceConfig, len(constants.DefaultSourcePaths))
		for name, path := range constants.DefaultSourcePaths {
			c.Relay.Sources[name] = SourceConfig{Path: path}
		}
	}
}

// parseSourceConfig handles both the plain path and the expanded form
func parseSourceConfig(value any) (SourceConfig, error) {
	switch v := value.(type) {
	case string:
		// Simple form: audit: /var/log/wo/wordops.log
		return SourceConfig{Path: v}, nil
	case map[string]any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return SourceConfig{}, fmt.Errorf("marshaling source config: %w", err)
		}
		var src SourceConfig
		if err := yaml.Unmarshal(data, &src); err != nil {
			return SourceConfig{}, fmt.Errorf("unmarshaling source config: %w", err)
		}
		return src, nil
	default:
		return SourceConfig{}, fmt.Errorf("invalid source configuration type: %T", value)
	}
}

// RequestTimeout returns the API request timeout, or the default when unset
func (c *Config) RequestTimeout() time.Duration {
	if c.API.Timeout == "" {
		return constants.DefaultRequestTimeout
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return constants.DefaultRequestTimeout
	}
	return d
}

// RelayPaths returns the relay's source name -> file path map
func (c *Config) RelayPaths() map[string]string {
	out := make(map[string]string, len(c.Relay.Sources))
	for name, src := range c.Relay.Sources {
		out[name] = src.Path
	}
	return out
}
