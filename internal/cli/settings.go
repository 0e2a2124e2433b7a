package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/charliek/woconsole/internal/config"
	"github.com/charliek/woconsole/internal/constants"
)

// Environment keys read from the process environment and the env_file
const (
	envAPIURL = constants.EnvPrefix + "_API_URL"
	envToken  = constants.EnvPrefix + "_TOKEN"
)

// settings is the resolved runtime configuration for client commands.
// API URL and token precedence: flag > environment > env_file > config file.
type settings struct {
	Config     *config.Config
	ConfigPath string // empty when running on defaults
	APIURL     string
	Token      string
}

// loadSettings resolves the config file and the flag/env overrides
func loadSettings(flags *pflag.FlagSet) (*settings, error) {
	cfg, path, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if f := flags.Lookup("api"); f != nil {
		_ = v.BindPFlag("api.url", f)
	}
	if f := flags.Lookup("token"); f != nil {
		_ = v.BindPFlag("token", f)
	}
	_ = v.BindEnv("token", envToken, constants.EnvPrefix+"_API_TOKEN")

	envFile, err := loadEnvFile(cfg, path)
	if err != nil {
		return nil, err
	}

	s := &settings{
		Config:     cfg,
		ConfigPath: path,
		APIURL:     firstNonEmpty(v.GetString("api.url"), envFile[envAPIURL], cfg.API.URL),
		Token:      firstNonEmpty(v.GetString("token"), envFile[envToken], cfg.API.Token),
	}
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	return s, nil
}

// loadConfig loads an explicit config path, or searches the working
// directory and falls back to defaults when nothing is found
func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		cfg, err := config.Load(explicit)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		return cfg, explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), "", nil
	}
	path, err := config.FindConfigFile(cwd)
	if errors.Is(err, config.ErrNoConfigFile) {
		return config.Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

// loadEnvFile reads the configured env_file, resolved against the
// config file's directory
func loadEnvFile(cfg *config.Config, cfgPath string) (map[string]string, error) {
	if cfg.EnvFile == "" {
		return nil, nil
	}

	baseDir := ""
	if cfgPath != "" {
		if abs, err := filepath.Abs(cfgPath); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}
	return config.LoadEnvFile(config.ResolvePath(cfg.EnvFile, baseDir))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
