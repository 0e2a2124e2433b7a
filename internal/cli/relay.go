package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charliek/woconsole/internal/api"
	"github.com/charliek/woconsole/internal/config"
	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/logs"
)

const envRelayToken = constants.EnvPrefix + "_RELAY_TOKEN"

// Relay command flags
var (
	relayHost    string
	relayPort    int
	relayAuth    bool
	relaySources []string
)

// relayCmd represents the relay command
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the log push channel from local files",
	Long: `Tail log files on this host and serve them on the same endpoints the
management API exposes:

  GET /api/v1/system/logs/stream/{source}?token=...
  GET /api/v1/system/logs/health
  GET /health

Authentication is enabled automatically when binding beyond localhost.

Examples:
  woconsole relay
  woconsole relay --host 0.0.0.0 --port 9000
  woconsole relay --source app=/var/log/app.log`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&relayHost, "host", "", "Bind host (default from config, 127.0.0.1)")
	relayCmd.Flags().IntVarP(&relayPort, "port", "p", 0, "Bind port (default from config, 8765)")
	relayCmd.Flags().BoolVar(&relayAuth, "auth", false, "Require a token (default: only when not bound to localhost)")
	relayCmd.Flags().StringArrayVar(&relaySources, "source", nil, "Extra source as name=path (repeatable)")
	rootCmd.AddCommand(relayCmd)
}

// relayDir returns the woconsole state directory (~/.woconsole)
func relayDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".woconsole"
	}
	return filepath.Join(home, ".woconsole")
}

// tokenPath returns the path to the relay token file
func tokenPath() string {
	return filepath.Join(relayDir(), "relay-token")
}

// generateToken generates a cryptographically secure random token
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// saveToken writes the relay token to path with owner-only permissions
func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// parseSourceFlags parses name=path pairs
func parseSourceFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --source %q: expected name=path", v)
		}
		if err := config.ValidateSourceName(name); err != nil {
			return nil, fmt.Errorf("invalid --source %q: %w", v, err)
		}
		out[name] = path
	}
	return out, nil
}

// relayToken picks the relay token: config, then environment or
// env_file, then a freshly generated one saved to tokenPath
func relayToken(cfg *config.Config, envFile map[string]string, path string) (token string, generated bool, err error) {
	if t := firstNonEmpty(cfg.Relay.Token, os.Getenv(envRelayToken), envFile[envRelayToken]); t != "" {
		return t, false, nil
	}
	token, err = generateToken()
	if err != nil {
		return "", false, fmt.Errorf("generating relay token: %w", err)
	}
	if err := saveToken(path, token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Relay.Host = relayHost
	}
	if flags.Changed("port") {
		cfg.Relay.Port = relayPort
	}
	var explicitAuth *bool
	if flags.Changed("auth") {
		explicitAuth = &relayAuth
	} else {
		explicitAuth = cfg.Relay.Auth
	}

	paths := cfg.RelayPaths()
	extra, err := parseSourceFlags(relaySources)
	if err != nil {
		return err
	}
	for name, path := range extra {
		paths[name] = path
	}

	envFile, err := loadEnvFile(cfg, cfgPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	out := cmd.OutOrStdout()
	authEnabled := api.AuthRequired(cfg.Relay.Host, explicitAuth)
	var token string
	if authEnabled {
		var generated bool
		token, generated, err = relayToken(cfg, envFile, tokenPath())
		if err != nil {
			return err
		}
		if generated {
			fmt.Fprintf(out, "Relay token saved to: %s\n", tokenPath())
		}
	} else if !api.IsLocalhost(cfg.Relay.Host) {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: Auth disabled while binding to %s\n", cfg.Relay.Host)
		fmt.Fprintf(cmd.ErrOrStderr(), "         Any network client can read these logs.\n")
	}

	registry := api.NewRegistry(paths, logs.ManagerConfig{}, logs.TailerConfig{}, logger)
	server := api.NewServer(api.ServerConfig{
		Host:        cfg.Relay.Host,
		Port:        cfg.Relay.Port,
		AuthEnabled: authEnabled,
		Token:       token,
	}, api.NewHandlers(registry, cfg.Relay.Backlog, logger), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printRelayBanner(out, server.Addr(), cfg.Relay.Host, authEnabled, registry.Names())
	return serveRelay(ctx, server, registry, logger, out)
}

func printRelayBanner(w io.Writer, addr, host string, authEnabled bool, sources []string) {
	scope := "network accessible"
	if api.IsLocalhost(host) {
		scope = "local only"
	}
	auth := "no auth"
	if authEnabled {
		auth = "auth enabled"
	}
	fmt.Fprintf(w, "Log relay: http://%s (%s, %s)\n", addr, scope, auth)
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(sources, ", "))
}

// relayServer is the part of api.Server serveRelay drives
type relayServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveRelay runs the tailers and the HTTP server until ctx is done,
// then shuts both down
func serveRelay(ctx context.Context, server relayServer, registry *api.Registry, logger *slog.Logger, out io.Writer) error {
	tailCtx, stopTailers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.Run(tailCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("relay server: %w", err)
		}
	}

	stopTailers()
	wg.Wait()

	// Ending subscriptions lets open streams return before Shutdown waits on them
	registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("relay shutdown", "error", err)
	}

	fmt.Fprintln(out, "Shutdown complete")
	return serveErr
}
