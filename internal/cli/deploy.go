package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charliek/woconsole/internal/bulk"
	"github.com/charliek/woconsole/internal/config"
	"github.com/charliek/woconsole/internal/console"
)

// Deploy command flags
var (
	deployFile     string
	deployPHP      string
	deployFeatures []string
	deployPlugins  []string
	deployTenant   int
	deployJSON     bool
)

// deployCmd represents the deploy command
var deployCmd = &cobra.Command{
	Use:   "deploy [domains...]",
	Short: "Deploy several sites one after another",
	Long: `Create one site per domain, strictly one at a time, narrating progress
as it goes. A failed site never stops the batch. Interrupting the command
stops scheduling; sites not yet started are reported as cancelled.

Domains may be separated by spaces, commas, semicolons or newlines.

Examples:
  woconsole deploy a.com b.com c.com
  woconsole deploy --file domains.txt --php 8.2 --feature wp --feature le
  cat domains.txt | woconsole deploy --file -`,
	RunE: runDeployCmd,
}

func init() {
	deployCmd.Flags().StringVarP(&deployFile, "file", "f", "", "Read domains from a file (- for stdin)")
	deployCmd.Flags().StringVar(&deployPHP, "php", "", "PHP version for every site")
	deployCmd.Flags().StringSliceVar(&deployFeatures, "feature", nil, "Site feature (repeatable)")
	deployCmd.Flags().StringSliceVar(&deployPlugins, "plugin", nil, "Plugin to install (repeatable)")
	deployCmd.Flags().IntVar(&deployTenant, "tenant", 0, "Tenant id to own the sites")
	deployCmd.Flags().BoolVar(&deployJSON, "json", false, "Print per-site results as JSON")
	rootCmd.AddCommand(deployCmd)
}

func runDeployCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if deployFile != "" {
		data, err := readDomainsFile(deployFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		text += "\n" + data
	}
	items := bulk.ParseDomains(text)

	cfg := deployConfig(s.Config.Deploy)
	flags := cmd.Flags()
	if flags.Changed("php") {
		cfg.PHPVersion = deployPHP
	}
	if flags.Changed("feature") {
		cfg.Features = deployFeatures
	}
	if flags.Changed("plugin") {
		cfg.Plugins = deployPlugins
	}
	if flags.Changed("tenant") {
		tenant := deployTenant
		cfg.TenantID = &tenant
	}

	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := cmd.OutOrStdout()
	if deployJSON {
		progress = cmd.ErrOrStderr()
	}

	client := NewClient(s.APIURL, s.Token, s.Config.RequestTimeout())
	report, err := runDeploy(ctx, client, items, cfg, NewLogPrinter(progress, useColor(), false), logger)
	if err != nil {
		return err
	}

	if deployJSON {
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(report.Results); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to encode results: %v\n", err)
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d sites failed", len(failed), report.Total)
	}
	return nil
}

// runDeploy runs a bulk deploy and prints the console narration as it
// happens
func runDeploy(ctx context.Context, exec bulk.Executor, items []string, cfg bulk.Config, printer *LogPrinter, logger *slog.Logger) (*bulk.Report, error) {
	tracker := console.NewTracker()
	changes, unsubscribe := tracker.Subscribe()

	printed := 0
	stopPrinting := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-changes:
				printed = printer.PrintEntries(tracker.Snapshot(), printed)
			case <-stopPrinting:
				return
			}
		}
	}()

	report, err := bulk.NewOrchestrator(exec, tracker, logger).Run(ctx, items, cfg)

	unsubscribe()
	close(stopPrinting)
	<-done
	printer.PrintEntries(tracker.Snapshot(), printed)

	return report, err
}

// deployConfig maps the configured deploy defaults to a bulk.Config
func deployConfig(d config.DeployConfig) bulk.Config {
	return bulk.Config{
		PHPVersion: d.PHPVersion,
		Features:   d.Features,
		Plugins:    d.Plugins,
		TenantID:   d.TenantID,
	}
}

func readDomainsFile(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading domains from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading domains file: %w", err)
	}
	return string(data), nil
}
