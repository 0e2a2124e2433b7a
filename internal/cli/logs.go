package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charliek/woconsole/internal/bulk"
	"github.com/charliek/woconsole/internal/console"
	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/logs"
	"github.com/charliek/woconsole/internal/stream"
	"github.com/charliek/woconsole/internal/tui"
)

// Logs command flags
var (
	logsPlain   bool
	logsPattern string
	logsRegex   bool
	logsLevel   string
)

// logsCmd represents the logs command
var logsCmd = &cobra.Command{
	Use:   "logs [source]",
	Short: "Open the live console on a log source",
	Long: `Open the interactive console on a server log source. The console shows
the live log, the progress console and the bulk deploy prompt.

With --plain the selected source is followed on stdout instead.

Examples:
  woconsole logs                        # TUI on the first configured source
  woconsole logs nginx-error            # TUI starting on nginx-error
  woconsole logs audit --plain          # Follow audit on stdout
  woconsole logs php --plain --level warning --pattern fpm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVar(&logsPlain, "plain", false, "Follow the source on stdout without the TUI")
	logsCmd.Flags().StringVar(&logsPattern, "pattern", "", "Only show lines containing this text")
	logsCmd.Flags().BoolVar(&logsRegex, "regex", false, "Treat --pattern as a regular expression")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Minimum category to show (warning, error)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	source, err := pickSource(s.Config.Sources, args)
	if err != nil {
		return err
	}

	filter := domain.LogFilter{
		Pattern:     logsPattern,
		IsRegex:     logsRegex,
		MinCategory: domain.ParseCategory(logsLevel),
	}
	f, err := logs.NewFilter(filter)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(!logsPlain)
	if err != nil {
		return err
	}
	defer closeLog()

	client := NewClient(s.APIURL, s.Token, s.Config.RequestTimeout())
	consumer := stream.New(stream.Config{
		Dialer:     client,
		Token:      s.Token,
		BufferSize: constants.ConsoleBufferSize,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if logsPlain {
		printer := NewLogPrinter(cmd.OutOrStdout(), useColor(), false)
		return followPlain(ctx, consumer, source, f, printer)
	}

	tracker := console.NewTracker()
	return tui.Run(ctx, tui.Options{
		Sources:  s.Config.Sources,
		Initial:  source,
		Consumer: consumer,
		Tracker:  tracker,
		Deployer: bulk.NewOrchestrator(client, tracker, logger),
		Deploy:   deployConfig(s.Config.Deploy),
		Filter:   filter,
		Logger:   logger,
	})
}

// pickSource returns the requested source, or the first configured one
func pickSource(sources []string, args []string) (string, error) {
	if len(args) == 0 {
		if len(sources) == 0 {
			return "", fmt.Errorf("%w: no sources configured", domain.ErrUnknownSource)
		}
		return sources[0], nil
	}
	if !slices.Contains(sources, args[0]) {
		return "", fmt.Errorf("%w: %q (configured: %s)", domain.ErrUnknownSource, args[0], strings.Join(sources, ", "))
	}
	return args[0], nil
}

// followPlain streams one source to the printer until ctx is cancelled
// or the stream fails. There is no automatic reconnect.
func followPlain(ctx context.Context, consumer *stream.Consumer, source string, filter *logs.Filter, printer *LogPrinter) error {
	consumer.Select(source)
	defer consumer.Close()

	if consumer.Status() == domain.ConnStatusError {
		return consumer.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-consumer.Events():
			if !consumer.Handle(ev) {
				continue
			}
			switch ev.(type) {
			case stream.Line:
				lines := consumer.Lines()
				if len(lines) == 0 {
					continue
				}
				if line := lines[len(lines)-1]; filter.Matches(line) {
					printer.PrintLine(line)
				}
			case stream.Failed:
				return fmt.Errorf("log stream %s: %w", source, consumer.Err())
			}
		}
	}
}

// useColor reports whether ANSI colors should be written
func useColor() bool {
	return !noColor && os.Getenv("NO_COLOR") == ""
}
