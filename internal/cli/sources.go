package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charliek/woconsole/internal/domain"
)

var sourcesJSON bool

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show log source health on the server",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}

// healthClient is the part of Client the sources command needs
type healthClient interface {
	LogHealth(ctx context.Context) ([]domain.SourceHealth, error)
}

func runSources(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	_, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	client := NewClient(s.APIURL, s.Token, s.Config.RequestTimeout())
	return printSources(cmd.Context(), client, cmd.OutOrStdout(), sourcesJSON)
}

func printSources(ctx context.Context, client healthClient, w io.Writer, asJSON bool) error {
	health, err := client.LogHealth(ctx)
	if err != nil {
		return fmt.Errorf("fetching log health: %w", err)
	}

	if asJSON {
		return json.NewEncoder(w).Encode(health)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tEXISTS\tREADABLE\tPATH")
	fmt.Fprintln(tw, "------\t------\t------\t--------\t----")
	for _, h := range health {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", h.Name, h.Status, yesNo(h.Exists), yesNo(h.Readable), h.Path)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
