package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath string
	apiURL     string
	apiToken   string
	logFile    string
	verbose    bool
	noColor    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "woconsole",
	Short: "Live operator console for a WordOps management API",
	Long: `woconsole is a terminal console for a WordOps GUI management API. It supports:
  - Live, filterable server log streams (audit, nginx, php)
  - Sequential bulk site deployment with a progress console
  - Log source health checks
  - A log relay that serves the push channel from local files`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "woconsole version %s\n", Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default: search woconsole.yaml in the working directory)")
	flags.StringVar(&apiURL, "api", "", "Management API base URL")
	flags.StringVar(&apiToken, "token", "", "API credential")
	flags.StringVar(&logFile, "log-file", "", "Write diagnostic logs to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SetVersionTemplate("woconsole version {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}
