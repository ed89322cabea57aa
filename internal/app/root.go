// Package app contains the Cobra command tree for gitrate.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/config"
	"github.com/blackwell-systems/gitrate/internal/logger"
	"github.com/blackwell-systems/gitrate/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor   bool
	flagJSON      bool
	flagVerbose   bool
	flagConfig    string
	flagLogFormat string
)

// cfg is loaded once in PersistentPreRunE and read by every command.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gitrate",
	Short: "Score the health of a GitHub repository",
	Long: `gitrate fetches public metadata for a GitHub repository, scores it
from 0 to 100 against eight weighted rules, and suggests a short summary
and three-step improvement roadmap. Results can be exported as a markdown
report, served on a local web dashboard, or exposed as MCP tools.

Run 'gitrate analyze <url>' to get started.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("gitrate", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  analyze   Score a repository and show the dashboard")
		fmt.Println("  report    Write the markdown report to a file")
		fmt.Println("  serve     Run the web dashboard")
		fmt.Println("  mcp       Run an MCP stdio server")
		fmt.Println("  cache     Inspect or clear the metadata cache")
		fmt.Println("  doctor    Check credentials and cache setup")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/gitrate/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (default from config)")
}

// setup loads configuration and configures logging and color before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagLogFormat != "" {
		loaded.Log.Format = flagLogFormat
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	cfg = loaded

	// Logs go to stderr so stdout carries only command output.
	logger.Setup(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	logger.SetDebug(flagVerbose)
	slog.Debug("config loaded", "cache_backend", cfg.Cache.Backend, "llm_provider", cfg.LLM.Provider)

	if flagNoColor || !cfg.Output.Color || !output.IsTerminal(os.Stdout) {
		output.SetNoColor(true)
	}
	return nil
}
