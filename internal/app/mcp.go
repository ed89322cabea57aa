package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server",
	Long: `Start a Model Context Protocol stdio server. The server exposes three
tools:

  analyze_repository    Score a repository and return the full analysis
  parse_repository_url  Normalize a repository URL to owner/name
  render_report         Return the markdown report for a repository

Example client configuration:
  {"mcpServers":{"gitrate":{"command":"gitrate","args":["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, closeSvc, err := buildService(cfg, serviceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = closeSvc() }()

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcp.NewServer(svc, nil, appVersion)
	return srv.Run(ctx, os.Stdin, os.Stdout)
}
