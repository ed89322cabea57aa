package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/web"
)

var serveFlagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long: `Serve starts an HTTP server with a form for pasting a repository URL
and a rendered dashboard. It also exposes:

  GET /api/analyze?url=   full analysis as JSON
  GET /api/report?url=    markdown report download
  GET /health             liveness check`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, closeSvc, err := buildService(cfg, serviceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = closeSvc() }()

	addr := cfg.Server.Addr
	if serveFlagAddr != "" {
		addr = serveFlagAddr
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return web.New(svc, nil, appVersion).Listen(ctx, addr)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
