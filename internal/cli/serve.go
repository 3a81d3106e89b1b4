package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimcheck/internal/mcpserver"
)

var httpAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document_processor tool over MCP",
	Long: `Serve exposes the processor as the MCP tool "document_processor".

By default the server speaks MCP over stdin/stdout, which is what agent
hosts expect when they launch a tool server. With --http it serves the
streamable HTTP transport instead, plus Prometheus metrics when enabled.

Example:
  claimcheck serve
  claimcheck serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP (stdio when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, cfg, err := openProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	srv := mcpserver.NewServer(proc, Version, nil)

	if httpAddr == "" {
		if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("serve stdio: %w", err)
		}
		return nil
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return srv.ServeHTTP(ctx, httpAddr, metricsPath)
}
