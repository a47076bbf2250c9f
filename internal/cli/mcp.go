package cli

import (
	"context"
	"log/slog"
	"os"

	"gdrive-mcp/internal/instrumentation"
	"gdrive-mcp/internal/mcp"

	"github.com/spf13/cobra"
)

// MCPCmd returns the MCP server command.
func MCPCmd() *cobra.Command {
	var (
		transport string
		port      int
		host      string
		tracing   string
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"mcp"},
		Short:   "Start the MCP server",
		Long: `Start an MCP (Model Context Protocol) server exposing the upload-file,
update-file and reauthorize tools. The stdio transport is used by default;
--transport http serves streamable HTTP on /mcp with a /health endpoint.

If no stored credential exists the browser authorization flow runs before
the server starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tracing == "" {
				tracing = os.Getenv(instrumentation.EnvTracing)
			}
			provider, err := instrumentation.NewProvider(tracing, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				if err := provider.Shutdown(context.Background()); err != nil {
					slog.Warn("tracer shutdown failed", "error", err)
				}
			}()

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			cfg := &mcp.ServerConfig{
				Transport: transport,
				Host:      host,
				Port:      port,
			}
			srv := mcp.NewServer(cfg, a.files, a.session, provider.Tracer(), slog.Default())

			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&transport, "transport", mcp.TransportStdio, "Transport: stdio or http")
	cmd.Flags().IntVar(&port, "port", 8080, "Server port (http transport)")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Server host (http transport)")
	cmd.Flags().StringVar(&tracing, "tracing", "", "Trace exporter: none or stdout (env "+instrumentation.EnvTracing+")")

	return cmd
}
