package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
	mcpserver "github.com/lukman83/storefront/mcp"
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over HTTP for remote access, with /healthz and /metrics.",
	Args:  cobra.NoArgs,
	RunE:  runServeHTTP,
}

func init() {
	serveHTTPCmd.Flags().String("port", "", "HTTP port (default from $STOREFRONT_HTTP_PORT or 8080)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServeHTTP(cmd *cobra.Command, _ []string) error {
	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	addr := fmt.Sprintf(":%s", port)
	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		return mcpserver.ServeHTTP(ctx, addr, cfg.APIKey, sf, log)
	})
}
