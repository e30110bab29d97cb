package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
	mcpserver "github.com/lukman83/storefront/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withStorefront(cmd, func(_ context.Context, sf *storefront.Storefront) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "Starting storefront MCP server on stdio...")
		if err := mcpserver.Serve(sf); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})
}
