package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the catalog service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			base := sf.Resolver.ResolveBase(ctx)
			start := time.Now()
			if err := sf.API.Health(ctx); err != nil {
				return fmt.Errorf("%s is unhealthy: %w", base, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok in %s\n", base, time.Since(start).Round(time.Millisecond))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
