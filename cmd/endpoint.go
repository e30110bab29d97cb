package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Show or pin the catalog service base URL",
}

var endpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved base URL and where it came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sf.Resolver.ResolveBase(ctx), sf.Resolver.Source(ctx))
			return nil
		})
	},
}

var endpointSetCmd = &cobra.Command{
	Use:   "set [url]",
	Short: "Remember a base URL for later runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.Resolver.Remember(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using %s (%s)\n", sf.Resolver.ResolveBase(ctx), sf.Resolver.Source(ctx))
			return nil
		})
	},
}

var endpointClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the remembered base URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.Resolver.Forget(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using %s (%s)\n", sf.Resolver.ResolveBase(ctx), sf.Resolver.Source(ctx))
			return nil
		})
	},
}

func init() {
	endpointCmd.AddCommand(endpointShowCmd, endpointSetCmd, endpointClearCmd)
	rootCmd.AddCommand(endpointCmd)
}
