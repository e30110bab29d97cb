package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
)

var currencyCmd = &cobra.Command{
	Use:   "currency",
	Short: "Show or switch the display currency and exchange rate",
}

var currencyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active currency and rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			e := sf.Pricing
			fmt.Fprintf(cmd.OutOrStdout(), "Active: %s\nRate: 1 %s = %s %s\n",
				e.Currency(ctx), e.Primary().Code, e.Rate(ctx).String(), e.Secondary().Code)
			return nil
		})
	},
}

var currencySetCmd = &cobra.Command{
	Use:   "set [code]",
	Short: "Switch the active currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.Pricing.SetCurrency(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active currency: %s\n", sf.Pricing.Currency(ctx))
			return nil
		})
	},
}

var currencyRateCmd = &cobra.Command{
	Use:   "rate [value]",
	Short: "Show the exchange rate, or override it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if len(args) == 1 {
				if err := sf.Pricing.SetRate(ctx, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), sf.Pricing.Rate(ctx).String())
			return nil
		})
	},
}

func init() {
	currencyCmd.AddCommand(currencyShowCmd, currencySetCmd, currencyRateCmd)
	rootCmd.AddCommand(currencyCmd)
}
