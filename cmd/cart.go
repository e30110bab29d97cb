package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/storefront"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the cart",
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cart lines and total",
	Args:  cobra.NoArgs,
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add [product-id]",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, _ := cmd.Flags().GetInt("qty")
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			p, ok := sf.Product(ctx, args[0])
			if !ok {
				return apperrors.NotFound("product", args[0])
			}
			items, err := sf.Cart.Add(ctx, p, qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s (%d items in cart)\n", qty, p.Name, itemCount(items))
			return nil
		})
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set [product-id] [qty]",
	Short: "Set the quantity of a cart line (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("quantity %q is not a number", args[1]))
		}
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			items, err := sf.Cart.SetQuantity(ctx, args[0], qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d items in cart\n", itemCount(items))
			return nil
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove [product-id]",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			items, err := sf.Cart.Remove(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d items in cart\n", itemCount(items))
			return nil
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.Cart.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
			return nil
		})
	},
}

func init() {
	cartAddCmd.Flags().IntP("qty", "q", 1, "Quantity to add")
	cartShowCmd.Flags().String("currency", "", "Currency code (default: active currency)")
	addFormatFlag(cartShowCmd)
	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartSetCmd, cartRemoveCmd, cartClearCmd)
	rootCmd.AddCommand(cartCmd)
}

func runCartShow(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	currency, _ := cmd.Flags().GetString("currency")

	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		sum, err := sf.CartSummary(ctx, currency)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, sum)
		}
		if len(sum.Lines) == 0 {
			fmt.Fprintln(out, "Cart is empty.")
			return nil
		}
		for i, l := range sum.Lines {
			unit, _ := sf.Pricing.Format(l.UnitCents, sum.Currency)
			line, _ := sf.Pricing.Format(l.LineCents, sum.Currency)
			fmt.Fprintf(out, " %d. %-36s %3d x %10s = %10s\n", i+1, truncate(l.Name, 36), l.Qty, unit, line)
		}
		fmt.Fprintf(out, "\n %d items, total %s\n", sum.Count, sum.Total)
		return nil
	})
}

func itemCount(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Qty
	}
	return n
}
