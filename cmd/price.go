package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/storefront"
)

var priceCmd = &cobra.Command{
	Use:   "price [product-id]",
	Short: "Quote a product at a quantity, with bulk tiers applied",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrice,
}

func init() {
	priceCmd.Flags().IntP("qty", "q", 1, "Quantity")
	priceCmd.Flags().String("currency", "", "Currency code (default: active currency)")
	addFormatFlag(priceCmd)
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	qty, _ := cmd.Flags().GetInt("qty")
	currency, _ := cmd.Flags().GetString("currency")

	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		p, ok := sf.Product(ctx, args[0])
		if !ok {
			return apperrors.NotFound("product", args[0])
		}
		q, err := sf.Quote(ctx, p, qty, currency)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, q)
		}
		fmt.Fprintf(out, "%s x%d: %s each, %s total\n", p.Name, q.Qty, q.Unit, q.Line)
		if q.Discounted {
			list, _ := sf.Pricing.Format(q.ListCents, q.Currency)
			fmt.Fprintf(out, "    bulk price (list %s each)\n", list)
		}
		return nil
	})
}
