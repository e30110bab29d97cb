package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/catalog"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/progress"
	"github.com/lukman83/storefront/internal/storefront"
	"github.com/lukman83/storefront/internal/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog products",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringP("search", "s", "", "Only products whose name, slug or description contains this text")
	catalogCmd.Flags().StringP("category", "c", "", "Only products in this category (sub-categories included)")
	catalogCmd.Flags().Bool("special", false, "Only products flagged as special offers")
	catalogCmd.Flags().Bool("in-stock", false, "Only products in stock")
	catalogCmd.Flags().IntP("limit", "n", 0, "Maximum number of products (0 = all)")
	catalogCmd.Flags().String("lang", "en", "Description language")
	catalogCmd.Flags().Bool("refresh", false, "Drop the cached catalog before loading")
	addFormatFlag(catalogCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	var f catalog.Filter
	f.Search, _ = cmd.Flags().GetString("search")
	f.Category, _ = cmd.Flags().GetString("category")
	f.Special, _ = cmd.Flags().GetBool("special")
	f.InStock, _ = cmd.Flags().GetBool("in-stock")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	lang, _ := cmd.Flags().GetString("lang")
	refresh, _ := cmd.Flags().GetBool("refresh")

	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		if refresh {
			if err := sf.Catalog.Invalidate(ctx); err != nil {
				return err
			}
		}
		products := f.Apply(loadCatalog(ctx, sf))

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, products)
		}
		if len(products) == 0 {
			fmt.Fprintln(out, "No products found.")
			return nil
		}
		fmt.Fprintf(out, "%d products (%s catalog, prices in %s):\n\n", len(products), sf.Catalog.Source(), sf.Pricing.Currency(ctx))
		printProductsTable(ctx, out, sf.Pricing, products, lang)
		return nil
	})
}

// loadCatalog loads the catalog behind a spinner fed by loader progress.
func loadCatalog(ctx context.Context, sf *storefront.Storefront) []models.Product {
	spin := ui.NewSpinner()
	spin.Start("Loading catalog...")
	products := sf.Catalog.Load(progress.With(ctx, spin.Update))
	spin.Stop()
	return products
}
