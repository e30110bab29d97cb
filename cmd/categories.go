package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show catalog categories by product count",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	addFormatFlag(categoriesCmd)
	rootCmd.AddCommand(categoriesCmd)
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func runCategories(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		products := loadCatalog(ctx, sf)

		// Aggregate categories
		counts := make(map[string]int)
		for _, p := range products {
			if p.Category != "" {
				counts[p.Category]++
			}
		}

		entries := make([]categoryCount, 0, len(counts))
		for cat, n := range counts {
			entries = append(entries, categoryCount{cat, n})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Count != entries[j].Count {
				return entries[i].Count > entries[j].Count
			}
			return entries[i].Category < entries[j].Category
		})

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No categories found.")
			return nil
		}
		fmt.Fprintf(out, "Categories (%d products):\n\n", len(products))
		for i, e := range entries {
			fmt.Fprintf(out, " %2d. %-40s  (%d products)\n", i+1, formatBreadcrumb(e.Category), e.Count)
		}
		return nil
	})
}
