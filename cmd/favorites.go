package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/storefront"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List and toggle favorite products",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			ids := sf.Favorites.List(ctx)
			out := cmd.OutOrStdout()
			if format == formatJSON {
				return printJSON(out, ids)
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, "No favorites yet.")
				return nil
			}
			for i, id := range ids {
				name := "(not in catalog)"
				if p, ok := sf.Product(ctx, id); ok {
					name = p.Name
				}
				fmt.Fprintf(out, " %d. %-24s %s\n", i+1, id, name)
			}
			return nil
		})
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle [product-id]",
	Short: "Add a product to favorites, or remove it when already there",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if _, err := sf.Favorites.Toggle(ctx, args[0]); err != nil {
				return err
			}
			state := "removed from"
			if sf.Favorites.Has(ctx, args[0]) {
				state = "added to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites\n", args[0], state)
			return nil
		})
	},
}

func init() {
	addFormatFlag(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd)
	rootCmd.AddCommand(favoritesCmd)
}
