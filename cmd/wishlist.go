package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/storefront"
)

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Manage the signed-in account's wishlists",
}

var wishlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show wishlists and their products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			lists := sf.Wishlists.Lists(ctx)
			out := cmd.OutOrStdout()
			if format == formatJSON {
				return printJSON(out, lists)
			}
			if _, ok := sf.Sessions.Current(ctx); !ok {
				fmt.Fprintln(out, "Not signed in; run `storefront session login` first.")
				return nil
			}
			printWishlists(cmd, lists)
			return nil
		})
	},
}

// wishlistMutation runs fn against the wishlist manager and prints the
// resulting lists.
func wishlistMutation(args cobra.PositionalArgs, use, short string, fn func(ctx context.Context, sf *storefront.Storefront, cmd *cobra.Command, args []string) ([]models.WishlistList, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
				lists, err := fn(ctx, sf, cmd, args)
				if err != nil {
					return err
				}
				printWishlists(cmd, lists)
				return nil
			})
		},
	}
}

var (
	wishlistCreateCmd = wishlistMutation(cobra.ExactArgs(1), "create [name]", "Create a wishlist",
		func(ctx context.Context, sf *storefront.Storefront, _ *cobra.Command, args []string) ([]models.WishlistList, error) {
			return sf.Wishlists.Create(ctx, args[0])
		})
	wishlistRenameCmd = wishlistMutation(cobra.ExactArgs(2), "rename [list-id] [name]", "Rename a wishlist",
		func(ctx context.Context, sf *storefront.Storefront, _ *cobra.Command, args []string) ([]models.WishlistList, error) {
			return sf.Wishlists.Rename(ctx, args[0], args[1])
		})
	wishlistDeleteCmd = wishlistMutation(cobra.ExactArgs(1), "delete [list-id]", "Delete a wishlist (the last one is kept)",
		func(ctx context.Context, sf *storefront.Storefront, _ *cobra.Command, args []string) ([]models.WishlistList, error) {
			return sf.Wishlists.Delete(ctx, args[0])
		})
	wishlistAddCmd = wishlistMutation(cobra.ExactArgs(1), "add [product-id]", "Add a product to a wishlist",
		func(ctx context.Context, sf *storefront.Storefront, cmd *cobra.Command, args []string) ([]models.WishlistList, error) {
			listID, _ := cmd.Flags().GetString("list")
			return sf.Wishlists.AddItem(ctx, args[0], listID)
		})
	wishlistRemoveCmd = wishlistMutation(cobra.ExactArgs(1), "remove [product-id]", "Remove a product from a wishlist",
		func(ctx context.Context, sf *storefront.Storefront, cmd *cobra.Command, args []string) ([]models.WishlistList, error) {
			listID, _ := cmd.Flags().GetString("list")
			return sf.Wishlists.RemoveItem(ctx, args[0], listID)
		})
)

func init() {
	addFormatFlag(wishlistListCmd)
	wishlistAddCmd.Flags().String("list", "", "Wishlist id (default: first list)")
	wishlistRemoveCmd.Flags().String("list", "", "Wishlist id (default: first list)")
	wishlistCmd.AddCommand(wishlistListCmd, wishlistCreateCmd, wishlistRenameCmd, wishlistDeleteCmd, wishlistAddCmd, wishlistRemoveCmd)
	rootCmd.AddCommand(wishlistCmd)
}

func printWishlists(cmd *cobra.Command, lists []models.WishlistList) {
	out := cmd.OutOrStdout()
	for i, l := range lists {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, " %s  (%d items)\n    id: %s\n", l.Name, len(l.Items), l.ID)
		for _, it := range l.Items {
			fmt.Fprintf(out, "    - %s\n", it.ProductID)
		}
	}
}
