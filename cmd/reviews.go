package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lukman83/storefront/internal/api"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/storefront"
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and submit product reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list [product-id...]",
	Short: "List reviews for one or more products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReviewsList,
}

var reviewsSubmitCmd = &cobra.Command{
	Use:   "submit [product-id]",
	Short: "Submit a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in api.ReviewInput
		in.Author, _ = cmd.Flags().GetString("author")
		in.Email, _ = cmd.Flags().GetString("email")
		in.Rating, _ = cmd.Flags().GetInt("rating")
		in.Body, _ = cmd.Flags().GetString("body")
		return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
			if err := sf.API.SubmitReview(ctx, args[0], in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review submitted")
			return nil
		})
	},
}

func init() {
	addFormatFlag(reviewsListCmd)
	reviewsSubmitCmd.Flags().String("author", "", "Reviewer name")
	reviewsSubmitCmd.Flags().String("email", "", "Reviewer email (optional)")
	reviewsSubmitCmd.Flags().Int("rating", 5, "Rating from 1 to 5")
	reviewsSubmitCmd.Flags().String("body", "", "Review text")
	reviewsCmd.AddCommand(reviewsListCmd, reviewsSubmitCmd)
	rootCmd.AddCommand(reviewsCmd)
}

type productReviews struct {
	ProductID string          `json:"productId"`
	Reviews   []models.Review `json:"reviews"`
}

func runReviewsList(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		results := make([]productReviews, len(args))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.MaxConcurrent)
		for i, id := range args {
			g.Go(func() error {
				reviews, err := sf.API.Reviews(gctx, id)
				if err != nil {
					return fmt.Errorf("reviews for %s: %w", id, err)
				}
				results[i] = productReviews{ProductID: id, Reviews: reviews}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, results)
		}
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%d reviews)\n", r.ProductID, len(r.Reviews))
			for _, rv := range r.Reviews {
				fmt.Fprintf(out, "  %s %s: %s\n", stars(rv.Rating), rv.Author, truncate(rv.Body, 80))
			}
		}
		return nil
	})
}

func stars(rating int) string {
	rating = max(0, min(rating, 5))
	s := ""
	for i := range 5 {
		if i < rating {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}
