package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/storefront"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Suggest products that are due to be ordered again",
	Args:  cobra.NoArgs,
	RunE:  runReorder,
}

func init() {
	reorderCmd.Flags().String("history", "", "JSON file of past orders (default: fetch for the signed-in account)")
	addFormatFlag(reorderCmd)
	rootCmd.AddCommand(reorderCmd)
}

func runReorder(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	historyFile, _ := cmd.Flags().GetString("history")

	return withStorefront(cmd, func(ctx context.Context, sf *storefront.Storefront) error {
		var history []models.OrderHistoryEntry
		if historyFile != "" {
			if history, err = readHistory(historyFile); err != nil {
				return err
			}
		} else if history, err = sf.OrderHistory(ctx); err != nil {
			return err
		}

		suggestions := sf.SuggestReorders(ctx, history)
		out := cmd.OutOrStdout()
		if format == formatJSON {
			return printJSON(out, suggestions)
		}
		if len(suggestions) == 0 {
			fmt.Fprintln(out, "Nothing is due for reorder.")
			return nil
		}
		for i, s := range suggestions {
			name := s.ProductID
			if p, ok := sf.Product(ctx, s.ProductID); ok {
				name = p.Name
			}
			fmt.Fprintf(out, " %d. %s\n    ordered %d times, every ~%.0f days, last %.0f days ago\n",
				i+1, name, s.Orders, s.CadenceDays, s.DaysSince)
		}
		return nil
	})
}

func readHistory(path string) ([]models.OrderHistoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var history []models.OrderHistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("order history %s: %v", path, err))
	}
	return history, nil
}
