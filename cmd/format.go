package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/pricing"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", formatTable, "Output format: table, json")
}

// outputFormat returns the --format value, rejecting unknown formats.
func outputFormat(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("format")
	switch f {
	case formatTable, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", f)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printProductsTable prints products in a human-friendly card layout, with
// prices in the active currency.
func printProductsTable(ctx context.Context, w io.Writer, engine *pricing.Engine, products []models.Product, lang string) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := p.Name
		if p.Special {
			name = "[SPECIAL] " + name
		}
		fmt.Fprintf(w, " %d. %s\n", i+1, name)

		priceLine := "    Price: " + money(ctx, engine, p.PriceCents, p.Currency)
		if p.Stock > 0 {
			priceLine += fmt.Sprintf("  |  Stock: %d", p.Stock)
		} else {
			priceLine += "  |  Out of stock"
		}
		fmt.Fprintln(w, priceLine)

		if tiers := engine.Tiers(p.Category); len(tiers) > 0 {
			var bands []string
			for _, t := range slices.Backward(tiers) {
				bands = append(bands, fmt.Sprintf("%d+ %s", t.MinQty, money(ctx, engine, t.UnitCents, p.Currency)))
			}
			fmt.Fprintf(w, "    Bulk: %s\n", strings.Join(bands, ", "))
		}
		if p.Category != "" {
			fmt.Fprintf(w, "    Category: %s\n", formatBreadcrumb(p.Category))
		}
		if d := description(p, lang); d != "" {
			fmt.Fprintf(w, "    %s\n", truncate(d, 90))
		}
		fmt.Fprintf(w, "    id: %s\n", p.ID)
	}
}

// money formats cents in the active currency; an unconvertible amount falls
// back to its own currency.
func money(ctx context.Context, engine *pricing.Engine, cents int64, currency string) string {
	if s, err := engine.Money(ctx, cents, currency); err == nil {
		return s
	}
	return fmt.Sprintf("%d %s cents", cents, currency)
}

// description picks the text for lang, else the first language in order.
func description(p models.Product, lang string) string {
	if d, ok := p.Descriptions[lang]; ok {
		return d
	}
	langs := make([]string, 0, len(p.Descriptions))
	for l := range p.Descriptions {
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return ""
	}
	slices.Sort(langs)
	return p.Descriptions[langs[0]]
}

// formatBreadcrumb converts "office-supplies/paper/kraft" to
// "Office Supplies > Paper > Kraft".
func formatBreadcrumb(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		words := strings.Split(p, "-")
		for j, w := range words {
			if len(w) > 0 {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		parts[i] = strings.Join(words, " ")
	}
	return strings.Join(parts, " > ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
