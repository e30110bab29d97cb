package catalog

import (
	"strings"

	"github.com/lukman83/storefront/internal/models"
)

// Filter narrows a product list. The zero Filter keeps everything.
type Filter struct {
	// Search matches case-insensitively against id, name, slug and every
	// description.
	Search string
	// Category keeps the category and its sub-categories ("paper" keeps
	// "paper/kraft").
	Category string
	Special  bool
	InStock  bool
	// Limit caps the result; 0 means no cap.
	Limit int
}

// Apply returns the matching products in catalog order.
func (f Filter) Apply(products []models.Product) []models.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.Trim(strings.ToLower(strings.TrimSpace(f.Category)), "/")

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Special && !p.Special {
			continue
		}
		if f.InStock && p.Stock == 0 {
			continue
		}
		if category != "" && !inCategory(p.Category, category) {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func inCategory(productCategory, category string) bool {
	c := strings.ToLower(productCategory)
	return c == category || strings.HasPrefix(c, category+"/")
}

func matches(p models.Product, needle string) bool {
	for _, s := range []string{p.ID, p.Name, p.Slug} {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	for _, d := range p.Descriptions {
		if strings.Contains(strings.ToLower(d), needle) {
			return true
		}
	}
	return false
}
