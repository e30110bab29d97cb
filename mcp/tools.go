package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/catalog"
	"github.com/lukman83/storefront/internal/storefront"
)

type tools struct {
	sf *storefront.Storefront
}

func registerTools(s *server.MCPServer, t *tools) {
	// list_products
	listTool := mcp.NewTool("list_products",
		mcp.WithDescription("List catalog products, optionally filtered"),
		mcp.WithString("search",
			mcp.Description("Text to match in id, name, slug or description"),
		),
		mcp.WithString("category",
			mcp.Description("Category filter; sub-categories are included"),
		),
		mcp.WithBoolean("special",
			mcp.Description("Only special offers"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of products (default: 20)"),
		),
	)
	s.AddTool(listTool, t.listProducts)

	// quote_price
	quoteTool := mcp.NewTool("quote_price",
		mcp.WithDescription("Price a product at a quantity, with bulk tiers applied"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
		mcp.WithNumber("qty",
			mcp.Description("Quantity (default: 1)"),
		),
		mcp.WithString("currency",
			mcp.Description("Currency code (default: active currency)"),
		),
	)
	s.AddTool(quoteTool, t.quotePrice)

	// cart_show
	cartShowTool := mcp.NewTool("cart_show",
		mcp.WithDescription("Show the cart lines and total"),
		mcp.WithString("currency",
			mcp.Description("Currency code (default: active currency)"),
		),
	)
	s.AddTool(cartShowTool, t.cartShow)

	// cart_add
	cartAddTool := mcp.NewTool("cart_add",
		mcp.WithDescription("Add a product to the cart"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
		mcp.WithNumber("qty",
			mcp.Description("Quantity to add (default: 1)"),
		),
	)
	s.AddTool(cartAddTool, t.cartAdd)

	// cart_set_quantity
	cartSetTool := mcp.NewTool("cart_set_quantity",
		mcp.WithDescription("Set the quantity of a cart line; 0 removes it"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
		mcp.WithNumber("qty",
			mcp.Required(),
			mcp.Description("New quantity"),
		),
	)
	s.AddTool(cartSetTool, t.cartSetQuantity)

	// toggle_favorite
	favTool := mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Add a product to favorites, or remove it when already there"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
	)
	s.AddTool(favTool, t.toggleFavorite)

	// wishlists
	wishlistsTool := mcp.NewTool("wishlists",
		mcp.WithDescription("Show the signed-in account's wishlists"),
	)
	s.AddTool(wishlistsTool, t.wishlists)

	// wishlist_add
	wishlistAddTool := mcp.NewTool("wishlist_add",
		mcp.WithDescription("Add a product to a wishlist of the signed-in account"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id"),
		),
		mcp.WithString("list_id",
			mcp.Description("Wishlist id (default: first list)"),
		),
	)
	s.AddTool(wishlistAddTool, t.wishlistAdd)

	// set_currency
	currencyTool := mcp.NewTool("set_currency",
		mcp.WithDescription("Switch the display currency"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Currency code, e.g. EUR or USD"),
		),
	)
	s.AddTool(currencyTool, t.setCurrency)

	// suggest_reorders
	reorderTool := mcp.NewTool("suggest_reorders",
		mcp.WithDescription("Suggest products due for reorder from the signed-in account's order history"),
	)
	s.AddTool(reorderTool, t.suggestReorders)
}

func (t *tools) listProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := catalog.Filter{
		Search:   request.GetString("search", ""),
		Category: request.GetString("category", ""),
		Special:  request.GetBool("special", false),
		Limit:    request.GetInt("limit", 20),
	}
	return jsonResult(f.Apply(t.sf.Catalog.Load(ctx)))
}

func (t *tools) quotePrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("product_id", "")
	if id == "" {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	p, ok := t.sf.Product(ctx, id)
	if !ok {
		return errorResult(apperrors.NotFound("product", id))
	}
	q, err := t.sf.Quote(ctx, p, request.GetInt("qty", 1), request.GetString("currency", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(q)
}

func (t *tools) cartShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := t.sf.CartSummary(ctx, request.GetString("currency", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(sum)
}

func (t *tools) cartAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("product_id", "")
	if id == "" {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	p, ok := t.sf.Product(ctx, id)
	if !ok {
		return errorResult(apperrors.NotFound("product", id))
	}
	items, err := t.sf.Cart.Add(ctx, p, request.GetInt("qty", 1))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(items)
}

func (t *tools) cartSetQuantity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("product_id", "")
	if id == "" {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	items, err := t.sf.Cart.SetQuantity(ctx, id, request.GetInt("qty", 0))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(items)
}

func (t *tools) toggleFavorite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := t.sf.Favorites.Toggle(ctx, request.GetString("product_id", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(ids)
}

func (t *tools) wishlists(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.sf.Wishlists.Lists(ctx))
}

func (t *tools) wishlistAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lists, err := t.sf.Wishlists.AddItem(ctx, request.GetString("product_id", ""), request.GetString("list_id", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(lists)
}

func (t *tools) setCurrency(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.sf.Pricing.SetCurrency(ctx, request.GetString("code", "")); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(t.sf.Pricing.Currency(ctx)), nil
}

func (t *tools) suggestReorders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history, err := t.sf.OrderHistory(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(t.sf.SuggestReorders(ctx, history))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("json error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err to the model as a tool error rather than failing
// the call.
func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
