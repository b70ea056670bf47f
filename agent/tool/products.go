package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	bankx "github.com/warinyupa/bankpilot/bank"
)

const (
	ToolSearchProducts        = "search_products"
	ToolGetProductDetails     = "get_product_details"
	ToolGetProductsByCategory = "get_products_by_category"
	ToolGetFeaturedProducts   = "get_featured_products"

	defaultProductLimit  = 10
	defaultFeaturedLimit = 5
	maxFeaturedLimit     = 10
)

func searchProductsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolSearchProducts,
			Desc: "Search the product marketplace by keyword.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Search keywords", Required: true},
				"limit": {Type: schema.Integer, Desc: "Max results, defaults to 10"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			query, err := strArg(args, "query")
			if err != nil {
				return fail(ToolSearchProducts, args, err.Error()), nil
			}
			limit, err := optionalIntArg(args, "limit", defaultProductLimit)
			if err != nil {
				return fail(ToolSearchProducts, args, err.Error()), nil
			}

			products, err := rc.Store.SearchProducts(ctx, query, int(limit))
			if err != nil {
				return storeResult(ToolSearchProducts, args, err)
			}
			if len(products) == 0 {
				return ok(ToolSearchProducts, args,
					fmt.Sprintf("No products matched %q.", query), products), nil
			}
			return ok(ToolSearchProducts, args, formatProducts(products), products), nil
		},
	}
}

func productDetailsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetProductDetails,
			Desc: "Show full details for one product by id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.Integer, Desc: "Product id", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			productID, err := intArg(args, "product_id")
			if err != nil {
				return fail(ToolGetProductDetails, args, err.Error()), nil
			}

			product, err := rc.Store.Product(ctx, productID)
			if err != nil {
				return storeResult(ToolGetProductDetails, args, err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Product %d: %s\nCategory: %s\nPrice: %s %s\nIn stock: %d",
				product.ID, product.Title, product.Category,
				bankx.FormatAmount(product.Price), product.Currency, product.Stock)
			if product.Description != "" {
				fmt.Fprintf(&b, "\n%s", product.Description)
			}
			return ok(ToolGetProductDetails, args, b.String(), product), nil
		},
	}
}

func productsByCategorySpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetProductsByCategory,
			Desc: "List marketplace products in a category.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"category": {Type: schema.String, Desc: "Category name", Required: true},
				"limit":    {Type: schema.Integer, Desc: "Max results, defaults to 10"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			category, err := strArg(args, "category")
			if err != nil {
				return fail(ToolGetProductsByCategory, args, err.Error()), nil
			}
			limit, err := optionalIntArg(args, "limit", defaultProductLimit)
			if err != nil {
				return fail(ToolGetProductsByCategory, args, err.Error()), nil
			}

			products, err := rc.Store.ProductsByCategory(ctx, category, int(limit))
			if err != nil {
				return storeResult(ToolGetProductsByCategory, args, err)
			}
			if len(products) == 0 {
				return ok(ToolGetProductsByCategory, args,
					fmt.Sprintf("No products in category %q.", category), products), nil
			}
			return ok(ToolGetProductsByCategory, args, formatProducts(products), products), nil
		},
	}
}

func featuredProductsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetFeaturedProducts,
			Desc: "List the most popular products, ranked by how often they are bought.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": {Type: schema.Integer, Desc: "Max results, defaults to 5, max 10"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			limit, err := optionalIntArg(args, "limit", defaultFeaturedLimit)
			if err != nil {
				return fail(ToolGetFeaturedProducts, args, err.Error()), nil
			}
			if limit <= 0 {
				limit = defaultFeaturedLimit
			}
			if limit > maxFeaturedLimit {
				limit = maxFeaturedLimit
			}

			products, err := rc.Store.FeaturedProducts(ctx, int(limit))
			if err != nil {
				return storeResult(ToolGetFeaturedProducts, args, err)
			}
			if len(products) == 0 {
				return ok(ToolGetFeaturedProducts, args, "No featured products right now.", products), nil
			}
			return ok(ToolGetFeaturedProducts, args, formatProducts(products), products), nil
		},
	}
}

func formatProducts(products []bankx.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d product(s):\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&b, "- #%d %s (%s): %s %s, %d in stock\n",
			p.ID, p.Title, p.Category, bankx.FormatAmount(p.Price), p.Currency, p.Stock)
	}
	return strings.TrimRight(b.String(), "\n")
}
