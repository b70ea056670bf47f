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
	ToolAddToCart      = "add_to_cart"
	ToolGetMyCart      = "get_my_cart"
	ToolRemoveFromCart = "remove_from_cart"
	ToolClearCart      = "clear_cart"
	ToolCheckoutCart   = "checkout_cart"
)

func addToCartSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolAddToCart,
			Desc: "Add a product to the user's shopping cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.Integer, Desc: "Product id", Required: true},
				"quantity":   {Type: schema.Integer, Desc: "How many to add, defaults to 1"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			productID, err := intArg(args, "product_id")
			if err != nil {
				return fail(ToolAddToCart, args, err.Error()), nil
			}
			quantity, err := optionalIntArg(args, "quantity", 1)
			if err != nil {
				return fail(ToolAddToCart, args, err.Error()), nil
			}

			item, err := rc.Store.AddCartItem(ctx, rc.UserID, productID, int(quantity))
			if err != nil {
				return storeResult(ToolAddToCart, args, err)
			}

			output := fmt.Sprintf("Added product %d to your cart (line %d, quantity now %d).",
				item.ProductID, item.ID, item.Quantity)
			return ok(ToolAddToCart, args, output, item), nil
		},
	}
}

func myCartSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetMyCart,
			Desc: "Show the user's shopping cart with line totals.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			lines, err := rc.Store.CartByUser(ctx, rc.UserID)
			if err != nil {
				return storeResult(ToolGetMyCart, args, err)
			}
			if len(lines) == 0 {
				return ok(ToolGetMyCart, args, "Your cart is empty.", lines), nil
			}

			// Totals roll up per currency: lines in different currencies
			// never sum into one number.
			var b strings.Builder
			totals := make(map[string]int64)
			var order []string
			fmt.Fprintf(&b, "Your cart has %d line(s):\n", len(lines))
			for _, line := range lines {
				fmt.Fprintf(&b, "- Line %d: %s x%d = %s %s\n",
					line.Item.ID, line.Product.Title, line.Item.Quantity,
					bankx.FormatAmount(line.Total()), line.Product.Currency)
				if _, seen := totals[line.Product.Currency]; !seen {
					order = append(order, line.Product.Currency)
				}
				totals[line.Product.Currency] += line.Total()
			}
			b.WriteString("Total: ")
			for i, cur := range order {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s %s", bankx.FormatAmount(totals[cur]), cur)
			}
			return ok(ToolGetMyCart, args, b.String(), lines), nil
		},
	}
}

func removeFromCartSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolRemoveFromCart,
			Desc: "Remove one line from the user's shopping cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"cart_item_id": {Type: schema.Integer, Desc: "Cart line id to remove", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			cartItemID, err := intArg(args, "cart_item_id")
			if err != nil {
				return fail(ToolRemoveFromCart, args, err.Error()), nil
			}

			if err := rc.Store.RemoveCartItem(ctx, rc.UserID, cartItemID); err != nil {
				return storeResult(ToolRemoveFromCart, args, err)
			}
			return ok(ToolRemoveFromCart, args,
				fmt.Sprintf("Removed line %d from your cart.", cartItemID), nil), nil
		},
	}
}

func clearCartSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolClearCart,
			Desc: "Remove every line from the user's shopping cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			removed, err := rc.Store.ClearCart(ctx, rc.UserID)
			if err != nil {
				return storeResult(ToolClearCart, args, err)
			}
			if removed == 0 {
				return ok(ToolClearCart, args, "Your cart was already empty.", removed), nil
			}
			return ok(ToolClearCart, args,
				fmt.Sprintf("Removed %d line(s) from your cart.", removed), removed), nil
		},
	}
}

func checkoutCartSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolCheckoutCart,
			Desc: "Pay for everything in the cart from one account. All lines succeed or none do.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {Type: schema.Integer, Desc: "Account to pay from", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolCheckoutCart, args, err.Error()), nil
			}

			receipt, err := rc.Store.Checkout(ctx, rc.UserID, accountID)
			if err != nil {
				return storeResult(ToolCheckoutCart, args, err)
			}

			output := fmt.Sprintf("Checkout complete: %d line(s), %s %s paid from account %d.",
				receipt.Lines, bankx.FormatAmount(receipt.Total), receipt.Currency, receipt.AccountID)
			return ok(ToolCheckoutCart, args, output, receipt), nil
		},
	}
}
