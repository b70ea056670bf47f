package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	bankx "github.com/warinyupa/bankpilot/bank"
)

func ok(tool string, args map[string]any, output string, data any) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:    tool,
		Args:    args,
		Output:  output,
		Data:    data,
		Success: true,
	}
}

func fail(tool string, args map[string]any, msg string) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:  tool,
		Args:  args,
		Error: msg,
	}
}

// businessError reports whether err is an expected domain rejection that the
// planner should see as a failed result rather than an aborted query.
func businessError(err error) bool {
	for _, sentinel := range []error{
		bankx.ErrNotFound,
		bankx.ErrForbidden,
		bankx.ErrInsufficientFunds,
		bankx.ErrCurrencyMismatch,
		bankx.ErrUnsupportedCurrency,
		bankx.ErrInactiveAccount,
		bankx.ErrOutOfStock,
		bankx.ErrEmptyCart,
		bankx.ErrInvalidAmount,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// storeResult converts a store error into either a failed ToolResult (domain
// rejection) or a propagated infrastructure error.
func storeResult(tool string, args map[string]any, err error) (contractx.ToolResult, error) {
	if businessError(err) {
		return fail(tool, args, err.Error()), nil
	}
	return contractx.ToolResult{}, fmt.Errorf("%s: %w", tool, err)
}

/* --------------------------- Argument coercion ---------------------------- */

// The model sends arguments as decoded JSON, so every number arrives as
// float64 and ids sometimes arrive as strings. These helpers normalize that.

func intArg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func optionalIntArg(args map[string]any, key string, fallback int64) (int64, error) {
	if _, ok := args[key]; !ok {
		return fallback, nil
	}
	return intArg(args, key)
}

func strArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func optionalStrArg(args map[string]any, key, fallback string) string {
	raw, ok := args[key]
	if !ok {
		return fallback
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fallback
}

// currencyArg resolves the optional currency argument, falling back to the
// referenced account's currency when the model omits it.
func currencyArg(ctx context.Context, rc contractx.RequestContext, args map[string]any, accountID int64) (string, error) {
	if cur := optionalStrArg(args, "currency", ""); cur != "" {
		return cur, nil
	}
	acct, err := rc.Store.Account(ctx, accountID)
	if err != nil {
		return "", err
	}
	return acct.Currency, nil
}

// amountArg reads a major-unit decimal amount and converts it to minor units.
// "150.25" and 150.25 both become 15025.
func amountArg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	var major float64
	switch v := raw.(type) {
	case float64:
		major = v
	case int:
		major = float64(v)
	case int64:
		major = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		major = parsed
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}

	minor := math.Round(major * 100)
	if math.IsNaN(minor) || math.IsInf(minor, 0) || math.Abs(minor) > math.MaxInt64/2 {
		return 0, fmt.Errorf("%s is out of range", key)
	}
	return int64(minor), nil
}
