package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	bankx "github.com/warinyupa/bankpilot/bank"
)

type fixture struct {
	registry *Registry
	rc       contractx.RequestContext
	store    *bankx.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := bankx.NewMemoryStore()
	store.SeedAccount(1, "checking", 100_000, "KZT")
	store.SeedAccount(1, "savings", 40_000, "KZT")
	store.SeedAccount(2, "checking", 5_000, "USD")
	store.SeedProduct("Travel Insurance", "insurance", 8_000, "KZT", 10)

	registry, err := NewCatalog(Deps{
		Docs: stubDocs{},
		Web:  stubWeb{},
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return &fixture{
		registry: registry,
		rc:       contractx.RequestContext{UserID: 1, Store: store},
		store:    store,
	}
}

func (f *fixture) run(t *testing.T, tool string, args map[string]any) contractx.ToolResult {
	t.Helper()
	spec, err := f.registry.Resolve(tool)
	if err != nil {
		t.Fatalf("resolve %s: %v", tool, err)
	}
	result, err := spec.Handler(context.Background(), f.rc, args)
	if err != nil {
		t.Fatalf("%s returned infrastructure error: %v", tool, err)
	}
	return result
}

type stubDocs struct{}

func (stubDocs) SearchDocuments(ctx context.Context, query string, k int) ([]DocHit, error) {
	if strings.Contains(query, "fee") {
		return []DocHit{{Title: "Card Fees", Snippet: "Maintenance costs 200 KZT per month.", Source: "fees.md", Score: 1.2}}, nil
	}
	return nil, nil
}

type stubWeb struct{}

func (stubWeb) SearchWeb(ctx context.Context, query string, maxResults int) ([]WebHit, error) {
	return []WebHit{{Title: "Rates today", URL: "https://example.com", Content: "USD/KZT at 480", Score: 0.8}}, nil
}

func TestBalanceTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolGetAccountBalance, map[string]any{"account_id": float64(1)})
	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if !strings.Contains(result.Output, "1000.00 KZT") {
		t.Fatalf("output = %q, want balance text", result.Output)
	}
}

func TestBalanceToolForeignAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolGetAccountBalance, map[string]any{"account_id": float64(3)})
	if result.Success {
		t.Fatal("foreign account must fail")
	}
	if !strings.Contains(result.Error, "does not belong to you") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestDepositToolConvertsMajorUnits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolDepositMoney, map[string]any{
		"account_id": float64(1),
		"amount":     150.25,
		"currency":   "KZT",
	})
	if !result.Success {
		t.Fatalf("deposit failed: %s", result.Error)
	}

	acct, err := f.store.Account(context.Background(), 1)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Balance != 115_025 {
		t.Fatalf("balance = %d, want 115025", acct.Balance)
	}
}

func TestMoneyToolsDefaultCurrency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// No currency argument anywhere: each tool falls back to the account's
	// own currency instead of rejecting the call.
	deposit := f.run(t, ToolDepositMoney, map[string]any{
		"account_id": float64(1),
		"amount":     float64(500),
	})
	if !deposit.Success {
		t.Fatalf("deposit without currency failed: %s", deposit.Error)
	}

	withdraw := f.run(t, ToolWithdrawMoney, map[string]any{
		"account_id": float64(1),
		"amount":     float64(100),
	})
	if !withdraw.Success {
		t.Fatalf("withdraw without currency failed: %s", withdraw.Error)
	}

	transfer := f.run(t, ToolTransferMoney, map[string]any{
		"from_account_id": float64(1),
		"to_account_id":   float64(2),
		"amount":          float64(50),
	})
	if !transfer.Success {
		t.Fatalf("transfer without currency failed: %s", transfer.Error)
	}
	receipt := transfer.Data.(*bankx.TransferReceipt)
	if receipt.Debit.Currency != "KZT" {
		t.Fatalf("transfer currency = %q, want source account's KZT", receipt.Debit.Currency)
	}

	acct, err := f.store.Account(context.Background(), 1)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Balance != 100_000+50_000-10_000-5_000 {
		t.Fatalf("balance = %d, want 135000", acct.Balance)
	}
}

func TestCreateGoalDefaultsCurrency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolCreateFinancialGoal, map[string]any{
		"name":          "New laptop",
		"target_amount": float64(1_200),
	})
	if !result.Success {
		t.Fatalf("create goal without currency failed: %s", result.Error)
	}
	goal := result.Data.(*bankx.FinancialGoal)
	if goal.Currency != "USD" {
		t.Fatalf("goal currency = %q, want USD", goal.Currency)
	}
}

func TestWithdrawToolInsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolWithdrawMoney, map[string]any{
		"account_id": float64(1),
		"amount":     float64(99_999),
		"currency":   "KZT",
	})
	if result.Success {
		t.Fatal("overdraft must fail")
	}
	if !strings.Contains(result.Error, "insufficient funds") {
		t.Fatalf("error = %q", result.Error)
	}

	// The failure rides in the result, never as a Go error, and the text fed
	// back to the planner carries the reason.
	if !strings.Contains(result.Text(), "Tool failed") {
		t.Fatalf("planner text = %q", result.Text())
	}
}

func TestTransferTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolTransferMoney, map[string]any{
		"from_account_id": float64(1),
		"to_account_id":   float64(2),
		"amount":          float64(100),
		"currency":        "KZT",
	})
	if !result.Success {
		t.Fatalf("transfer failed: %s", result.Error)
	}
	if !strings.Contains(result.Output, "Transfer id:") {
		t.Fatalf("output = %q", result.Output)
	}

	receipt, ok := result.Data.(*bankx.TransferReceipt)
	if !ok {
		t.Fatalf("data type = %T", result.Data)
	}
	if receipt.Debit.Amount != 10_000 {
		t.Fatalf("debit amount = %d, want 10000", receipt.Debit.Amount)
	}
}

func TestCartRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if result := f.run(t, ToolAddToCart, map[string]any{"product_id": float64(1), "quantity": float64(2)}); !result.Success {
		t.Fatalf("add to cart failed: %s", result.Error)
	}

	cart := f.run(t, ToolGetMyCart, nil)
	if !cart.Success || !strings.Contains(cart.Output, "Travel Insurance x2") {
		t.Fatalf("cart output = %q", cart.Output)
	}
	if !strings.Contains(cart.Output, "Total: 160.00 KZT") {
		t.Fatalf("cart total missing: %q", cart.Output)
	}

	checkout := f.run(t, ToolCheckoutCart, map[string]any{"account_id": float64(1)})
	if !checkout.Success {
		t.Fatalf("checkout failed: %s", checkout.Error)
	}

	empty := f.run(t, ToolGetMyCart, nil)
	if !strings.Contains(empty.Output, "empty") {
		t.Fatalf("cart should be empty, got %q", empty.Output)
	}
}

func TestCartMixedCurrencyTotals(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.store.SeedProduct("Phrasebook", "books", 2_500, "USD", 3)

	if result := f.run(t, ToolAddToCart, map[string]any{"product_id": float64(1)}); !result.Success {
		t.Fatalf("add to cart failed: %s", result.Error)
	}
	if result := f.run(t, ToolAddToCart, map[string]any{"product_id": float64(2), "quantity": float64(2)}); !result.Success {
		t.Fatalf("add to cart failed: %s", result.Error)
	}

	cart := f.run(t, ToolGetMyCart, nil)
	if !cart.Success {
		t.Fatalf("cart failed: %s", cart.Error)
	}
	if !strings.Contains(cart.Output, "Total: 80.00 KZT, 50.00 USD") {
		t.Fatalf("per-currency totals missing: %q", cart.Output)
	}
}

func TestTransactionStatsTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ctx := context.Background()
	if _, err := f.store.Deposit(ctx, 1, 1, 50_000, "KZT", ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.store.Withdraw(ctx, 1, 1, 20_000, "KZT", ""); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	result := f.run(t, ToolGetTransactionStats, map[string]any{"currency": "KZT", "days": float64(7)})
	if !result.Success {
		t.Fatalf("stats failed: %s", result.Error)
	}
	for _, want := range []string{"Deposits: 500.00", "Withdrawals: 200.00", "Net change: 300.00 KZT"} {
		if !strings.Contains(result.Output, want) {
			t.Fatalf("stats output = %q, want %q", result.Output, want)
		}
	}

	// Default currency is USD; user 1 has no USD activity.
	empty := f.run(t, ToolGetTransactionStats, nil)
	if !empty.Success || !strings.Contains(empty.Output, "No USD transactions") {
		t.Fatalf("empty stats output = %q", empty.Output)
	}
}

func TestFeaturedProductsTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.store.SeedProduct("Coffee Mug", "home", 3_000, "KZT", 5)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := f.store.Purchase(ctx, 1, 1, 2, 1); err != nil {
			t.Fatalf("purchase: %v", err)
		}
	}

	result := f.run(t, ToolGetFeaturedProducts, nil)
	if !result.Success {
		t.Fatalf("featured failed: %s", result.Error)
	}
	mug := strings.Index(result.Output, "Coffee Mug")
	insurance := strings.Index(result.Output, "Travel Insurance")
	if mug < 0 || insurance < 0 || mug > insurance {
		t.Fatalf("purchased product should rank first: %q", result.Output)
	}
}

func TestGoalTools(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	created := f.run(t, ToolCreateFinancialGoal, map[string]any{
		"name":          "Emergency fund",
		"target_amount": float64(1_000),
		"currency":      "KZT",
		"deadline_days": float64(100),
	})
	if !created.Success {
		t.Fatalf("create goal failed: %s", created.Error)
	}

	analysis := f.run(t, ToolGetGoalAnalysis, map[string]any{"goal_id": float64(1)})
	if !analysis.Success {
		t.Fatalf("analysis failed: %s", analysis.Error)
	}
	if !strings.Contains(analysis.Output, "Remaining: 1000.00 KZT") {
		t.Fatalf("analysis output = %q", analysis.Output)
	}
	if !strings.Contains(analysis.Output, "Daily savings needed") {
		t.Fatalf("analysis output missing daily rate: %q", analysis.Output)
	}
}

func TestFinancialSummaryTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.run(t, ToolGetFinancialSummary, nil)
	if !result.Success {
		t.Fatalf("summary failed: %s", result.Error)
	}
	// Two KZT accounts owned by user 1, totals rolled up per currency.
	if !strings.Contains(result.Output, "1400.00 KZT") {
		t.Fatalf("summary output = %q", result.Output)
	}
}

func TestRetrievalTools(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	docs := f.run(t, ToolSearchDocuments, map[string]any{"query": "card fees"})
	if !docs.Success || !strings.Contains(docs.Output, "Card Fees") {
		t.Fatalf("doc search output = %q", docs.Output)
	}

	none := f.run(t, ToolSearchDocuments, map[string]any{"query": "mortgages"})
	if !none.Success || !strings.Contains(none.Output, "No documents matched") {
		t.Fatalf("empty doc search output = %q (success=%v)", none.Output, none.Success)
	}

	web := f.run(t, ToolWebSearch, map[string]any{"query": "usd kzt rate"})
	if !web.Success || !strings.Contains(web.Output, "USD/KZT") {
		t.Fatalf("web search output = %q", web.Output)
	}
}

func TestUnconfiguredRetrievalFailsSoftly(t *testing.T) {
	t.Parallel()

	registry, err := NewCatalog(Deps{})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	store := bankx.NewMemoryStore()
	rc := contractx.RequestContext{UserID: 1, Store: store}

	spec, _ := registry.Resolve(ToolWebSearch)
	result, err := spec.Handler(context.Background(), rc, map[string]any{"query": "anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("unconfigured web search must fail")
	}
}

func TestArgumentCoercion(t *testing.T) {
	t.Parallel()

	if v, err := intArg(map[string]any{"id": "42"}, "id"); err != nil || v != 42 {
		t.Fatalf("string id: v=%d err=%v", v, err)
	}
	if _, err := intArg(map[string]any{"id": 1.5}, "id"); err == nil {
		t.Fatal("fractional id must be rejected")
	}
	if v, err := amountArg(map[string]any{"amount": "10.50"}, "amount"); err != nil || v != 1_050 {
		t.Fatalf("string amount: v=%d err=%v", v, err)
	}
	if v, err := amountArg(map[string]any{"amount": float64(3)}, "amount"); err != nil || v != 300 {
		t.Fatalf("whole amount: v=%d err=%v", v, err)
	}
	if _, err := strArg(map[string]any{"q": "   "}, "q"); err == nil {
		t.Fatal("blank string must be rejected")
	}
}
