package query

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	"github.com/warinyupa/bankpilot/agent/supervisor"
	toolx "github.com/warinyupa/bankpilot/agent/tool"
	bankx "github.com/warinyupa/bankpilot/bank"
)

// scriptPlanner replays a fixed action sequence so whole-stack scenarios can
// run the real supervisor, tool catalog, and memory store without a model.
type scriptPlanner struct {
	script []contractx.Action
	calls  int
}

func (p *scriptPlanner) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Action, error) {
	if p.calls >= len(p.script) {
		return contractx.Action{Final: "done"}, nil
	}
	action := p.script[p.calls]
	p.calls++
	return action, nil
}

func scenarioService(t *testing.T, store bankx.Store, script []contractx.Action) *Service {
	t.Helper()
	registry, err := toolx.NewCatalog(toolx.Deps{})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	sup := supervisor.New(registry, &scriptPlanner{script: script}, 0)
	return NewService(store, sup)
}

// accountsPlanner asks for the account list, then answers with the tool
// output verbatim. It keeps no state of its own, so concurrent runs only
// share what the turns carry.
type accountsPlanner struct{}

func (accountsPlanner) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Action, error) {
	last := turns[len(turns)-1]
	if last.Role == contractx.RoleTool {
		return contractx.Action{Final: last.Content}, nil
	}
	return contractx.Action{ToolCalls: []contractx.ToolCall{
		{ID: "c1", Name: toolx.ToolGetMyAccounts, Args: map[string]any{}},
	}}, nil
}

func TestConcurrentQueriesStayIsolated(t *testing.T) {
	t.Parallel()

	// One shared store, one shared supervisor; the only per-request state is
	// the context built by the facade. Every caller must see exactly their
	// own balance in the tool evidence.
	store := bankx.NewMemoryStore()
	for id := int64(1); id <= 8; id++ {
		store.SeedAccount(id, "checking", id*10_000, "KZT")
	}
	registry, err := toolx.NewCatalog(toolx.Deps{})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	svc := NewService(store, supervisor.New(registry, accountsPlanner{}, 0))

	var wg sync.WaitGroup
	for id := int64(1); id <= 8; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			resp, err := svc.Query(context.Background(), id, "list my accounts")
			if err != nil {
				t.Errorf("user %d: %v", id, err)
				return
			}
			if len(resp.Sources) != 1 || !resp.Sources[0].Success {
				t.Errorf("user %d sources = %+v", id, resp.Sources)
				return
			}
			want := fmt.Sprintf("%s KZT", bankx.FormatAmount(id*10_000))
			if !strings.Contains(resp.Sources[0].Output, want) {
				t.Errorf("user %d output = %q, want their balance %q", id, resp.Sources[0].Output, want)
			}
			if !strings.Contains(resp.Sources[0].Output, "1 account(s)") {
				t.Errorf("user %d saw someone else's accounts: %q", id, resp.Sources[0].Output)
			}
		}(id)
	}
	wg.Wait()
}

func TestScenarioDeposit(t *testing.T) {
	t.Parallel()
	store := bankx.NewMemoryStore()
	accountID := store.SeedAccount(7, "checking", 100_000, "KZT")

	svc := scenarioService(t, store, []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolDepositMoney, Args: map[string]any{
				"account_id": float64(accountID), "amount": float64(500), "currency": "KZT",
			}},
		}},
		{Final: "Deposited 500.00 KZT. Your new balance is 1500.00 KZT."},
	})

	resp, err := svc.Query(context.Background(), 7, "deposit 500 tenge into my checking account")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(resp.ToolsUsed) != 1 || resp.ToolsUsed[0] != toolx.ToolDepositMoney {
		t.Fatalf("tools used = %v", resp.ToolsUsed)
	}
	if !resp.Sources[0].Success {
		t.Fatalf("deposit should succeed: %+v", resp.Sources[0])
	}
	if math.Abs(resp.Confidence-0.95) > 1e-9 {
		t.Fatalf("confidence = %f, want 0.95", resp.Confidence)
	}

	acct, err := store.Account(context.Background(), accountID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Balance != 150_000 {
		t.Fatalf("balance = %d, want 150000", acct.Balance)
	}
}

func TestScenarioBalanceWithNoAccounts(t *testing.T) {
	t.Parallel()
	store := bankx.NewMemoryStore()

	svc := scenarioService(t, store, []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolGetMyAccounts, Args: map[string]any{}},
		}},
		{Final: "You do not have any open accounts yet."},
	})

	resp, err := svc.Query(context.Background(), 9, "what is my balance?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !resp.Sources[0].Success {
		t.Fatalf("listing accounts is not a failure: %+v", resp.Sources[0])
	}
	if !strings.Contains(resp.Sources[0].Output, "no open accounts") {
		t.Fatalf("output = %q", resp.Sources[0].Output)
	}
}

func TestScenarioCurrencyMismatchTransfer(t *testing.T) {
	t.Parallel()
	store := bankx.NewMemoryStore()
	from := store.SeedAccount(7, "checking", 100_000, "KZT")
	to := store.SeedAccount(7, "savings", 5_000, "USD")

	svc := scenarioService(t, store, []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolTransferMoney, Args: map[string]any{
				"from_account_id": float64(from), "to_account_id": float64(to),
				"amount": float64(100), "currency": "KZT",
			}},
		}},
		{Final: "I could not transfer: the accounts use different currencies."},
	})

	resp, err := svc.Query(context.Background(), 7, "move 100 to my savings")
	if err != nil {
		t.Fatalf("business failure must still produce an answer: %v", err)
	}
	if resp.Sources[0].Success {
		t.Fatalf("mismatched transfer must fail: %+v", resp.Sources[0])
	}
	if !strings.Contains(resp.Sources[0].Error, "currency mismatch") {
		t.Fatalf("error = %q", resp.Sources[0].Error)
	}

	acct, _ := store.Account(context.Background(), from)
	if acct.Balance != 100_000 {
		t.Fatalf("source balance mutated: %d", acct.Balance)
	}
}

func TestScenarioCheckoutOutOfStockLine(t *testing.T) {
	t.Parallel()
	store := bankx.NewMemoryStore()
	accountID := store.SeedAccount(7, "checking", 500_000, "KZT")
	p1 := store.SeedProduct("Notebook", "stationery", 2_000, "KZT", 10)
	p2 := store.SeedProduct("Fountain Pen", "stationery", 9_000, "KZT", 1)
	p3 := store.SeedProduct("Desk Lamp", "home", 15_000, "KZT", 10)

	ctx := context.Background()
	for _, add := range []struct {
		productID int64
		quantity  int
	}{{p1, 2}, {p2, 3}, {p3, 1}} {
		if _, err := store.AddCartItem(ctx, 7, add.productID, add.quantity); err != nil {
			t.Fatalf("add cart item: %v", err)
		}
	}

	svc := scenarioService(t, store, []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolCheckoutCart, Args: map[string]any{
				"account_id": float64(accountID),
			}},
		}},
		{Final: "Checkout failed: one of the items is out of stock."},
	})

	resp, err := svc.Query(ctx, 7, "check out my cart")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if resp.Sources[0].Success {
		t.Fatalf("checkout must fail on the out-of-stock line: %+v", resp.Sources[0])
	}

	// Nothing moved: balance intact and all three lines still in the cart.
	acct, _ := store.Account(ctx, accountID)
	if acct.Balance != 500_000 {
		t.Fatalf("balance = %d, want 500000", acct.Balance)
	}
	lines, err := store.CartByUser(ctx, 7)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("cart lines = %d, want 3", len(lines))
	}
}
