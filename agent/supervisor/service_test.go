package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	toolx "github.com/warinyupa/bankpilot/agent/tool"
	bankx "github.com/warinyupa/bankpilot/bank"
)

// scriptedPlanner replays a fixed sequence of actions and records the turns
// it was shown on each call.
type scriptedPlanner struct {
	script []contractx.Action
	err    error
	calls  int
	seen   [][]contractx.Turn
}

func (p *scriptedPlanner) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Action, error) {
	copied := make([]contractx.Turn, len(turns))
	copy(copied, turns)
	p.seen = append(p.seen, copied)

	if p.err != nil {
		return contractx.Action{}, p.err
	}
	if p.calls >= len(p.script) {
		return contractx.Action{Final: "fallback"}, nil
	}
	action := p.script[p.calls]
	p.calls++
	return action, nil
}

func testContext(t *testing.T) contractx.RequestContext {
	t.Helper()
	store := bankx.NewMemoryStore()
	store.SeedAccount(1, "checking", 50_000, "KZT")
	return contractx.RequestContext{UserID: 1, Store: store}
}

func testRegistry(t *testing.T) *toolx.Registry {
	t.Helper()
	registry, err := toolx.NewCatalog(toolx.Deps{})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return registry
}

func TestRunDirectAnswer(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{{Final: "Hello, how can I help?"}}}
	sup := New(testRegistry(t), planner, 0)

	outcome, err := sup.Run(context.Background(), testContext(t), "hi")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Answer != "Hello, how can I help?" {
		t.Fatalf("answer = %q", outcome.Answer)
	}
	if len(outcome.Sources) != 0 || len(outcome.ToolsUsed) != 0 {
		t.Fatalf("direct answer should carry no tool evidence: %+v", outcome)
	}
	if outcome.Iterations != 1 {
		t.Fatalf("iterations = %d, want 1", outcome.Iterations)
	}
}

func TestRunToolLoop(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolGetAccountBalance, Args: map[string]any{"account_id": float64(1)}},
		}},
		{Final: "Your balance is 500.00 KZT."},
	}}
	sup := New(testRegistry(t), planner, 0)

	outcome, err := sup.Run(context.Background(), testContext(t), "what is my balance?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Answer != "Your balance is 500.00 KZT." {
		t.Fatalf("answer = %q", outcome.Answer)
	}
	if len(outcome.ToolsUsed) != 1 || outcome.ToolsUsed[0] != toolx.ToolGetAccountBalance {
		t.Fatalf("tools used = %v", outcome.ToolsUsed)
	}
	if len(outcome.Sources) != 1 || !outcome.Sources[0].Success {
		t.Fatalf("sources = %+v", outcome.Sources)
	}
	if outcome.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", outcome.Iterations)
	}

	// Second plan call must see user turn, assistant tool-call turn, and the
	// tool result turn in order.
	second := planner.seen[1]
	if len(second) != 3 {
		t.Fatalf("turns on second plan = %d, want 3", len(second))
	}
	if second[1].Role != contractx.RoleAssistant || second[2].Role != contractx.RoleTool {
		t.Fatalf("turn roles: %s, %s", second[1].Role, second[2].Role)
	}
	if second[2].ToolCallID != "c1" {
		t.Fatalf("tool turn call id = %q", second[2].ToolCallID)
	}
}

func TestRunPreservesToolOrder(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolGetMyAccounts, Args: map[string]any{}},
			{ID: "c2", Name: toolx.ToolGetAccountBalance, Args: map[string]any{"account_id": float64(1)}},
		}},
		{Final: "done"},
	}}
	sup := New(testRegistry(t), planner, 0)

	outcome, err := sup.Run(context.Background(), testContext(t), "overview please")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{toolx.ToolGetMyAccounts, toolx.ToolGetAccountBalance}
	if len(outcome.ToolsUsed) != 2 {
		t.Fatalf("tools used = %v", outcome.ToolsUsed)
	}
	for i, name := range want {
		if outcome.ToolsUsed[i] != name {
			t.Fatalf("tools used order = %v, want %v", outcome.ToolsUsed, want)
		}
		if outcome.Sources[i].Tool != name {
			t.Fatalf("sources order = %v", outcome.Sources)
		}
	}
}

func TestRunFailedToolStaysInLoop(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{
		{ToolCalls: []contractx.ToolCall{
			{ID: "c1", Name: toolx.ToolWithdrawMoney, Args: map[string]any{
				"account_id": float64(1), "amount": float64(99_999), "currency": "KZT",
			}},
		}},
		{Final: "You do not have enough funds for that."},
	}}
	sup := New(testRegistry(t), planner, 0)

	outcome, err := sup.Run(context.Background(), testContext(t), "withdraw everything twice")
	if err != nil {
		t.Fatalf("business failure must not abort the run: %v", err)
	}
	if len(outcome.Sources) != 1 || outcome.Sources[0].Success {
		t.Fatalf("failed tool must appear in sources: %+v", outcome.Sources)
	}

	// The planner saw the failure text on the next turn.
	second := planner.seen[1]
	toolTurn := second[len(second)-1]
	if !strings.Contains(toolTurn.Content, "Tool failed") {
		t.Fatalf("tool turn content = %q", toolTurn.Content)
	}
}

func TestRunIterationLimit(t *testing.T) {
	t.Parallel()

	// A planner that always asks for another tool call never terminates on
	// its own; the bound must trip.
	endless := make([]contractx.Action, 20)
	for i := range endless {
		endless[i] = contractx.Action{ToolCalls: []contractx.ToolCall{
			{ID: "c", Name: toolx.ToolGetMyAccounts, Args: map[string]any{}},
		}}
	}
	planner := &scriptedPlanner{script: endless}
	sup := New(testRegistry(t), planner, 3)

	_, err := sup.Run(context.Background(), testContext(t), "loop forever")
	if !errors.Is(err, contractx.ErrIterationLimit) {
		t.Fatalf("error = %v, want ErrIterationLimit", err)
	}
	if planner.calls != 3 {
		t.Fatalf("planner called %d times, want 3", planner.calls)
	}
}

func TestRunUnknownToolIsFatal(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{
		{ToolCalls: []contractx.ToolCall{{ID: "c1", Name: "open_vault", Args: map[string]any{}}}},
	}}
	sup := New(testRegistry(t), planner, 0)

	_, err := sup.Run(context.Background(), testContext(t), "open the vault")
	if !errors.Is(err, contractx.ErrUnknownTool) {
		t.Fatalf("error = %v, want ErrUnknownTool", err)
	}
}

func TestRunPlannerErrorPropagates(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{err: contractx.ErrModelInvoke}
	sup := New(testRegistry(t), planner, 0)

	_, err := sup.Run(context.Background(), testContext(t), "hi")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("error = %v, want ErrModelInvoke", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{{Final: "never reached"}}}
	sup := New(testRegistry(t), planner, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sup.Run(ctx, testContext(t), "hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if planner.calls != 0 {
		t.Fatal("planner must not run after cancellation")
	}
}

func TestRunRequiresContext(t *testing.T) {
	t.Parallel()
	planner := &scriptedPlanner{script: []contractx.Action{{Final: "x"}}}
	sup := New(testRegistry(t), planner, 0)

	_, err := sup.Run(context.Background(), contractx.RequestContext{}, "hi")
	if !errors.Is(err, contractx.ErrContextNotSet) {
		t.Fatalf("error = %v, want ErrContextNotSet", err)
	}
}
