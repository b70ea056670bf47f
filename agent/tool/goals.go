package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	bankx "github.com/warinyupa/bankpilot/bank"
)

const (
	ToolGetMyFinancialGoals = "get_my_financial_goals"
	ToolCreateFinancialGoal = "create_financial_goal"
	ToolGetGoalAnalysis     = "get_goal_analysis"
	ToolGetFinancialSummary = "get_financial_summary"
)

func myGoalsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetMyFinancialGoals,
			Desc: "List the user's savings goals with progress.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"status": {Type: schema.String, Desc: "Optional filter: active, completed, cancelled"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			status := optionalStrArg(args, "status", "")

			goals, err := rc.Store.GoalsByUser(ctx, rc.UserID, status)
			if err != nil {
				return storeResult(ToolGetMyFinancialGoals, args, err)
			}
			if len(goals) == 0 {
				if status != "" {
					return ok(ToolGetMyFinancialGoals, args,
						fmt.Sprintf("You have no %s goals.", status), goals), nil
				}
				return ok(ToolGetMyFinancialGoals, args, "You have no financial goals yet.", goals), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "You have %d goal(s):\n", len(goals))
			for _, g := range goals {
				fmt.Fprintf(&b, "- Goal %d: %s, %s of %s %s (%.1f%%), status %s",
					g.ID, g.Name,
					bankx.FormatAmount(g.SavedAmount), bankx.FormatAmount(g.TargetAmount),
					g.Currency, goalProgress(g), g.Status)
				if g.TargetDate != nil {
					fmt.Fprintf(&b, ", due %s", g.TargetDate.Format("2006-01-02"))
				}
				b.WriteByte('\n')
			}
			return ok(ToolGetMyFinancialGoals, args, strings.TrimRight(b.String(), "\n"), goals), nil
		},
	}
}

func createGoalSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolCreateFinancialGoal,
			Desc: "Create a new savings goal. Target amount is in major units.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":          {Type: schema.String, Desc: "Goal name, e.g. \"Vacation fund\"", Required: true},
				"target_amount": {Type: schema.Number, Desc: "Amount to save", Required: true},
				"currency":      {Type: schema.String, Desc: "Currency code (KZT, USD, EUR), defaults to USD"},
				"deadline_days": {Type: schema.Integer, Desc: "Days until the target date, defaults to 365"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			name, err := strArg(args, "name")
			if err != nil {
				return fail(ToolCreateFinancialGoal, args, err.Error()), nil
			}
			target, err := amountArg(args, "target_amount")
			if err != nil {
				return fail(ToolCreateFinancialGoal, args, err.Error()), nil
			}
			currency := optionalStrArg(args, "currency", "USD")
			deadlineDays, err := optionalIntArg(args, "deadline_days", 365)
			if err != nil {
				return fail(ToolCreateFinancialGoal, args, err.Error()), nil
			}
			if deadlineDays <= 0 {
				return fail(ToolCreateFinancialGoal, args, "deadline_days must be positive"), nil
			}

			due := time.Now().UTC().AddDate(0, 0, int(deadlineDays))
			goal, err := rc.Store.CreateGoal(ctx, rc.UserID, name, target, currency, &due)
			if err != nil {
				return storeResult(ToolCreateFinancialGoal, args, err)
			}

			output := fmt.Sprintf("Created goal %d: save %s %s for %q by %s.",
				goal.ID, bankx.FormatAmount(goal.TargetAmount), goal.Currency,
				goal.Name, due.Format("2006-01-02"))
			return ok(ToolCreateFinancialGoal, args, output, goal), nil
		},
	}
}

func goalAnalysisSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetGoalAnalysis,
			Desc: "Analyze progress on one savings goal: remaining amount, days left, and required daily savings.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"goal_id": {Type: schema.Integer, Desc: "Goal id", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			goalID, err := intArg(args, "goal_id")
			if err != nil {
				return fail(ToolGetGoalAnalysis, args, err.Error()), nil
			}

			goal, err := rc.Store.Goal(ctx, rc.UserID, goalID)
			if err != nil {
				return storeResult(ToolGetGoalAnalysis, args, err)
			}

			remaining := goal.TargetAmount - goal.SavedAmount
			if remaining < 0 {
				remaining = 0
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Goal %d: %s\nTarget: %s %s\nSaved: %s %s (%.1f%%)\nRemaining: %s %s",
				goal.ID, goal.Name,
				bankx.FormatAmount(goal.TargetAmount), goal.Currency,
				bankx.FormatAmount(goal.SavedAmount), goal.Currency, goalProgress(*goal),
				bankx.FormatAmount(remaining), goal.Currency)
			if goal.TargetDate != nil {
				days := int(time.Until(*goal.TargetDate).Hours() / 24)
				if days > 0 {
					fmt.Fprintf(&b, "\nDays remaining: %d", days)
					if remaining > 0 {
						fmt.Fprintf(&b, "\nDaily savings needed: %s %s",
							bankx.FormatAmount(remaining/int64(days)), goal.Currency)
					}
				} else {
					fmt.Fprintf(&b, "\nTarget date %s has passed", goal.TargetDate.Format("2006-01-02"))
				}
			}
			return ok(ToolGetGoalAnalysis, args, b.String(), goal), nil
		},
	}
}

func financialSummarySpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetFinancialSummary,
			Desc: "Show a complete overview: every account, total balance per currency, and active goals.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accounts, err := rc.Store.AccountsByUser(ctx, rc.UserID)
			if err != nil {
				return storeResult(ToolGetFinancialSummary, args, err)
			}
			goals, err := rc.Store.GoalsByUser(ctx, rc.UserID, bankx.GoalActive)
			if err != nil {
				return storeResult(ToolGetFinancialSummary, args, err)
			}

			var b strings.Builder
			b.WriteString("Financial summary\n\nAccounts:\n")
			if len(accounts) == 0 {
				b.WriteString("- none\n")
			} else {
				totals := make(map[string]int64)
				var order []string
				for _, acct := range accounts {
					fmt.Fprintf(&b, "- Account %d (%s): %s %s\n",
						acct.ID, acct.Type, bankx.FormatAmount(acct.Balance), acct.Currency)
					if _, seen := totals[acct.Currency]; !seen {
						order = append(order, acct.Currency)
					}
					totals[acct.Currency] += acct.Balance
				}
				b.WriteString("Totals:\n")
				for _, cur := range order {
					fmt.Fprintf(&b, "- %s %s\n", bankx.FormatAmount(totals[cur]), cur)
				}
			}

			b.WriteString("\nActive goals:\n")
			if len(goals) == 0 {
				b.WriteString("- none")
			} else {
				for _, g := range goals {
					fmt.Fprintf(&b, "- %s: %s of %s %s (%.1f%%)\n",
						g.Name, bankx.FormatAmount(g.SavedAmount),
						bankx.FormatAmount(g.TargetAmount), g.Currency, goalProgress(g))
				}
			}

			data := map[string]any{"accounts": accounts, "goals": goals}
			return ok(ToolGetFinancialSummary, args, strings.TrimRight(b.String(), "\n"), data), nil
		},
	}
}

func goalProgress(g bankx.FinancialGoal) float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return float64(g.SavedAmount) / float64(g.TargetAmount) * 100
}
