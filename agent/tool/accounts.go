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
	ToolGetAccountBalance = "get_account_balance"
	ToolGetMyAccounts     = "get_my_accounts"
	ToolGetAccountDetails = "get_account_details"
)

func accountBalanceSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetAccountBalance,
			Desc: "Check the balance of one of the user's accounts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {Type: schema.Integer, Desc: "Account id to check", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolGetAccountBalance, args, err.Error()), nil
			}

			acct, err := rc.Store.Account(ctx, accountID)
			if err != nil {
				return storeResult(ToolGetAccountBalance, args, err)
			}
			if acct.UserID != rc.UserID {
				return fail(ToolGetAccountBalance, args, fmt.Sprintf("account %d does not belong to you", accountID)), nil
			}

			output := fmt.Sprintf("Account %d (%s) balance: %s %s",
				acct.ID, acct.Type, bankx.FormatAmount(acct.Balance), acct.Currency)
			return ok(ToolGetAccountBalance, args, output, acct), nil
		},
	}
}

func myAccountsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetMyAccounts,
			Desc: "List all of the user's bank accounts with balances.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accounts, err := rc.Store.AccountsByUser(ctx, rc.UserID)
			if err != nil {
				return storeResult(ToolGetMyAccounts, args, err)
			}
			if len(accounts) == 0 {
				return ok(ToolGetMyAccounts, args, "You have no open accounts.", accounts), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "You have %d account(s):\n", len(accounts))
			for _, acct := range accounts {
				fmt.Fprintf(&b, "- Account %d (%s, %s): %s %s\n",
					acct.ID, acct.Type, acct.Status, bankx.FormatAmount(acct.Balance), acct.Currency)
			}
			return ok(ToolGetMyAccounts, args, strings.TrimRight(b.String(), "\n"), accounts), nil
		},
	}
}

func accountDetailsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetAccountDetails,
			Desc: "Show full details for one of the user's accounts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {Type: schema.Integer, Desc: "Account id to inspect", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolGetAccountDetails, args, err.Error()), nil
			}

			acct, err := rc.Store.Account(ctx, accountID)
			if err != nil {
				return storeResult(ToolGetAccountDetails, args, err)
			}
			if acct.UserID != rc.UserID {
				return fail(ToolGetAccountDetails, args, fmt.Sprintf("account %d does not belong to you", accountID)), nil
			}

			output := fmt.Sprintf(
				"Account %d\nType: %s\nStatus: %s\nBalance: %s %s\nOpened: %s",
				acct.ID, acct.Type, acct.Status,
				bankx.FormatAmount(acct.Balance), acct.Currency,
				acct.CreatedAt.Format("2006-01-02"))
			return ok(ToolGetAccountDetails, args, output, acct), nil
		},
	}
}
