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
	ToolGetMyTransactions      = "get_my_transactions"
	ToolGetAccountTransactions = "get_account_transactions"
	ToolGetTransactionDetails  = "get_transaction_details"
	ToolGetTransactionStats    = "get_transaction_stats"

	defaultHistoryLimit = 10
	defaultStatsDays    = 30
	maxStatsDays        = 365
)

func myTransactionsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetMyTransactions,
			Desc: "List the user's recent transactions across all accounts, newest first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit":            {Type: schema.Integer, Desc: "Max entries to return, defaults to 10"},
				"transaction_type": {Type: schema.String, Desc: "Optional filter: deposit, withdrawal, transfer_out, transfer_in, purchase"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			limit, err := optionalIntArg(args, "limit", defaultHistoryLimit)
			if err != nil {
				return fail(ToolGetMyTransactions, args, err.Error()), nil
			}
			txType := optionalStrArg(args, "transaction_type", "")

			txs, err := rc.Store.TransactionsByUser(ctx, rc.UserID, int(limit), txType)
			if err != nil {
				return storeResult(ToolGetMyTransactions, args, err)
			}
			if len(txs) == 0 {
				return ok(ToolGetMyTransactions, args, "No transactions found.", txs), nil
			}
			return ok(ToolGetMyTransactions, args, formatTransactions(txs), txs), nil
		},
	}
}

func accountTransactionsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetAccountTransactions,
			Desc: "List recent transactions for one specific account, newest first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {Type: schema.Integer, Desc: "Account id", Required: true},
				"limit":      {Type: schema.Integer, Desc: "Max entries to return, defaults to 10"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolGetAccountTransactions, args, err.Error()), nil
			}
			limit, err := optionalIntArg(args, "limit", defaultHistoryLimit)
			if err != nil {
				return fail(ToolGetAccountTransactions, args, err.Error()), nil
			}

			txs, err := rc.Store.TransactionsByAccount(ctx, rc.UserID, accountID, int(limit))
			if err != nil {
				return storeResult(ToolGetAccountTransactions, args, err)
			}
			if len(txs) == 0 {
				return ok(ToolGetAccountTransactions, args,
					fmt.Sprintf("Account %d has no transactions.", accountID), txs), nil
			}
			return ok(ToolGetAccountTransactions, args, formatTransactions(txs), txs), nil
		},
	}
}

func transactionDetailsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetTransactionDetails,
			Desc: "Show full details for one transaction by id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"transaction_id": {Type: schema.Integer, Desc: "Transaction id", Required: true},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			transactionID, err := intArg(args, "transaction_id")
			if err != nil {
				return fail(ToolGetTransactionDetails, args, err.Error()), nil
			}

			tx, err := rc.Store.Transaction(ctx, rc.UserID, transactionID)
			if err != nil {
				return storeResult(ToolGetTransactionDetails, args, err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Transaction %d\nType: %s\nAmount: %s %s\nAccount: %d\nDate: %s",
				tx.ID, tx.Type, bankx.FormatAmount(tx.Amount), tx.Currency,
				tx.AccountID, tx.CreatedAt.Format("2006-01-02 15:04"))
			if tx.Description != "" {
				fmt.Fprintf(&b, "\nDescription: %s", tx.Description)
			}
			if tx.TransferID != "" {
				fmt.Fprintf(&b, "\nTransfer id: %s", tx.TransferID)
			}
			return ok(ToolGetTransactionDetails, args, b.String(), tx), nil
		},
	}
}

func transactionStatsSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolGetTransactionStats,
			Desc: "Summarize the user's deposits, withdrawals, transfers, and purchases over a recent period.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"currency": {Type: schema.String, Desc: "Currency to summarize, defaults to USD"},
				"days":     {Type: schema.Integer, Desc: "Days to look back, defaults to 30, max 365"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			currency := optionalStrArg(args, "currency", "USD")
			days, err := optionalIntArg(args, "days", defaultStatsDays)
			if err != nil {
				return fail(ToolGetTransactionStats, args, err.Error()), nil
			}
			if days <= 0 {
				return fail(ToolGetTransactionStats, args, "days must be positive"), nil
			}
			if days > maxStatsDays {
				days = maxStatsDays
			}

			since := time.Now().UTC().AddDate(0, 0, -int(days))
			stats, err := rc.Store.TransactionStats(ctx, rc.UserID, currency, since)
			if err != nil {
				return storeResult(ToolGetTransactionStats, args, err)
			}
			if stats.Count == 0 {
				return ok(ToolGetTransactionStats, args,
					fmt.Sprintf("No %s transactions in the last %d day(s).", stats.Currency, days), stats), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Last %d day(s), %s:\n", days, stats.Currency)
			fmt.Fprintf(&b, "- Transactions: %d\n", stats.Count)
			fmt.Fprintf(&b, "- Deposits: %s\n", bankx.FormatAmount(stats.Deposits))
			fmt.Fprintf(&b, "- Withdrawals: %s\n", bankx.FormatAmount(stats.Withdrawals))
			fmt.Fprintf(&b, "- Transfers sent: %s\n", bankx.FormatAmount(stats.TransfersOut))
			fmt.Fprintf(&b, "- Transfers received: %s\n", bankx.FormatAmount(stats.TransfersIn))
			fmt.Fprintf(&b, "- Purchases: %s\n", bankx.FormatAmount(stats.Purchases))
			fmt.Fprintf(&b, "- Net change: %s %s", bankx.FormatAmount(stats.NetChange()), stats.Currency)
			return ok(ToolGetTransactionStats, args, b.String(), stats), nil
		},
	}
}

func formatTransactions(txs []bankx.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d transaction(s):\n", len(txs))
	for _, tx := range txs {
		fmt.Fprintf(&b, "- #%d %s: %s %s on account %d (%s)",
			tx.ID, tx.Type, bankx.FormatAmount(tx.Amount), tx.Currency,
			tx.AccountID, tx.CreatedAt.Format("2006-01-02"))
		if tx.Description != "" {
			fmt.Fprintf(&b, " - %s", tx.Description)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
