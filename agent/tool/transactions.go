package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/warinyupa/bankpilot/agent/contract"
	bankx "github.com/warinyupa/bankpilot/bank"
)

const (
	ToolDepositMoney    = "deposit_money"
	ToolWithdrawMoney   = "withdraw_money"
	ToolTransferMoney   = "transfer_money"
	ToolPurchaseProduct = "purchase_product"
)

func depositSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolDepositMoney,
			Desc: "Deposit money into one of the user's accounts. Amount is in major units, e.g. 150.25.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id":  {Type: schema.Integer, Desc: "Destination account id", Required: true},
				"amount":      {Type: schema.Number, Desc: "Amount to deposit", Required: true},
				"currency":    {Type: schema.String, Desc: "Currency code (KZT, USD, EUR), defaults to the account's currency"},
				"description": {Type: schema.String, Desc: "Optional note for the ledger"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolDepositMoney, args, err.Error()), nil
			}
			amount, err := amountArg(args, "amount")
			if err != nil {
				return fail(ToolDepositMoney, args, err.Error()), nil
			}
			currency, err := currencyArg(ctx, rc, args, accountID)
			if err != nil {
				return storeResult(ToolDepositMoney, args, err)
			}
			description := optionalStrArg(args, "description", "Deposit")

			tx, err := rc.Store.Deposit(ctx, rc.UserID, accountID, amount, currency, description)
			if err != nil {
				return storeResult(ToolDepositMoney, args, err)
			}

			output := fmt.Sprintf("Deposited %s %s into account %d. Transaction id: %d.",
				bankx.FormatAmount(tx.Amount), tx.Currency, tx.AccountID, tx.ID)
			return ok(ToolDepositMoney, args, output, tx), nil
		},
	}
}

func withdrawSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolWithdrawMoney,
			Desc: "Withdraw money from one of the user's accounts. Amount is in major units.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id":  {Type: schema.Integer, Desc: "Source account id", Required: true},
				"amount":      {Type: schema.Number, Desc: "Amount to withdraw", Required: true},
				"currency":    {Type: schema.String, Desc: "Currency code (KZT, USD, EUR), defaults to the account's currency"},
				"description": {Type: schema.String, Desc: "Optional note for the ledger"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolWithdrawMoney, args, err.Error()), nil
			}
			amount, err := amountArg(args, "amount")
			if err != nil {
				return fail(ToolWithdrawMoney, args, err.Error()), nil
			}
			currency, err := currencyArg(ctx, rc, args, accountID)
			if err != nil {
				return storeResult(ToolWithdrawMoney, args, err)
			}
			description := optionalStrArg(args, "description", "Withdrawal")

			tx, err := rc.Store.Withdraw(ctx, rc.UserID, accountID, amount, currency, description)
			if err != nil {
				return storeResult(ToolWithdrawMoney, args, err)
			}

			output := fmt.Sprintf("Withdrew %s %s from account %d. Transaction id: %d.",
				bankx.FormatAmount(tx.Amount), tx.Currency, tx.AccountID, tx.ID)
			return ok(ToolWithdrawMoney, args, output, tx), nil
		},
	}
}

func transferSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolTransferMoney,
			Desc: "Transfer money between accounts. The source account must belong to the user; both accounts must use the same currency.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"from_account_id": {Type: schema.Integer, Desc: "Source account id", Required: true},
				"to_account_id":   {Type: schema.Integer, Desc: "Destination account id", Required: true},
				"amount":          {Type: schema.Number, Desc: "Amount to transfer", Required: true},
				"currency":        {Type: schema.String, Desc: "Currency code (KZT, USD, EUR), defaults to the source account's currency"},
				"description":     {Type: schema.String, Desc: "Optional note for the ledger"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			fromID, err := intArg(args, "from_account_id")
			if err != nil {
				return fail(ToolTransferMoney, args, err.Error()), nil
			}
			toID, err := intArg(args, "to_account_id")
			if err != nil {
				return fail(ToolTransferMoney, args, err.Error()), nil
			}
			amount, err := amountArg(args, "amount")
			if err != nil {
				return fail(ToolTransferMoney, args, err.Error()), nil
			}
			currency, err := currencyArg(ctx, rc, args, fromID)
			if err != nil {
				return storeResult(ToolTransferMoney, args, err)
			}
			description := optionalStrArg(args, "description", "")

			receipt, err := rc.Store.Transfer(ctx, rc.UserID, fromID, toID, amount, currency, description)
			if err != nil {
				return storeResult(ToolTransferMoney, args, err)
			}

			output := fmt.Sprintf("Transferred %s %s from account %d to account %d. Transfer id: %s.",
				bankx.FormatAmount(receipt.Debit.Amount), receipt.Debit.Currency,
				fromID, toID, receipt.TransferID)
			return ok(ToolTransferMoney, args, output, receipt), nil
		},
	}
}

func purchaseSpec() ToolSpec {
	return ToolSpec{
		Info: &schema.ToolInfo{
			Name: ToolPurchaseProduct,
			Desc: "Buy a product directly from an account, skipping the cart.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_id": {Type: schema.Integer, Desc: "Account to pay from", Required: true},
				"product_id": {Type: schema.Integer, Desc: "Product to buy", Required: true},
				"quantity":   {Type: schema.Integer, Desc: "How many to buy, defaults to 1"},
			}),
		},
		Handler: func(ctx context.Context, rc contractx.RequestContext, args map[string]any) (contractx.ToolResult, error) {
			accountID, err := intArg(args, "account_id")
			if err != nil {
				return fail(ToolPurchaseProduct, args, err.Error()), nil
			}
			productID, err := intArg(args, "product_id")
			if err != nil {
				return fail(ToolPurchaseProduct, args, err.Error()), nil
			}
			quantity, err := optionalIntArg(args, "quantity", 1)
			if err != nil {
				return fail(ToolPurchaseProduct, args, err.Error()), nil
			}

			tx, err := rc.Store.Purchase(ctx, rc.UserID, accountID, productID, int(quantity))
			if err != nil {
				return storeResult(ToolPurchaseProduct, args, err)
			}

			output := fmt.Sprintf("%s Paid %s %s from account %d. Transaction id: %d.",
				tx.Description, bankx.FormatAmount(tx.Amount), tx.Currency, tx.AccountID, tx.ID)
			return ok(ToolPurchaseProduct, args, output, tx), nil
		},
	}
}
