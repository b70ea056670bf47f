package bank

import (
	"context"
	"time"
)

// Store is the persistence contract consumed by the tool layer. Every method
// is one narrow service call; mutating methods are atomic on their own and
// enforce ownership with ErrForbidden. User-scoped reads never return rows
// belonging to other users.
type Store interface {
	// Accounts.
	Account(ctx context.Context, accountID int64) (*Account, error)
	AccountsByUser(ctx context.Context, userID int64) ([]Account, error)

	// Ledger mutations. Amounts are minor units and must be positive.
	Deposit(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error)
	Withdraw(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error)
	Transfer(ctx context.Context, userID, fromAccountID, toAccountID, amount int64, currency, description string) (*TransferReceipt, error)
	Purchase(ctx context.Context, userID, accountID, productID int64, quantity int) (*Transaction, error)

	// History.
	TransactionsByUser(ctx context.Context, userID int64, limit int, txType string) ([]Transaction, error)
	TransactionsByAccount(ctx context.Context, userID, accountID int64, limit int) ([]Transaction, error)
	Transaction(ctx context.Context, userID, transactionID int64) (*Transaction, error)
	TransactionStats(ctx context.Context, userID int64, currency string, since time.Time) (*TransactionStats, error)

	// Products.
	Product(ctx context.Context, productID int64) (*Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)

	// Cart.
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error)
	CartByUser(ctx context.Context, userID int64) ([]CartLine, error)
	RemoveCartItem(ctx context.Context, userID, cartItemID int64) error
	ClearCart(ctx context.Context, userID int64) (int, error)
	Checkout(ctx context.Context, userID, accountID int64) (*CheckoutReceipt, error)

	// Financial goals.
	GoalsByUser(ctx context.Context, userID int64, status string) ([]FinancialGoal, error)
	Goal(ctx context.Context, userID, goalID int64) (*FinancialGoal, error)
	CreateGoal(ctx context.Context, userID int64, name string, targetAmount int64, currency string, targetDate *time.Time) (*FinancialGoal, error)
}
