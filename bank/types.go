// Package bank holds the persistence collaborator for the assistant: the
// ledger domain model and the narrow Store contract every tool calls.
package bank

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound            = errors.New("entity not found")
	ErrForbidden           = errors.New("entity belongs to another user")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInactiveAccount     = errors.New("account is not active")
	ErrOutOfStock          = errors.New("product out of stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// AllowedCurrencies is the closed set accepted by mutating operations.
var AllowedCurrencies = map[string]bool{
	"KZT": true,
	"USD": true,
	"EUR": true,
}

const (
	AccountActive = "active"
	AccountFrozen = "frozen"
	AccountClosed = "closed"

	TxDeposit     = "deposit"
	TxWithdrawal  = "withdrawal"
	TxTransferOut = "transfer_out"
	TxTransferIn  = "transfer_in"
	TxPurchase    = "purchase"

	CartActive    = "active"
	CartPurchased = "purchased"

	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalCancelled = "cancelled"
)

// Account balances are stored in minor units (cents, tiyn) to keep ledger
// arithmetic exact.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	Type      string    `bun:"account_type,notnull" json:"account_type"`
	Balance   int64     `bun:"balance,notnull" json:"balance"`
	Currency  string    `bun:"currency,notnull" json:"currency"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64     `bun:"user_id,notnull" json:"user_id"`
	AccountID   int64     `bun:"account_id,notnull" json:"account_id"`
	Amount      int64     `bun:"amount,notnull" json:"amount"`
	Currency    string    `bun:"currency,notnull" json:"currency"`
	Type        string    `bun:"transaction_type,notnull" json:"transaction_type"`
	Description string    `bun:"description" json:"description,omitempty"`
	TransferID  string    `bun:"transfer_id" json:"transfer_id,omitempty"`
	ToAccountID *int64    `bun:"to_account_id" json:"to_account_id,omitempty"`
	ProductID   *int64    `bun:"product_id" json:"product_id,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	Category    string    `bun:"category" json:"category,omitempty"`
	Price       int64     `bun:"price,notnull" json:"price"`
	Currency    string    `bun:"currency,notnull" json:"currency"`
	Stock       int       `bun:"stock,notnull" json:"stock"`
	Active      bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	ProductID int64     `bun:"product_id,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type FinancialGoal struct {
	bun.BaseModel `bun:"table:financial_goals,alias:g"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64      `bun:"user_id,notnull" json:"user_id"`
	Name         string     `bun:"name,notnull" json:"name"`
	TargetAmount int64      `bun:"target_amount,notnull" json:"target_amount"`
	SavedAmount  int64      `bun:"saved_amount,notnull,default:0" json:"saved_amount"`
	Currency     string     `bun:"currency,notnull" json:"currency"`
	TargetDate   *time.Time `bun:"target_date" json:"target_date,omitempty"`
	Status       string     `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// CartLine joins a cart item with its product for display and checkout.
type CartLine struct {
	Item    CartItem `json:"item"`
	Product Product  `json:"product"`
}

func (l CartLine) Total() int64 {
	return l.Product.Price * int64(l.Item.Quantity)
}

// TransferReceipt links the debit and credit legs of one transfer.
type TransferReceipt struct {
	TransferID string      `json:"transfer_id"`
	Debit      Transaction `json:"debit"`
	Credit     Transaction `json:"credit"`
}

// TransactionStats aggregates one user's ledger activity in a single
// currency since a cutoff.
type TransactionStats struct {
	Currency     string    `json:"currency"`
	Since        time.Time `json:"since"`
	Count        int       `json:"count"`
	Deposits     int64     `json:"deposits"`
	Withdrawals  int64     `json:"withdrawals"`
	TransfersOut int64     `json:"transfers_out"`
	TransfersIn  int64     `json:"transfers_in"`
	Purchases    int64     `json:"purchases"`
}

func (s *TransactionStats) add(tx *Transaction) {
	s.Count++
	switch tx.Type {
	case TxDeposit:
		s.Deposits += tx.Amount
	case TxWithdrawal:
		s.Withdrawals += tx.Amount
	case TxTransferOut:
		s.TransfersOut += tx.Amount
	case TxTransferIn:
		s.TransfersIn += tx.Amount
	case TxPurchase:
		s.Purchases += tx.Amount
	}
}

// NetChange is money in minus money out over the window.
func (s *TransactionStats) NetChange() int64 {
	return s.Deposits + s.TransfersIn - s.Withdrawals - s.TransfersOut - s.Purchases
}

// CheckoutReceipt summarizes an all-or-nothing cart checkout.
type CheckoutReceipt struct {
	AccountID      int64   `json:"account_id"`
	Total          int64   `json:"total"`
	Currency       string  `json:"currency"`
	TransactionIDs []int64 `json:"transaction_ids"`
	Lines          int     `json:"lines"`
}

// FormatAmount renders minor units as a decimal string, e.g. 150000 -> "1500.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
