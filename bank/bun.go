package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore persists the ledger in Postgres through bun. Transfer, purchase,
// and checkout run inside RunInTx so the debit/credit/stock writes commit or
// roll back as one unit.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewBunStore(cfg PostgresConfig) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &BunStore{db: db, now: time.Now}, nil
}

// InitSchema creates the ledger tables when they do not exist yet. Meant for
// the demo deployment; production schemas are managed externally.
func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []any{
		(*Account)(nil),
		(*Transaction)(nil),
		(*Product)(nil),
		(*CartItem)(nil),
		(*FinancialGoal)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

/* ------------------------------- Accounts -------------------------------- */

func (s *BunStore) Account(ctx context.Context, accountID int64) (*Account, error) {
	acct := new(Account)
	err := s.db.NewSelect().Model(acct).Where("a.id = ?", accountID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return acct, nil
}

func (s *BunStore) AccountsByUser(ctx context.Context, userID int64) ([]Account, error) {
	var accounts []Account
	err := s.db.NewSelect().
		Model(&accounts).
		Where("a.user_id = ?", userID).
		Where("a.status != ?", AccountClosed).
		Order("a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return accounts, nil
}

// lockAccount loads an account FOR UPDATE inside tx and enforces ownership
// and active status when ownerID > 0.
func (s *BunStore) lockAccount(ctx context.Context, tx bun.Tx, accountID, ownerID int64) (*Account, error) {
	acct := new(Account)
	err := tx.NewSelect().Model(acct).Where("a.id = ?", accountID).For("UPDATE").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if ownerID > 0 && acct.UserID != ownerID {
		return nil, fmt.Errorf("%w: account %d", ErrForbidden, accountID)
	}
	if acct.Status != AccountActive {
		return nil, fmt.Errorf("%w: account %d", ErrInactiveAccount, accountID)
	}
	return acct, nil
}

func (s *BunStore) saveBalance(ctx context.Context, tx bun.Tx, acct *Account) error {
	acct.UpdatedAt = s.now().UTC()
	if _, err := tx.NewUpdate().Model(acct).Column("balance", "updated_at").WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func (s *BunStore) insertTransaction(ctx context.Context, tx bun.Tx, row *Transaction) error {
	row.CreatedAt = s.now().UTC()
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

/* -------------------------------- Ledger --------------------------------- */

func (s *BunStore) Deposit(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}

	row := new(Transaction)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acct, err := s.lockAccount(ctx, tx, accountID, userID)
		if err != nil {
			return err
		}
		if acct.Currency != strings.ToUpper(currency) {
			return fmt.Errorf("%w: account uses %s", ErrCurrencyMismatch, acct.Currency)
		}

		acct.Balance += amount
		if err := s.saveBalance(ctx, tx, acct); err != nil {
			return err
		}

		*row = Transaction{
			UserID:      userID,
			AccountID:   accountID,
			Amount:      amount,
			Currency:    acct.Currency,
			Type:        TxDeposit,
			Description: description,
		}
		return s.insertTransaction(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *BunStore) Withdraw(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}

	row := new(Transaction)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acct, err := s.lockAccount(ctx, tx, accountID, userID)
		if err != nil {
			return err
		}
		if acct.Currency != strings.ToUpper(currency) {
			return fmt.Errorf("%w: account uses %s", ErrCurrencyMismatch, acct.Currency)
		}
		if acct.Balance < amount {
			return fmt.Errorf("%w: balance %s %s", ErrInsufficientFunds, FormatAmount(acct.Balance), acct.Currency)
		}

		acct.Balance -= amount
		if err := s.saveBalance(ctx, tx, acct); err != nil {
			return err
		}

		*row = Transaction{
			UserID:      userID,
			AccountID:   accountID,
			Amount:      amount,
			Currency:    acct.Currency,
			Type:        TxWithdrawal,
			Description: description,
		}
		return s.insertTransaction(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *BunStore) Transfer(ctx context.Context, userID, fromAccountID, toAccountID, amount int64, currency, description string) (*TransferReceipt, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}
	if fromAccountID == toAccountID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrInvalidAmount)
	}

	receipt := new(TransferReceipt)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Lock in id order to avoid deadlocks between opposing transfers.
		firstID, secondID := fromAccountID, toAccountID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		locked := make(map[int64]*Account, 2)
		for _, id := range []int64{firstID, secondID} {
			acct, err := s.lockAccount(ctx, tx, id, 0)
			if err != nil {
				return err
			}
			locked[id] = acct
		}
		from, to := locked[fromAccountID], locked[toAccountID]
		if from.UserID != userID {
			return fmt.Errorf("%w: account %d", ErrForbidden, fromAccountID)
		}

		cur := strings.ToUpper(currency)
		if from.Currency != cur {
			return fmt.Errorf("%w: source account uses %s", ErrCurrencyMismatch, from.Currency)
		}
		if to.Currency != cur {
			return fmt.Errorf("%w: destination account uses %s", ErrCurrencyMismatch, to.Currency)
		}
		if from.Balance < amount {
			return fmt.Errorf("%w: balance %s %s", ErrInsufficientFunds, FormatAmount(from.Balance), from.Currency)
		}

		from.Balance -= amount
		to.Balance += amount
		if err := s.saveBalance(ctx, tx, from); err != nil {
			return err
		}
		if err := s.saveBalance(ctx, tx, to); err != nil {
			return err
		}

		desc := description
		if desc == "" {
			desc = fmt.Sprintf("Transfer to account %d", toAccountID)
		}
		transferID := uuid.NewString()

		debit := Transaction{
			UserID:      userID,
			AccountID:   fromAccountID,
			Amount:      amount,
			Currency:    cur,
			Type:        TxTransferOut,
			Description: desc,
			TransferID:  transferID,
			ToAccountID: &toAccountID,
		}
		if err := s.insertTransaction(ctx, tx, &debit); err != nil {
			return err
		}
		credit := Transaction{
			UserID:      to.UserID,
			AccountID:   toAccountID,
			Amount:      amount,
			Currency:    cur,
			Type:        TxTransferIn,
			Description: desc,
			TransferID:  transferID,
			ToAccountID: &fromAccountID,
		}
		if err := s.insertTransaction(ctx, tx, &credit); err != nil {
			return err
		}

		*receipt = TransferReceipt{TransferID: transferID, Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *BunStore) Purchase(ctx context.Context, userID, accountID, productID int64, quantity int) (*Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}

	row := new(Transaction)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acct, err := s.lockAccount(ctx, tx, accountID, userID)
		if err != nil {
			return err
		}

		product := new(Product)
		err = tx.NewSelect().Model(product).
			Where("p.id = ?", productID).
			Where("p.active").
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: product %d", ErrNotFound, productID)
			}
			return fmt.Errorf("lock product: %w", err)
		}
		if product.Stock < quantity {
			return fmt.Errorf("%w: %q has %d left", ErrOutOfStock, product.Title, product.Stock)
		}
		if product.Currency != acct.Currency {
			return fmt.Errorf("%w: product uses %s, account uses %s", ErrCurrencyMismatch, product.Currency, acct.Currency)
		}

		total := product.Price * int64(quantity)
		if acct.Balance < total {
			return fmt.Errorf("%w: required %s, balance %s %s", ErrInsufficientFunds,
				FormatAmount(total), FormatAmount(acct.Balance), acct.Currency)
		}

		acct.Balance -= total
		if err := s.saveBalance(ctx, tx, acct); err != nil {
			return err
		}

		product.Stock -= quantity
		if _, err := tx.NewUpdate().Model(product).Column("stock").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		*row = Transaction{
			UserID:      userID,
			AccountID:   accountID,
			Amount:      total,
			Currency:    acct.Currency,
			Type:        TxPurchase,
			Description: fmt.Sprintf("Purchase of %s (x%d)", product.Title, quantity),
			ProductID:   &productID,
		}
		return s.insertTransaction(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

/* ------------------------------- History --------------------------------- */

func (s *BunStore) TransactionsByUser(ctx context.Context, userID int64, limit int, txType string) ([]Transaction, error) {
	var txs []Transaction
	q := s.db.NewSelect().Model(&txs).Where("t.user_id = ?", userID).Order("t.id DESC")
	if txType != "" {
		q = q.Where("t.transaction_type = ?", txType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return txs, nil
}

func (s *BunStore) TransactionsByAccount(ctx context.Context, userID, accountID int64, limit int) ([]Transaction, error) {
	acct, err := s.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("%w: account %d", ErrForbidden, accountID)
	}

	var txs []Transaction
	q := s.db.NewSelect().Model(&txs).Where("t.account_id = ?", accountID).Order("t.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select account transactions: %w", err)
	}
	return txs, nil
}

func (s *BunStore) Transaction(ctx context.Context, userID, transactionID int64) (*Transaction, error) {
	row := new(Transaction)
	err := s.db.NewSelect().Model(row).Where("t.id = ?", transactionID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	if row.UserID != userID {
		return nil, fmt.Errorf("%w: transaction %d", ErrForbidden, transactionID)
	}
	return row, nil
}

func (s *BunStore) TransactionStats(ctx context.Context, userID int64, currency string, since time.Time) (*TransactionStats, error) {
	cur := strings.ToUpper(currency)
	if !AllowedCurrencies[cur] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	var txs []Transaction
	err := s.db.NewSelect().Model(&txs).
		Where("t.user_id = ?", userID).
		Where("t.currency = ?", cur).
		Where("t.created_at >= ?", since).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select stats transactions: %w", err)
	}

	stats := &TransactionStats{Currency: cur, Since: since}
	for i := range txs {
		stats.add(&txs[i])
	}
	return stats, nil
}

/* ------------------------------- Products -------------------------------- */

func (s *BunStore) Product(ctx context.Context, productID int64) (*Product, error) {
	product := new(Product)
	err := s.db.NewSelect().Model(product).
		Where("p.id = ?", productID).
		Where("p.active").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (s *BunStore) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	var products []Product
	q := s.db.NewSelect().Model(&products).Where("p.active").Order("p.id ASC")
	if needle := strings.TrimSpace(query); needle != "" {
		pattern := "%" + needle + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("p.title ILIKE ?", pattern).
				WhereOr("p.description ILIKE ?", pattern).
				WhereOr("p.category ILIKE ?", pattern)
		})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (s *BunStore) ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	var products []Product
	q := s.db.NewSelect().Model(&products).
		Where("p.active").
		Where("LOWER(p.category) = LOWER(?)", strings.TrimSpace(category)).
		Order("p.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select category products: %w", err)
	}
	return products, nil
}

func (s *BunStore) FeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	q := s.db.NewSelect().Model(&products).
		ColumnExpr("p.*").
		Join("LEFT JOIN transactions AS t ON t.product_id = p.id AND t.transaction_type = ?", TxPurchase).
		Where("p.active").
		GroupExpr("p.id").
		OrderExpr("COUNT(t.id) DESC").
		Order("p.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select featured products: %w", err)
	}
	return products, nil
}

/* --------------------------------- Cart ---------------------------------- */

func (s *BunStore) AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}

	item := new(CartItem)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Product)(nil)).
			Where("p.id = ?", productID).
			Where("p.active").
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check product: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}

		err = tx.NewSelect().Model(item).
			Where("c.user_id = ?", userID).
			Where("c.product_id = ?", productID).
			Where("c.status = ?", CartActive).
			For("UPDATE").
			Scan(ctx)
		switch {
		case err == nil:
			item.Quantity += quantity
			item.UpdatedAt = s.now().UTC()
			_, err = tx.NewUpdate().Model(item).Column("quantity", "updated_at").WherePK().Exec(ctx)
			return err
		case errors.Is(err, sql.ErrNoRows):
			now := s.now().UTC()
			*item = CartItem{
				UserID:    userID,
				ProductID: productID,
				Quantity:  quantity,
				Status:    CartActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			_, err = tx.NewInsert().Model(item).Exec(ctx)
			return err
		default:
			return fmt.Errorf("select cart item: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *BunStore) CartByUser(ctx context.Context, userID int64) ([]CartLine, error) {
	var items []CartItem
	err := s.db.NewSelect().Model(&items).
		Where("c.user_id = ?", userID).
		Where("c.status = ?", CartActive).
		Order("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}

	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		product := new(Product)
		if err := s.db.NewSelect().Model(product).Where("p.id = ?", item.ProductID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
			}
			return nil, fmt.Errorf("select cart product: %w", err)
		}
		lines = append(lines, CartLine{Item: item, Product: *product})
	}
	return lines, nil
}

func (s *BunStore) RemoveCartItem(ctx context.Context, userID, cartItemID int64) error {
	item := new(CartItem)
	err := s.db.NewSelect().Model(item).
		Where("c.id = ?", cartItemID).
		Where("c.status = ?", CartActive).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: cart item %d", ErrNotFound, cartItemID)
		}
		return fmt.Errorf("select cart item: %w", err)
	}
	if item.UserID != userID {
		return fmt.Errorf("%w: cart item %d", ErrForbidden, cartItemID)
	}

	if _, err := s.db.NewDelete().Model(item).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (s *BunStore) ClearCart(ctx context.Context, userID int64) (int, error) {
	res, err := s.db.NewDelete().Model((*CartItem)(nil)).
		Where("user_id = ?", userID).
		Where("status = ?", CartActive).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func (s *BunStore) Checkout(ctx context.Context, userID, accountID int64) (*CheckoutReceipt, error) {
	receipt := new(CheckoutReceipt)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		acct, err := s.lockAccount(ctx, tx, accountID, userID)
		if err != nil {
			return err
		}

		var items []CartItem
		err = tx.NewSelect().Model(&items).
			Where("c.user_id = ?", userID).
			Where("c.status = ?", CartActive).
			Order("c.id ASC").
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("select cart: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// First pass validates every line; nothing is written until all of
		// them pass, so a failed line aborts the whole checkout.
		products := make(map[int64]*Product, len(items))
		var total int64
		for _, item := range items {
			product := new(Product)
			err := tx.NewSelect().Model(product).
				Where("p.id = ?", item.ProductID).
				Where("p.active").
				For("UPDATE").
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
				}
				return fmt.Errorf("lock product: %w", err)
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: %q has %d left, cart wants %d",
					ErrOutOfStock, product.Title, product.Stock, item.Quantity)
			}
			if product.Currency != acct.Currency {
				return fmt.Errorf("%w: %q uses %s, account uses %s",
					ErrCurrencyMismatch, product.Title, product.Currency, acct.Currency)
			}
			products[item.ProductID] = product
			total += product.Price * int64(item.Quantity)
		}
		if acct.Balance < total {
			return fmt.Errorf("%w: required %s, balance %s %s", ErrInsufficientFunds,
				FormatAmount(total), FormatAmount(acct.Balance), acct.Currency)
		}

		now := s.now().UTC()
		*receipt = CheckoutReceipt{
			AccountID: accountID,
			Total:     total,
			Currency:  acct.Currency,
			Lines:     len(items),
		}
		for _, item := range items {
			product := products[item.ProductID]
			product.Stock -= item.Quantity
			if _, err := tx.NewUpdate().Model(product).Column("stock").WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}

			productID := product.ID
			row := Transaction{
				UserID:      userID,
				AccountID:   accountID,
				Amount:      product.Price * int64(item.Quantity),
				Currency:    acct.Currency,
				Type:        TxPurchase,
				Description: fmt.Sprintf("Purchase of %s (x%d)", product.Title, item.Quantity),
				ProductID:   &productID,
			}
			if err := s.insertTransaction(ctx, tx, &row); err != nil {
				return err
			}
			receipt.TransactionIDs = append(receipt.TransactionIDs, row.ID)

			item := item
			item.Status = CartPurchased
			item.UpdatedAt = now
			if _, err := tx.NewUpdate().Model(&item).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		}

		acct.Balance -= total
		return s.saveBalance(ctx, tx, acct)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

/* --------------------------------- Goals ---------------------------------- */

func (s *BunStore) GoalsByUser(ctx context.Context, userID int64, status string) ([]FinancialGoal, error) {
	var goals []FinancialGoal
	q := s.db.NewSelect().Model(&goals).Where("g.user_id = ?", userID).Order("g.id ASC")
	if status != "" {
		q = q.Where("g.status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	return goals, nil
}

func (s *BunStore) Goal(ctx context.Context, userID, goalID int64) (*FinancialGoal, error) {
	goal := new(FinancialGoal)
	err := s.db.NewSelect().Model(goal).Where("g.id = ?", goalID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
		}
		return nil, fmt.Errorf("select goal: %w", err)
	}
	if goal.UserID != userID {
		return nil, fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
	}
	return goal, nil
}

func (s *BunStore) CreateGoal(ctx context.Context, userID int64, name string, targetAmount int64, currency string, targetDate *time.Time) (*FinancialGoal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: goal name is required", ErrInvalidAmount)
	}
	if err := validateAmount(targetAmount, currency); err != nil {
		return nil, err
	}

	goal := &FinancialGoal{
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		TargetAmount: targetAmount,
		Currency:     strings.ToUpper(currency),
		TargetDate:   targetDate,
		Status:       GoalActive,
		CreatedAt:    s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(goal).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	return goal, nil
}

var _ Store = (*BunStore)(nil)
