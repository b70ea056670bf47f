package bank

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store used by tests and the demo wiring.
// A single mutex serializes every operation, which also makes each mutation
// trivially atomic.
type MemoryStore struct {
	mu sync.Mutex

	accounts     map[int64]*Account
	transactions map[int64]*Transaction
	products     map[int64]*Product
	cartItems    map[int64]*CartItem
	goals        map[int64]*FinancialGoal

	nextAccountID     int64
	nextTransactionID int64
	nextProductID     int64
	nextCartItemID    int64
	nextGoalID        int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[int64]*Account),
		transactions: make(map[int64]*Transaction),
		products:     make(map[int64]*Product),
		cartItems:    make(map[int64]*CartItem),
		goals:        make(map[int64]*FinancialGoal),
		now:          time.Now,
	}
}

func validateAmount(amount int64, currency string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !AllowedCurrencies[strings.ToUpper(currency)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	return nil
}

/* ------------------------------- Seeding -------------------------------- */

// SeedAccount inserts an account and returns its id.
func (s *MemoryStore) SeedAccount(userID int64, accountType string, balance int64, currency string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	now := s.now().UTC()
	s.accounts[s.nextAccountID] = &Account{
		ID:        s.nextAccountID,
		UserID:    userID,
		Type:      accountType,
		Balance:   balance,
		Currency:  strings.ToUpper(currency),
		Status:    AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.nextAccountID
}

// SeedProduct inserts a product and returns its id.
func (s *MemoryStore) SeedProduct(title, category string, price int64, currency string, stock int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProductID++
	s.products[s.nextProductID] = &Product{
		ID:        s.nextProductID,
		Title:     title,
		Category:  category,
		Price:     price,
		Currency:  strings.ToUpper(currency),
		Stock:     stock,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	return s.nextProductID
}

/* ------------------------------- Accounts -------------------------------- */

func (s *MemoryStore) Account(ctx context.Context, accountID int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account(accountID)
}

func (s *MemoryStore) account(accountID int64) (*Account, error) {
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	cp := *acct
	return &cp, nil
}

func (s *MemoryStore) AccountsByUser(ctx context.Context, userID int64) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Account
	for _, acct := range s.accounts {
		if acct.UserID == userID && acct.Status != AccountClosed {
			out = append(out, *acct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* -------------------------------- Ledger --------------------------------- */

func (s *MemoryStore) Deposit(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.ownedActiveAccount(userID, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Currency != strings.ToUpper(currency) {
		return nil, fmt.Errorf("%w: account uses %s", ErrCurrencyMismatch, acct.Currency)
	}

	acct.Balance += amount
	acct.UpdatedAt = s.now().UTC()
	tx := s.appendTransaction(userID, accountID, amount, acct.Currency, TxDeposit, description, "", nil, nil)
	return tx, nil
}

func (s *MemoryStore) Withdraw(ctx context.Context, userID, accountID, amount int64, currency, description string) (*Transaction, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.ownedActiveAccount(userID, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Currency != strings.ToUpper(currency) {
		return nil, fmt.Errorf("%w: account uses %s", ErrCurrencyMismatch, acct.Currency)
	}
	if acct.Balance < amount {
		return nil, fmt.Errorf("%w: balance %s %s", ErrInsufficientFunds, FormatAmount(acct.Balance), acct.Currency)
	}

	acct.Balance -= amount
	acct.UpdatedAt = s.now().UTC()
	tx := s.appendTransaction(userID, accountID, amount, acct.Currency, TxWithdrawal, description, "", nil, nil)
	return tx, nil
}

func (s *MemoryStore) Transfer(ctx context.Context, userID, fromAccountID, toAccountID, amount int64, currency, description string) (*TransferReceipt, error) {
	if err := validateAmount(amount, currency); err != nil {
		return nil, err
	}
	if fromAccountID == toAccountID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate both legs before touching either balance; holding the mutex
	// across the whole section makes the debit+credit a single atomic unit.
	from, err := s.ownedActiveAccount(userID, fromAccountID)
	if err != nil {
		return nil, err
	}
	to, ok := s.accounts[toAccountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, toAccountID)
	}
	if to.Status != AccountActive {
		return nil, fmt.Errorf("%w: account %d", ErrInactiveAccount, toAccountID)
	}

	cur := strings.ToUpper(currency)
	if from.Currency != cur {
		return nil, fmt.Errorf("%w: source account uses %s", ErrCurrencyMismatch, from.Currency)
	}
	if to.Currency != cur {
		return nil, fmt.Errorf("%w: destination account uses %s", ErrCurrencyMismatch, to.Currency)
	}
	if from.Balance < amount {
		return nil, fmt.Errorf("%w: balance %s %s", ErrInsufficientFunds, FormatAmount(from.Balance), from.Currency)
	}

	now := s.now().UTC()
	from.Balance -= amount
	from.UpdatedAt = now
	to.Balance += amount
	to.UpdatedAt = now

	transferID := uuid.NewString()
	if description == "" {
		description = fmt.Sprintf("Transfer to account %d", toAccountID)
	}
	debit := s.appendTransaction(userID, fromAccountID, amount, cur, TxTransferOut, description, transferID, &toAccountID, nil)
	credit := s.appendTransaction(to.UserID, toAccountID, amount, cur, TxTransferIn, description, transferID, &fromAccountID, nil)

	return &TransferReceipt{TransferID: transferID, Debit: *debit, Credit: *credit}, nil
}

func (s *MemoryStore) Purchase(ctx context.Context, userID, accountID, productID int64, quantity int) (*Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.ownedActiveAccount(userID, accountID)
	if err != nil {
		return nil, err
	}
	product, ok := s.products[productID]
	if !ok || !product.Active {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: %q has %d left", ErrOutOfStock, product.Title, product.Stock)
	}
	if product.Currency != acct.Currency {
		return nil, fmt.Errorf("%w: product uses %s, account uses %s", ErrCurrencyMismatch, product.Currency, acct.Currency)
	}

	total := product.Price * int64(quantity)
	if acct.Balance < total {
		return nil, fmt.Errorf("%w: required %s, balance %s %s", ErrInsufficientFunds,
			FormatAmount(total), FormatAmount(acct.Balance), acct.Currency)
	}

	acct.Balance -= total
	acct.UpdatedAt = s.now().UTC()
	product.Stock -= quantity

	desc := fmt.Sprintf("Purchase of %s (x%d)", product.Title, quantity)
	tx := s.appendTransaction(userID, accountID, total, acct.Currency, TxPurchase, desc, "", nil, &productID)
	return tx, nil
}

func (s *MemoryStore) ownedActiveAccount(userID, accountID int64) (*Account, error) {
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("%w: account %d", ErrForbidden, accountID)
	}
	if acct.Status != AccountActive {
		return nil, fmt.Errorf("%w: account %d", ErrInactiveAccount, accountID)
	}
	return acct, nil
}

func (s *MemoryStore) appendTransaction(userID, accountID, amount int64, currency, txType, description, transferID string, toAccountID, productID *int64) *Transaction {
	s.nextTransactionID++
	tx := &Transaction{
		ID:          s.nextTransactionID,
		UserID:      userID,
		AccountID:   accountID,
		Amount:      amount,
		Currency:    currency,
		Type:        txType,
		Description: description,
		TransferID:  transferID,
		ToAccountID: toAccountID,
		ProductID:   productID,
		CreatedAt:   s.now().UTC(),
	}
	s.transactions[tx.ID] = tx
	cp := *tx
	return &cp
}

/* ------------------------------- History --------------------------------- */

func (s *MemoryStore) TransactionsByUser(ctx context.Context, userID int64, limit int, txType string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Transaction
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capTransactions(out, limit), nil
}

func (s *MemoryStore) TransactionsByAccount(ctx context.Context, userID, accountID int64, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("%w: account %d", ErrForbidden, accountID)
	}

	var out []Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capTransactions(out, limit), nil
}

func (s *MemoryStore) Transaction(ctx context.Context, userID, transactionID int64) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("%w: transaction %d", ErrForbidden, transactionID)
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) TransactionStats(ctx context.Context, userID int64, currency string, since time.Time) (*TransactionStats, error) {
	cur := strings.ToUpper(currency)
	if !AllowedCurrencies[cur] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &TransactionStats{Currency: cur, Since: since}
	for _, tx := range s.transactions {
		if tx.UserID != userID || tx.Currency != cur || tx.CreatedAt.Before(since) {
			continue
		}
		stats.add(tx)
	}
	return stats, nil
}

func capTransactions(txs []Transaction, limit int) []Transaction {
	if limit > 0 && len(txs) > limit {
		return txs[:limit]
	}
	return txs
}

/* ------------------------------- Products -------------------------------- */

func (s *MemoryStore) Product(ctx context.Context, productID int64) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || !p.Active {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	var out []Product
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(category))
	var out []Product
	for _, p := range s.products {
		if p.Active && strings.ToLower(p.Category) == needle {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) FeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Most-purchased products first, ties broken by id.
	purchases := make(map[int64]int)
	for _, tx := range s.transactions {
		if tx.Type == TxPurchase && tx.ProductID != nil {
			purchases[*tx.ProductID]++
		}
	}

	var out []Product
	for _, p := range s.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := purchases[out[i].ID], purchases[out[j].ID]
		if pi != pj {
			return pi > pj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

/* --------------------------------- Cart ---------------------------------- */

func (s *MemoryStore) AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok || !product.Active {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}

	// Same product already in the active cart bumps the quantity.
	for _, item := range s.cartItems {
		if item.UserID == userID && item.ProductID == productID && item.Status == CartActive {
			item.Quantity += quantity
			item.UpdatedAt = s.now().UTC()
			cp := *item
			return &cp, nil
		}
	}

	s.nextCartItemID++
	now := s.now().UTC()
	item := &CartItem{
		ID:        s.nextCartItemID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    CartActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.cartItems[item.ID] = item
	cp := *item
	return &cp, nil
}

func (s *MemoryStore) CartByUser(ctx context.Context, userID int64) ([]CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLines(userID)
}

func (s *MemoryStore) cartLines(userID int64) ([]CartLine, error) {
	var out []CartLine
	for _, item := range s.cartItems {
		if item.UserID != userID || item.Status != CartActive {
			continue
		}
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
		}
		out = append(out, CartLine{Item: *item, Product: *product})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	return out, nil
}

func (s *MemoryStore) RemoveCartItem(ctx context.Context, userID, cartItemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cartItems[cartItemID]
	if !ok || item.Status != CartActive {
		return fmt.Errorf("%w: cart item %d", ErrNotFound, cartItemID)
	}
	if item.UserID != userID {
		return fmt.Errorf("%w: cart item %d", ErrForbidden, cartItemID)
	}
	delete(s.cartItems, cartItemID)
	return nil
}

func (s *MemoryStore) ClearCart(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, item := range s.cartItems {
		if item.UserID == userID && item.Status == CartActive {
			delete(s.cartItems, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Checkout(ctx context.Context, userID, accountID int64) (*CheckoutReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.ownedActiveAccount(userID, accountID)
	if err != nil {
		return nil, err
	}

	lines, err := s.cartLines(userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Validate every line before any write so a single bad line leaves the
	// cart, stock, and balance untouched.
	var total int64
	for _, line := range lines {
		product, ok := s.products[line.Product.ID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, line.Product.ID)
		}
		if product.Stock < line.Item.Quantity {
			return nil, fmt.Errorf("%w: %q has %d left, cart wants %d",
				ErrOutOfStock, product.Title, product.Stock, line.Item.Quantity)
		}
		if product.Currency != acct.Currency {
			return nil, fmt.Errorf("%w: %q uses %s, account uses %s",
				ErrCurrencyMismatch, product.Title, product.Currency, acct.Currency)
		}
		total += product.Price * int64(line.Item.Quantity)
	}
	if acct.Balance < total {
		return nil, fmt.Errorf("%w: required %s, balance %s %s", ErrInsufficientFunds,
			FormatAmount(total), FormatAmount(acct.Balance), acct.Currency)
	}

	now := s.now().UTC()
	receipt := &CheckoutReceipt{
		AccountID: accountID,
		Total:     total,
		Currency:  acct.Currency,
		Lines:     len(lines),
	}
	for _, line := range lines {
		product := s.products[line.Product.ID]
		product.Stock -= line.Item.Quantity

		desc := fmt.Sprintf("Purchase of %s (x%d)", product.Title, line.Item.Quantity)
		productID := product.ID
		tx := s.appendTransaction(userID, accountID, line.Total(), acct.Currency, TxPurchase, desc, "", nil, &productID)
		receipt.TransactionIDs = append(receipt.TransactionIDs, tx.ID)

		item := s.cartItems[line.Item.ID]
		item.Status = CartPurchased
		item.UpdatedAt = now
	}
	acct.Balance -= total
	acct.UpdatedAt = now

	return receipt, nil
}

/* --------------------------------- Goals ---------------------------------- */

func (s *MemoryStore) GoalsByUser(ctx context.Context, userID int64, status string) ([]FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []FinancialGoal
	for _, g := range s.goals {
		if g.UserID != userID {
			continue
		}
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Goal(ctx context.Context, userID, goalID int64) (*FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok {
		return nil, fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
	}
	if g.UserID != userID {
		return nil, fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
	}
	cp := *g
	return &cp, nil
}

func (s *MemoryStore) CreateGoal(ctx context.Context, userID int64, name string, targetAmount int64, currency string, targetDate *time.Time) (*FinancialGoal, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: goal name is required", ErrInvalidAmount)
	}
	if err := validateAmount(targetAmount, currency); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGoalID++
	g := &FinancialGoal{
		ID:           s.nextGoalID,
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		TargetAmount: targetAmount,
		Currency:     strings.ToUpper(currency),
		TargetDate:   targetDate,
		Status:       GoalActive,
		CreatedAt:    s.now().UTC(),
	}
	s.goals[g.ID] = g
	cp := *g
	return &cp, nil
}

var _ Store = (*MemoryStore)(nil)
