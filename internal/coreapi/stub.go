package coreapi

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stub is a concurrency-safe in-memory core API used by unit tests and the
// local development mode. It enforces the same business rejections the real
// core reports so error-path behavior can be exercised offline.
type Stub struct {
	mu        sync.RWMutex
	users     map[string]User
	passwords map[string]string
	tokens    map[string]string
	products  map[string]Product
	accounts  map[string]SavingsAccount
	txs       []Transaction

	// PageSize controls report paging. Tests may lower it to force fan-out.
	PageSize int
}

// NewStub creates an empty stub core.
func NewStub() *Stub {
	return &Stub{
		users:     make(map[string]User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
		products:  make(map[string]Product),
		accounts:  make(map[string]SavingsAccount),
		PageSize:  50,
	}
}

// SeedUser registers a user with a known password and returns its ID.
func (s *Stub) SeedUser(user User, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	s.passwords[user.Email] = password
	return user.ID
}

// SeedToken binds a bearer token directly to a user, bypassing sign-in.
func (s *Stub) SeedToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

// RevokeToken invalidates a previously issued token, simulating core-side
// session expiry.
func (s *Stub) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// SeedProduct stores a savings product and returns its ID.
func (s *Stub) SeedProduct(p Product) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.products[p.ID] = p
	return p.ID
}

// SeedAccount stores a savings account and returns its ID.
func (s *Stub) SeedAccount(a SavingsAccount) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.accounts[a.ID] = a
	return a.ID
}

// SeedTransactions appends ledger entries used by recent-transaction and
// report queries.
func (s *Stub) SeedTransactions(txs ...Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, txs...)
}

func (s *Stub) Ping(_ context.Context) error {
	return nil
}

func (s *Stub) authenticate(token string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	if !ok {
		return User{}, ErrUnauthorized
	}
	user, ok := s.users[userID]
	if !ok {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

func (s *Stub) requireAdmin(token string) (User, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return User{}, err
	}
	if user.Role != RoleAdmin {
		return User{}, ErrForbidden
	}
	return user, nil
}

func (s *Stub) SignIn(_ context.Context, creds Credentials) (SignInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	password, ok := s.passwords[creds.Email]
	if !ok || password != creds.Password {
		return SignInResult{}, ErrUnauthorized
	}
	for _, user := range s.users {
		if user.Email == creds.Email {
			token := uuid.NewString()
			s.tokens[token] = user.ID
			return SignInResult{Token: token, User: user}, nil
		}
	}
	return SignInResult{}, ErrUnauthorized
}

func (s *Stub) SignUp(_ context.Context, input SignUpInput) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[input.Email]; taken {
		return User{}, newBusinessError("an account with this email already exists")
	}
	user := User{
		ID:        uuid.NewString(),
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.passwords[user.Email] = input.Password
	return user, nil
}

func (s *Stub) CurrentUser(_ context.Context, token string) (User, error) {
	return s.authenticate(token)
}

func (s *Stub) UpdateProfile(_ context.Context, token string, update ProfileUpdate) (User, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.FullName = update.FullName
	user.Phone = update.Phone
	s.users[user.ID] = user
	return user, nil
}

func (s *Stub) ChangePassword(_ context.Context, token, current, next string) error {
	user, err := s.authenticate(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passwords[user.Email] != current {
		return newBusinessError("current password is incorrect")
	}
	s.passwords[user.Email] = next
	return nil
}

func (s *Stub) ResetPassword(_ context.Context, email, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passwords[email]; !ok {
		return ErrNotFound
	}
	s.passwords[email] = newPassword
	return nil
}

func (s *Stub) ListProducts(_ context.Context, token string) ([]Product, error) {
	if _, err := s.authenticate(token); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Stub) GetProduct(_ context.Context, token, id string) (Product, error) {
	if _, err := s.authenticate(token); err != nil {
		return Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return product, nil
}

func (s *Stub) CreateProduct(_ context.Context, token string, input ProductInput) (Product, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product := Product{
		ID:             uuid.NewString(),
		Name:           input.Name,
		InterestRate:   input.InterestRate,
		TermMonths:     input.TermMonths,
		MinimumDeposit: input.MinimumDeposit,
		Active:         input.Active,
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *Stub) UpdateProduct(_ context.Context, token, id string, input ProductInput) (Product, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	product.Name = input.Name
	product.InterestRate = input.InterestRate
	product.TermMonths = input.TermMonths
	product.MinimumDeposit = input.MinimumDeposit
	product.Active = input.Active
	s.products[id] = product
	return product, nil
}

func (s *Stub) DeleteProduct(_ context.Context, token, id string) error {
	if _, err := s.requireAdmin(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Stub) OpenAccount(_ context.Context, token, productID string, amount decimal.Decimal, termMonths int) (SavingsAccount, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return SavingsAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return SavingsAccount{}, ErrNotFound
	}
	if amount.LessThan(product.MinimumDeposit) {
		return SavingsAccount{}, newBusinessError("opening amount is below the product minimum deposit")
	}
	now := time.Now().UTC()
	account := SavingsAccount{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Balance:     amount,
		OpenedAt:    now,
		Status:      "ACTIVE",
	}
	if termMonths > 0 {
		maturity := now.AddDate(0, termMonths, 0)
		account.MaturesAt = &maturity
	}
	s.accounts[account.ID] = account
	return account, nil
}

func (s *Stub) GetAccount(_ context.Context, token, id string) (SavingsAccount, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return SavingsAccount{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return SavingsAccount{}, ErrNotFound
	}
	if account.OwnerID != user.ID && user.Role != RoleAdmin {
		return SavingsAccount{}, ErrForbidden
	}
	return account, nil
}

func (s *Stub) ListAccounts(_ context.Context, token string) ([]SavingsAccount, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []SavingsAccount
	for _, a := range s.accounts {
		if a.OwnerID == user.ID || user.Role == RoleAdmin {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].OpenedAt.Before(accounts[j].OpenedAt) })
	return accounts, nil
}

func (s *Stub) Deposit(_ context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return SavingsAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return SavingsAccount{}, ErrNotFound
	}
	if account.OwnerID != user.ID {
		return SavingsAccount{}, ErrForbidden
	}
	account.Balance = account.Balance.Add(amount)
	s.accounts[accountID] = account
	s.txs = append(s.txs, Transaction{
		ID:        uuid.NewString(),
		Type:      TxDeposit,
		Amount:    amount,
		Date:      time.Now().UTC(),
		AccountID: accountID,
	})
	return account, nil
}

func (s *Stub) Withdraw(_ context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return SavingsAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return SavingsAccount{}, ErrNotFound
	}
	if account.OwnerID != user.ID {
		return SavingsAccount{}, ErrForbidden
	}
	if account.MaturesAt != nil && time.Now().UTC().Before(*account.MaturesAt) {
		return SavingsAccount{}, newBusinessError("withdrawal before maturity is not allowed")
	}
	if account.Balance.LessThan(amount) {
		return SavingsAccount{}, newBusinessError("insufficient balance")
	}
	account.Balance = account.Balance.Sub(amount)
	s.accounts[accountID] = account
	s.txs = append(s.txs, Transaction{
		ID:        uuid.NewString(),
		Type:      TxWithdraw,
		Amount:    amount,
		Date:      time.Now().UTC(),
		AccountID: accountID,
	})
	return account, nil
}

func (s *Stub) Overview(_ context.Context, token string) (AccountSummary, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return AccountSummary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := AccountSummary{
		TotalBalance:   decimal.Zero,
		TotalDeposited: decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	owned := make(map[string]bool)
	for _, a := range s.accounts {
		if a.OwnerID == user.ID {
			summary.TotalBalance = summary.TotalBalance.Add(a.Balance)
			owned[a.ID] = true
		}
	}
	for _, tx := range s.txs {
		if !owned[tx.AccountID] {
			continue
		}
		switch tx.Type {
		case TxDeposit:
			summary.TotalDeposited = summary.TotalDeposited.Add(tx.Amount)
		case TxWithdraw:
			summary.TotalWithdrawn = summary.TotalWithdrawn.Add(tx.Amount)
		}
	}
	return summary, nil
}

func (s *Stub) RecentTransactions(_ context.Context, token string, limit int) ([]Transaction, error) {
	user, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make(map[string]bool)
	for _, a := range s.accounts {
		if a.OwnerID == user.ID || user.Role == RoleAdmin {
			owned[a.ID] = true
		}
	}
	var txs []Transaction
	for _, tx := range s.txs {
		if owned[tx.AccountID] {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *Stub) ListUsers(_ context.Context, token string) ([]User, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *Stub) GetUser(_ context.Context, token, id string) (User, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *Stub) UpdateUser(_ context.Context, token, id string, update UserUpdate) (User, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user.FullName = update.FullName
	user.Phone = update.Phone
	if update.Role != "" {
		user.Role = update.Role
	}
	s.users[id] = user
	return user, nil
}

func (s *Stub) DeleteUser(_ context.Context, token, id string) error {
	if _, err := s.requireAdmin(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	delete(s.passwords, user.Email)
	return nil
}

func (s *Stub) SystemStats(_ context.Context, token string) (SystemStats, error) {
	if _, err := s.requireAdmin(token); err != nil {
		return SystemStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := SystemStats{
		TotalUsers:    len(s.users),
		TotalAccounts: len(s.accounts),
		TotalBalance:  decimal.Zero,
		Revenue:       decimal.Zero,
	}
	for _, a := range s.accounts {
		stats.TotalBalance = stats.TotalBalance.Add(a.Balance)
	}
	return stats, nil
}

func (s *Stub) reportRows(q ReportQuery) ([]Transaction, error) {
	from, err := time.Parse("2006-01-02", q.From)
	if err != nil {
		return nil, newBusinessError("invalid from date")
	}
	to, err := time.Parse("2006-01-02", q.To)
	if err != nil {
		return nil, newBusinessError("invalid to date")
	}
	var rows []Transaction
	for _, tx := range s.txs {
		day := tx.Date.UTC().Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			continue
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

func (s *Stub) ReportPage(_ context.Context, token string, q ReportQuery) (ReportPage, error) {
	if _, err := s.authenticate(token); err != nil {
		return ReportPage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.reportRows(q)
	if err != nil {
		return ReportPage{}, err
	}
	size := s.PageSize
	if size <= 0 {
		size = 50
	}
	totalPages := (len(rows) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return ReportPage{Rows: nil, Page: page, TotalPages: totalPages}, nil
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return ReportPage{Rows: rows[start:end], Page: page, TotalPages: totalPages}, nil
}

func (s *Stub) ExportReportPDF(_ context.Context, token string, q ReportQuery) (Export, error) {
	if _, err := s.authenticate(token); err != nil {
		return Export{}, err
	}
	return Export{Content: []byte("%PDF-1.4 report " + q.From + ".." + q.To), ContentType: "application/pdf"}, nil
}

func (s *Stub) ExportReportExcel(_ context.Context, token string, q ReportQuery) (Export, error) {
	if _, err := s.authenticate(token); err != nil {
		return Export{}, err
	}
	return Export{Content: []byte("PK report " + q.From + ".." + q.To), ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, nil
}

var _ Client = (*Stub)(nil)
