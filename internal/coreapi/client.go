package coreapi

import (
	"context"

	"github.com/shopspring/decimal"
)

// Client is the portal's view of the core-banking REST API. Every banking
// rule (interest accrual, ledger persistence, balance checks) lives behind
// it; the portal only presents the results.
type Client interface {
	// Ping reports whether the core API is reachable.
	Ping(ctx context.Context) error

	// Sessions and registration.
	SignIn(ctx context.Context, creds Credentials) (SignInResult, error)
	SignUp(ctx context.Context, input SignUpInput) (User, error)
	CurrentUser(ctx context.Context, token string) (User, error)

	// Profile self-service.
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (User, error)
	ChangePassword(ctx context.Context, token, current, next string) error
	ResetPassword(ctx context.Context, email, newPassword string) error

	// Savings products.
	ListProducts(ctx context.Context, token string) ([]Product, error)
	GetProduct(ctx context.Context, token, id string) (Product, error)
	CreateProduct(ctx context.Context, token string, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, token, id string, input ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, token, id string) error

	// Savings accounts.
	OpenAccount(ctx context.Context, token, productID string, amount decimal.Decimal, termMonths int) (SavingsAccount, error)
	GetAccount(ctx context.Context, token, id string) (SavingsAccount, error)
	ListAccounts(ctx context.Context, token string) ([]SavingsAccount, error)
	Deposit(ctx context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error)
	Withdraw(ctx context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error)

	// Dashboard queries.
	Overview(ctx context.Context, token string) (AccountSummary, error)
	RecentTransactions(ctx context.Context, token string, limit int) ([]Transaction, error)

	// Admin user management.
	ListUsers(ctx context.Context, token string) ([]User, error)
	GetUser(ctx context.Context, token, id string) (User, error)
	UpdateUser(ctx context.Context, token, id string, update UserUpdate) (User, error)
	DeleteUser(ctx context.Context, token, id string) error
	SystemStats(ctx context.Context, token string) (SystemStats, error)

	// Reporting.
	ReportPage(ctx context.Context, token string, q ReportQuery) (ReportPage, error)
	ExportReportPDF(ctx context.Context, token string, q ReportQuery) (Export, error)
	ExportReportExcel(ctx context.Context, token string, q ReportQuery) (Export, error)
}

// ReportQuery scopes a report request. From and To are inclusive calendar
// dates formatted 2006-01-02; Page is 1-based.
type ReportQuery struct {
	Scope string
	From  string
	To    string
	Type  string
	Page  int
}
