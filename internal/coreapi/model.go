package coreapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies the portal role assigned by the core system.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// TransactionType enumerates ledger entry categories reported by the core.
type TransactionType string

const (
	TxDeposit         TransactionType = "DEPOSIT"
	TxWithdraw        TransactionType = "WITHDRAW"
	TxInterestAccrual TransactionType = "INTEREST_ACCRUAL"
	TxInterestPayment TransactionType = "INTEREST_PAYMENT"
)

// User represents a portal user as the core system knows it.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials carries a sign-in request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpInput carries a registration request.
type SignUpInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// SignInResult is the core's answer to a successful authentication.
type SignInResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Product describes a savings product offered by the bank.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermMonths     int             `json:"term_months"`
	MinimumDeposit decimal.Decimal `json:"minimum_deposit"`
	Active         bool            `json:"active"`
}

// ProductInput carries create/update fields for a savings product.
type ProductInput struct {
	Name           string          `json:"name"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermMonths     int             `json:"term_months"`
	MinimumDeposit decimal.Decimal `json:"minimum_deposit"`
	Active         bool            `json:"active"`
}

// SavingsAccount is an opened term-deposit instance.
type SavingsAccount struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Balance     decimal.Decimal `json:"balance"`
	OpenedAt    time.Time       `json:"opened_at"`
	MaturesAt   *time.Time      `json:"matures_at,omitempty"`
	Status      string          `json:"status"`
}

// Transaction is an immutable ledger entry fetched from the core. The same
// shape serves report rows, which additionally carry customer and product
// labels.
type Transaction struct {
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	AccountID    string          `json:"account_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
}

// AccountSummary is a point-in-time snapshot across all of a user's accounts.
type AccountSummary struct {
	TotalBalance   decimal.Decimal `json:"total_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
}

// SystemStats aggregates bank-wide figures for the admin dashboard.
type SystemStats struct {
	TotalUsers    int             `json:"total_users"`
	TotalAccounts int             `json:"total_accounts"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// ReportPage is one page of report rows plus paging metadata.
type ReportPage struct {
	Rows       []Transaction `json:"rows"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// Export is a server-generated binary report document.
type Export struct {
	Content     []byte
	ContentType string
}

// UserUpdate carries admin-editable user fields.
type UserUpdate struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role"`
}

// ProfileUpdate carries self-service profile fields.
type ProfileUpdate struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}
