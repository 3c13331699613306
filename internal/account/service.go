package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/series"
)

// recentLimit bounds the transaction window used for the dashboard chart.
const recentLimit = 50

// Service exposes savings-account operations on behalf of a signed-in user.
// Balance rules live in the core; the service validates what it can locally
// and derives the history chart from fetched data.
type Service struct {
	core     coreapi.Client
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewService builds an account service.
func NewService(core coreapi.Client, auditLog audit.Repository, logger *slog.Logger) *Service {
	return &Service{core: core, auditLog: auditLog, logger: logger}
}

// Overview is the dashboard payload: the snapshot totals, the recent ledger
// entries, and the balance line derived from them. InsufficientHistory tells
// the client to render a placeholder instead of a chart.
type Overview struct {
	Summary             coreapi.AccountSummary `json:"summary"`
	Recent              []coreapi.Transaction  `json:"recent"`
	History             []series.Point         `json:"history"`
	InsufficientHistory bool                   `json:"insufficient_history"`
}

// Overview assembles the dashboard for the calling user.
func (s *Service) Overview(ctx context.Context, token string) (Overview, error) {
	summary, err := s.core.Overview(ctx, token)
	if err != nil {
		return Overview{}, err
	}
	recent, err := s.core.RecentTransactions(ctx, token, recentLimit)
	if err != nil {
		return Overview{}, err
	}

	history := series.Reconstruct(summary.TotalBalance, recent)
	return Overview{
		Summary:             summary,
		Recent:              recent,
		History:             history,
		InsufficientHistory: len(history) == 0,
	}, nil
}

// OpenInput captures the data needed to open a term deposit.
type OpenInput struct {
	ProductID  string
	Amount     decimal.Decimal
	TermMonths int
}

// Open creates a savings account against a product.
func (s *Service) Open(ctx context.Context, token, userID string, input OpenInput) (coreapi.SavingsAccount, error) {
	if input.ProductID == "" {
		return coreapi.SavingsAccount{}, fmt.Errorf("product is required")
	}
	if !input.Amount.IsPositive() {
		return coreapi.SavingsAccount{}, fmt.Errorf("amount must be positive")
	}

	account, err := s.core.OpenAccount(ctx, token, input.ProductID, input.Amount, input.TermMonths)
	if err != nil {
		return coreapi.SavingsAccount{}, err
	}
	s.record(ctx, userID, audit.ActionOpenAccount, account.ID)
	return account, nil
}

// Deposit adds funds to an account.
func (s *Service) Deposit(ctx context.Context, token, userID, accountID string, amount decimal.Decimal) (coreapi.SavingsAccount, error) {
	if !amount.IsPositive() {
		return coreapi.SavingsAccount{}, fmt.Errorf("amount must be positive")
	}
	account, err := s.core.Deposit(ctx, token, accountID, amount)
	if err != nil {
		return coreapi.SavingsAccount{}, err
	}
	s.record(ctx, userID, audit.ActionDeposit, accountID)
	return account, nil
}

// Withdraw removes funds from an account. Maturity and balance rules are
// enforced by the core and surface as business errors.
func (s *Service) Withdraw(ctx context.Context, token, userID, accountID string, amount decimal.Decimal) (coreapi.SavingsAccount, error) {
	if !amount.IsPositive() {
		return coreapi.SavingsAccount{}, fmt.Errorf("amount must be positive")
	}
	account, err := s.core.Withdraw(ctx, token, accountID, amount)
	if err != nil {
		return coreapi.SavingsAccount{}, err
	}
	s.record(ctx, userID, audit.ActionWithdraw, accountID)
	return account, nil
}

// Get returns one account's detail.
func (s *Service) Get(ctx context.Context, token, accountID string) (coreapi.SavingsAccount, error) {
	return s.core.GetAccount(ctx, token, accountID)
}

// List returns the caller's accounts.
func (s *Service) List(ctx context.Context, token string) ([]coreapi.SavingsAccount, error) {
	return s.core.ListAccounts(ctx, token)
}

// Recent returns the caller's latest transactions.
func (s *Service) Recent(ctx context.Context, token string, limit int) ([]coreapi.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = recentLimit
	}
	return s.core.RecentTransactions(ctx, token, limit)
}

func (s *Service) record(ctx context.Context, userID, action, target string) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Record(ctx, audit.Entry{ActorID: userID, Role: string(coreapi.RoleUser), Action: action, Target: target}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
