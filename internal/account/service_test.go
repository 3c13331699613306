package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/logging"
)

func newFixture(t *testing.T) (*Service, *coreapi.Stub, string, string) {
	t.Helper()
	stub := coreapi.NewStub()
	userID := stub.SeedUser(coreapi.User{FullName: "Saver", Email: "saver@example.com", Role: coreapi.RoleUser}, "pw")
	token := "core-token"
	stub.SeedToken(token, userID)
	svc := NewService(stub, audit.NewMemoryRepository(), logging.Discard())
	return svc, stub, token, userID
}

func TestOpenDepositWithdrawRoundTrip(t *testing.T) {
	svc, stub, token, userID := newFixture(t)
	productID := stub.SeedProduct(coreapi.Product{
		Name:           "Flexible Saver",
		MinimumDeposit: decimal.NewFromInt(100),
		Active:         true,
	})

	ctx := context.Background()
	account, err := svc.Open(ctx, token, userID, OpenInput{ProductID: productID, Amount: decimal.NewFromInt(500)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	account, err = svc.Deposit(ctx, token, userID, account.ID, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected balance 750, got %s", account.Balance)
	}

	account, err = svc.Withdraw(ctx, token, userID, account.ID, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(550)) {
		t.Fatalf("expected balance 550, got %s", account.Balance)
	}
}

func TestOpenBelowMinimumSurfacesFriendlyMessage(t *testing.T) {
	svc, stub, token, userID := newFixture(t)
	productID := stub.SeedProduct(coreapi.Product{
		Name:           "Premium Saver",
		MinimumDeposit: decimal.NewFromInt(1000),
	})

	_, err := svc.Open(context.Background(), token, userID, OpenInput{ProductID: productID, Amount: decimal.NewFromInt(10)})
	var be *coreapi.BusinessError
	if !errors.As(err, &be) {
		t.Fatalf("expected business error, got %v", err)
	}
	if be.Friendly == "" {
		t.Fatal("expected a friendly message")
	}
}

func TestWithdrawBeforeMaturityRejected(t *testing.T) {
	svc, stub, token, userID := newFixture(t)
	maturity := time.Now().UTC().AddDate(0, 6, 0)
	accountID := stub.SeedAccount(coreapi.SavingsAccount{
		OwnerID:   userID,
		Balance:   decimal.NewFromInt(1000),
		OpenedAt:  time.Now().UTC(),
		MaturesAt: &maturity,
		Status:    "ACTIVE",
	})

	_, err := svc.Withdraw(context.Background(), token, userID, accountID, decimal.NewFromInt(100))
	var be *coreapi.BusinessError
	if !errors.As(err, &be) {
		t.Fatalf("expected business error, got %v", err)
	}
}

func TestOverviewDerivesHistoryEndingAtCurrentBalance(t *testing.T) {
	svc, stub, token, userID := newFixture(t)
	accountID := stub.SeedAccount(coreapi.SavingsAccount{
		OwnerID:  userID,
		Balance:  decimal.NewFromInt(1000000),
		OpenedAt: time.Now().UTC().AddDate(0, 0, -10),
		Status:   "ACTIVE",
	})
	stub.SeedTransactions(
		coreapi.Transaction{ID: "d1", Type: coreapi.TxDeposit, Amount: decimal.NewFromInt(500000), Date: time.Now().UTC().AddDate(0, 0, -2), AccountID: accountID},
		coreapi.Transaction{ID: "w1", Type: coreapi.TxWithdraw, Amount: decimal.NewFromInt(200000), Date: time.Now().UTC().AddDate(0, 0, -1), AccountID: accountID},
	)

	overview, err := svc.Overview(context.Background(), token)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.InsufficientHistory {
		t.Fatal("expected history to be available")
	}
	last := overview.History[len(overview.History)-1]
	if !last.Balance.Equal(overview.Summary.TotalBalance) {
		t.Fatalf("history must end at the current balance: %s vs %s", last.Balance, overview.Summary.TotalBalance)
	}
}

func TestOverviewWithNoTransactionsFlagsInsufficientHistory(t *testing.T) {
	svc, stub, token, userID := newFixture(t)
	stub.SeedAccount(coreapi.SavingsAccount{
		OwnerID:  userID,
		Balance:  decimal.NewFromInt(100),
		OpenedAt: time.Now().UTC(),
		Status:   "ACTIVE",
	})

	overview, err := svc.Overview(context.Background(), token)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !overview.InsufficientHistory {
		t.Fatal("expected insufficient history flag")
	}
	if len(overview.History) != 0 {
		t.Fatalf("expected empty series, got %d points", len(overview.History))
	}
}

func TestWithdrawRejectsNonPositiveAmountLocally(t *testing.T) {
	svc, _, token, userID := newFixture(t)
	if _, err := svc.Withdraw(context.Background(), token, userID, "any", decimal.Zero); err == nil {
		t.Fatal("expected local validation error")
	}
}
