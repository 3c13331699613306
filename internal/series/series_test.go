package series

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/coreapi"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconstructEmptyInput(t *testing.T) {
	points := Reconstruct(dec("1000"), nil)
	if len(points) != 0 {
		t.Fatalf("expected empty series, got %d points", len(points))
	}
}

func TestReconstructDepositWithdrawScenario(t *testing.T) {
	current := dec("1000000")
	txs := []coreapi.Transaction{
		{ID: "t1", Type: coreapi.TxDeposit, Amount: dec("500000"), Date: date(2024, 3, 1)},
		{ID: "t2", Type: coreapi.TxWithdraw, Amount: dec("200000"), Date: date(2024, 3, 2)},
	}

	points := Reconstruct(current, txs)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}

	// start = 1,000,000 - (500,000 - 200,000) = 700,000
	if !points[0].Date.Equal(date(2024, 3, 1)) || !points[0].Balance.Equal(dec("1200000")) {
		t.Fatalf("day1 point wrong: %s %s", points[0].Date, points[0].Balance)
	}
	if !points[1].Date.Equal(date(2024, 3, 2)) || !points[1].Balance.Equal(current) {
		t.Fatalf("final point must equal current balance, got %s", points[1].Balance)
	}
}

func TestReconstructClosureProperty(t *testing.T) {
	current := dec("8437.55")
	txs := []coreapi.Transaction{
		{Type: coreapi.TxWithdraw, Amount: dec("120.10"), Date: date(2024, 1, 9)},
		{Type: coreapi.TxDeposit, Amount: dec("2500"), Date: date(2024, 1, 3)},
		{Type: coreapi.TxInterestPayment, Amount: dec("37.65"), Date: date(2024, 1, 31)},
		{Type: coreapi.TxInterestAccrual, Amount: dec("41.02"), Date: date(2024, 1, 15)},
		{Type: coreapi.TxDeposit, Amount: dec("300"), Date: date(2024, 1, 20)},
	}

	points := Reconstruct(current, txs)
	if len(points) == 0 {
		t.Fatal("expected non-empty series")
	}
	last := points[len(points)-1]
	if !last.Balance.Equal(current) {
		t.Fatalf("replaying all transactions must end at the current balance, got %s", last.Balance)
	}
}

func TestReconstructUnorderedInputIsSortedByDate(t *testing.T) {
	txs := []coreapi.Transaction{
		{Type: coreapi.TxDeposit, Amount: dec("50"), Date: date(2024, 2, 10)},
		{Type: coreapi.TxDeposit, Amount: dec("100"), Date: date(2024, 2, 1)},
	}

	points := Reconstruct(dec("150"), txs)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Date.Before(points[1].Date) {
		t.Fatalf("series must be chronologically ascending: %s then %s", points[0].Date, points[1].Date)
	}
	if !points[0].Balance.Equal(dec("100")) {
		t.Fatalf("expected 100 after first deposit, got %s", points[0].Balance)
	}
}

func TestReconstructSameDayLastTransactionWins(t *testing.T) {
	d := date(2024, 5, 5)
	txs := []coreapi.Transaction{
		{Type: coreapi.TxDeposit, Amount: dec("400"), Date: d.Add(9 * time.Hour)},
		{Type: coreapi.TxWithdraw, Amount: dec("150"), Date: d.Add(17 * time.Hour)},
	}

	points := Reconstruct(dec("250"), txs)
	if len(points) != 1 {
		t.Fatalf("expected a single point for one calendar day, got %d", len(points))
	}
	if !points[0].Date.Equal(d) {
		t.Fatalf("expected date %s, got %s", d, points[0].Date)
	}
	if !points[0].Balance.Equal(dec("250")) {
		t.Fatalf("the final balance of the day must win, got %s", points[0].Balance)
	}
}

func TestReconstructIgnoresAccrualsAndUnknownTypes(t *testing.T) {
	txs := []coreapi.Transaction{
		{Type: coreapi.TxDeposit, Amount: dec("100"), Date: date(2024, 6, 1)},
		{Type: coreapi.TxInterestAccrual, Amount: dec("5"), Date: date(2024, 6, 2)},
		{Type: coreapi.TransactionType("FEE"), Amount: dec("3"), Date: date(2024, 6, 3)},
	}

	points := Reconstruct(dec("100"), txs)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	// Zero-effect entries still produce a point, carrying the running balance.
	for i, p := range points {
		if !p.Balance.Equal(dec("100")) {
			t.Fatalf("point %d: expected flat balance 100, got %s", i, p.Balance)
		}
	}
}
