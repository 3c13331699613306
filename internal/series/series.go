// Package series reconstructs historical balance lines from a known current
// balance and a bounded transaction list. The core API only reports the
// present-day totals; the dashboard chart is derived locally by reversing
// the net effect of every fetched transaction.
package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/coreapi"
)

// Point is one charted value: the balance at end of the given calendar day.
type Point struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// effect returns the signed contribution of a transaction to the balance.
// Interest accruals are bookkeeping entries until paid out, so only
// INTEREST_PAYMENT moves the withdrawable balance; unrecognized types
// contribute nothing, keeping the closure invariant intact either way.
func effect(tx coreapi.Transaction) decimal.Decimal {
	switch tx.Type {
	case coreapi.TxDeposit, coreapi.TxInterestPayment:
		return tx.Amount
	case coreapi.TxWithdraw:
		return tx.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// day truncates a timestamp to its UTC calendar date.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Reconstruct derives the historical balance at each distinct transaction
// date, chronologically ascending. Given the current total balance and the
// transactions that produced it, the starting balance is the current balance
// minus the sum of all net effects; replaying forward from there yields one
// point per calendar day, where the last transaction of a day determines
// that day's value. An empty transaction list yields an empty series.
//
// Replaying all transactions forward from the computed starting balance
// reproduces the given current balance exactly.
func Reconstruct(currentBalance decimal.Decimal, txs []coreapi.Transaction) []Point {
	if len(txs) == 0 {
		return nil
	}

	ordered := make([]coreapi.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	netChange := decimal.Zero
	for _, tx := range ordered {
		netChange = netChange.Add(effect(tx))
	}
	running := currentBalance.Sub(netChange)

	byDay := make(map[time.Time]decimal.Decimal)
	var days []time.Time
	for _, tx := range ordered {
		running = running.Add(effect(tx))
		d := day(tx.Date)
		if _, seen := byDay[d]; !seen {
			days = append(days, d)
		}
		byDay[d] = running
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]Point, 0, len(days))
	for _, d := range days {
		points = append(points, Point{Date: d, Balance: byDay[d]})
	}
	return points
}
