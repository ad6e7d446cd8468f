package engine

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// GenerateDayByDays projects the context into one ledger record per day of
// the effective window.
func GenerateDayByDays(c *Context) []model.DayRecord {
	return ProjectDays(c, GenerateTransactions(c))
}

// ProjectDays folds an already generated transaction stream into the ledger.
// txns must be in GenerateTransactions order.
func ProjectDays(c *Context, txns []model.Transaction) []model.DayRecord {
	days := make([]model.DayRecord, 0, c.effectiveEnd.DaysSince(c.effectiveStart)+1)

	acc := foldState{balance: c.window.CurrentBalance}
	for d := c.effectiveStart; !d.After(c.effectiveEnd); d = d.AddDays(1) {
		var rec model.DayRecord
		rec, acc = step(acc, d, txns, c.window)
		days = append(days, rec)
	}
	return days
}

// foldState is everything carried from one day to the next.
type foldState struct {
	balance decimal.Decimal
	cursor  int
}

// step applies the transactions dated day, starting at acc.cursor.
func step(acc foldState, day civil.Date, txns []model.Transaction, w Window) (model.DayRecord, foldState) {
	// Skip anything dated before the window; the generator never emits it,
	// but callers of ProjectDays may.
	for acc.cursor < len(txns) && txns[acc.cursor].Date.Before(day) {
		acc.cursor++
	}

	balance := acc.balance
	high, low := balance, balance
	begin := acc.cursor
	for acc.cursor < len(txns) && txns[acc.cursor].Date == day {
		balance = balance.Add(txns[acc.cursor].Value)
		high = decimal.Max(high, balance)
		low = decimal.Min(low, balance)
		acc.cursor++
	}

	rec := model.DayRecord{
		Date:         day,
		Balance:      balance,
		Available:    balance.Sub(w.SetAside),
		Transactions: txns[begin:acc.cursor:acc.cursor],
	}
	if w.HighLow {
		rec.High = &high
		rec.Low = &low
	}

	acc.balance = balance
	return rec, acc
}
