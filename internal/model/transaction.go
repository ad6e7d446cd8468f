package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one projected occurrence of a rule.
// Value is copied from the rule at generation time.
type Transaction struct {
	Date   civil.Date
	Value  decimal.Decimal
	RuleID string
	Name   string
}

// DayRecord is the ledger entry for one calendar day.
// High and Low are nil unless intra-day tracking is enabled.
type DayRecord struct {
	Date         civil.Date
	Balance      decimal.Decimal
	Available    decimal.Decimal
	High         *decimal.Decimal
	Low          *decimal.Decimal
	Transactions []Transaction
}

// Opening returns the balance at the start of the day.
func (d DayRecord) Opening() decimal.Decimal {
	opening := d.Balance
	for _, t := range d.Transactions {
		opening = opening.Sub(t.Value)
	}
	return opening
}

// Floor returns the lowest balance observed on the day: Low when tracked,
// otherwise the smaller of the opening and closing balances.
func (d DayRecord) Floor() decimal.Decimal {
	if d.Low != nil {
		return *d.Low
	}
	return decimal.Min(d.Opening(), d.Balance)
}
