package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Params are the resolved projection parameters. StartDate and EndDate
// describe the effective window, which may extend past the requested end.
type Params struct {
	StartDate      civil.Date
	EndDate        civil.Date
	CurrentBalance decimal.Decimal
	SetAside       decimal.Decimal
	HighLow        bool
}

// Days returns the number of calendar days in the window, inclusive.
func (p Params) Days() int {
	return p.EndDate.DaysSince(p.StartDate) + 1
}

// Shortfalls summarizes where a ledger dips below its safety thresholds.
type Shortfalls struct {
	// BelowSetAside is the first day the balance drops below the set-aside.
	BelowSetAside *civil.Date
	// BelowZero is the first day the balance drops below zero.
	BelowZero   *civil.Date
	LowestDate  civil.Date
	Lowest      decimal.Decimal
	FreeToSpend decimal.Decimal
}

// RuleImpact is one rule's share of the projected flow.
type RuleImpact struct {
	RuleID      string
	Name        string
	Total       decimal.Decimal
	Occurrences int
	// Share is the rule's total as a percentage of total income.
	Share decimal.Decimal
}

// ImpactReport splits projected flow into income and expenses per rule.
type ImpactReport struct {
	Income        []RuleImpact
	Expenses      []RuleImpact
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
}

// Net returns income plus (negative) expenses.
func (r ImpactReport) Net() decimal.Decimal {
	return r.TotalIncome.Add(r.TotalExpenses)
}
