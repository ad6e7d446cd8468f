package engine

import (
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

var hundred = decimal.NewFromInt(100)

// FindShortfalls scans a ledger for the first days its balance dips below
// the set-aside and below zero. Intra-day lows are used when tracked.
// FreeToSpend is how far the lowest balance stays above the set-aside.
func FindShortfalls(days []model.DayRecord, setAside decimal.Decimal) model.Shortfalls {
	var s model.Shortfalls
	if len(days) == 0 {
		return s
	}

	s.Lowest = days[0].Floor()
	s.LowestDate = days[0].Date
	for i := range days {
		floor := days[i].Floor()
		if floor.LessThan(s.Lowest) {
			s.Lowest = floor
			s.LowestDate = days[i].Date
		}
		if s.BelowSetAside == nil && floor.LessThan(setAside) {
			d := days[i].Date
			s.BelowSetAside = &d
		}
		if s.BelowZero == nil && floor.IsNegative() {
			d := days[i].Date
			s.BelowZero = &d
		}
	}

	s.FreeToSpend = s.Lowest.Sub(setAside)
	return s
}

// Impact totals each rule's projected flow. Rules with a positive value are
// income and the rest are expenses; zero-valued rules are left out. Every
// share is a percentage of total income, so an expense's share is how much of
// income it consumes.
func Impact(rules RuleSet, txns []model.Transaction) model.ImpactReport {
	type tally struct {
		total decimal.Decimal
		count int
	}
	tallies := make(map[string]*tally, rules.Len())
	for _, r := range rules.rules {
		tallies[r.ID] = &tally{}
	}
	for _, t := range txns {
		if tl, ok := tallies[t.RuleID]; ok {
			tl.total = tl.total.Add(t.Value)
			tl.count++
		}
	}

	var report model.ImpactReport
	for _, r := range rules.rules {
		tl := tallies[r.ID]
		impact := model.RuleImpact{
			RuleID:      r.ID,
			Name:        r.Name,
			Total:       tl.total,
			Occurrences: tl.count,
		}
		switch {
		case r.Value.IsPositive():
			report.Income = append(report.Income, impact)
			report.TotalIncome = report.TotalIncome.Add(tl.total)
		case r.Value.IsNegative():
			report.Expenses = append(report.Expenses, impact)
			report.TotalExpenses = report.TotalExpenses.Add(tl.total)
		}
	}

	if report.TotalIncome.IsPositive() {
		for _, list := range [][]model.RuleImpact{report.Income, report.Expenses} {
			for i := range list {
				list[i].Share = list[i].Total.Mul(hundred).DivRound(report.TotalIncome, model.CentPlaces)
			}
		}
	}
	return report
}
