package sheets

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// LedgerHeader is the first row of the Ledger tab.
var LedgerHeader = []any{"Date", "Opening", "Transactions", "Net", "Balance", "Available", "High", "Low"}

// ledgerMoneyColumns are the zero-based Ledger columns holding amounts.
var ledgerMoneyColumns = [][2]int64{{1, 2}, {3, 8}}

func money(d decimal.Decimal) string {
	return d.StringFixed(model.CentPlaces)
}

func optionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return money(*d)
}

func optionalDate(d *civil.Date) string {
	if d == nil {
		return "never"
	}
	return d.String()
}

// summaryValues lays out the parameters, shortfalls and rule impact.
func summaryValues(report service.LedgerReport) [][]any {
	p := report.Params
	s := report.Shortfalls
	highLow := "off"
	if p.HighLow {
		highLow = "on"
	}

	values := make([][]any, 0, 24+len(report.Impact.Income)+len(report.Impact.Expenses))
	values = append(values,
		[]any{"Cash Flow Projection", fmt.Sprintf("%s - %s", p.StartDate, p.EndDate)},
		[]any{"Generated", report.GeneratedAt.Format("2006-01-02 15:04")},
		[]any{},
		[]any{"Parameters"},
		[]any{"Start date", p.StartDate.String()},
		[]any{"End date", p.EndDate.String()},
		[]any{"Current balance", money(p.CurrentBalance)},
		[]any{"Set aside", money(p.SetAside)},
		[]any{"High/low tracking", highLow},
		[]any{},
		[]any{"Shortfalls"},
		[]any{"Lowest balance", money(s.Lowest), s.LowestDate.String()},
		[]any{"Free to spend", money(s.FreeToSpend)},
		[]any{"Below set-aside", optionalDate(s.BelowSetAside)},
		[]any{"Below zero", optionalDate(s.BelowZero)},
		[]any{},
		[]any{"Impact"},
		[]any{"Rule", "Occurrences", "Total", "Share of income %"},
	)

	for _, list := range [][]model.RuleImpact{report.Impact.Income, report.Impact.Expenses} {
		for _, r := range list {
			values = append(values, []any{r.Name, r.Occurrences, money(r.Total), money(r.Share)})
		}
	}

	values = append(values,
		[]any{"Total income", "", money(report.Impact.TotalIncome)},
		[]any{"Total expenses", "", money(report.Impact.TotalExpenses)},
		[]any{"Net", "", money(report.Impact.Net())},
	)
	return values
}

// ledgerRow renders one day. Transactions are listed as "name amount" pairs
// in the order they were applied.
func ledgerRow(d model.DayRecord) []any {
	names := make([]string, 0, len(d.Transactions))
	net := decimal.Zero
	for _, t := range d.Transactions {
		names = append(names, fmt.Sprintf("%s %s", t.Name, money(t.Value)))
		net = net.Add(t.Value)
	}
	return []any{
		d.Date.String(),
		money(d.Opening()),
		strings.Join(names, "; "),
		money(net),
		money(d.Balance),
		money(d.Available),
		optionalMoney(d.High),
		optionalMoney(d.Low),
	}
}

// ledgerValues renders the header followed by one row per day.
func ledgerValues(days []model.DayRecord) [][]any {
	values := make([][]any, 0, len(days)+1)
	values = append(values, LedgerHeader)
	for _, d := range days {
		values = append(values, ledgerRow(d))
	}
	return values
}
