package payload

import (
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// Money renders d as a JSON number with two decimal places.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(model.CentPlaces))
}

func moneyPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	m := Money(*d)
	return &m
}

func datePtr(d *civil.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// Params are the resolved parameters as returned to callers.
type Params struct {
	StartDate      string      `json:"startDate"`
	EndDate        string      `json:"endDate"`
	CurrentBalance json.Number `json:"currentBalance"`
	SetAside       json.Number `json:"setAside"`
	HighLow        bool        `json:"highLow"`
}

// NewParams converts resolved params.
func NewParams(p model.Params) Params {
	return Params{
		StartDate:      p.StartDate.String(),
		EndDate:        p.EndDate.String(),
		CurrentBalance: Money(p.CurrentBalance),
		SetAside:       Money(p.SetAside),
		HighLow:        p.HighLow,
	}
}

// Transaction is one projected occurrence.
type Transaction struct {
	Date   string      `json:"date"`
	Value  json.Number `json:"value"`
	RuleID string      `json:"ruleId"`
	Name   string      `json:"name"`
}

// NewTransactions converts txns, always returning a non-nil slice.
func NewTransactions(txns []model.Transaction) []Transaction {
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		out = append(out, Transaction{
			Date:   t.Date.String(),
			Value:  Money(t.Value),
			RuleID: t.RuleID,
			Name:   t.Name,
		})
	}
	return out
}

// DayByDay is one ledger day. High and Low are present only when intra-day
// tracking was requested.
type DayByDay struct {
	Date             string        `json:"date"`
	Balance          json.Number   `json:"balance"`
	AvailableBalance json.Number   `json:"availableBalance"`
	High             *json.Number  `json:"high,omitempty"`
	Low              *json.Number  `json:"low,omitempty"`
	Transactions     []Transaction `json:"transactions"`
}

// NewDayByDays converts a ledger.
func NewDayByDays(days []model.DayRecord) []DayByDay {
	out := make([]DayByDay, 0, len(days))
	for _, d := range days {
		out = append(out, DayByDay{
			Date:             d.Date.String(),
			Balance:          Money(d.Balance),
			AvailableBalance: Money(d.Available),
			High:             moneyPtr(d.High),
			Low:              moneyPtr(d.Low),
			Transactions:     NewTransactions(d.Transactions),
		})
	}
	return out
}

// TransactionsResponse answers a transactions query.
type TransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Params       Params        `json:"params"`
}

// DayByDaysResponse answers a day-by-day query.
type DayByDaysResponse struct {
	DayByDays []DayByDay `json:"daybydays"`
	Params    Params     `json:"params"`
}

// ParamsResponse answers a params-only query.
type ParamsResponse struct {
	Params Params `json:"params"`
}

// Shortfalls reports where the ledger dips below its thresholds.
type Shortfalls struct {
	BelowSetAside *string     `json:"belowSetAside,omitempty"`
	BelowZero     *string     `json:"belowZero,omitempty"`
	LowestDate    string      `json:"lowestDate"`
	Lowest        json.Number `json:"lowest"`
	FreeToSpend   json.Number `json:"freeToSpend"`
}

// NewShortfalls converts a shortfall summary.
func NewShortfalls(s model.Shortfalls) Shortfalls {
	return Shortfalls{
		BelowSetAside: datePtr(s.BelowSetAside),
		BelowZero:     datePtr(s.BelowZero),
		LowestDate:    s.LowestDate.String(),
		Lowest:        Money(s.Lowest),
		FreeToSpend:   Money(s.FreeToSpend),
	}
}

// RuleImpact is one rule's contribution to the projection.
type RuleImpact struct {
	RuleID      string      `json:"ruleId"`
	Name        string      `json:"name"`
	Total       json.Number `json:"total"`
	Occurrences int         `json:"occurrences"`
	Share       json.Number `json:"share"`
}

func newRuleImpacts(in []model.RuleImpact) []RuleImpact {
	out := make([]RuleImpact, 0, len(in))
	for _, r := range in {
		out = append(out, RuleImpact{
			RuleID:      r.RuleID,
			Name:        r.Name,
			Total:       Money(r.Total),
			Occurrences: r.Occurrences,
			Share:       Money(r.Share),
		})
	}
	return out
}

// Impact splits the projected flow by rule.
type Impact struct {
	Income        []RuleImpact `json:"income"`
	Expenses      []RuleImpact `json:"expenses"`
	TotalIncome   json.Number  `json:"totalIncome"`
	TotalExpenses json.Number  `json:"totalExpenses"`
	Net           json.Number  `json:"net"`
}

// NewImpact converts an impact report.
func NewImpact(r model.ImpactReport) Impact {
	return Impact{
		Income:        newRuleImpacts(r.Income),
		Expenses:      newRuleImpacts(r.Expenses),
		TotalIncome:   Money(r.TotalIncome),
		TotalExpenses: Money(r.TotalExpenses),
		Net:           Money(r.Net()),
	}
}

// SummaryResponse answers a summary query.
type SummaryResponse struct {
	Params     Params     `json:"params"`
	Shortfalls Shortfalls `json:"shortfalls"`
	Impact     Impact     `json:"impact"`
}
