package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run is a recorded projection: what was asked and how the ledger ended.
type Run struct {
	RecordedAt   time.Time
	Label        string
	Params       Params
	FinalBalance decimal.Decimal
	Shortfalls   Shortfalls
	RuleCount    int
	ID           int64
}

// NewRun summarizes a ledger for the run history.
func NewRun(label string, params Params, ruleCount int, days []DayRecord, shortfalls Shortfalls) Run {
	final := params.CurrentBalance
	if len(days) > 0 {
		final = days[len(days)-1].Balance
	}
	return Run{
		Label:        label,
		Params:       params,
		RuleCount:    ruleCount,
		FinalBalance: final,
		Shortfalls:   shortfalls,
	}
}
