package payload

import (
	"github.com/jamesfulford/cashflow-projector/internal/engine"
)

// Transactions runs a transactions query.
func Transactions(c *engine.Context) TransactionsResponse {
	return TransactionsResponse{
		Transactions: NewTransactions(engine.GenerateTransactions(c)),
		Params:       NewParams(c.Params()),
	}
}

// DayByDays runs a day-by-day query.
func DayByDays(c *engine.Context) DayByDaysResponse {
	return DayByDaysResponse{
		DayByDays: NewDayByDays(engine.GenerateDayByDays(c)),
		Params:    NewParams(c.Params()),
	}
}

// ParamsOnly reports the resolved parameters without projecting.
func ParamsOnly(c *engine.Context) ParamsResponse {
	return ParamsResponse{Params: NewParams(c.Params())}
}

// Summary projects once and reports shortfalls and per-rule impact.
func Summary(c *engine.Context) SummaryResponse {
	txns := engine.GenerateTransactions(c)
	days := engine.ProjectDays(c, txns)
	return SummaryResponse{
		Params:     NewParams(c.Params()),
		Shortfalls: NewShortfalls(engine.FindShortfalls(days, c.Window().SetAside)),
		Impact:     NewImpact(engine.Impact(c.Rules(), txns)),
	}
}
