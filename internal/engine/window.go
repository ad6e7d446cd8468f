package engine

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// DefaultHorizonMonths is how far past the start an open-ended window runs.
const DefaultHorizonMonths = 12

// WindowInput is a planning window as supplied by the caller. Empty strings
// take the defaults.
type WindowInput struct {
	StartDate      string
	EndDate        string
	CurrentBalance string
	SetAside       string
	HighLow        bool
}

// Window is a validated planning window. End is the configured end, before
// any extension by bounded rules.
type Window struct {
	Start          civil.Date
	End            civil.Date
	CurrentBalance decimal.Decimal
	SetAside       decimal.Decimal
	HighLow        bool
}

// NewWindow parses in, filling defaults relative to today.
func NewWindow(in WindowInput, today civil.Date) (Window, error) {
	w := Window{HighLow: in.HighLow}

	start, err := parseDateOr(in.StartDate, today)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start date: %v", common.ErrInvalidWindow, err)
	}
	w.Start = start

	end, err := parseDateOr(in.EndDate, AddMonths(start, DefaultHorizonMonths))
	if err != nil {
		return Window{}, fmt.Errorf("%w: end date: %v", common.ErrInvalidWindow, err)
	}
	w.End = end

	if w.CurrentBalance, err = model.ParseMoney(in.CurrentBalance); err != nil {
		return Window{}, fmt.Errorf("%w: current balance: %v", common.ErrInvalidWindow, err)
	}
	if w.SetAside, err = model.ParseMoney(in.SetAside); err != nil {
		return Window{}, fmt.Errorf("%w: set aside: %v", common.ErrInvalidWindow, err)
	}

	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks the window's invariants.
func (w Window) Validate() error {
	if !w.Start.IsValid() || !w.End.IsValid() {
		return fmt.Errorf("%w: invalid date", common.ErrInvalidWindow)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", common.ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func parseDateOr(s string, fallback civil.Date) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	return d, nil
}

// AddMonths adds n calendar months, clamping to the last day of the target
// month, so Jan 31 + 1 month is the end of February.
func AddMonths(d civil.Date, n int) civil.Date {
	total := int(d.Month) - 1 + n
	year := d.Year + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}

	out := civil.Date{Year: year, Month: time.Month(month + 1), Day: d.Day}
	if last := daysIn(out.Year, out.Month); out.Day > last {
		out.Day = last
	}
	return out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
