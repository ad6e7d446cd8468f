// Package service defines the interfaces for the collaborators around the
// projection engine.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// BalanceSource supplies the opening balance for a projection.
type BalanceSource interface {
	// CurrentBalance returns the balance the projection should start from.
	CurrentBalance(ctx context.Context) (decimal.Decimal, error)
	// Name identifies the source in logs and messages.
	Name() string
}

// LedgerReport is a finished projection, ready to be written somewhere.
type LedgerReport struct {
	GeneratedAt time.Time
	Params      model.Params
	Shortfalls  model.Shortfalls
	Impact      model.ImpactReport
	Days        []model.DayRecord
}

// ProgressFunc reports how many of total rows have been written.
type ProgressFunc func(written, total int)

// LedgerWriter exports a projection to an external destination.
type LedgerWriter interface {
	WriteLedger(ctx context.Context, report LedgerReport, progress ProgressFunc) error
}

// RunStore persists the history of recorded projections. Rule definitions
// are never stored.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id int64) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	DeleteRun(ctx context.Context, id int64) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
