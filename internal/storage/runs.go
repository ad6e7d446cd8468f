package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/model"
)

const runColumns = `id, label, recorded_at, start_date, end_date, current_balance, set_aside,
	high_low, rule_count, final_balance, lowest_balance, lowest_date,
	below_set_aside, below_zero, free_to_spend`

// SaveRun records a projection run and sets its ID.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (label, recorded_at, start_date, end_date, current_balance, set_aside,
			high_low, rule_count, final_balance, lowest_balance, lowest_date,
			below_set_aside, below_zero, free_to_spend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Label,
		run.RecordedAt,
		run.Params.StartDate,
		run.Params.EndDate,
		run.Params.CurrentBalance.StringFixed(2),
		run.Params.SetAside.StringFixed(2),
		run.Params.HighLow,
		run.RuleCount,
		run.FinalBalance.StringFixed(2),
		run.Shortfalls.Lowest.StringFixed(2),
		run.Shortfalls.LowestDate,
		nullDate(run.Shortfalls.BelowSetAside),
		nullDate(run.Shortfalls.BelowZero),
		run.Shortfalls.FreeToSpend.StringFixed(2),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return nil
}

// GetRun returns one run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first. A limit of zero or
// less returns every run.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes one run.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run                   model.Run
		belowSetAside, belowZ sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Label,
		&run.RecordedAt,
		&run.Params.StartDate,
		&run.Params.EndDate,
		&run.Params.CurrentBalance,
		&run.Params.SetAside,
		&run.Params.HighLow,
		&run.RuleCount,
		&run.FinalBalance,
		&run.Shortfalls.Lowest,
		&run.Shortfalls.LowestDate,
		&belowSetAside,
		&belowZ,
		&run.Shortfalls.FreeToSpend,
	)
	if err != nil {
		return nil, err
	}

	if run.Shortfalls.BelowSetAside, err = parseNullDate(belowSetAside); err != nil {
		return nil, err
	}
	if run.Shortfalls.BelowZero, err = parseNullDate(belowZ); err != nil {
		return nil, err
	}
	return &run, nil
}

func nullDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*civil.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return &d, nil
}
