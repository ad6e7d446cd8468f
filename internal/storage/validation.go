package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun checks a run before it is written.
func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if !run.Params.StartDate.IsValid() || !run.Params.EndDate.IsValid() {
		return fmt.Errorf("%w: missing window dates", ErrInvalidRun)
	}
	if run.Params.StartDate.After(run.Params.EndDate) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRun, run.Params.StartDate, run.Params.EndDate)
	}
	if run.RuleCount < 0 {
		return fmt.Errorf("%w: negative rule count", ErrInvalidRun)
	}
	return nil
}
