package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the browser until the user quits or ctx is canceled. Nil in and
// out use the terminal.
func Run(ctx context.Context, ledger Ledger, in io.Reader, out io.Writer, opts ...Option) error {
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if in != nil {
		progOpts = append(progOpts, tea.WithInput(in))
	}
	if out != nil {
		progOpts = append(progOpts, tea.WithOutput(out))
	}

	p := tea.NewProgram(New(ledger, opts...), progOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ledger browser failed: %w", err)
	}
	return nil
}
