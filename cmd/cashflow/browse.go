package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesfulford/cashflow-projector/internal/engine"
	"github.com/jamesfulford/cashflow-projector/internal/tui"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the day-by-day ledger interactively",
		Long: `Browse the day-by-day ledger interactively.

Use the arrow keys to move between days, n and N to jump between shortfalls,
and enter to show the selected day's transactions.`,
		RunE: runBrowse,
	}
	addProjectionFlags(cmd)
	cmd.Flags().Bool("no-detail", false, "start with the detail pane closed")
	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	days := engine.GenerateDayByDays(c)
	ledger := tui.Ledger{
		Params:     c.Params(),
		Shortfalls: engine.FindShortfalls(days, c.Window().SetAside),
		Days:       days,
	}
	noDetail, _ := cmd.Flags().GetBool("no-detail")
	return tui.Run(cmd.Context(), ledger, nil, nil, tui.WithDetail(!noDetail))
}
