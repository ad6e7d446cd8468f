package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/config"
	"github.com/jamesfulford/cashflow-projector/internal/engine"
	"github.com/jamesfulford/cashflow-projector/internal/service"
	"github.com/jamesfulford/cashflow-projector/internal/sheets"
)

// newLedgerWriter builds the export destination.
var newLedgerWriter = func(ctx context.Context, cfg sheets.Config) (service.LedgerWriter, error) {
	return sheets.NewWriter(ctx, cfg, slog.Default())
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the projection to Google Sheets",
		Long: `Export the projection to Google Sheets.

The spreadsheet gets a Summary tab (parameters, shortfalls and rule impact)
and a Ledger tab with one row per day. Both tabs are replaced on every export.

Authenticate first with 'cashflow auth sheets' or configure a service account
under sheets.service_account_path.`,
		RunE: runExport,
	}
	addProjectionFlags(cmd)
	cmd.Flags().String("spreadsheet-id", "", "spreadsheet to write (overrides config)")
	cmd.Flags().String("spreadsheet-name", "", "title for a new spreadsheet (overrides config)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		cfg.SpreadsheetID = id
	}
	if name, _ := cmd.Flags().GetString("spreadsheet-name"); name != "" {
		cfg.SpreadsheetName = name
	}

	txns := engine.GenerateTransactions(c)
	days := engine.ProjectDays(c, txns)
	report := service.LedgerReport{
		GeneratedAt: time.Now(),
		Params:      c.Params(),
		Shortfalls:  engine.FindShortfalls(days, c.Window().SetAside),
		Impact:      engine.Impact(c.Rules(), txns),
		Days:        days,
	}

	errOut := cmd.ErrOrStderr()
	handler := cli.NewInterruptHandler(errOut, "Export")
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "The spreadsheet may be partly written. Run export again to replace it.")
	defer stop()

	writer, err := newLedgerWriter(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	bar := newExportProgressBar(errOut, len(days))
	err = writer.WriteLedger(ctx, report, func(written, _ int) {
		if setErr := bar.Set(written); setErr != nil {
			slog.Warn("Failed to update progress bar", "error", setErr)
		}
	})
	if err != nil {
		if handler.WasInterrupted() {
			return fmt.Errorf("export interrupted: %w", context.Canceled)
		}
		return fmt.Errorf("export failed: %w", err)
	}
	_ = bar.Finish()

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d days to Google Sheets", len(days))))
	return err
}

func newExportProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Writing ledger...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
