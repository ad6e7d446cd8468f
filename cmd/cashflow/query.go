package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/config"
	"github.com/jamesfulford/cashflow-projector/internal/engine"
	"github.com/jamesfulford/cashflow-projector/internal/model"
	"github.com/jamesfulford/cashflow-projector/internal/payload"
	"github.com/jamesfulford/cashflow-projector/internal/storage"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List projected transactions in date order",
		RunE:  runTransactions,
	}
	addProjectionFlags(cmd)
	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(out, payload.Transactions(c))
	}
	return writeTables(out,
		cli.ParamsTable(c.Params()),
		cli.TransactionsTable(engine.GenerateTransactions(c)),
	)
}

func dayByDaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daybydays",
		Aliases: []string{"ledger"},
		Short:   "Show the running balance for every day in the window",
		Long: `Show the running balance for every day in the window.

With --record the projection's outcome (window, final and lowest balance,
shortfall dates) is saved to the run history. Rule definitions are never
stored.`,
		RunE: runDayByDays,
	}
	addProjectionFlags(cmd)
	cmd.Flags().Bool("record", false, "save this projection to the run history")
	cmd.Flags().String("label", "", "label for the recorded run")
	return cmd
}

func runDayByDays(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	days := engine.GenerateDayByDays(c)

	if record, _ := cmd.Flags().GetBool("record"); record {
		label, _ := cmd.Flags().GetString("label")
		if err := recordRun(cmd, c, days, label); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(out, payload.DayByDaysResponse{
			DayByDays: payload.NewDayByDays(days),
			Params:    payload.NewParams(c.Params()),
		})
	}
	return writeTables(out,
		cli.ParamsTable(c.Params()),
		cli.LedgerTable(days, c.Params().HighLow),
	)
}

func recordRun(cmd *cobra.Command, c *engine.Context, days []model.DayRecord, label string) error {
	store, err := initStorage(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "Failed to close storage", common.Fields{"database": store.Path()})
		}
	}()

	shortfalls := engine.FindShortfalls(days, c.Window().SetAside)
	run := model.NewRun(label, c.Params(), c.Rules().Len(), days, shortfalls)
	if err := store.SaveRun(cmd.Context(), &run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	common.LogInfo("Recorded run", common.Fields{"id": run.ID, "label": label, "database": store.Path()})
	return nil
}

// initStorage opens the run history database and brings its schema up to date.
func initStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("storage.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show the resolved parameters, including any window extension",
		RunE:  runParams,
	}
	addProjectionFlags(cmd)
	return cmd
}

func runParams(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(out, payload.ParamsOnly(c))
	}
	return writeTables(out, cli.ParamsTable(c.Params()))
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Report shortfalls and each rule's impact on the projection",
		RunE:  runSummary,
	}
	addProjectionFlags(cmd)
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	c, err := buildContext(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(out, payload.Summary(c))
	}

	txns := engine.GenerateTransactions(c)
	days := engine.ProjectDays(c, txns)
	shortfalls := engine.FindShortfalls(days, c.Window().SetAside)

	if err := writeTables(out,
		cli.ParamsTable(c.Params()),
		cli.ShortfallsTable(shortfalls),
		cli.ImpactTable(engine.Impact(c.Rules(), txns)),
	); err != nil {
		return err
	}

	var alert string
	switch {
	case shortfalls.BelowZero != nil:
		alert = cli.FormatError(fmt.Sprintf("Overdrawn from %s", *shortfalls.BelowZero))
	case shortfalls.BelowSetAside != nil:
		alert = cli.FormatWarning(fmt.Sprintf("Below set-aside from %s", *shortfalls.BelowSetAside))
	default:
		alert = cli.FormatSuccess("No shortfalls in the window")
	}
	_, err = fmt.Fprintln(out, cli.RenderBox("Outlook", alert))
	return err
}
