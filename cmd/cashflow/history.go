package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage recorded projection runs",
		Long: `Manage recorded projection runs.

Runs are recorded with 'cashflow daybydays --record'.`,
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE:  runHistoryList,
	}
	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show")
	return cmd
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, err = fmt.Fprintln(out, cli.FormatInfo("No recorded runs yet. Use 'cashflow daybydays --record'."))
		return err
	}
	if _, err := fmt.Fprintln(out, cli.FormatTitle("Recorded runs")); err != nil {
		return err
	}
	return writeTables(out, cli.RunsTable(runs))
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := initStorage(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	if err := store.DeleteRun(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete run %d: %w", id, err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted run %d", id)))
	return err
}
