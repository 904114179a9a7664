package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/cli"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/history"
	"github.com/spf13/cobra"
)

var historyLimit int

func newHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reconciliation runs",
		RunE:  runHistory,
	}

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")

	return historyCmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if cfg.HistoryPath == "" {
		return errors.New("--history is required")
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")

		return nil
	}

	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}

		outcome := string(run.Outcome)
		if run.DryRun {
			outcome += " (dry run)"
		}

		rows = append(rows, []string{
			run.StartedAt.Local().Format(time.DateTime),
			id,
			outcome,
			strconv.Itoa(run.Upstream),
			strconv.Itoa(run.Merged),
			strconv.Itoa(run.Added),
			strconv.Itoa(run.Updated),
			strconv.Itoa(run.Preserved),
			run.Duration().Round(time.Millisecond).String(),
			run.Error,
		})
	}

	right := cli.AlignRight
	left := cli.AlignLeft

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
		[]string{"Started", "Run", "Outcome", "Upstream", "Merged", "Added", "Updated", "Preserved", "Duration", "Error"},
		rows,
		[]cli.Alignment{left, left, left, right, right, right, right, right, right, left},
	))

	return nil
}
