package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/cli"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"upstreams": cfg.Upstreams(),
		"local":     cfg.LocalPath,
		"dry_run":   cfg.DryRun,
	}).Info("Starting reconciliation")

	a := newApp()
	defer a.Close()

	report, err := a.reconciler.Run(ctx)

	printReport(cmd.OutOrStdout(), report)

	return err
}

func printReport(w io.Writer, report *reconcile.Report) {
	if report.DryRun && report.Diff != "" {
		fmt.Fprint(w, report.Diff)
	}

	counts := [][]string{
		{"upstream", strconv.Itoa(report.Upstream)},
		{"local", strconv.Itoa(report.Local)},
		{"discovered", strconv.Itoa(report.Discovered)},
		{"merged", strconv.Itoa(report.Merged)},
		{"added", strconv.Itoa(len(report.Added))},
		{"updated", strconv.Itoa(len(report.Updated))},
		{"preserved", strconv.Itoa(len(report.Preserved))},
		{"skipped", strconv.Itoa(report.Skipped)},
	}

	if !cli.IsTerminal(w) {
		fmt.Fprintf(w, "run=%s outcome=%s duration=%s", report.ID, report.Outcome, report.Duration())

		for _, row := range counts {
			fmt.Fprintf(w, " %s=%s", row[0], row[1])
		}

		fmt.Fprintln(w)

		return
	}

	fmt.Fprintf(w, "Run %s: %s in %s\n", report.ID, report.Outcome, report.Duration().Round(time.Millisecond))
	fmt.Fprintln(w, cli.RenderTable([]string{"Entries", "Count"}, counts, []cli.Alignment{cli.AlignLeft, cli.AlignRight}))

	if report.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", report.Error)
	}
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
