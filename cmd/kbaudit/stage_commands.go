package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kbaudit/internal/config"
	"kbaudit/internal/pipeline"
	"kbaudit/internal/store"
)

func newStageCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "collect",
			Short: "Catalog help-center categories and new articles",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStage(cmd, ctx, func(runCtx context.Context, r *pipeline.Runner, out io.Writer) error {
					summary, err := r.Collect(runCtx)
					printCollectSummary(out, summary)
					return err
				})
			},
		},
		{
			Use:   "analyze",
			Short: "Run pending articles through the AI gap analysis",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStage(cmd, ctx, func(runCtx context.Context, r *pipeline.Runner, out io.Writer) error {
					summary, err := r.Analyze(runCtx)
					printAnalyzeSummary(out, summary)
					return err
				})
			},
		},
		{
			Use:   "report",
			Short: "Export the audit to an Excel workbook",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStage(cmd, ctx, func(runCtx context.Context, r *pipeline.Runner, out io.Writer) error {
					summary, err := r.Report(runCtx)
					if err == nil {
						printReportSummary(out, summary)
					}
					return err
				})
			},
		},
		{
			Use:   "run",
			Short: "Run collect, analyze, and report in order",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStage(cmd, ctx, func(runCtx context.Context, r *pipeline.Runner, out io.Writer) error {
					summary, err := r.RunAll(runCtx)
					fmt.Fprintf(out, "Run %s\n", summary.RunID)
					printCollectSummary(out, summary.Collect)
					printAnalyzeSummary(out, summary.Analyze)
					if err == nil {
						printReportSummary(out, summary.Report)
					}
					return err
				})
			},
		},
	}
}

func runStage(cmd *cobra.Command, ctx *commandContext, fn func(context.Context, *pipeline.Runner, io.Writer) error) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
		runner, err := ctx.newRunner(cfg, st)
		if err != nil {
			return err
		}
		err = fn(signalCtx, runner, cmd.OutOrStdout())
		if errors.Is(err, pipeline.ErrBusy) {
			return fmt.Errorf("%w (lock %s)", err, cfg.RunLockPath())
		}
		return err
	})
}

func printCollectSummary(out io.Writer, s pipeline.CollectSummary) {
	fmt.Fprintf(out, "Collect: %d categories, %d articles listed, %d new, %d already stored, %d failed\n",
		s.Categories, s.Discovered, s.Inserted, s.Existing, s.Failed)
}

func printAnalyzeSummary(out io.Writer, s pipeline.AnalyzeSummary) {
	if s.Pending == 0 {
		fmt.Fprintln(out, "Analyze: no articles pending")
		return
	}
	if s.Skipped > 0 && s.Analyzed == 0 {
		fmt.Fprintf(out, "Analyze: no AI key configured, %d articles left pending\n", s.Skipped)
		return
	}
	fmt.Fprintf(out, "Analyze: %d of %d pending analyzed, %d failed\n", s.Analyzed, s.Pending, s.Failed)
}

func printReportSummary(out io.Writer, s pipeline.ReportSummary) {
	fmt.Fprintf(out, "Report: %d rows written to %s\n", s.Rows, s.Path)
}
