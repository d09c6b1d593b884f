package pipeline

import (
	"context"
	"errors"

	"kbaudit/internal/logging"
	"kbaudit/internal/report"
	"kbaudit/internal/services"
)

// ReportSummary describes the exported workbook.
type ReportSummary struct {
	Path string
	Rows int
}

func (r *Runner) report(ctx context.Context) (ReportSummary, error) {
	var summary ReportSummary
	rows, err := r.store.Articles(ctx)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageReport, "load articles", "", err)
	}
	path, err := report.Write(r.cfg.Paths.ReportDir, rows, r.now())
	if errors.Is(err, report.ErrNoData) {
		return summary, services.Wrap(services.ErrNotFound, StageReport, "write", "run collect first", err)
	}
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageReport, "write", r.cfg.Paths.ReportDir, err)
	}
	summary = ReportSummary{Path: path, Rows: len(rows)}
	logging.WithContext(ctx, r.logger).Info("report written",
		logging.String("path", path),
		logging.Int("rows", len(rows)),
	)
	return summary, nil
}
