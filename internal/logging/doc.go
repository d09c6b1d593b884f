// Package logging assembles the slog loggers used by kbaudit.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the pipeline run ID, stage, and
// article ID. A no-op logger is provided for tests and optional wiring.
package logging
