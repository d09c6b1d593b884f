// Package pipeline sequences the audit stages: collect catalogs the help
// center into the store, analyze runs pending articles through the analyzer,
// and report exports the store to a workbook.
//
// Every stage runs under a file lock in the log directory so the CLI and the
// dashboard never run two stages at once. Each invocation gets a fresh run ID
// that is stamped into the context and therefore into every log line.
package pipeline
