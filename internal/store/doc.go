// Package store persists help-center categories, articles, and their analysis
// results in SQLite.
//
// The database runs in WAL mode so the dashboard can read while a pipeline
// stage writes; writes retry briefly on SQLITE_BUSY. An article is pending
// analysis while gap_analysis is NULL or starts with "Error", which lets
// provider failures be retried on the next run.
package store
