// Package preflight provides readiness checks for the paths and external
// services kbaudit depends on. `kbaudit check` runs them all and renders the
// results; a failed required check makes the command exit non-zero.
//
// A missing LLM credential is reported as an optional failure because the
// analyze stage still runs; it leaves every article pending until a key is set.
package preflight
