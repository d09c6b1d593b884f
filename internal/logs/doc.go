// Package logs reads the kbaudit log file for the `kbaudit logs` command and
// the dashboard log panel.
//
// Tail with a negative offset returns the last N lines and the byte offset to
// resume from; a non-negative offset returns whatever was appended since.
// Follow polls until the context ends. Only complete lines are returned, so
// a line still being written is picked up on the next call.
package logs
