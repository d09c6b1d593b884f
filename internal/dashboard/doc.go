// Package dashboard serves the kbaudit web dashboard: corpus metrics, buttons
// to start pipeline stages, the most recent articles, the log tail, and the
// latest report download.
//
// Stages run as `kbaudit <stage>` subprocesses so a long analyze pass survives
// page reloads and shares the run lock with the CLI. The JSON endpoints under
// /api back the page and are usable on their own.
package dashboard
