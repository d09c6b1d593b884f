// Command kbaudit audits a help-center knowledge base: it catalogs articles,
// runs each one through a language-model gap analysis, and exports the
// results to a spreadsheet.
//
// Stages can be run one at a time (collect, analyze, report), all together
// (run), or from the web dashboard. Configuration is read from
// ~/.config/kbaudit/config.toml unless --config is given.
package main
