// Package analysis turns a help-center article into a gap-analysis result by
// calling a chat-completion provider.
//
// Analyzer.Analyze is total: it always returns a Result whose four fields are
// filled, using marker strings when the provider is missing, failing, or
// replies with unparseable text. Rate-limited calls rotate through the
// configured model Roster; once every model has been tried the analyzer sleeps
// for the delay advertised in the provider's error text (EstimateBackoff) and
// starts again from the first model.
//
// Normalize converts the model's semi-structured JSON reply into the display
// strings persisted by the store.
package analysis
