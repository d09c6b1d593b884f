package analysis

import "strings"

// Marker strings written into Result fields when no analysis was produced.
const (
	NotConfiguredGap  = "No AI Configured"
	ErrorMarker       = "Error"
	ParseErrorType    = "Parse Error"
	parseErrorPrefix  = "Raw Output (Parse Error): "
	providerErrPrefix = "Error: "
)

// Result is the outcome of analyzing one article. All fields are display
// strings ready for storage.
type Result struct {
	Gap         string
	Suggestions string
	Topics      string
	ContentType string
}

// Failed reports whether the result carries an error or parse-error marker
// rather than an analysis.
func (r Result) Failed() bool {
	return strings.Contains(r.Gap, ErrorMarker)
}

// Retryable reports whether the stored result should be analyzed again. Only
// provider errors qualify; parse errors keep the raw output for review.
func (r Result) Retryable() bool {
	return strings.HasPrefix(r.Gap, ErrorMarker)
}

func notConfiguredResult() Result {
	return Result{Gap: NotConfiguredGap}
}

func errorResult(err error) Result {
	return Result{
		Gap:         providerErrPrefix + err.Error(),
		Suggestions: ErrorMarker,
		Topics:      ErrorMarker,
		ContentType: ErrorMarker,
	}
}

func parseErrorResult(payload string) Result {
	return Result{
		Gap:         parseErrorPrefix + payload,
		ContentType: ParseErrorType,
	}
}
