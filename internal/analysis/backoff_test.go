package analysis_test

import (
	"testing"
	"time"

	"kbaudit/internal/analysis"
)

func TestEstimateBackoff(t *testing.T) {
	cases := []struct {
		name string
		text string
		want time.Duration
	}{
		{
			name: "minutes and seconds",
			text: "Rate limit reached for model `llama-3.3-70b-versatile`. Please try again in 1m53.184s. Need more tokens?",
			want: 118184 * time.Millisecond,
		},
		{name: "whole seconds", text: "rate_limit_exceeded: Please try again in 12s.", want: 17 * time.Second},
		{name: "fractional seconds", text: "try again in 2.5s", want: 7500 * time.Millisecond},
		{name: "no duration", text: "rate_limit_exceeded", want: 60 * time.Second},
		{name: "empty", text: "", want: 60 * time.Second},
		{name: "hours fall back", text: "Please try again in 1h2m3s.", want: 60 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := analysis.EstimateBackoff(tc.text); got != tc.want {
				t.Fatalf("EstimateBackoff(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestUnparsedFlagsUnknownPhrasing(t *testing.T) {
	if !analysis.Unparsed("Please try again in 1h2m3s.") {
		t.Fatal("expected hour-based delay to be flagged")
	}
	if analysis.Unparsed("Please try again in 12s.") {
		t.Fatal("parsed delay must not be flagged")
	}
	if analysis.Unparsed("rate_limit_exceeded") {
		t.Fatal("text without a delay phrase must not be flagged")
	}
}
