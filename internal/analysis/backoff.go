package analysis

import (
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultBackoff applies when no wait can be read from the error text.
	DefaultBackoff = 60 * time.Second
	// BackoffBuffer is added to any wait parsed from the provider.
	BackoffBuffer = 5 * time.Second
)

var (
	minutesSecondsPattern = regexp.MustCompile(`in (\d+)m(\d+\.?\d*)s`)
	secondsPattern        = regexp.MustCompile(`in (\d+\.?\d*)s`)
	tryAgainPattern       = regexp.MustCompile(`(?i)try again in\s+\S+`)
)

// EstimateBackoff reads a "try again in 1m53.184s" or "in 12.5s" style delay
// from a rate-limit message. Parsed delays get BackoffBuffer added; anything
// else yields DefaultBackoff.
func EstimateBackoff(text string) time.Duration {
	if d, ok := parseBackoff(text); ok {
		return d + BackoffBuffer
	}
	return DefaultBackoff
}

// Unparsed reports whether text advertises a retry delay ("try again in ...")
// in a form EstimateBackoff does not understand, such as hours.
func Unparsed(text string) bool {
	if _, ok := parseBackoff(text); ok {
		return false
	}
	return tryAgainPattern.MatchString(text)
}

func parseBackoff(text string) (time.Duration, bool) {
	if m := minutesSecondsPattern.FindStringSubmatch(text); m != nil {
		minutes, err := time.ParseDuration(m[1] + "m")
		if err != nil {
			return 0, false
		}
		seconds, err := time.ParseDuration(m[2] + "s")
		if err != nil {
			return 0, false
		}
		return minutes + seconds, true
	}
	if m := secondsPattern.FindStringSubmatch(text); m != nil {
		seconds, err := time.ParseDuration(strings.TrimSuffix(m[1], ".") + "s")
		if err != nil {
			return 0, false
		}
		return seconds, true
	}
	return 0, false
}
