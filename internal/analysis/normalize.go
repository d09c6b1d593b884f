package analysis

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFencePattern  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// response mirrors the JSON object the prompt asks for. Every key is optional
// and may hold any JSON type, so each is kept raw until rendered.
type response struct {
	Gap           json.RawMessage `json:"gap"`
	Suggestions   json.RawMessage `json:"suggestions"`
	TopicsCovered json.RawMessage `json:"topics_covered"`
	ContentType   json.RawMessage `json:"content_type"`
}

// ExtractPayload returns the body of the first ```json fenced block, else the
// first fenced block of any kind, else raw unchanged.
func ExtractPayload(raw string) string {
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := anyFencePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// Normalize parses a model reply into display strings. A payload that is not
// a JSON object yields a parse-error result carrying the payload.
func Normalize(raw string) Result {
	payload := ExtractPayload(raw)
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return parseErrorResult(payload)
	}
	var parsed response
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return parseErrorResult(payload)
	}
	return Result{
		Gap:         renderGaps(parsed.Gap),
		Suggestions: renderSuggestions(parsed.Suggestions),
		Topics:      renderTopics(parsed.TopicsCovered),
		ContentType: renderContentType(parsed.ContentType),
	}
}

func renderGaps(raw json.RawMessage) string {
	items, ok := asList(raw)
	if !ok {
		return stringify(raw)
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+stringify(item))
	}
	return strings.Join(lines, "\n")
}

func renderSuggestions(raw json.RawMessage) string {
	items, ok := asList(raw)
	if !ok {
		return stringify(raw)
	}
	var b strings.Builder
	for _, item := range items {
		var entry struct {
			Topic       json.RawMessage `json:"topic"`
			Description json.RawMessage `json:"description"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			// Not an object: keep the value on its own.
			b.WriteString(stringify(item))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString("**")
		b.WriteString(stringify(entry.Topic))
		b.WriteString("**\n")
		b.WriteString(stringify(entry.Description))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func renderTopics(raw json.RawMessage) string {
	items, ok := asList(raw)
	if !ok {
		return stringify(raw)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, stringify(item))
	}
	return strings.Join(parts, ", ")
}

func renderContentType(raw json.RawMessage) string {
	if isNull(raw) {
		return "Unknown"
	}
	return stringify(raw)
}

// asList reports whether raw is a JSON array, decoding its elements. An absent
// key counts as an empty list.
func asList(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// stringify renders a JSON value for display: strings unquoted, null empty,
// everything else as compact JSON.
func stringify(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return buf.String()
}
