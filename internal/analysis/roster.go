package analysis

import (
	"errors"
	"strings"
)

// ErrEmptyRoster is returned when no usable model identifiers are supplied.
var ErrEmptyRoster = errors.New("analysis: model roster is empty")

// Roster is an ordered list of model identifiers with a cursor that wraps.
// It belongs to one Analyzer and is not safe for concurrent use.
type Roster struct {
	models []string
	cursor int
}

// NewRoster builds a roster from models, dropping blank entries.
func NewRoster(models []string) (*Roster, error) {
	cleaned := make([]string, 0, len(models))
	for _, model := range models {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyRoster
	}
	return &Roster{models: cleaned}, nil
}

// Current returns the model at the cursor.
func (r *Roster) Current() string {
	return r.models[r.cursor]
}

// Rotate advances the cursor. wrapped is true when the cursor returned to the
// first model, meaning every model has been tried since the last wrap.
func (r *Roster) Rotate() (index int, wrapped bool) {
	r.cursor = (r.cursor + 1) % len(r.models)
	return r.cursor, r.cursor == 0
}

// Models returns a copy of the roster in order.
func (r *Roster) Models() []string {
	out := make([]string, len(r.models))
	copy(out, r.models)
	return out
}

// Len reports the number of models.
func (r *Roster) Len() int {
	return len(r.models)
}
