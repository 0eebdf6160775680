// ABOUTME: Deck search filter types, validation, and the extraction capability contract
// ABOUTME: Distinguishes insufficient criteria from extraction service failures

package deck

import (
	"context"
	"fmt"
	"strings"
)

// Filter is the structured deck query derived from free text.
// All three fields must be populated before the deck API is queried.
type Filter struct {
	Region string `json:"region"`
	Set    string `json:"set"`
	Leader string `json:"leader"`
}

// Extractor derives a Filter from natural-language text.
// The extraction contract owns its own defaults (region defaults to "west"
// when the text names none); this package never fills gaps itself.
type Extractor interface {
	Extract(ctx context.Context, text string) (Filter, error)
}

// requiredFields maps each filter field to the human-readable description
// reported when it is missing.
var requiredFields = []struct {
	name        string
	description string
	get         func(Filter) string
}{
	{"region", "tournament region (East for Asia, West for North America)", func(f Filter) string { return f.Region }},
	{"set", "game format/set (e.g., OP10, OP09)", func(f Filter) string { return f.Set }},
	{"leader", "leader card ID (e.g., OP01-060)", func(f Filter) string { return f.Leader }},
}

// InsufficientCriteriaError reports which filter fields the extraction left
// unpopulated. It is a normal domain outcome, not a service failure.
type InsufficientCriteriaError struct {
	Missing []string
}

func (e *InsufficientCriteriaError) Error() string {
	return fmt.Sprintf("insufficient search criteria: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required filter field is populated.
// Missing fields are reported together in one InsufficientCriteriaError.
func Validate(f Filter) error {
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(field.get(f)) == "" {
			missing = append(missing, field.description)
		}
	}
	if len(missing) > 0 {
		return &InsufficientCriteriaError{Missing: missing}
	}
	return nil
}
