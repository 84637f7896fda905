// Package filter defines the typed transaction filter model and its
// lossless translation to and from URL query parameters. Every filtered
// view derives its state from a Model; the URL query string is the only
// persisted form.
package filter

import (
	"reflect"

	"txdash/internal/transaction/domain"
)

// Model is the typed filter state. Absent fields mean "no filter".
// MinAmount/MaxAmount are pointers so an explicit 0 is distinguishable
// from absent. Invariant: Status never holds the full status set; that
// combination filters nothing and is normalized to absent.
type Model struct {
	Search    string          `json:"search,omitempty"`
	Status    []domain.Status `json:"status,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	MinAmount *float64        `json:"minAmount,omitempty"`
	MaxAmount *float64        `json:"maxAmount,omitempty"`
}

// HasActiveFilters reports whether any filter field is set. An empty
// status slice does not count; an explicit zero amount does.
func HasActiveFilters(m Model) bool {
	return m.Search != "" ||
		len(m.Status) > 0 ||
		m.From != "" ||
		m.To != "" ||
		m.MinAmount != nil ||
		m.MaxAmount != nil
}

// Equal reports deep equality of two models after normalization, so a
// model decoded from JSON (empty-but-non-nil status) compares equal to
// one parsed from a URL (nil status). Preset dirty-detection depends on
// this being an exact structural comparison.
func Equal(a, b Model) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize collapses the two representations that mean "no status
// filter" (nil slice, empty slice, full set) into nil.
func normalize(m Model) Model {
	if len(m.Status) == 0 || hasAllStatuses(m.Status) {
		m.Status = nil
	}
	return m
}

func hasAllStatuses(statuses []domain.Status) bool {
	for _, want := range domain.AllStatuses {
		found := false
		for _, s := range statuses {
			if s == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
