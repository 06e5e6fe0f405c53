// Package filter narrows and orders record lists for the browse screens.
//
// Every call recomputes the result from the full input; nothing is cached and
// the input slice is never modified.
package filter

import (
	"sort"
	"strings"
)

// AcceptAll is the predicate value that matches every record. The UI maps its
// "All ..." choices to it.
const AcceptAll = "*"

// Fielder exposes record fields by name as text.
type Fielder interface {
	Field(name string) string
}

// Query describes one filter/search/sort pass.
type Query struct {
	// Predicates maps a field name to the exact value it must equal, or to
	// AcceptAll. An empty value also accepts everything.
	Predicates map[string]string
	// SearchField is matched against Search as a case-insensitive substring.
	SearchField string
	Search      string
	// SortKey orders the result ascending, case-insensitively. Empty keeps
	// input order.
	SortKey string
}

// Matches reports whether rec passes every predicate and the search.
func (q Query) Matches(rec Fielder) bool {
	for field, want := range q.Predicates {
		if want == "" || want == AcceptAll {
			continue
		}
		if rec.Field(field) != want {
			return false
		}
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	if needle != "" && q.SearchField != "" {
		if !strings.Contains(strings.ToLower(rec.Field(q.SearchField)), needle) {
			return false
		}
	}
	return true
}

// Apply returns the records that match q, sorted by q.SortKey. The sort is
// stable, so records with equal keys keep their input order.
func Apply[T Fielder](records []T, q Query) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	if q.SortKey == "" {
		return out
	}
	keys := make([]string, len(out))
	idx := make([]int, len(out))
	for i := range out {
		idx[i] = i
		keys[i] = strings.ToLower(out[i].Field(q.SortKey))
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})
	sorted := make([]T, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Distinct returns the sorted distinct non-empty values of field, for
// populating filter choices.
func Distinct[T Fielder](records []T, field string) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, rec := range records {
		v := rec.Field(field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Choice converts a picker label to a predicate value. The label allLabel
// (for example "All Roles") becomes AcceptAll.
func Choice(label, allLabel string) string {
	if label == "" || label == allLabel {
		return AcceptAll
	}
	return label
}
