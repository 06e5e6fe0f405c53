package ui

import (
	"fmt"

	"rimworks/internal/filter"
	"rimworks/internal/types"
)

// "All ..." choices shown first in every filter picker.
const (
	AllRoles     = "All Roles"
	AllVehicles  = "All Vehicles"
	AllSystems   = "All Systems"
	AllMoldTypes = "All Mold Types"
	AllChemicals = "All Chemical Types"
	AllRatios    = "All Mixing Ratios"
	AllDates     = "All Dates"
)

// OperatorSortKeys are the sort choices of the operator picker.
var OperatorSortKeys = []string{"username", "name"}

// OperatorQuery builds the operator picker query: role filter, username
// search and sort by username or name.
func OperatorQuery(role, search, sortKey string) (filter.Query, error) {
	switch sortKey {
	case "", "username", "name":
	default:
		return filter.Query{}, fmt.Errorf("invalid sort %q (valid: username, name)", sortKey)
	}
	return filter.Query{
		Predicates:  map[string]string{"role": filter.Choice(role, AllRoles)},
		SearchField: "username",
		Search:      search,
		SortKey:     sortKey,
	}, nil
}

// MoldFilters are the mold browser selections. Empty fields and the "All ..."
// labels accept everything.
type MoldFilters struct {
	Vehicle  string
	System   string
	MoldType string
	Chemical string
	Ratio    string
	Date     string
	Search   string // part number substring
}

// Query converts the selections into a filter query sorted by sortKey.
func (f MoldFilters) Query(sortKey string) filter.Query {
	return filter.Query{
		Predicates: map[string]string{
			"vehicle":       filter.Choice(f.Vehicle, AllVehicles),
			"system":        filter.Choice(f.System, AllSystems),
			"mold_type":     filter.Choice(f.MoldType, AllMoldTypes),
			"chemical_type": filter.Choice(f.Chemical, AllChemicals),
			"mixing_ratio":  filter.Choice(f.Ratio, AllRatios),
			"date":          filter.Choice(f.Date, AllDates),
		},
		SearchField: "part_number",
		Search:      f.Search,
		SortKey:     sortKey,
	}
}

// Apply filters molds. An empty sortKey keeps store order.
func (f MoldFilters) Apply(molds []types.Mold, sortKey string) []types.Mold {
	return filter.Apply(molds, f.Query(sortKey))
}

// roleChoices returns the role picker labels.
func roleChoices() []string {
	out := []string{AllRoles}
	for _, r := range types.Roles {
		out = append(out, string(r))
	}
	return out
}

// withAll prefixes choices with the "All ..." label.
func withAll(all string, choices []string) []string {
	return append([]string{all}, choices...)
}
