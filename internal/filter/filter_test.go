package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rimworks/internal/types"
)

func operators() []types.Operator {
	return []types.Operator{
		{Name: "Carol", Username: "carol", Role: types.RoleSupervisor},
		{Name: "alice", Username: "Alice2", Role: types.RoleOperator},
		{Name: "Bob", Username: "bob", Role: types.RoleOperator},
		{Name: "Alice", Username: "alice", Role: types.RoleTechnician},
	}
}

func usernames(ops []types.Operator) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Username
	}
	return out
}

func TestApplyAcceptAllReturnsEverythingSorted(t *testing.T) {
	in := operators()
	got := Apply(in, Query{
		Predicates:  map[string]string{"role": AcceptAll},
		SearchField: "username",
		Search:      "   ",
		SortKey:     "username",
	})
	assert.Len(t, got, len(in))
	assert.Equal(t, []string{"alice", "Alice2", "bob", "carol"}, usernames(got))
	// Input untouched.
	assert.Equal(t, "carol", in[0].Username)
}

func TestApplyRolePredicate(t *testing.T) {
	got := Apply(operators(), Query{
		Predicates: map[string]string{"role": string(types.RoleOperator)},
		SortKey:    "username",
	})
	assert.Equal(t, []string{"Alice2", "bob"}, usernames(got))
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := Apply(operators(), Query{SearchField: "username", Search: "ALI"})
	assert.Equal(t, []string{"Alice2", "alice"}, usernames(got))
}

func TestApplyStableSortOnTies(t *testing.T) {
	got := Apply(operators(), Query{SortKey: "name"})
	// "alice" and "Alice" tie case-insensitively and keep input order.
	assert.Equal(t, []string{"Alice2", "alice", "bob", "carol"}, usernames(got))
}

func TestApplyEmptySortKeepsOrder(t *testing.T) {
	got := Apply(operators(), Query{})
	assert.Equal(t, usernames(operators()), usernames(got))
}

func TestApplyMolds(t *testing.T) {
	molds := []types.Mold{
		{Vehicle: "Toyota", System: types.SystemBraking, PartNumber: "P-200", ChemicalType: "A", Timestamp: "20240102_100000"},
		{Vehicle: "Honda", System: types.SystemBraking, PartNumber: "P-100", ChemicalType: "B", Timestamp: "20240101_100000"},
		{Vehicle: "Toyota", System: types.SystemSteering, PartNumber: "X-100", ChemicalType: "A", Timestamp: "20240101_120000"},
	}
	got := Apply(molds, Query{
		Predicates:  map[string]string{"vehicle": "Toyota", "date": AcceptAll, "chemical_type": "A"},
		SearchField: "part_number",
		Search:      "100",
	})
	if assert.Len(t, got, 1) {
		assert.Equal(t, "X-100", got[0].PartNumber)
	}

	byDate := Apply(molds, Query{Predicates: map[string]string{"date": "2024-01-01"}, SortKey: "part_number"})
	assert.Len(t, byDate, 2)
	assert.Equal(t, "P-100", byDate[0].PartNumber)
}

func TestDistinct(t *testing.T) {
	molds := []types.Mold{{Vehicle: "Toyota"}, {Vehicle: "Honda"}, {Vehicle: "Toyota"}, {}}
	assert.Equal(t, []string{"Honda", "Toyota"}, Distinct(molds, "vehicle"))
	assert.Empty(t, Distinct([]types.Mold{}, "vehicle"))
}

func TestChoice(t *testing.T) {
	assert.Equal(t, AcceptAll, Choice("All Roles", "All Roles"))
	assert.Equal(t, AcceptAll, Choice("", "All Roles"))
	assert.Equal(t, "Operator", Choice("Operator", "All Roles"))
}
