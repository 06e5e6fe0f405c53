package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimworks/internal/dashboard"
	"rimworks/internal/types"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("RIMWORKS_DARK_MODE", "1")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme when RIMWORKS_DARK_MODE=1")
	}

	t.Setenv("RIMWORKS_DARK_MODE", "")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme when RIMWORKS_DARK_MODE is unset")
	}

	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark, "black background")

	// The explicit switch wins over the terminal hint
	t.Setenv("RIMWORKS_DARK_MODE", "false")
	assert.False(t, DetectTheme().IsDark)
}

func TestThemeFor(t *testing.T) {
	t.Setenv("RIMWORKS_DARK_MODE", "1")
	assert.True(t, ThemeFor("dark").IsDark)
	assert.False(t, ThemeFor("light").IsDark)
	assert.True(t, ThemeFor("auto").IsDark)
}

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Test Table", []string{"Col1", "Col2"})
	table.AddRow("Row1Col1", "Row1Col2")
	table.AddRow("short")

	view := table.View(StylesFor("light"))
	t.Logf("View:\n%q", view)

	assert.Contains(t, view, "Test Table")
	assert.Contains(t, view, "Row1Col1")
	assert.Contains(t, view, "short")

	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	// Rows are padded to the header width
	assert.Equal(t, lipgloss.Width(lines[len(lines)-2]), lipgloss.Width(lines[len(lines)-1]))
}

func TestSimpleTableEmpty(t *testing.T) {
	assert.Empty(t, NewSimpleTable("t", []string{"a"}).View(StylesFor("light")))
}

func TestSimpleTableCellStyle(t *testing.T) {
	table := NewSimpleTable("", []string{"a", "b"})
	table.AddRow("x", "y")
	called := 0
	table.CellStyle = func(row, col int) (lipgloss.Style, bool) {
		called++
		return lipgloss.NewStyle(), col == 1
	}
	assert.Contains(t, table.View(StylesFor("light")), "y")
	assert.Equal(t, 2, called)
}

func TestStatusStyle(t *testing.T) {
	s := StylesFor("light")
	assert.Equal(t, lipgloss.Color(dashboard.ColorCompleted), s.Status(types.StatusCompleted).GetForeground())
	assert.Equal(t, lipgloss.Color(dashboard.ColorNotStarted), s.Status(types.StatusNotStarted).GetForeground())
	assert.Equal(t, s.Body.GetForeground(), s.Status("Paused").GetForeground())
}

func TestRenderDashboard(t *testing.T) {
	s := StylesFor("light")
	assert.Contains(t, RenderDashboard(s, dashboard.Dashboard{}), "No jobs yet.")

	jobs := []types.Job{
		{JobID: "JOB-2", Mold: &types.Mold{MoldName: "Axio_Braking", ChemicalType: "B"}, Status: types.StatusCompleted},
		{JobID: "JOB-1", Mold: &types.Mold{MoldName: "Vitz_Other", ChemicalType: "A"}, Status: types.StatusInProgress},
		{JobID: "JOB-3", Status: "Paused"},
	}
	out := RenderDashboard(s, dashboard.Dashboard{Groups: dashboard.GroupByChemical(jobs)})

	a := strings.Index(out, "Chemical Type: A")
	b := strings.Index(out, "Chemical Type: B")
	u := strings.Index(out, "Chemical Type: Unknown")
	require.True(t, a >= 0 && b >= 0 && u >= 0, out)
	assert.Less(t, a, b)
	assert.Less(t, b, u)
	assert.Contains(t, out, "Total: 3")
	assert.Contains(t, out, "Paused: 1")
	assert.Contains(t, out, "N/A")
}

func TestJobCells(t *testing.T) {
	cells := JobCells(types.Job{JobID: "JOB-1"})
	require.Len(t, cells, len(JobHeaders))
	assert.Equal(t, []string{"JOB-1", "N/A", "N/A", "0", "Not Started", "N/A", "N/A"}, cells)

	cells = JobCells(types.Job{JobID: "JOB-2", Status: "Paused"})
	assert.Equal(t, "Paused", cells[jobStatusCol])
}

func TestRenderDashboardMissingStatusIsNotStarted(t *testing.T) {
	s := StylesFor("light")
	jobs := []types.Job{{JobID: "JOB-1", Mold: &types.Mold{ChemicalType: "A"}}}
	out := RenderDashboard(s, dashboard.Dashboard{Groups: dashboard.GroupByChemical(jobs)})
	assert.Contains(t, out, "Not Started: 1")
	assert.NotContains(t, out, "N/A: 1")
}
