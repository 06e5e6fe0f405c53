package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rimworks/internal/dashboard"
	"rimworks/internal/types"
)

// JobHeaders are the job table columns.
var JobHeaders = []string{"Job ID", "Operator", "Mold", "Parts", "Status", "Start", "End"}

// jobStatusCol is the index of Status in JobHeaders.
const jobStatusCol = 4

// JobCells renders one job as JobHeaders cells. Missing operator or mold
// shows as N/A.
func JobCells(j types.Job) []string {
	operator, mold := "N/A", "N/A"
	if j.Operator != nil {
		operator = j.Operator.Username
	}
	if j.Mold != nil {
		mold = j.Mold.MoldName
	}
	return []string{
		j.JobID,
		operator,
		mold,
		strconv.Itoa(j.PartCount),
		string(j.DisplayStatus()),
		j.StartDatetime.Display(),
		j.EndDatetime.Display(),
	}
}

// RenderDashboard renders one table per chemical type with status-colored
// cells, followed by a status summary.
func RenderDashboard(styles Styles, d dashboard.Dashboard) string {
	if len(d.Groups) == 0 {
		return styles.Muted.Render("No jobs yet.") + "\n"
	}

	var sb strings.Builder
	for _, g := range d.Groups {
		t := NewSimpleTable("Chemical Type: "+g.ChemicalType, JobHeaders)
		for _, j := range g.Jobs {
			t.AddRow(JobCells(j)...)
		}
		jobs := g.Jobs
		t.CellStyle = func(row, col int) (lipgloss.Style, bool) {
			if col != jobStatusCol {
				return lipgloss.Style{}, false
			}
			return styles.Status(jobs[row].DisplayStatus()), true
		}
		sb.WriteString(t.View(styles))
	}
	sb.WriteString(renderSummary(styles, d))
	sb.WriteString("\n")
	return sb.String()
}

func renderSummary(styles Styles, d dashboard.Dashboard) string {
	counts := d.CountByStatus()
	parts := make([]string, 0, len(types.JobStatuses)+1)
	for _, s := range types.JobStatuses {
		parts = append(parts, styles.Status(s).Render(fmt.Sprintf("%s: %d", s, counts[s])))
		delete(counts, s)
	}
	// Statuses written by hand that are not in the enum
	var other []string
	for s, n := range counts {
		label := string(s)
		if label == "" {
			label = "N/A"
		}
		other = append(other, fmt.Sprintf("%s: %d", label, n))
	}
	sort.Strings(other)
	parts = append(parts, other...)
	return styles.Bold.Render(fmt.Sprintf("Total: %d", d.Total())) + "  " + strings.Join(parts, "  ")
}
