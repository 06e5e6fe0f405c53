// Package dashboard groups jobs by mold chemical type for the job status
// screens, exports the grouping as a spreadsheet and watches the jobs
// directory for changes.
package dashboard

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"rimworks/internal/logging"
	"rimworks/internal/types"
)

// Status colors used by the job status table and the spreadsheet export.
const (
	ColorNotStarted = "#ff4d4d"
	ColorInProgress = "#ffd633"
	ColorCompleted  = "#4dff4d"
	ColorNeutral    = "#ffffff"
)

// StatusColor maps a job status to its display color. Statuses read from disk
// are not validated, so anything unknown gets the neutral color.
func StatusColor(status types.JobStatus) string {
	switch status {
	case types.StatusNotStarted:
		return ColorNotStarted
	case types.StatusInProgress:
		return ColorInProgress
	case types.StatusCompleted:
		return ColorCompleted
	}
	return ColorNeutral
}

// JobLister loads every job. *store.Jobs implements it.
type JobLister interface {
	List(ctx context.Context) ([]types.Job, []types.LoadWarning, error)
}

// Group is the jobs sharing one chemical type.
type Group struct {
	ChemicalType string
	Jobs         []types.Job
}

// Dashboard is one aggregation pass.
type Dashboard struct {
	Groups   []Group
	Warnings []types.LoadWarning
}

// Total returns the number of jobs across all groups.
func (d Dashboard) Total() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Jobs)
	}
	return n
}

// CountByStatus tallies jobs per status.
func (d Dashboard) CountByStatus() map[types.JobStatus]int {
	counts := make(map[types.JobStatus]int)
	for _, g := range d.Groups {
		for _, j := range g.Jobs {
			counts[j.DisplayStatus()]++
		}
	}
	return counts
}

// Aggregator builds dashboards from the job repository.
type Aggregator struct {
	jobs JobLister
	log  *zap.Logger
}

// NewAggregator returns an aggregator over jobs.
func NewAggregator(jobs JobLister) *Aggregator {
	return &Aggregator{jobs: jobs, log: logging.Get(logging.CategoryDashboard)}
}

// Load reads every job and groups it. Unreadable job files are skipped and
// returned as warnings.
func (a *Aggregator) Load(ctx context.Context) (Dashboard, error) {
	return a.load(ctx, func(types.Job) bool { return true })
}

// ForOperator is Load restricted to the jobs assigned to username.
func (a *Aggregator) ForOperator(ctx context.Context, username string) (Dashboard, error) {
	return a.load(ctx, func(j types.Job) bool {
		return j.Operator != nil && j.Operator.Username == username
	})
}

func (a *Aggregator) load(ctx context.Context, keep func(types.Job) bool) (Dashboard, error) {
	jobs, warnings, err := a.jobs.List(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	kept := jobs[:0:0]
	for _, j := range jobs {
		if keep(j) {
			kept = append(kept, j)
		}
	}
	d := Dashboard{Groups: GroupByChemical(kept), Warnings: warnings}
	a.log.Debug("dashboard loaded",
		zap.Int("jobs", d.Total()),
		zap.Int("groups", len(d.Groups)),
		zap.Int("warnings", len(warnings)))
	return d, nil
}

// GroupByChemical partitions jobs by mold chemical type. Groups are sorted by
// chemical type and jobs inside a group by job id. Jobs without a mold or a
// chemical type go under types.UnknownChemical.
func GroupByChemical(jobs []types.Job) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, j := range jobs {
		chem := j.ChemicalType()
		i, ok := index[chem]
		if !ok {
			i = len(groups)
			index[chem] = i
			groups = append(groups, Group{ChemicalType: chem})
		}
		groups[i].Jobs = append(groups[i].Jobs, j)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ChemicalType < groups[j].ChemicalType })
	for _, g := range groups {
		sort.SliceStable(g.Jobs, func(i, j int) bool { return g.Jobs[i].JobID < g.Jobs[j].JobID })
	}
	return groups
}
