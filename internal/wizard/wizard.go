// Package wizard builds one job across the two job-creation screens.
//
// The wizard only moves forward: Empty, OperatorAssigned,
// MoldAndScheduleAssigned, Persisted. Nothing touches disk until Persist, so
// abandoning a wizard needs no cleanup. Navigating back to the operator screen
// keeps whatever was already accumulated.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rimworks/internal/logging"
	"rimworks/internal/types"
)

// State is the wizard step.
type State int

const (
	Empty State = iota
	OperatorAssigned
	MoldAndScheduleAssigned
	Persisted
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case OperatorAssigned:
		return "OperatorAssigned"
	case MoldAndScheduleAssigned:
		return "MoldAndScheduleAssigned"
	case Persisted:
		return "Persisted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// JobSaver writes a finished job. *store.Jobs implements it.
type JobSaver interface {
	Save(ctx context.Context, job types.Job) error
}

// NewJobID returns "JOB-" followed by six upper-case hex characters taken
// from a random UUID.
func NewJobID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "JOB-" + strings.ToUpper(hex[:6])
}

// Wizard accumulates one job. It is not safe for concurrent use; the screen
// that owns it drives it from the UI goroutine.
type Wizard struct {
	jobs  JobSaver
	newID func() string
	log   *zap.Logger

	state State
	job   types.Job
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithIDGenerator overrides job id generation.
func WithIDGenerator(gen func() string) Option {
	return func(w *Wizard) { w.newID = gen }
}

// WithLogger overrides the wizard logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) { w.log = l }
}

// New starts an empty wizard with a fresh job id.
func New(jobs JobSaver, opts ...Option) *Wizard {
	w := &Wizard{
		jobs:  jobs,
		newID: NewJobID,
		log:   logging.Get(logging.CategoryWizard),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.job.JobID = w.newID()
	w.log.Debug("wizard started", zap.String("job_id", w.job.JobID))
	return w
}

// State returns the current step.
func (w *Wizard) State() State { return w.state }

// Job returns a copy of the job accumulated so far.
func (w *Wizard) Job() types.Job { return w.job.Clone() }

func (w *Wizard) stateErr(op string) error {
	return &types.StateError{Op: op, From: w.state.String()}
}

// AssignOperator attaches the operator picked on the first screen. A nil
// operator means nothing was selected. Re-assigning before the job is
// persisted replaces the earlier choice and keeps any mold and schedule.
func (w *Wizard) AssignOperator(op *types.Operator) error {
	if w.state == Persisted {
		return w.stateErr("AssignOperator")
	}
	if op == nil {
		return types.NewValidationError("operator", nil, "must be selected")
	}
	a := op.Assignment()
	w.job.Operator = &a
	if w.state == Empty {
		w.state = OperatorAssigned
	}
	w.log.Debug("operator assigned", zap.String("job_id", w.job.JobID), zap.String("username", a.Username))
	return nil
}

// AdvanceToMoldSelection confirms the first screen is complete.
func (w *Wizard) AdvanceToMoldSelection() error {
	if w.state < OperatorAssigned || w.state == Persisted {
		return w.stateErr("AdvanceToMoldSelection")
	}
	return nil
}

// SelectMoldAndSchedule attaches the mold and schedule from the second
// screen and marks the job Not Started.
func (w *Wizard) SelectMoldAndSchedule(mold *types.Mold, partCount int, start, end time.Time) error {
	if w.state < OperatorAssigned || w.state == Persisted {
		return w.stateErr("SelectMoldAndSchedule")
	}
	var errs types.ValidationErrors
	if mold == nil {
		errs.Add("mold", nil, "must be selected")
	}
	if err := types.ValidateSchedule(partCount, types.NewDateTime(start), types.NewDateTime(end)); err != nil {
		errs = append(errs, err.(types.ValidationErrors)...)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	m := *mold
	m.Key = ""
	w.job.Mold = &m
	w.job.PartCount = partCount
	w.job.StartDatetime = types.NewDateTime(start)
	w.job.EndDatetime = types.NewDateTime(end)
	w.job.Status = types.StatusNotStarted
	if w.job.JobID == "" {
		w.job.JobID = w.newID()
	}
	w.state = MoldAndScheduleAssigned
	w.log.Debug("mold and schedule selected",
		zap.String("job_id", w.job.JobID),
		zap.String("mold", m.MoldName),
		zap.Int("part_count", partCount))
	return nil
}

// Persist writes the job. On failure the wizard stays where it was so the
// caller can retry; retrying after success overwrites the same file.
func (w *Wizard) Persist(ctx context.Context) error {
	if w.state != MoldAndScheduleAssigned && w.state != Persisted {
		return w.stateErr("Persist")
	}
	if err := w.jobs.Save(ctx, w.job.Clone()); err != nil {
		w.log.Warn("persist failed", zap.String("job_id", w.job.JobID), zap.Error(err))
		return fmt.Errorf("persist job %s: %w", w.job.JobID, err)
	}
	w.state = Persisted
	logging.Audit(logging.AuditEvent{EventType: logging.AuditJobCreated, Kind: "jobs", Target: w.job.JobID, Success: true})
	w.log.Info("job persisted",
		zap.String("job_id", w.job.JobID),
		zap.String("operator", w.job.Operator.Username),
		zap.String("chemical_type", w.job.ChemicalType()))
	return nil
}
