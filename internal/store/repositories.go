package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rimworks/internal/types"
)

// =============================================================================
// OPERATORS
// =============================================================================

// operatorsKey is the single file that holds every operator.
const operatorsKey = "operators"

// Operators is the operator repository.
type Operators struct{ s *Store }

// Operators returns the operator repository.
func (s *Store) Operators() *Operators { return &Operators{s: s} }

// List returns every readable operator in file order. Array elements that do
// not decode or fail the schema are skipped with a warning.
func (r *Operators) List(ctx context.Context) ([]types.Operator, []types.LoadWarning, error) {
	raw, path, err := r.readArray(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil, nil
		}
		var pe *types.PersistenceError
		if errors.As(err, &pe) && pe.Op == "decode" {
			return nil, []types.LoadWarning{r.s.warn(path, pe.Err)}, nil
		}
		return nil, nil, err
	}

	var (
		ops      []types.Operator
		warnings []types.LoadWarning
	)
	for i, elem := range raw {
		where := fmt.Sprintf("%s[%d]", path, i)
		if err := r.s.schemas.check(KindOperators, elem); err != nil {
			warnings = append(warnings, r.s.warn(where, err))
			continue
		}
		var op types.Operator
		if err := json.Unmarshal(elem, &op); err != nil {
			warnings = append(warnings, r.s.warn(where, err))
			continue
		}
		ops = append(ops, op)
	}
	return ops, warnings, nil
}

// Add appends op to the operators file and rewrites it whole. Existing
// elements are kept as stored, including ones List would skip. A file
// that is not a JSON array is left untouched and an error is returned.
func (r *Operators) Add(ctx context.Context, op types.Operator) error {
	if err := op.Validate(); err != nil {
		return err
	}
	raw, path, err := r.readArray(ctx)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	elem, err := json.Marshal(op)
	if err != nil {
		return &types.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	raw = append(raw, elem)
	if err := r.s.Save(ctx, KindOperators, operatorsKey, raw); err != nil {
		return err
	}
	r.s.log.Info("operator added", zap.String("username", op.Username), zap.String("role", string(op.Role)))
	return nil
}

func (r *Operators) readArray(ctx context.Context) ([]json.RawMessage, string, error) {
	data, path, err := r.s.Read(ctx, KindOperators, operatorsKey)
	if err != nil {
		return nil, path, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, path, &types.PersistenceError{Op: "decode", Path: path, Err: fmt.Errorf("operators file is not a JSON array: %w", err)}
	}
	return raw, path, nil
}

// =============================================================================
// MOLDS
// =============================================================================

// Molds is the mold repository.
type Molds struct{ s *Store }

// Molds returns the mold repository.
func (s *Store) Molds() *Molds { return &Molds{s: s} }

// List returns every readable mold ordered by key. Each mold's Key is set to
// the file stem it was loaded from.
func (r *Molds) List(ctx context.Context) ([]types.Mold, []types.LoadWarning, error) {
	records, warnings, err := r.s.LoadAll(ctx, KindMolds)
	if err != nil {
		return nil, nil, err
	}
	molds := make([]types.Mold, 0, len(records))
	for _, rec := range records {
		var m types.Mold
		if err := json.Unmarshal(rec.Data, &m); err != nil {
			warnings = append(warnings, r.s.warn(rec.Path, err))
			continue
		}
		m.Key = rec.Key
		molds = append(molds, m)
	}
	return molds, warnings, nil
}

// Save validates m, fills in the derived name and timestamp when missing and
// writes it under <mold_name>_<timestamp>. The saved mold is returned with
// Key set. Saving twice within the same second overwrites the earlier file;
// that is logged as a warning.
func (r *Molds) Save(ctx context.Context, m types.Mold) (types.Mold, error) {
	if m.MoldName == "" {
		m.MoldName = types.MoldName(m.Vehicle, m.System)
	}
	if m.Timestamp == "" {
		m.Timestamp = r.s.timestamp()
	}
	if err := m.Validate(); err != nil {
		return types.Mold{}, err
	}
	m.Key = ""
	key := m.FileKey()
	if r.s.Exists(KindMolds, key) {
		r.s.log.Warn("overwriting mold saved in the same second", zap.String("key", key))
	}
	if err := r.s.Save(ctx, KindMolds, key, m); err != nil {
		return types.Mold{}, err
	}
	m.Key = key
	r.s.log.Info("mold saved", zap.String("key", key), zap.String("chemical_type", m.ChemicalType))
	return m, nil
}

// Delete removes the mold stored under key. Only that file is touched.
func (r *Molds) Delete(ctx context.Context, key string) error {
	return r.s.Delete(ctx, KindMolds, key)
}

// Get returns the mold stored under key.
func (r *Molds) Get(ctx context.Context, key string) (types.Mold, error) {
	data, path, err := r.s.Read(ctx, KindMolds, key)
	if err != nil {
		return types.Mold{}, err
	}
	var m types.Mold
	if err := json.Unmarshal(data, &m); err != nil {
		return types.Mold{}, &types.PersistenceError{Op: "decode", Path: path, Err: err}
	}
	m.Key = key
	return m, nil
}

// =============================================================================
// CALIBRATION
// =============================================================================

// Calibrations is the calibration snapshot repository.
type Calibrations struct{ s *Store }

// Calibrations returns the calibration repository.
func (s *Store) Calibrations() *Calibrations { return &Calibrations{s: s} }

// List returns every readable snapshot, oldest first.
func (r *Calibrations) List(ctx context.Context) ([]types.CalibrationSnapshot, []types.LoadWarning, error) {
	records, warnings, err := r.s.LoadAll(ctx, KindCalibration)
	if err != nil {
		return nil, nil, err
	}
	snaps := make([]types.CalibrationSnapshot, 0, len(records))
	for _, rec := range records {
		var c types.CalibrationSnapshot
		if err := json.Unmarshal(rec.Data, &c); err != nil {
			warnings = append(warnings, r.s.warn(rec.Path, err))
			continue
		}
		c.Key = rec.Key
		snaps = append(snaps, c)
	}
	return snaps, warnings, nil
}

// Save validates c and writes it as calibration_<timestamp>.
func (r *Calibrations) Save(ctx context.Context, c types.CalibrationSnapshot) (types.CalibrationSnapshot, error) {
	if err := c.Validate(); err != nil {
		return types.CalibrationSnapshot{}, err
	}
	c.Key = "calibration_" + r.s.timestamp()
	if err := r.s.Save(ctx, KindCalibration, c.Key, c); err != nil {
		return types.CalibrationSnapshot{}, err
	}
	r.s.log.Info("calibration saved", zap.String("key", c.Key))
	return c, nil
}

// =============================================================================
// JOBS
// =============================================================================

// Jobs is the job repository.
type Jobs struct{ s *Store }

// Jobs returns the job repository.
func (s *Store) Jobs() *Jobs { return &Jobs{s: s} }

// Dir returns the jobs directory, for watchers.
func (r *Jobs) Dir() string { return r.s.Dir(KindJobs) }

// List returns every readable job in file name order.
func (r *Jobs) List(ctx context.Context) ([]types.Job, []types.LoadWarning, error) {
	records, warnings, err := r.s.LoadAll(ctx, KindJobs)
	if err != nil {
		return nil, nil, err
	}
	jobs := make([]types.Job, 0, len(records))
	for _, rec := range records {
		var j types.Job
		if err := json.Unmarshal(rec.Data, &j); err != nil {
			warnings = append(warnings, r.s.warn(rec.Path, err))
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, warnings, nil
}

// Get returns the job with the given id.
func (r *Jobs) Get(ctx context.Context, id string) (types.Job, error) {
	data, path, err := r.s.Read(ctx, KindJobs, id)
	if err != nil {
		return types.Job{}, err
	}
	var j types.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return types.Job{}, &types.PersistenceError{Op: "decode", Path: path, Err: err}
	}
	return j, nil
}

// Save validates j, including its status, and writes it under its job id.
// Saving an existing id overwrites it.
func (r *Jobs) Save(ctx context.Context, j types.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if err := r.s.Save(ctx, KindJobs, j.JobID, j); err != nil {
		return err
	}
	r.s.log.Info("job saved",
		zap.String("job_id", j.JobID),
		zap.String("operator", j.Operator.Username))
	return nil
}
