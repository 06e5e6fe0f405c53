package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimworks/internal/types"
)

var fixedNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func testMold() types.Mold {
	return types.Mold{
		Vehicle:      "Toyota|Corolla",
		System:       types.SystemSuspension,
		MoldType:     types.MoldTypeSoftSilicon,
		MoldNumber:   "M-7",
		LifeSpan:     500,
		PartNumber:   "P-100",
		CreationType: types.CreationNewPart,
		MixingRatio:  "C",
		ChemicalType: "A",
	}
}

func testJob(id string, m types.Mold) types.Job {
	start := types.NewDateTime(fixedNow)
	return types.Job{
		JobID:         id,
		Operator:      &types.JobOperator{Username: "alice", Name: "Alice", EPFNumber: "E1", Role: types.RoleOperator},
		Mold:          &m,
		PartCount:     50,
		StartDatetime: start,
		EndDatetime:   types.NewDateTime(fixedNow.Add(9 * time.Hour)),
		Status:        types.StatusNotStarted,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSanitizeKey(t *testing.T) {
	for _, key := range []string{"", "  ", "../x", "a/b", `a\b`, "/abs", ".tmp-123"} {
		_, err := sanitizeKey(key)
		assert.Error(t, err, "key %q", key)
	}
	k, err := sanitizeKey("Toyota|Corolla_Suspension_20240101_080000")
	require.NoError(t, err)
	assert.Equal(t, "Toyota|Corolla_Suspension_20240101_080000", k)
}

func TestLoadAllMissingDirectory(t *testing.T) {
	s := newTestStore(t)
	records, warnings, err := s.LoadAll(context.Background(), KindJobs)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, warnings)
}

func TestJobsGoodAndCorrupt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Jobs().Save(ctx, testJob("JOB-AAAAAA", testMold())))
	writeFile(t, filepath.Join(s.Dir(KindJobs), "JOB-BROKEN.json"), `{"job_id": "JOB-BROKEN", "part_count": `)
	writeFile(t, filepath.Join(s.Dir(KindJobs), "notes.txt"), "ignored")
	writeFile(t, filepath.Join(s.Dir(KindJobs), ".tmp-123.json"), "{}")

	jobs, warnings, err := s.Jobs().List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, "JOB-AAAAAA", jobs[0].JobID)
	assert.True(t, strings.HasSuffix(warnings[0].Path, "JOB-BROKEN.json"))
}

func TestJobsSchemaMismatchIsWarning(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, filepath.Join(s.Dir(KindJobs), "JOB-X.json"), `{"job_id": "JOB-X", "part_count": "fifty"}`)
	writeFile(t, filepath.Join(s.Dir(KindJobs), "JOB-Y.json"), `{"job_id": "JOB-Y", "status": "Paused"}`)

	jobs, warnings, err := s.Jobs().List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "JOB-Y", jobs[0].JobID)
	assert.Equal(t, types.JobStatus("Paused"), jobs[0].Status)
	assert.Nil(t, jobs[0].Mold)
	assert.Len(t, warnings, 1)
}

func TestJobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m, err := s.Molds().Save(ctx, testMold())
	require.NoError(t, err)

	job := testJob("JOB-ABC123", m)
	require.NoError(t, s.Jobs().Save(ctx, job))

	got, err := s.Jobs().Get(ctx, "JOB-ABC123")
	require.NoError(t, err)
	// Key is not serialized.
	job.Mold.Key = ""
	if diff := cmp.Diff(job, got, cmp.Comparer(func(a, b types.DateTime) bool { return a.Equal(b.Time) })); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Jobs().Get(ctx, "JOB-NONE")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestJobSaveRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	job := testJob("JOB-ABC123", testMold())
	job.Status = "Paused"
	err := s.Jobs().Save(context.Background(), job)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.False(t, s.Exists(KindJobs, "JOB-ABC123"))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Jobs().Save(ctx, testJob("JOB-1", testMold())))
	require.NoError(t, s.Jobs().Save(ctx, testJob("JOB-1", testMold())))

	entries, err := os.ReadDir(s.Dir(KindJobs))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "JOB-1.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(s.Dir(KindJobs), "JOB-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"job_id\": \"JOB-1\"")
}

func TestMoldSaveAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.Molds().Save(ctx, testMold())
	require.NoError(t, err)
	assert.Equal(t, "Toyota|Corolla_Suspension", saved.MoldName)
	assert.Equal(t, "20240101_080000", saved.Timestamp)
	assert.Equal(t, "Toyota|Corolla_Suspension_20240101_080000", saved.Key)

	other := testMold()
	other.Vehicle = "Honda"
	other.Timestamp = "20240102_090000"
	_, err = s.Molds().Save(ctx, other)
	require.NoError(t, err)

	molds, warnings, err := s.Molds().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, molds, 2)

	require.NoError(t, s.Molds().Delete(ctx, saved.Key))
	molds, _, err = s.Molds().List(ctx)
	require.NoError(t, err)
	require.Len(t, molds, 1)
	assert.Equal(t, "Honda", molds[0].Vehicle)

	err = s.Molds().Delete(ctx, saved.Key)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, err, types.ErrPersistence)
}

func TestMoldSaveValidation(t *testing.T) {
	s := newTestStore(t)
	m := testMold()
	m.LifeSpan = 0
	_, err := s.Molds().Save(context.Background(), m)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, statErr := os.Stat(s.Dir(KindMolds))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	m = testMold()
	m.Vehicle = "Toyota/Corolla"
	_, err = s.Molds().Save(context.Background(), m)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.NotErrorIs(t, err, types.ErrPersistence)
}

func TestCalibrationSaveRejectsNaN(t *testing.T) {
	s := newTestStore(t)
	snap := types.CalibrationSnapshot{Ratios: make(map[string]types.RatioBounds)}
	for _, r := range types.MixingRatios {
		snap.Ratios[r] = types.RatioBounds{Min: 1, Max: 2}
	}
	snap.Ratios["C"] = types.RatioBounds{Min: math.NaN(), Max: math.NaN()}
	_, err := s.Calibrations().Save(context.Background(), snap)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.NotErrorIs(t, err, types.ErrPersistence)
}

func TestOperatorsAppendPreservesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	path := filepath.Join(s.Dir(KindOperators), "operators.json")
	writeFile(t, path, `[{"name": "Old", "username": "old", "password": "x", "epf_number": "E0", "role": "Operator"}, {"username": 5}]`)

	alice := types.Operator{Name: "Alice", Username: "alice", Password: "pw", EPFNumber: "E1", Role: types.RoleSupervisor}
	require.NoError(t, s.Operators().Add(ctx, alice))

	ops, warnings, err := s.Operators().List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "old", ops[0].Username)
	assert.Equal(t, alice, ops[1])
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Path, "[1]")
}

func TestOperatorsRefusesNonArrayFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	path := filepath.Join(s.Dir(KindOperators), "operators.json")
	writeFile(t, path, `{"not": "an array"}`)

	ops, warnings, err := s.Operators().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ops)
	assert.Len(t, warnings, 1)

	err = s.Operators().Add(ctx, types.Operator{Name: "A", Username: "a", Password: "p", EPFNumber: "1", Role: types.RoleOperator})
	assert.ErrorIs(t, err, types.ErrPersistence)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, `{"not": "an array"}`, string(data))
}

func TestCalibrationSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing := types.CalibrationSnapshot{Ratios: map[string]types.RatioBounds{"A": {Min: 1, Max: 2}}}
	_, err := s.Calibrations().Save(ctx, missing)
	assert.ErrorIs(t, err, types.ErrValidation)

	full := types.CalibrationSnapshot{Ratios: map[string]types.RatioBounds{}}
	for _, r := range types.MixingRatios {
		full.Ratios[r] = types.RatioBounds{Min: 1, Max: 2}
	}
	saved, err := s.Calibrations().Save(ctx, full)
	require.NoError(t, err)
	assert.Equal(t, "calibration_20240101_080000", saved.Key)

	snaps, warnings, err := s.Calibrations().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, snaps, 1)
	assert.Equal(t, full.Ratios, snaps[0].Ratios)
}

func TestLoadAllHonorsContext(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Jobs().Save(context.Background(), testJob("JOB-1", testMold())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.LoadAll(ctx, KindJobs)
	assert.ErrorIs(t, err, context.Canceled)
}
