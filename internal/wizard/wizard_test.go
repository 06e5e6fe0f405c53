package wizard

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rimworks/internal/store"
	"rimworks/internal/types"
)

type fakeSaver struct {
	saved []types.Job
	err   error
}

func (f *fakeSaver) Save(_ context.Context, job types.Job) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, job)
	return nil
}

var (
	alice = &types.Operator{Name: "Alice", Username: "alice", Password: "pw", EPFNumber: "E1", Role: types.RoleOperator}
	mold  = &types.Mold{
		Vehicle: "Toyota|Corolla", System: types.SystemSuspension, MoldName: "Toyota|Corolla_Suspension",
		MoldType: types.MoldTypeSoftSilicon, MoldNumber: "M-1", LifeSpan: 100, PartNumber: "P-1",
		MixingRatio: "C", ChemicalType: "A", Timestamp: "20240101_080000", Key: "Toyota|Corolla_Suspension_20240101_080000",
	}
	start = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
)

func fixedID() string { return "JOB-ABC123" }

func TestNewJobIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^JOB-[0-9A-F]{6}$`)
	for i := 0; i < 20; i++ {
		id := NewJobID()
		if !re.MatchString(id) {
			t.Fatalf("unexpected job id %q", id)
		}
	}
}

func TestHappyPath(t *testing.T) {
	saver := &fakeSaver{}
	w := New(saver, WithIDGenerator(fixedID))
	assert.Equal(t, Empty, w.State())
	assert.Equal(t, "JOB-ABC123", w.Job().JobID)

	require.NoError(t, w.AssignOperator(alice))
	assert.Equal(t, OperatorAssigned, w.State())
	require.NoError(t, w.AdvanceToMoldSelection())

	require.NoError(t, w.SelectMoldAndSchedule(mold, 50, start, end))
	assert.Equal(t, MoldAndScheduleAssigned, w.State())

	job := w.Job()
	assert.Equal(t, types.StatusNotStarted, job.Status)
	assert.Equal(t, "alice", job.Operator.Username)
	assert.Equal(t, "", job.Mold.Key)

	require.NoError(t, w.Persist(context.Background()))
	assert.Equal(t, Persisted, w.State())
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "JOB-ABC123", saver.saved[0].JobID)

	// Retry overwrites the same id.
	require.NoError(t, w.Persist(context.Background()))
	require.Len(t, saver.saved, 2)
	assert.Equal(t, saver.saved[0].JobID, saver.saved[1].JobID)
}

func TestAssignOperatorNil(t *testing.T) {
	w := New(&fakeSaver{}, WithIDGenerator(fixedID))
	err := w.AssignOperator(nil)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, Empty, w.State())
}

func TestOutOfOrderOperations(t *testing.T) {
	w := New(&fakeSaver{}, WithIDGenerator(fixedID))

	var se *types.StateError
	require.True(t, errors.As(w.AdvanceToMoldSelection(), &se))
	assert.Equal(t, "Empty", se.From)
	assert.ErrorIs(t, w.SelectMoldAndSchedule(mold, 1, start, end), types.ErrState)
	assert.ErrorIs(t, w.Persist(context.Background()), types.ErrState)

	require.NoError(t, w.AssignOperator(alice))
	assert.ErrorIs(t, w.Persist(context.Background()), types.ErrState)
}

func TestScheduleValidation(t *testing.T) {
	tests := []struct {
		name      string
		mold      *types.Mold
		parts     int
		start     time.Time
		end       time.Time
		wantField string
	}{
		{"end equals start", mold, 1, start, start, "end_datetime"},
		{"end before start", mold, 1, start, start.Add(-time.Minute), "end_datetime"},
		{"zero parts", mold, 0, start, end, "part_count"},
		{"too many parts", mold, types.MaxPartCount + 1, start, end, "part_count"},
		{"no mold", nil, 1, start, end, "mold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(&fakeSaver{}, WithIDGenerator(fixedID))
			require.NoError(t, w.AssignOperator(alice))
			err := w.SelectMoldAndSchedule(tt.mold, tt.parts, tt.start, tt.end)
			var verrs types.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Fields(), tt.wantField)
			assert.Equal(t, OperatorAssigned, w.State())
		})
	}

	w := New(&fakeSaver{}, WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	assert.NoError(t, w.SelectMoldAndSchedule(mold, 1, start, start.Add(time.Second)))
}

func TestPersistFailureKeepsState(t *testing.T) {
	saver := &fakeSaver{err: &types.PersistenceError{Op: "write", Path: "x", Err: errors.New("disk full")}}
	w := New(saver, WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	require.NoError(t, w.SelectMoldAndSchedule(mold, 5, start, end))

	err := w.Persist(context.Background())
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.Equal(t, MoldAndScheduleAssigned, w.State())

	saver.err = nil
	require.NoError(t, w.Persist(context.Background()))
	assert.Equal(t, Persisted, w.State())
}

func TestGoingBackKeepsFields(t *testing.T) {
	w := New(&fakeSaver{}, WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	require.NoError(t, w.SelectMoldAndSchedule(mold, 5, start, end))

	bob := &types.Operator{Name: "Bob", Username: "bob", Role: types.RoleTechnician}
	require.NoError(t, w.AssignOperator(bob))
	job := w.Job()
	assert.Equal(t, "bob", job.Operator.Username)
	assert.Equal(t, 5, job.PartCount)
	assert.Equal(t, MoldAndScheduleAssigned, w.State())
}

func TestJobReturnsCopy(t *testing.T) {
	w := New(&fakeSaver{}, WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	j := w.Job()
	j.Operator.Username = "mallory"
	assert.Equal(t, "alice", w.Job().Operator.Username)
}

func TestPersistedWizardIsClosed(t *testing.T) {
	w := New(&fakeSaver{}, WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	require.NoError(t, w.SelectMoldAndSchedule(mold, 5, start, end))
	require.NoError(t, w.Persist(context.Background()))

	assert.ErrorIs(t, w.AssignOperator(alice), types.ErrState)
	assert.ErrorIs(t, w.SelectMoldAndSchedule(mold, 5, start, end), types.ErrState)
}

func TestPersistWritesOneFileThatReloads(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	w := New(s.Jobs(), WithIDGenerator(fixedID))
	require.NoError(t, w.AssignOperator(alice))
	require.NoError(t, w.SelectMoldAndSchedule(mold, 50, start, end))
	require.NoError(t, w.Persist(context.Background()))

	jobs, warnings, err := s.Jobs().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, jobs, 1)
	assert.Equal(t, "JOB-ABC123", jobs[0].JobID)
	assert.Equal(t, 50, jobs[0].PartCount)
	assert.True(t, jobs[0].EndDatetime.Equal(end))
	assert.Equal(t, "Toyota|Corolla_Suspension", jobs[0].Mold.MoldName)
}
