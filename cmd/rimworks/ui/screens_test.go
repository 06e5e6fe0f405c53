package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rimworks/internal/auth"
	"rimworks/internal/types"
	"rimworks/internal/wizard"
)

func TestCreateOperatorScreen(t *testing.T) {
	app, st := newTestApp(t)
	loginEngineer(t, app)
	press(app, "1")
	require.IsType(t, &formScreen{}, app.Top())

	// Missing fields are reported and nothing is written
	press(app, "enter")
	assert.Contains(t, app.View(), "name is required")
	ops, _, err := st.Operators().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ops)

	typeText(app, "Jane Perera")
	press(app, "tab")
	typeText(app, "jane")
	press(app, "tab")
	typeText(app, "s3cret")
	press(app, "tab")
	typeText(app, "1042")
	press(app, "tab", "right") // Supervisor
	press(app, "enter")

	assert.Contains(t, app.View(), "Operator jane created.")
	ops, _, err = st.Operators().List(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, types.RoleSupervisor, ops[0].Role)
	assert.Equal(t, "1042", ops[0].EPFNumber)
	assert.True(t, auth.IsHashed(ops[0].Password))
	assert.True(t, auth.CheckPassword(ops[0].Password, "s3cret"))

	// The form is cleared for the next operator
	s := app.Top().(*formScreen)
	assert.Empty(t, s.form.value(0))
}

func TestCreateMoldScreen(t *testing.T) {
	app, st := newTestApp(t)
	loginEngineer(t, app)
	press(app, "2")

	typeText(app, "Axio")
	press(app, "tab", "right") // Braking
	assert.Contains(t, app.View(), "Axio_Braking")
	press(app, "tab", "right") // Hard Silicon
	press(app, "tab")
	typeText(app, "M-12")
	press(app, "tab")
	typeText(app, "abc")
	press(app, "tab")
	typeText(app, "P-88")
	press(app, "enter")
	assert.Contains(t, app.View(), "life_span must be a whole number")

	s := app.Top().(*formScreen)
	s.form.setValue(4, "500")
	press(app, "enter")
	assert.Contains(t, app.View(), "Mold Axio_Braking saved as Axio_Braking_20250302_080000.")

	molds, _, err := st.Molds().List(context.Background())
	require.NoError(t, err)
	require.Len(t, molds, 1)
	m := molds[0]
	assert.Equal(t, types.SystemBraking, m.System)
	assert.Equal(t, types.MoldTypeHardSilicon, m.MoldType)
	assert.Equal(t, 500, m.LifeSpan)
	assert.Equal(t, "A", m.MixingRatio)
	assert.Equal(t, "A", m.ChemicalType)
	assert.Equal(t, types.CreationPreviousLifeComplete, m.CreationType)
}

func TestCalibrationScreen(t *testing.T) {
	app, st := newTestApp(t)
	loginEngineer(t, app)
	press(app, "3")
	s := app.Top().(*formScreen)

	// Only the first ratio filled: all or nothing
	typeText(app, "1")
	press(app, "tab")
	typeText(app, "2")
	press(app, "enter")
	assert.Contains(t, app.View(), "B needs both min and max")
	snaps, _, err := st.Calibrations().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)

	for i := 0; i < len(types.MixingRatios)*2; i += 2 {
		s.form.setValue(i, "1.5")
		s.form.setValue(i+1, "2.5")
	}
	press(app, "enter")
	assert.Contains(t, app.View(), "Calibration saved as calibration_20250302_080000.")

	snaps, _, err = st.Calibrations().List(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, types.RatioBounds{Min: 1.5, Max: 2.5}, snaps[0].Ratios["J"])
}

func TestMoldBrowserFilterAndDelete(t *testing.T) {
	app, st := newTestApp(t)
	seedMold(t, st, "Axio", types.SystemBraking, "A")
	seedMold(t, st, "Vitz", types.SystemSteering, "B")
	loginEngineer(t, app)

	press(app, "4")
	b, ok := app.Top().(*moldBrowser)
	require.True(t, ok)
	assert.Len(t, b.shown, 2)
	assert.Contains(t, app.View(), "Showing 2 of 2 molds")

	// Vehicle choices come from the data
	press(app, "right")
	assert.Equal(t, "Axio", b.filters.value(b.vehicle))
	assert.Len(t, b.shown, 1)
	press(app, "left")
	assert.Len(t, b.shown, 2)

	// Part number search
	b.filters.setFocus(b.search)
	typeText(app, "vit")
	require.Len(t, b.shown, 1)
	assert.Equal(t, "Vitz_Steering", b.shown[0].MoldName)

	// Open the detail card
	press(app, "enter", "enter")
	require.IsType(t, &moldDetail{}, app.Top())
	assert.Contains(t, app.View(), "P-Vitz")
	press(app, "esc")
	require.Same(t, b, app.Top())

	// Anything but y cancels
	press(app, "d", "n")
	assert.Len(t, b.shown, 1)

	press(app, "d", "y")
	assert.Empty(t, b.shown)
	molds, _, err := st.Molds().List(context.Background())
	require.NoError(t, err)
	require.Len(t, molds, 1)
	assert.Equal(t, "Axio_Braking", molds[0].MoldName)
}

func TestJobWizardFlow(t *testing.T) {
	app, st := newTestApp(t)
	seedOperator(t, st, "zed", "Zed", types.RoleSupervisor, "pw")
	seedOperator(t, st, "amy", "Amy", types.RoleOperator, "pw")
	seedOperator(t, st, "bea", "Bea", types.RoleOperator, "pw")
	mold := seedMold(t, st, "Axio", types.SystemBraking, "C")
	loginEngineer(t, app)

	press(app, "5")
	picker, ok := app.Top().(*operatorPicker)
	require.True(t, ok)
	require.Len(t, picker.shown, 3)
	assert.Equal(t, "amy", picker.shown[0].Username, "sorted by username")

	// Role filter: All Roles -> Operator -> Supervisor
	press(app, "right", "right")
	require.Len(t, picker.shown, 1)
	assert.Equal(t, "zed", picker.shown[0].Username)
	press(app, "left")
	require.Len(t, picker.shown, 2)

	// Search narrows by username
	press(app, "tab")
	typeText(app, "be")
	require.Len(t, picker.shown, 1)

	press(app, "enter", "enter")
	sched, ok := app.Top().(*scheduleScreen)
	require.True(t, ok)
	assert.Equal(t, wizard.OperatorAssigned, picker.wiz.State())
	assert.Equal(t, mold.Key, sched.form.value(sched.mold))
	assert.Equal(t, "2025-03-02 08:00", sched.form.value(sched.start))
	assert.Equal(t, "2025-03-02 09:00", sched.form.value(sched.end))

	// Back keeps the wizard's operator
	press(app, "esc")
	require.Same(t, picker, app.Top())
	assert.Equal(t, "bea", picker.wiz.Job().Operator.Username)
	press(app, "enter")
	require.IsType(t, &scheduleScreen{}, app.Top())
	sched = app.Top().(*scheduleScreen)

	press(app, "tab")
	typeText(app, "25")
	press(app, "enter")

	assert.IsType(t, &engineerHome{}, app.Top())
	jobs, _, err := st.Jobs().List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Contains(t, app.View(), "Job "+job.JobID+" created for bea.")
	assert.Regexp(t, `^JOB-[0-9A-F]{6}$`, job.JobID)
	assert.Equal(t, "bea", job.Operator.Username)
	assert.Equal(t, 25, job.PartCount)
	assert.Equal(t, types.StatusNotStarted, job.Status)
	assert.Equal(t, "Axio_Braking", job.Mold.MoldName)
	assert.True(t, job.StartDatetime.Equal(testNow))
	assert.Equal(t, wizard.Persisted, sched.wiz.State())
}

func TestScheduleRejectsBadWindow(t *testing.T) {
	app, st := newTestApp(t)
	seedOperator(t, st, "amy", "Amy", types.RoleOperator, "pw")
	seedMold(t, st, "Axio", types.SystemBraking, "C")
	loginEngineer(t, app)
	press(app, "5", "enter", "enter")
	sched := app.Top().(*scheduleScreen)

	sched.form.setValue(sched.parts, "10")
	sched.form.setValue(sched.end, "2025-03-02 08:00")
	press(app, "enter")
	require.Same(t, sched, app.Top())
	assert.Contains(t, app.View(), "end_datetime must be after start_datetime")

	sched.form.setValue(sched.parts, "0")
	sched.form.setValue(sched.end, "next tuesday")
	press(app, "enter")
	view := app.View()
	assert.Contains(t, view, "end_datetime must look like")
	assert.NotContains(t, view, "part_count")

	jobs, _, err := st.Jobs().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, wizard.OperatorAssigned, sched.wiz.State())
}

func TestScheduleRestoresWizardSelection(t *testing.T) {
	app, st := newTestApp(t)
	op := seedOperator(t, st, "amy", "Amy", types.RoleOperator, "pw")
	seedMold(t, st, "Axio", types.SystemBraking, "C")
	mold := seedMold(t, st, "Vitz", types.SystemSteering, "B")

	wiz := newJobWizard(app.env)
	require.NoError(t, wiz.AssignOperator(&op))
	require.NoError(t, wiz.SelectMoldAndSchedule(&mold, 7, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour)))

	sched := newScheduleScreen(app.env, wiz)
	sched.Activate()
	assert.Equal(t, mold.Key, sched.form.value(sched.mold))
	assert.Equal(t, "7", sched.form.value(sched.parts))
	assert.Equal(t, "2025-03-02 10:00", sched.form.value(sched.start))
	assert.Equal(t, "2025-03-02 11:00", sched.form.value(sched.end))
}

func TestOperatorPickerRequiresSelection(t *testing.T) {
	app, _ := newTestApp(t)
	loginEngineer(t, app)
	press(app, "5", "enter", "enter")
	assert.IsType(t, &operatorPicker{}, app.Top())
	assert.Contains(t, app.View(), "Select an operator first.")
}

func TestJobStatusExport(t *testing.T) {
	app, st := newTestApp(t)
	loginEngineer(t, app)
	press(app, "6")
	require.IsType(t, &jobStatusScreen{}, app.Top())
	assert.Contains(t, app.View(), "No jobs yet.")

	press(app, "e")
	_, err := os.Stat(filepath.Join(st.Root(), "job_status.xlsx"))
	assert.NoError(t, err)
}

// runCmd executes cmd, flattening batches, and gives up after timeout.
func runCmd(t *testing.T, cmd tea.Cmd, timeout time.Duration) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(t, c, timeout)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(timeout):
		t.Fatalf("command did not return within %s", timeout)
		return nil
	}
}

func TestJobStatusFollowsJobsDirectory(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	app, st := newTestApp(t)
	app.env.Watch = true
	app.env.Config.Dashboard.WatchDebounce = "20ms"
	seedOperator(t, st, "amy", "Amy", types.RoleOperator, "pw")
	mold := seedMold(t, st, "Axio", types.SystemBraking, "D")
	loginEngineer(t, app)

	cmd := press(app, "6")
	screen := app.Top().(*jobStatusScreen)
	require.NotNil(t, screen.watcher)

	amy := types.JobOperator{Username: "amy", Name: "Amy", EPFNumber: "E-amy", Role: types.RoleOperator}
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = st.Jobs().Save(context.Background(), types.Job{
			JobID:         "JOB-ABC123",
			Operator:      &amy,
			Mold:          &mold,
			PartCount:     3,
			StartDatetime: types.NewDateTime(testNow),
			EndDatetime:   types.NewDateTime(testNow.Add(time.Hour)),
			Status:        types.StatusInProgress,
		})
	}()

	msgs := runCmd(t, cmd, 5*time.Second)
	require.Len(t, msgs, 1)
	assert.IsType(t, jobsChangedMsg{}, msgs[0])

	app.Update(msgs[0])
	assert.Contains(t, app.View(), "JOB-ABC123")
	assert.Contains(t, app.View(), "In Progress: 1")

	// Leaving the screen stops the watcher
	press(app, "esc")
	assert.Nil(t, screen.watcher)
}
