package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"rimworks/internal/filter"
	"rimworks/internal/logging"
	"rimworks/internal/types"
	"rimworks/internal/wizard"
)

// dateTimeHint is the layout shown in the schedule inputs.
const dateTimeHint = "2006-01-02 15:04"

func newJobWizard(e *env) *wizard.Wizard {
	return wizard.New(e.Store.Jobs(), wizard.WithLogger(logging.Get(logging.CategoryWizard)))
}

// =============================================================================
// STEP 1: OPERATOR
// =============================================================================

var operatorHeaders = []string{"Username", "Name", "EPF", "Role"}

type operatorPicker struct {
	env *env
	wiz *wizard.Wizard

	filters              *form
	role, search, sortBy int

	all    []types.Operator
	shown  []types.Operator
	cursor rowCursor

	focusTable bool
	err        string
}

func newOperatorPicker(e *env, wiz *wizard.Wizard) *operatorPicker {
	f := newForm(e.styles)
	s := &operatorPicker{env: e, wiz: wiz, filters: f}
	s.role = f.addChoice("Role", roleChoices())
	s.search = f.addText("Username", "search", false)
	s.sortBy = f.addChoice("Sort By", OperatorSortKeys)
	return s
}

func (s *operatorPicker) Title() string { return "New Job: Operator" }

func (s *operatorPicker) Help() string {
	if s.focusTable {
		return "↑/↓ select  •  enter next  •  tab filters  •  esc cancel"
	}
	return "tab/↑/↓ filter  •  ←/→ choose  •  enter to list  •  esc cancel"
}

// Activate reloads operators. When coming back from step 2 the cursor goes
// to the operator already assigned.
func (s *operatorPicker) Activate() tea.Cmd {
	ops, _, err := s.env.Store.Operators().List(s.env.ctx)
	if err != nil {
		s.env.log.Error("failed to load operators", zap.Error(err))
		s.err = "Could not read operators: " + err.Error()
	}
	s.all = ops
	s.apply()
	if job := s.wiz.Job(); job.Operator != nil {
		for i, op := range s.shown {
			if op.Username == job.Operator.Username {
				s.cursor.pos = i
			}
		}
	}
	return nil
}

func (s *operatorPicker) apply() {
	q, err := OperatorQuery(s.filters.value(s.role), s.filters.value(s.search), s.filters.value(s.sortBy))
	if err != nil {
		s.err = err.Error()
		return
	}
	s.shown = filter.Apply(s.all, q)
	s.cursor.setLen(len(s.shown))
}

func (s *operatorPicker) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "esc" {
		s.env.pop()
		return nil
	}

	if !s.focusTable {
		submitted, changed, cmd := s.filters.update(key)
		if changed {
			s.apply()
		}
		if submitted {
			s.focusTable = true
		}
		return cmd
	}

	if s.cursor.update(key) {
		return nil
	}
	switch key.String() {
	case "tab", "/":
		s.focusTable = false
	case "enter":
		s.next()
	}
	return nil
}

// next assigns the highlighted operator and opens step 2.
func (s *operatorPicker) next() {
	i := s.cursor.selected()
	if i < 0 {
		s.err = "Select an operator first."
		return
	}
	op := s.shown[i]
	if err := s.wiz.AssignOperator(&op); err != nil {
		s.err = describeError(err)
		return
	}
	if err := s.wiz.AdvanceToMoldSelection(); err != nil {
		s.err = describeError(err)
		return
	}
	s.err = ""
	s.env.push(newScheduleScreen(s.env, s.wiz))
}

func (s *operatorPicker) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render("Step 1 of 2: Assign Operator"))
	sb.WriteString("\n")
	sb.WriteString(s.filters.view())
	sb.WriteString("\n")

	if len(s.shown) == 0 {
		sb.WriteString(st.Muted.Render("No operators match.") + "\n")
	} else {
		t := NewSimpleTable("", operatorHeaders)
		for _, op := range s.shown {
			t.AddRow(op.Username, op.Name, op.EPFNumber, string(op.Role))
		}
		if s.focusTable {
			t.Cursor = s.cursor.selected()
		}
		sb.WriteString(t.View(st))
	}
	sb.WriteString(st.Muted.Render(fmt.Sprintf("Showing %d of %d operators", len(s.shown), len(s.all))) + "\n")
	if s.err != "" {
		sb.WriteString("\n" + st.Error.Render(s.err) + "\n")
	}
	return sb.String()
}

// =============================================================================
// STEP 2: MOLD AND SCHEDULE
// =============================================================================

type scheduleScreen struct {
	env *env
	wiz *wizard.Wizard

	form                    *form
	mold, parts, start, end int
	molds                   []types.Mold
	err                     string
}

func newScheduleScreen(e *env, wiz *wizard.Wizard) *scheduleScreen {
	f := newForm(e.styles)
	s := &scheduleScreen{env: e, wiz: wiz, form: f}
	s.mold = f.addChoice("Mold", nil)
	s.parts = f.addText("Part Count", "1-10000", false)
	s.start = f.addText("Start", dateTimeHint, false)
	s.end = f.addText("End", dateTimeHint, false)
	return s
}

func (s *scheduleScreen) Title() string { return "Mold & Schedule" }
func (s *scheduleScreen) Help() string {
	return "tab/↑/↓ field  •  ←/→ mold  •  enter create job  •  esc back"
}

// Activate reloads molds and seeds empty schedule fields with a one hour
// slot starting now.
func (s *scheduleScreen) Activate() tea.Cmd {
	molds, _, err := s.env.Store.Molds().List(s.env.ctx)
	if err != nil {
		s.env.log.Error("failed to load molds", zap.Error(err))
		s.err = "Could not read molds: " + err.Error()
	}
	s.molds = molds
	keys := make([]string, len(molds))
	for i, m := range molds {
		keys[i] = m.Key
	}
	s.form.setChoices(s.mold, keys)

	if s.form.value(s.start) != "" {
		return nil
	}
	// Returning to this step after going back restores what the wizard holds
	if job := s.wiz.Job(); job.Mold != nil {
		s.form.setValue(s.mold, job.Mold.FileKey())
		s.form.setValue(s.parts, strconv.Itoa(job.PartCount))
		s.form.setValue(s.start, job.StartDatetime.Format(dateTimeHint))
		s.form.setValue(s.end, job.EndDatetime.Format(dateTimeHint))
		return nil
	}
	now := s.env.now().Truncate(time.Minute)
	s.form.setValue(s.start, now.Format(dateTimeHint))
	s.form.setValue(s.end, now.Add(time.Hour).Format(dateTimeHint))
	return nil
}

func (s *scheduleScreen) selectedMold() *types.Mold {
	key := s.form.value(s.mold)
	for i := range s.molds {
		if s.molds[i].Key == key {
			return &s.molds[i]
		}
	}
	return nil
}

func (s *scheduleScreen) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "esc" {
		s.env.pop()
		return nil
	}
	submitted, _, cmd := s.form.update(key)
	if submitted {
		s.create()
	}
	return cmd
}

// create runs the last two wizard steps. On failure the wizard and the
// entered values are kept so the user can fix them and retry.
func (s *scheduleScreen) create() {
	var errs types.ValidationErrors
	parts, err := strconv.Atoi(s.form.value(s.parts))
	if err != nil {
		errs.Add("part_count", s.form.value(s.parts), "must be a whole number")
	}
	start, err := types.ParseDateTime(s.form.value(s.start))
	if err != nil {
		errs.Add("start_datetime", s.form.value(s.start), "must look like "+dateTimeHint)
	}
	end, err := types.ParseDateTime(s.form.value(s.end))
	if err != nil {
		errs.Add("end_datetime", s.form.value(s.end), "must look like "+dateTimeHint)
	}
	if len(errs) > 0 {
		s.err = describeError(errs)
		return
	}

	if err := s.wiz.SelectMoldAndSchedule(s.selectedMold(), parts, start.Time, end.Time); err != nil {
		s.err = describeError(err)
		return
	}
	if err := s.wiz.Persist(s.env.ctx); err != nil {
		if errors.Is(err, types.ErrPersistence) {
			s.err = "Could not save job: " + err.Error()
		} else {
			s.err = describeError(err)
		}
		return
	}

	job := s.wiz.Job()
	s.err = ""
	s.env.notify(fmt.Sprintf("Job %s created for %s.", job.JobID, job.Operator.Username))
	s.env.popN(2)
}

func (s *scheduleScreen) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render("Step 2 of 2: Mold and Schedule"))
	sb.WriteString("\n")
	if job := s.wiz.Job(); job.Operator != nil {
		sb.WriteString(st.Muted.Render("Operator: ") + st.Bold.Render(job.Operator.Name+" ("+job.Operator.Username+")"))
		sb.WriteString("\n\n")
	}
	sb.WriteString(s.form.view())
	if m := s.selectedMold(); m != nil {
		sb.WriteString("\n" + st.Muted.Render(fmt.Sprintf("%s  •  %s  •  ratio %s  •  chemical %s",
			m.MoldName, m.MoldType, m.MixingRatio, m.ChemicalType)) + "\n")
	} else if len(s.molds) == 0 {
		sb.WriteString("\n" + st.Warning.Render("No molds yet. Create one from the engineer dashboard.") + "\n")
	}
	if s.err != "" {
		sb.WriteString("\n" + st.Error.Render(s.err) + "\n")
	}
	return sb.String()
}
