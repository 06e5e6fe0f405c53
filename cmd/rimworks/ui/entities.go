package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"rimworks/internal/auth"
	"rimworks/internal/types"
)

// formScreen is the shared shell of the create screens: a form, an error
// line and a submit hook.
type formScreen struct {
	env    *env
	title  string
	form   *form
	err    string
	submit func() error
	// preview, when set, renders a line under the form.
	preview func() string
}

func (s *formScreen) Title() string { return s.title }
func (s *formScreen) Help() string  { return "tab/↑/↓ field  •  ←/→ choose  •  enter save  •  esc back" }

func (s *formScreen) Activate() tea.Cmd {
	s.form.reset()
	s.err = ""
	return nil
}

func (s *formScreen) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "esc" {
		s.env.pop()
		return nil
	}
	submitted, _, cmd := s.form.update(key)
	if !submitted {
		return cmd
	}
	if err := s.submit(); err != nil {
		s.err = describeError(err)
		s.env.log.Info("form rejected", zap.String("screen", s.title), zap.Error(err))
		return nil
	}
	s.err = ""
	s.form.reset()
	return nil
}

func (s *formScreen) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render(s.title))
	sb.WriteString("\n")
	sb.WriteString(s.form.view())
	if s.preview != nil {
		sb.WriteString("\n" + s.preview() + "\n")
	}
	if s.err != "" {
		sb.WriteString("\n" + st.Error.Render(s.err) + "\n")
	}
	return sb.String()
}

// describeError turns validation errors into one line per field.
func describeError(err error) string {
	var verrs types.ValidationErrors
	if errors.As(err, &verrs) {
		lines := make([]string, len(verrs))
		for i, v := range verrs {
			lines[i] = v.Field + " " + v.Message
		}
		return strings.Join(lines, "\n")
	}
	return err.Error()
}

// =============================================================================
// CREATE OPERATOR
// =============================================================================

func newCreateOperatorScreen(e *env) *formScreen {
	f := newForm(e.styles)
	name := f.addText("Name", "full name", false)
	username := f.addText("Username", "login name", false)
	password := f.addText("Password", "password", true)
	epf := f.addText("EPF Number", "EPF number", false)
	roles := make([]string, len(types.Roles))
	for i, r := range types.Roles {
		roles[i] = string(r)
	}
	role := f.addChoice("Role", roles)

	s := &formScreen{env: e, title: "Create Operator", form: f}
	s.submit = func() error {
		op := types.Operator{
			Name:      f.value(name),
			Username:  f.value(username),
			Password:  f.rawValue(password),
			EPFNumber: f.value(epf),
			Role:      types.Role(f.value(role)),
		}
		if err := op.Validate(); err != nil {
			return err
		}
		hash, err := auth.HashPassword(op.Password)
		if err != nil {
			return err
		}
		op.Password = hash
		if err := e.Store.Operators().Add(e.ctx, op); err != nil {
			return err
		}
		e.notify(fmt.Sprintf("Operator %s created.", op.Username))
		return nil
	}
	return s
}

// =============================================================================
// CREATE MOLD
// =============================================================================

func newCreateMoldScreen(e *env) *formScreen {
	f := newForm(e.styles)
	vehicle := f.addText("Vehicle", "e.g. Axio", false)
	system := f.addChoice("System", enumLabels(types.Systems))
	moldType := f.addChoice("Mold Type", enumLabels(types.MoldTypes))
	number := f.addText("Mold Number", "mold number", false)
	life := f.addText("Life Span", "cycles, 1-10000", false)
	part := f.addText("Part Number", "part number", false)
	creation := f.addChoice("Creation Type", enumLabels(types.CreationTypes))
	ratio := f.addChoice("Mixing Ratio", types.MixingRatios)
	chemical := f.addChoice("Chemical Type", types.ChemicalTypes)

	s := &formScreen{env: e, title: "Create Mold", form: f}
	s.preview = func() string {
		name := types.MoldName(f.value(vehicle), types.System(f.value(system)))
		if name == "" {
			name = "-"
		}
		return e.styles.Muted.Render("Mold name: ") + e.styles.Bold.Render(name)
	}
	s.submit = func() error {
		lifeSpan, err := strconv.Atoi(f.value(life))
		if err != nil {
			return types.NewValidationError("life_span", f.value(life), "must be a whole number")
		}
		m := types.Mold{
			Vehicle:      f.value(vehicle),
			System:       types.System(f.value(system)),
			MoldType:     types.MoldType(f.value(moldType)),
			MoldNumber:   f.value(number),
			LifeSpan:     lifeSpan,
			PartNumber:   f.value(part),
			CreationType: types.CreationType(f.value(creation)),
			MixingRatio:  f.value(ratio),
			ChemicalType: f.value(chemical),
		}
		saved, err := e.Store.Molds().Save(e.ctx, m)
		if err != nil {
			return err
		}
		e.notify(fmt.Sprintf("Mold %s saved as %s.", saved.MoldName, saved.Key))
		return nil
	}
	return s
}

// =============================================================================
// CALIBRATION
// =============================================================================

func newCalibrationScreen(e *env) *formScreen {
	f := newForm(e.styles)
	type bounds struct{ min, max int }
	fields := make([]bounds, len(types.MixingRatios))
	for i, r := range types.MixingRatios {
		fields[i].min = f.addText("Ratio "+r+" min", "min", false)
		fields[i].max = f.addText("Ratio "+r+" max", "max", false)
	}

	s := &formScreen{env: e, title: "Calibration Machine", form: f}
	s.submit = func() error {
		inputs := make([]types.RatioInput, len(types.MixingRatios))
		for i, r := range types.MixingRatios {
			inputs[i] = types.RatioInput{Ratio: r, Min: f.value(fields[i].min), Max: f.value(fields[i].max)}
		}
		snap, err := types.ParseCalibration(inputs)
		if err != nil {
			return err
		}
		saved, err := e.Store.Calibrations().Save(e.ctx, snap)
		if err != nil {
			return err
		}
		e.notify("Calibration saved as " + saved.Key + ".")
		return nil
	}
	return s
}

func enumLabels[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
