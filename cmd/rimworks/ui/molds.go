package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"rimworks/internal/filter"
	"rimworks/internal/types"
)

// =============================================================================
// MOLD BROWSER
// =============================================================================

var moldHeaders = []string{"Mold", "Type", "Number", "Part", "Ratio", "Chemical", "Date"}

type moldBrowser struct {
	env *env

	filters *form
	vehicle, system, moldType, chemical, ratio, date, search int

	all      []types.Mold
	shown    []types.Mold
	warnings int
	cursor   rowCursor

	focusTable    bool
	confirmDelete bool
	err           string
}

func newMoldBrowser(e *env) *moldBrowser {
	f := newForm(e.styles)
	s := &moldBrowser{env: e, filters: f}
	s.vehicle = f.addChoice("Vehicle", []string{AllVehicles})
	s.system = f.addChoice("System", withAll(AllSystems, enumLabels(types.Systems)))
	s.moldType = f.addChoice("Mold Type", withAll(AllMoldTypes, enumLabels(types.MoldTypes)))
	s.chemical = f.addChoice("Chemical Type", withAll(AllChemicals, types.ChemicalTypes))
	s.ratio = f.addChoice("Mixing Ratio", withAll(AllRatios, types.MixingRatios))
	s.date = f.addChoice("Date", []string{AllDates})
	s.search = f.addText("Part Number", "search", false)
	return s
}

func (s *moldBrowser) Title() string { return "Molds" }

func (s *moldBrowser) Help() string {
	if s.focusTable {
		return "↑/↓ select  •  enter details  •  d delete  •  tab filters  •  esc back"
	}
	return "tab/↑/↓ filter  •  ←/→ choose  •  enter to list  •  esc back"
}

// Activate reloads molds and the choices derived from them.
func (s *moldBrowser) Activate() tea.Cmd {
	s.reload()
	return nil
}

func (s *moldBrowser) reload() {
	molds, warnings, err := s.env.Store.Molds().List(s.env.ctx)
	if err != nil {
		s.env.log.Error("failed to load molds", zap.Error(err))
		s.err = "Could not read molds: " + err.Error()
		molds = nil
	}
	s.all = molds
	s.warnings = len(warnings)
	s.filters.setChoices(s.vehicle, withAll(AllVehicles, filter.Distinct(molds, "vehicle")))
	s.filters.setChoices(s.date, withAll(AllDates, filter.Distinct(molds, "date")))
	s.apply()
}

func (s *moldBrowser) selections() MoldFilters {
	f := s.filters
	return MoldFilters{
		Vehicle:  f.value(s.vehicle),
		System:   f.value(s.system),
		MoldType: f.value(s.moldType),
		Chemical: f.value(s.chemical),
		Ratio:    f.value(s.ratio),
		Date:     f.value(s.date),
		Search:   f.value(s.search),
	}
}

func (s *moldBrowser) apply() {
	s.shown = s.selections().Apply(s.all, "mold_name")
	s.cursor.setLen(len(s.shown))
}

func (s *moldBrowser) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if s.confirmDelete {
		s.confirmDelete = false
		if key.String() == "y" {
			s.deleteSelected()
		}
		return nil
	}

	switch key.String() {
	case "esc":
		s.env.pop()
		return nil
	case "ctrl+r":
		s.reload()
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
		if i := s.cursor.selected(); i >= 0 {
			s.env.push(newMoldDetail(s.env, s.shown[i]))
		}
	case "d", "delete":
		if s.cursor.selected() >= 0 {
			s.confirmDelete = true
		}
	}
	return nil
}

// deleteSelected removes the highlighted mold's own file and reloads.
func (s *moldBrowser) deleteSelected() {
	i := s.cursor.selected()
	if i < 0 {
		return
	}
	m := s.shown[i]
	if err := s.env.Store.Molds().Delete(s.env.ctx, m.Key); err != nil {
		s.err = "Delete failed: " + err.Error()
		return
	}
	s.err = ""
	s.env.notify("Mold " + m.Key + " deleted.")
	s.reload()
}

func (s *moldBrowser) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render("Molds"))
	sb.WriteString("\n")
	sb.WriteString(s.filters.view())
	sb.WriteString("\n")

	if len(s.shown) == 0 {
		sb.WriteString(st.Muted.Render("No molds match.") + "\n")
	} else {
		t := NewSimpleTable("", moldHeaders)
		for _, m := range s.shown {
			t.AddRow(m.MoldName, string(m.MoldType), m.MoldNumber, m.PartNumber, m.MixingRatio, m.ChemicalType, m.Date())
		}
		if s.focusTable {
			t.Cursor = s.cursor.selected()
		}
		sb.WriteString(t.View(st))
	}
	sb.WriteString(st.Muted.Render(fmt.Sprintf("Showing %d of %d molds", len(s.shown), len(s.all))))
	if s.warnings > 0 {
		sb.WriteString("  " + st.Warning.Render(fmt.Sprintf("%d unreadable files skipped", s.warnings)))
	}
	sb.WriteString("\n")

	if s.confirmDelete {
		m := s.shown[s.cursor.selected()]
		sb.WriteString("\n" + st.Warning.Render("Delete "+m.Key+"? (y/n)") + "\n")
	}
	if s.err != "" {
		sb.WriteString("\n" + st.Error.Render(s.err) + "\n")
	}
	return sb.String()
}

// =============================================================================
// MOLD DETAIL
// =============================================================================

type moldDetail struct {
	env      *env
	mold     types.Mold
	viewport viewport.Model
}

func newMoldDetail(e *env, m types.Mold) *moldDetail {
	return &moldDetail{env: e, mold: m, viewport: viewport.New(80, 20)}
}

func (s *moldDetail) Title() string { return s.mold.MoldName }
func (s *moldDetail) Help() string  { return "↑/↓ scroll  •  esc back" }

func (s *moldDetail) SetSize(w, h int) {
	s.viewport.Width = max(w-4, 20)
	s.viewport.Height = max(h-6, 5)
}

func (s *moldDetail) Activate() tea.Cmd {
	s.viewport.SetContent(s.render())
	return nil
}

func (s *moldDetail) render() string {
	md := moldMarkdown(s.mold)
	style := "light"
	if s.env.styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(s.viewport.Width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (s *moldDetail) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		s.env.pop()
		return nil
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func (s *moldDetail) View() string { return s.viewport.View() }

// moldMarkdown renders a mold as a markdown card.
func moldMarkdown(m types.Mold) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.MoldName)
	sb.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Vehicle", m.Vehicle},
		{"System", string(m.System)},
		{"Mold type", string(m.MoldType)},
		{"Mold number", m.MoldNumber},
		{"Part number", m.PartNumber},
		{"Life span", strconv.Itoa(m.LifeSpan) + " cycles"},
		{"Creation type", string(m.CreationType)},
		{"Mixing ratio", m.MixingRatio},
		{"Chemical type", m.ChemicalType},
		{"Created", m.Date()},
		{"File", m.Key + ".json"},
	}
	for _, r := range rows {
		v := r[1]
		if strings.TrimSpace(v) == "" {
			v = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", r[0], v)
	}
	return sb.String()
}
