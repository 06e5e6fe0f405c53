package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"rimworks/internal/auth"
	"rimworks/internal/types"
)

// =============================================================================
// HOME
// =============================================================================

type homeScreen struct {
	env  *env
	menu menu
}

func newHomeScreen(e *env) *homeScreen {
	return &homeScreen{env: e, menu: newMenu("Engineer Login", "Operator Login", "Quit")}
}

func (s *homeScreen) Title() string     { return "Home" }
func (s *homeScreen) Activate() tea.Cmd { return nil }
func (s *homeScreen) Help() string      { return "↑/↓ move  •  enter select  •  q quit" }

func (s *homeScreen) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "q" {
		return tea.Quit
	}
	picked, ok := s.menu.update(key)
	if !ok {
		return nil
	}
	switch picked {
	case 0:
		s.env.push(newLoginScreen(s.env, engineerLogin))
	case 1:
		s.env.push(newLoginScreen(s.env, operatorLogin))
	case 2:
		return tea.Quit
	}
	return nil
}

func (s *homeScreen) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(Logo(st))
	sb.WriteString("\n")
	sb.WriteString(st.Subtitle.Render("Reaction injection molding: molds, operators and jobs"))
	sb.WriteString("\n\n")
	sb.WriteString(s.menu.view(st))
	return sb.String()
}

// =============================================================================
// LOGIN
// =============================================================================

type loginKind int

const (
	engineerLogin loginKind = iota
	operatorLogin
)

type loginScreen struct {
	env  *env
	kind loginKind
	form *form
	err  string

	username, password int
}

func newLoginScreen(e *env, kind loginKind) *loginScreen {
	s := &loginScreen{env: e, kind: kind, form: newForm(e.styles)}
	s.username = s.form.addText("Username", "username", false)
	s.password = s.form.addText("Password", "password", true)
	return s
}

func (s *loginScreen) Title() string {
	if s.kind == engineerLogin {
		return "Engineer Login"
	}
	return "Operator Login"
}

func (s *loginScreen) Help() string { return "tab next field  •  enter log in  •  esc back" }

// Activate clears the fields so credentials never linger on screen.
func (s *loginScreen) Activate() tea.Cmd {
	s.form.reset()
	s.err = ""
	return nil
}

func (s *loginScreen) Update(msg tea.Msg) tea.Cmd {
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
		s.login()
	}
	return cmd
}

func (s *loginScreen) login() {
	user := s.form.value(s.username)
	pass := s.form.rawValue(s.password)
	if user == "" || pass == "" {
		s.err = "Enter both username and password."
		return
	}

	switch s.kind {
	case engineerLogin:
		eng := auth.Engineer{Username: s.env.Config.Engineer.Username, Password: s.env.Config.Engineer.Password}
		if !auth.EngineerLogin(eng, user, pass) {
			s.fail()
			return
		}
		s.env.replace(newEngineerHome(s.env))
	case operatorLogin:
		ops, _, err := s.env.Store.Operators().List(s.env.ctx)
		if err != nil {
			s.env.log.Error("failed to load operators", zap.Error(err))
			s.err = "Could not read operators: " + err.Error()
			return
		}
		op, err := auth.OperatorLogin(ops, user, pass)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.fail()
			return
		}
		s.env.replace(newOperatorHome(s.env, op))
	}
}

func (s *loginScreen) fail() {
	s.err = "Invalid username or password."
	s.form.setValue(s.password, "")
	s.form.setFocus(s.password)
}

func (s *loginScreen) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render(s.Title()))
	sb.WriteString("\n")
	sb.WriteString(s.form.view())
	if s.err != "" {
		sb.WriteString("\n" + st.Error.Render(s.err) + "\n")
	}
	return sb.String()
}

// =============================================================================
// ENGINEER AND OPERATOR HOME
// =============================================================================

type engineerHome struct {
	env  *env
	menu menu
}

func newEngineerHome(e *env) *engineerHome {
	return &engineerHome{env: e, menu: newMenu(
		"Create Operator",
		"Create Mold",
		"Calibration Machine",
		"View Molds",
		"Create Job",
		"Job Status",
		"Logout",
	)}
}

func (s *engineerHome) Title() string     { return "Engineer" }
func (s *engineerHome) Activate() tea.Cmd { return nil }
func (s *engineerHome) Help() string      { return "↑/↓ move  •  enter select  •  esc log out" }

func (s *engineerHome) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "esc" {
		s.env.home()
		return nil
	}
	picked, ok := s.menu.update(key)
	if !ok {
		return nil
	}
	switch picked {
	case 0:
		s.env.push(newCreateOperatorScreen(s.env))
	case 1:
		s.env.push(newCreateMoldScreen(s.env))
	case 2:
		s.env.push(newCalibrationScreen(s.env))
	case 3:
		s.env.push(newMoldBrowser(s.env))
	case 4:
		s.env.push(newOperatorPicker(s.env, newJobWizard(s.env)))
	case 5:
		s.env.push(newJobStatusScreen(s.env, ""))
	case 6:
		s.env.home()
	}
	return nil
}

func (s *engineerHome) View() string {
	st := s.env.styles
	return st.Title.Render("Engineer Dashboard") + "\n" + s.menu.view(st)
}

type operatorHome struct {
	env      *env
	operator types.Operator
	menu     menu
}

func newOperatorHome(e *env, op types.Operator) *operatorHome {
	return &operatorHome{env: e, operator: op, menu: newMenu("Assigned Jobs", "Logout")}
}

func (s *operatorHome) Title() string     { return s.operator.Username }
func (s *operatorHome) Activate() tea.Cmd { return nil }
func (s *operatorHome) Help() string      { return "↑/↓ move  •  enter select  •  esc log out" }

func (s *operatorHome) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "esc" {
		s.env.home()
		return nil
	}
	picked, ok := s.menu.update(key)
	if !ok {
		return nil
	}
	switch picked {
	case 0:
		s.env.push(newJobStatusScreen(s.env, s.operator.Username))
	case 1:
		s.env.home()
	}
	return nil
}

func (s *operatorHome) View() string {
	st := s.env.styles
	var sb strings.Builder
	sb.WriteString(st.Title.Render("Welcome, " + s.operator.Name))
	sb.WriteString("\n")
	sb.WriteString(st.Badge.Render(string(s.operator.Role)) + "  " + st.Muted.Render("EPF "+s.operator.EPFNumber))
	sb.WriteString("\n\n")
	sb.WriteString(s.menu.view(st))
	return sb.String()
}
