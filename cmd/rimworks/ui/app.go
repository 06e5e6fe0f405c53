package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"rimworks/internal/config"
	"rimworks/internal/logging"
	"rimworks/internal/store"
)

// Deps are the collaborators every screen draws on.
type Deps struct {
	Store  *store.Store
	Config *config.Config
	// Now defaults to time.Now; the schedule screen seeds its times from it.
	Now func() time.Time
	// Watch enables jobs directory watching on the job status screens.
	Watch bool
}

// Screen is one page of the navigation stack. Screens are pointers and
// mutate themselves in Update.
type Screen interface {
	Title() string
	// Activate runs whenever the screen becomes the top of the stack and
	// reloads anything it shows from the store.
	Activate() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	Help() string
}

// deactivator is implemented by screens holding resources while visible.
type deactivator interface {
	Deactivate()
}

// sizer is implemented by screens whose layout depends on the window size.
type sizer interface {
	SetSize(width, height int)
}

type navOp int

const (
	navNone navOp = iota
	navPush
	navPop
	navReplace
	navHome
)

type navRequest struct {
	op     navOp
	screen Screen
	count  int
}

// env is shared by all screens of one App. Screens request navigation by
// calling push, pop, replace or home; the App applies the request after the
// screen's Update returns.
type env struct {
	Deps
	ctx    context.Context
	styles Styles
	log    *zap.Logger

	nav   navRequest
	flash string

	width  int
	height int
}

func (e *env) push(s Screen)    { e.nav = navRequest{op: navPush, screen: s} }
func (e *env) pop()             { e.nav = navRequest{op: navPop, count: 1} }
func (e *env) popN(n int)       { e.nav = navRequest{op: navPop, count: n} }
func (e *env) replace(s Screen) { e.nav = navRequest{op: navReplace, screen: s} }
func (e *env) home()            { e.nav = navRequest{op: navHome} }

// notify shows msg in the status line until the next key press.
func (e *env) notify(msg string) { e.flash = msg }

func (e *env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// App is the root bubbletea model: a stack of screens with Home at the bottom.
type App struct {
	env   *env
	stack []Screen
}

// NewApp builds the app with the Home screen active.
func NewApp(ctx context.Context, deps Deps) *App {
	theme := "auto"
	if deps.Config != nil {
		theme = deps.Config.UI.Theme
	} else {
		deps.Config = config.DefaultConfig()
	}
	e := &env{
		Deps:   deps,
		ctx:    ctx,
		styles: StylesFor(theme),
		log:    logging.Get(logging.CategoryUI),
		width:  100,
		height: 30,
	}
	a := &App{env: e}
	a.stack = []Screen{newHomeScreen(e)}
	return a
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	deps.Watch = true
	app := NewApp(ctx, deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	app.Close()
	return err
}

// Top returns the active screen.
func (a *App) Top() Screen { return a.stack[len(a.stack)-1] }

// Depth returns the number of screens on the stack.
func (a *App) Depth() int { return len(a.stack) }

// Close deactivates every screen.
func (a *App) Close() {
	for i := len(a.stack) - 1; i >= 0; i-- {
		deactivate(a.stack[i])
	}
}

// Init activates the Home screen.
func (a *App) Init() tea.Cmd {
	return a.activate(a.Top())
}

// Update routes msg to the active screen and applies any navigation it
// requested.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.env.width, a.env.height = msg.Width, msg.Height
		for _, s := range a.stack {
			resize(s, a.env)
		}
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.Close()
			return a, tea.Quit
		}
		a.env.flash = ""
	}

	cmd := a.Top().Update(msg)
	if nav := a.applyNav(); nav != nil {
		return a, tea.Batch(cmd, nav)
	}
	return a, cmd
}

func (a *App) applyNav() tea.Cmd {
	req := a.env.nav
	a.env.nav = navRequest{}

	switch req.op {
	case navPush:
		deactivate(a.Top())
		a.stack = append(a.stack, req.screen)
	case navPop:
		n := min(max(req.count, 1), len(a.stack)-1)
		if n == 0 {
			return nil
		}
		for i := 0; i < n; i++ {
			deactivate(a.Top())
			a.stack = a.stack[:len(a.stack)-1]
		}
	case navReplace:
		deactivate(a.Top())
		if len(a.stack) == 1 {
			a.stack = append(a.stack, req.screen)
		} else {
			a.stack[len(a.stack)-1] = req.screen
		}
	case navHome:
		for len(a.stack) > 1 {
			deactivate(a.Top())
			a.stack = a.stack[:len(a.stack)-1]
		}
	default:
		return nil
	}

	a.env.log.Debug("navigate", zap.String("screen", a.Top().Title()), zap.Int("depth", len(a.stack)))
	return a.activate(a.Top())
}

func (a *App) activate(s Screen) tea.Cmd {
	resize(s, a.env)
	return s.Activate()
}

// View renders the header, the active screen and the footer.
func (a *App) View() string {
	s := a.env.styles
	top := a.Top()

	var sb strings.Builder
	sb.WriteString(s.Header.Render(a.breadcrumb()))
	sb.WriteString("\n")
	if a.env.flash != "" {
		sb.WriteString(s.Success.Render(a.env.flash))
		sb.WriteString("\n")
	}
	sb.WriteString(s.Content.Render(top.View()))
	sb.WriteString("\n")
	sb.WriteString(s.Footer.Render(top.Help() + "  •  ctrl+c quit"))
	return sb.String()
}

func (a *App) breadcrumb() string {
	parts := make([]string, 0, len(a.stack)+1)
	parts = append(parts, a.env.Config.Name)
	for _, s := range a.stack[1:] {
		parts = append(parts, s.Title())
	}
	return strings.Join(parts, " › ")
}

func deactivate(s Screen) {
	if d, ok := s.(deactivator); ok {
		d.Deactivate()
	}
}

func resize(s Screen, e *env) {
	if r, ok := s.(sizer); ok {
		r.SetSize(e.width, e.height)
	}
}
