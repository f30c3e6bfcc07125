// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/route"
	"github.com/markalston/bugtracker-cli/internal/session"
	"github.com/markalston/bugtracker-cli/internal/tui/icons"
	"github.com/markalston/bugtracker-cli/internal/tui/loginform"
	"github.com/markalston/bugtracker-cli/internal/tui/projectform"
	"github.com/markalston/bugtracker-cli/internal/tui/projectlist"
	"github.com/markalston/bugtracker-cli/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenProjects
	ScreenForm
	ScreenConfirmDelete
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	panelPadding     = 8  // Panel border (2) plus horizontal padding (4) plus margin
	frameOverhead    = 8  // Header, footer, panel border and padding, status line
)

// Deps are the shared handlers the TUI drives
type Deps struct {
	APIURL  string
	State   *session.State
	Guard   *route.Guard
	Loader  *projects.Loader
	Actions *projects.Actions
	Auth    *auth.Service
	// Notices are shown above the login form
	Notices []auth.Notice
}

// pageLoadedMsg is sent when a list page load finishes
type pageLoadedMsg struct {
	page projects.Page
	err  error
}

// submittedMsg is sent when a project mutation finishes
type submittedMsg struct {
	outcome projects.Outcome
	err     error
}

// loginMsg is sent when a login attempt finishes
type loginMsg struct {
	result auth.Result
	err    error
}

// logoutMsg is sent when logout finishes
type logoutMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	deps   Deps
	ctx    context.Context
	screen Screen
	width  int
	height int
	err    error

	status     string
	statusKind statusKind
	loading    bool
	submitting bool
	spinner    spinner.Model
	lastUpdate time.Time

	// query is the list cursor; next is where login continues to
	query url.Values
	next  string

	// Child models
	login *loginform.Form
	list  *projectlist.List
	form  *projectform.Form

	// Delete confirmation
	confirm   *huh.Form
	confirmed bool
	pending   *client.Project
}

// New creates the TUI. An unauthenticated session starts on the login screen.
func New(ctx context.Context, deps Deps) *App {
	a := &App{
		deps: deps,
		ctx:  ctx,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
		),
	}
	a.list = projectlist.New(a.contentWidth(), a.listHeight())

	if deps.Guard.Check().IsRedirect() {
		a.screen = ScreenLogin
		a.login = loginform.New(deps.Notices)
	} else {
		a.screen = ScreenProjects
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.screen == ScreenLogin {
		return tea.Batch(a.spinner.Tick, a.login.Init())
	}
	return tea.Batch(a.spinner.Tick, a.loadPage())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(a.contentWidth(), a.listHeight())
		return a, a.forward(msg)

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.screen == ScreenProjects {
			return a.updateProjects(msg)
		}
		return a, a.forward(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loginform.SubmitMsg:
		return a, a.submitLogin(msg.Credentials)

	case loginform.CancelledMsg:
		return a, tea.Quit

	case projectform.SubmitMsg:
		return a, a.submitForm(msg.Values)

	case projectform.CancelledMsg:
		a.form = nil
		a.screen = ScreenProjects
		return a, nil

	case pageLoadedMsg:
		return a.handlePageLoaded(msg)

	case submittedMsg:
		return a.handleSubmitted(msg)

	case loginMsg:
		return a.handleLogin(msg)

	case logoutMsg:
		return a.handleLogout(msg)
	}

	// Forward unknown messages to the active form (needed for huh form internals)
	return a, a.forward(msg)
}

// forward passes msg to the child model of the current screen
func (a *App) forward(msg tea.Msg) tea.Cmd {
	switch a.screen {
	case ScreenLogin:
		if a.login != nil {
			_, cmd := a.login.Update(msg)
			return cmd
		}
	case ScreenForm:
		if a.form != nil {
			_, cmd := a.form.Update(msg)
			return cmd
		}
	case ScreenConfirmDelete:
		return a.updateConfirm(msg)
	}
	return nil
}

func (a *App) updateProjects(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		a.deps.Loader.Invalidate()
		return a, a.loadPage()
	case "n":
		a.form = projectform.NewCreate()
		a.screen = ScreenForm
		return a, a.form.Init()
	case "e":
		if p, ok := a.list.Selected(); ok {
			a.form = projectform.NewEdit(p)
			a.screen = ScreenForm
			return a, a.form.Init()
		}
		return a, nil
	case "d":
		if p, ok := a.list.Selected(); ok {
			return a, a.askDelete(p)
		}
		return a, nil
	case "f":
		if p, ok := a.list.Selected(); ok {
			id := strconv.Itoa(p.ID)
			return a, a.submit(func(ctx context.Context) (projects.Outcome, error) {
				return a.deps.Actions.ToggleFavorite(ctx, id, !p.Favorite)
			})
		}
		return a, nil
	case "right", "l":
		if a.list.HasNext() {
			if next, ok := a.list.Page().Request.Next(); ok {
				a.query = next.Query()
				return a, a.loadPage()
			}
		}
		return a, nil
	case "left", "h":
		if prev, ok := a.list.Page().Request.Prev(); ok {
			a.query = prev.Query()
			return a, a.loadPage()
		}
		return a, nil
	case "L":
		return a, a.logout()
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a *App) askDelete(p client.Project) tea.Cmd {
	a.pending = &p
	a.confirmed = false
	a.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s Delete %s (%s)?", icons.Delete, p.Name, p.Key)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&a.confirmed),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	a.screen = ScreenConfirmDelete
	return a.confirm.Init()
}

func (a *App) updateConfirm(msg tea.Msg) tea.Cmd {
	if a.confirm == nil {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		a.closeConfirm()
		return nil
	}

	form, cmd := a.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.confirm = f
	}
	if a.confirm.State != huh.StateCompleted {
		return cmd
	}

	p, confirmed := a.pending, a.confirmed
	a.closeConfirm()
	if !confirmed || p == nil {
		return nil
	}
	return a.deleteProject(strconv.Itoa(p.ID))
}

func (a *App) closeConfirm() {
	a.confirm = nil
	a.pending = nil
	a.screen = ScreenProjects
}

func (a *App) deleteProject(id string) tea.Cmd {
	form := url.Values{
		projects.FieldIntent:    {projects.IntentDelete.String()},
		projects.FieldProjectID: {id},
	}
	return a.submit(func(ctx context.Context) (projects.Outcome, error) {
		return a.deps.Actions.Dispatch(ctx, form)
	})
}

// submitForm validates a create or edit form before it is sent
func (a *App) submitForm(values url.Values) tea.Cmd {
	intent := projects.ParseIntent(values.Get(projects.FieldIntent))
	normalized := projects.NormalizeEdit(values)
	if intent == projects.IntentCreate {
		normalized = projects.NormalizeCreate(values)
	}
	if errs := projects.ValidateDraft(intent, projects.DraftFromForm(normalized), projects.English); errs != nil {
		if a.form != nil {
			return a.form.SetErrors(errs)
		}
		return nil
	}

	return a.submit(func(ctx context.Context) (projects.Outcome, error) {
		return a.deps.Actions.Dispatch(ctx, values)
	})
}

// submit runs one mutation. A second submission while one is in flight is
// refused.
func (a *App) submit(run func(ctx context.Context) (projects.Outcome, error)) tea.Cmd {
	if a.submitting {
		a.setStatus("Still saving, please wait", statusWarn)
		return nil
	}
	a.submitting = true
	a.status = ""

	ctx := a.ctx
	return func() tea.Msg {
		out, err := run(ctx)
		return submittedMsg{outcome: out, err: err}
	}
}

func (a *App) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	a.submitting = false
	if msg.err != nil {
		return a, a.handleError(msg.err)
	}
	out := msg.outcome

	if a.screen == ScreenForm && a.form != nil {
		switch out.Kind {
		case projects.OutcomeErrors:
			return a, a.form.SetErrors(out.Errors)
		case projects.OutcomeRejected:
			return a, a.form.SetRejected(out.Detail)
		case projects.OutcomeSaved:
			a.form = nil
			a.screen = ScreenProjects
			a.setStatus(savedText(out.Project), statusDone)
			return a, a.loadPage()
		}
		return a, nil
	}

	switch out.Kind {
	case projects.OutcomeSaved:
		a.setStatus(savedText(out.Project), statusDone)
		return a, a.loadPage()
	case projects.OutcomeNavigate:
		a.setStatus("Project deleted", statusDone)
		a.query = queryOf(out.Directive.Target)
		return a, a.loadPage()
	case projects.OutcomeErrors:
		a.setStatus(joinErrors(out.Errors), statusFailed)
	case projects.OutcomeRejected:
		a.setStatus(out.Detail, statusFailed)
	case projects.OutcomeNoOp:
		if out.Intent == projects.IntentDelete {
			a.setStatus("Project not deleted: "+out.Detail, statusWarn)
		}
	}
	return a, nil
}

func (a *App) submitLogin(creds auth.Credentials) tea.Cmd {
	if a.submitting {
		return nil
	}
	a.submitting = true

	ctx, next := a.ctx, a.next
	return func() tea.Msg {
		res, err := a.deps.Auth.Login(ctx, creds, next)
		return loginMsg{result: res, err: err}
	}
}

func (a *App) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	a.submitting = false
	if a.login == nil {
		return a, nil
	}
	if msg.err != nil {
		slog.Error("Login failed", "error", msg.err)
		return a, a.login.SetErrors(map[string]string{auth.FieldAuth: msg.err.Error()})
	}
	if len(msg.result.Errors) > 0 {
		return a, a.login.SetErrors(msg.result.Errors)
	}

	a.login = nil
	a.next = ""
	a.screen = ScreenProjects
	a.query = queryOf(msg.result.Directive.Target)
	a.setStatus("Signed in", statusDone)
	return a, a.loadPage()
}

func (a *App) logout() tea.Cmd {
	if a.submitting {
		a.setStatus("Still saving, please wait", statusWarn)
		return nil
	}
	a.submitting = true

	ctx := a.ctx
	return func() tea.Msg {
		_, err := a.deps.Auth.Logout(ctx)
		return logoutMsg{err: err}
	}
}

func (a *App) handleLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	a.submitting = false
	if msg.err != nil {
		slog.Error("Logout failed", "error", msg.err)
		a.setStatus("Logout failed: "+msg.err.Error(), statusFailed)
		return a, nil
	}
	a.query = nil
	a.next = ""
	cmd := a.showLogin()
	a.setStatus("Signed out", statusDone)
	return a, cmd
}

// loadPage fetches the page named by the current cursor
func (a *App) loadPage() tea.Cmd {
	a.loading = true
	ctx, query := a.ctx, a.query
	return func() tea.Msg {
		page, err := a.deps.Loader.Load(ctx, query)
		return pageLoadedMsg{page: page, err: err}
	}
}

func (a *App) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	a.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return a, a.handleError(msg.err)
		}
		slog.Error("Failed to load projects", "error", msg.err)
		a.err = msg.err
		return a, nil
	}
	if msg.page.Directive.IsRedirect() {
		a.next = a.listPath()
		return a, a.showLogin()
	}

	a.err = nil
	a.list.SetPage(msg.page)
	a.lastUpdate = time.Now()
	return a, nil
}

// handleError drops a session the backend rejected; anything else is shown
// on the status line
func (a *App) handleError(err error) tea.Cmd {
	if errors.Is(err, client.ErrUnauthorized) {
		slog.Info("Backend rejected session, logged out locally")
		a.deps.Auth.Expire()
		a.next = a.listPath()
		cmd := a.showLogin()
		a.setStatus("Session expired, please sign in again", statusWarn)
		return cmd
	}
	slog.Error("Request failed", "error", err)
	a.setStatus("Error: "+err.Error(), statusFailed)
	return nil
}

func (a *App) showLogin() tea.Cmd {
	a.form = nil
	a.confirm = nil
	a.pending = nil
	a.err = nil
	a.login = loginform.New(nil)
	a.screen = ScreenLogin
	return a.login.Init()
}

// listPath is the list view path for the current cursor
func (a *App) listPath() string {
	if len(a.query) == 0 {
		return route.Projects
	}
	return route.Projects + "?" + a.query.Encode()
}

type statusKind int

const (
	statusDone statusKind = iota
	statusWarn
	statusFailed
)

func (a *App) setStatus(text string, kind statusKind) {
	a.status = text
	a.statusKind = kind
}

// queryOf returns the query of a directive target such as /projects?page=2
func queryOf(target string) url.Values {
	u, err := url.Parse(target)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	return u.Query()
}

func savedText(p *client.Project) string {
	if p == nil {
		return "Project saved"
	}
	return fmt.Sprintf("Saved %s (%s)", p.Name, p.Key)
}

func joinErrors(errs projects.FieldErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, msg := range errs {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenProjects:
		content = a.viewProjects()
	case ScreenForm:
		content = a.viewForm()
	case ScreenConfirmDelete:
		content = a.viewConfirm()
	}

	return a.wrapWithFrame(content + "\n" + a.viewStatus())
}

func (a *App) viewLogin() string {
	if a.login == nil {
		return ""
	}
	return styles.ActivePanel.Width(a.contentWidth()).Render(a.login.View())
}

func (a *App) viewProjects() string {
	if a.err != nil {
		return styles.Panel.Width(a.contentWidth()).Render(
			styles.StatusCritical.Render("Error: "+a.err.Error()) + "\n" +
				styles.Help.Render("Press r to retry"))
	}
	title := styles.Title.Render(icons.Project.String() + " Projects")
	return styles.ActivePanel.Width(a.contentWidth()).Render(title + "\n" + a.list.View())
}

func (a *App) viewForm() string {
	if a.form == nil {
		return ""
	}
	return styles.ActivePanel.Width(a.contentWidth()).Render(a.form.View())
}

func (a *App) viewConfirm() string {
	if a.confirm == nil {
		return ""
	}
	return styles.ActivePanel.Width(a.contentWidth()).Render(a.confirm.View())
}

// viewStatus renders the spinner or the last action's result
func (a *App) viewStatus() string {
	switch {
	case a.submitting:
		return a.spinner.View() + " Saving..."
	case a.loading:
		return a.spinner.View() + " Loading projects..."
	case a.status == "":
		return ""
	case a.statusKind == statusWarn:
		return styles.StatusWarning.Render(icons.Warning.String() + " " + a.status)
	case a.statusKind == statusFailed:
		return styles.StatusCritical.Render(icons.Critical.String() + " " + a.status)
	}
	return styles.StatusOK.Render(icons.CheckOK.String() + " " + a.status)
}

// frameWidth leaves one column spare to prevent wrapping on some terminals
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentWidth calculates the width inside a panel
func (a *App) contentWidth() int {
	return a.frameWidth() - panelPadding
}

// listHeight calculates the rows available to the project table
func (a *App) listHeight() int {
	// Panel title (2) and paginator line (1) sit inside the panel
	return a.height - frameOverhead - 3
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftRendered := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Bugtracker"))

	rightRendered := ""
	if a.deps.APIURL != "" {
		label := a.deps.APIURL
		if a.screen != ScreenLogin && a.deps.State.IsAuthenticated() {
			label = icons.Lock.String() + " " + label
		}
		rightRendered = " " + contextStyle.Render(label) + " "
	}

	leftWidth := lipgloss.Width(leftRendered)
	rightWidth := lipgloss.Width(rightRendered)
	if leftWidth+rightWidth+4 > width {
		rightRendered = ""
		rightWidth = 0
	}
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	// Build keyboard shortcuts based on current screen
	var shortcuts []string
	switch a.screen {
	case ScreenLogin:
		shortcuts = []string{"Tab Next", "Enter Submit", "Esc Quit"}
	case ScreenProjects:
		shortcuts = []string{
			"n New", "e Edit", "d Del", "f Fav", "←→ Page",
			"r " + icons.Refresh.String() + " Refresh",
			"L " + icons.Logout.String() + " Logout",
			"q " + icons.Quit.String() + " Quit",
		}
	case ScreenForm:
		shortcuts = []string{"Tab Next", "Enter Save", "Esc Cancel"}
	case ScreenConfirmDelete:
		shortcuts = []string{"←→ Select", "Enter Confirm", "Esc Cancel"}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		styledShortcuts = append(styledShortcuts, styles.KeyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
	}

	leftText := " " + strings.Join(styledShortcuts, "  ") + " "
	leftPlainText := " " + strings.Join(shortcuts, "  ") + " "

	// Right side status (last update time)
	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenProjects {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = " " + statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = " Updated " + elapsed + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	if leftWidth+rightWidth+4 > width {
		rightText = ""
		rightWidth = 0
	}
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI
func Run(ctx context.Context, deps Deps) error {
	app := New(ctx, deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
