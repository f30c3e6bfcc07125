// ABOUTME: Login screen as a bubbletea model
// ABOUTME: Wraps a huh form and shows notices and backend login errors above it

package loginform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/tui/icons"
	"github.com/markalston/bugtracker-cli/internal/tui/styles"
)

// SubmitMsg is sent when the user submits the form
type SubmitMsg struct {
	Credentials auth.Credentials
}

// CancelledMsg is sent when the user leaves the login screen
type CancelledMsg struct{}

// errorOrder lists login error keys in display order
var errorOrder = []string{auth.FieldAuth, auth.FieldVerify, auth.FieldEmail, auth.FieldPassword}

// Form is the login view
type Form struct {
	email    string
	password string
	notices  []auth.Notice
	errors   map[string]string
	form     *huh.Form
}

// New creates a login form showing the given notices
func New(notices []auth.Notice) *Form {
	f := &Form{notices: notices}
	f.form = f.build()
	return f
}

func (f *Form) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&f.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
		).Title(icons.Lock.String() + " Sign in"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// SetErrors shows errors and reopens the form. The password is cleared.
func (f *Form) SetErrors(errs map[string]string) tea.Cmd {
	f.errors = errs
	f.password = ""
	f.form = f.build()
	return f.form.Init()
}

// Errors returns the errors currently shown
func (f *Form) Errors() map[string]string {
	return f.errors
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		creds := auth.Credentials{Email: f.email, Password: f.password}
		f.form = f.build()
		return f, tea.Batch(f.form.Init(), func() tea.Msg { return SubmitMsg{Credentials: creds} })
	}
	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder

	for _, n := range f.notices {
		style := styles.StatusInfo
		icon := icons.Info
		if n.Kind == auth.NoticeSuccess {
			style = styles.StatusOK
			icon = icons.CheckOK
		}
		line := icon.String() + " " + n.Title
		if n.Body != "" {
			line += " " + n.Body
		}
		sb.WriteString(style.Render(line) + "\n")
	}

	for _, key := range errorOrder {
		if msg, ok := f.errors[key]; ok {
			sb.WriteString(styles.FieldError.Render(icons.Critical.String()+" "+msg) + "\n")
		}
	}

	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(f.form.View())
	return sb.String()
}
