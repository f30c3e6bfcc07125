// ABOUTME: Create and edit project screen as a bubbletea model
// ABOUTME: Builds the submitted form values and shows field errors inline

package projectform

import (
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/tui/icons"
	"github.com/markalston/bugtracker-cli/internal/tui/styles"
)

// SubmitMsg carries the submitted form values
type SubmitMsg struct {
	Values url.Values
}

// CancelledMsg is sent when the user leaves the form
type CancelledMsg struct{}

// Form is the create or edit view for one project
type Form struct {
	intent   projects.Intent
	id       string
	name     string
	key      string
	typ      string
	favorite bool
	errors   projects.FieldErrors
	rejected string
	form     *huh.Form
}

// NewCreate returns an empty create form
func NewCreate() *Form {
	f := &Form{intent: projects.IntentCreate, typ: projects.ProjectTypes[0]}
	f.form = f.build()
	return f
}

// NewEdit returns an edit form prefilled from p
func NewEdit(p client.Project) *Form {
	f := &Form{
		intent:   projects.IntentEdit,
		id:       strconv.Itoa(p.ID),
		name:     p.Name,
		key:      p.Key,
		typ:      p.Type,
		favorite: p.Favorite,
	}
	f.form = f.build()
	return f
}

// Intent returns whether the form creates or edits
func (f *Form) Intent() projects.Intent {
	return f.intent
}

func (f *Form) build() *huh.Form {
	title := icons.Add.String() + " New project"
	if f.intent == projects.IntentEdit {
		title = icons.Edit.String() + " Edit " + f.key
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description(f.errorFor(projects.FieldName)).
				Value(&f.name),
			huh.NewInput().
				Title("Key").
				Description(f.errorFor(projects.FieldKey)).
				CharLimit(10).
				Value(&f.key),
			huh.NewSelect[string]().
				Title("Type").
				Description(f.errorFor(projects.FieldType)).
				Options(huh.NewOptions(projects.ProjectTypes...)...).
				Value(&f.typ),
			huh.NewConfirm().
				Title("Favorite").
				Affirmative("Yes").
				Negative("No").
				Value(&f.favorite),
		).Title(title),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (f *Form) errorFor(field string) string {
	if msg, ok := f.errors[projects.ErrorKey(f.intent, field)]; ok {
		return icons.Critical.String() + " " + msg
	}
	return ""
}

// Values returns the form as submitted. The favorite field follows checkbox
// rules and is present only when set.
func (f *Form) Values() url.Values {
	v := url.Values{
		projects.FieldIntent: {f.intent.String()},
		projects.FieldName:   {f.name},
		projects.FieldKey:    {f.key},
		projects.FieldType:   {f.typ},
	}
	if f.intent == projects.IntentEdit {
		v.Set(projects.FieldProjectID, f.id)
	}
	if f.favorite {
		v.Set(projects.FieldFavorite, "on")
	}
	return v
}

// SetErrors shows field errors next to their inputs and reopens the form
func (f *Form) SetErrors(errs projects.FieldErrors) tea.Cmd {
	f.errors = errs
	f.rejected = ""
	f.form = f.build()
	return f.form.Init()
}

// SetRejected shows a backend message that belongs to no field
func (f *Form) SetRejected(detail string) tea.Cmd {
	f.errors = nil
	f.rejected = detail
	f.form = f.build()
	return f.form.Init()
}

// Errors returns the field errors currently shown
func (f *Form) Errors() projects.FieldErrors {
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
		values := f.Values()
		f.form = f.build()
		return f, tea.Batch(f.form.Init(), func() tea.Msg { return SubmitMsg{Values: values} })
	}
	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	if f.rejected != "" {
		sb.WriteString(styles.FieldError.Render(icons.Critical.String()+" "+f.rejected) + "\n\n")
	}
	sb.WriteString(f.form.View())
	sb.WriteString(styles.Help.Render("enter next • esc cancel"))
	return sb.String()
}
