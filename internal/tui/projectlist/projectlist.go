// ABOUTME: Project list screen rendered with a bubbles table and paginator
// ABOUTME: Shows one backend page at a time and tracks the selected project

package projectlist

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/tui/icons"
	"github.com/markalston/bugtracker-cli/internal/tui/styles"
)

// EmptyText is shown for a user with no projects
const EmptyText = "You don't have any projects yet. Press n to create one."

const (
	minHeight = 3
	maxDots   = 10
	// fixed column widths; the name column takes the rest
	idWidth   = 6
	keyWidth  = 12
	typeWidth = 12
	starWidth = 3
)

// List shows one page of projects
type List struct {
	table table.Model
	pager paginator.Model
	page  projects.Page
	width int
}

// New creates an empty list sized for the given content area
func New(width, height int) *List {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height, minHeight)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)

	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = lipgloss.NewStyle().Foreground(styles.Primary).Render("•")
	p.InactiveDot = lipgloss.NewStyle().Foreground(styles.Muted).Render("•")

	return &List{table: t, pager: p, width: width}
}

func columns(width int) []table.Column {
	name := width - idWidth - keyWidth - typeWidth - starWidth - 10
	if name < 10 {
		name = 10
	}
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Key", Width: keyWidth},
		{Title: "Name", Width: name},
		{Title: "Type", Width: typeWidth},
		{Title: icons.Favorite.Fallback, Width: starWidth},
	}
}

// SetSize resizes the table to the content area
func (l *List) SetSize(width, height int) {
	l.width = width
	l.table.SetColumns(columns(width))
	l.table.SetHeight(max(height, minHeight))
}

// SetPage replaces the rows with a freshly loaded page
func (l *List) SetPage(p projects.Page) {
	l.page = p

	rows := make([]table.Row, 0, len(p.Projects))
	for _, proj := range p.Projects {
		star := ""
		if proj.Favorite {
			star = icons.Favorite.Fallback
		}
		rows = append(rows, table.Row{strconv.Itoa(proj.ID), proj.Key, proj.Name, proj.Type, star})
	}
	l.table.SetRows(rows)
	if l.table.Cursor() >= len(rows) {
		l.table.SetCursor(max(len(rows)-1, 0))
	}

	l.pager.TotalPages = max(p.Pages, 1)
	l.pager.Type = paginator.Dots
	if l.pager.TotalPages > maxDots {
		l.pager.Type = paginator.Arabic
	}
	l.pager.Page = min(p.Request.Number(), l.pager.TotalPages) - 1
}

// Page returns the page currently shown
func (l *List) Page() projects.Page {
	return l.page
}

// Selected returns the project under the cursor
func (l *List) Selected() (client.Project, bool) {
	i := l.table.Cursor()
	if i < 0 || i >= len(l.page.Projects) {
		return client.Project{}, false
	}
	return l.page.Projects[i], true
}

// HasNext reports whether the backend has a page after this one. Without a
// page count any full page may have a successor.
func (l *List) HasNext() bool {
	if l.page.Empty {
		return false
	}
	if l.page.Pages > 0 {
		return l.page.Request.Number() < l.page.Pages
	}
	limit, err := strconv.Atoi(l.page.Request.Limit)
	return err == nil && len(l.page.Projects) >= limit
}

// Update moves the cursor
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	var cmd tea.Cmd
	l.table, cmd = l.table.Update(msg)
	return l, cmd
}

// View implements tea.Model
func (l *List) View() string {
	if l.page.Empty {
		return styles.Subtitle.Render(EmptyText)
	}

	var sb strings.Builder
	sb.WriteString(l.table.View())
	sb.WriteString("\n")

	status := "Page " + strconv.Itoa(l.page.Request.Number())
	if l.page.Pages > 0 {
		status += " of " + strconv.Itoa(l.page.Pages)
		sb.WriteString(l.pager.View() + "  ")
	}
	if l.page.Count > 0 {
		status += " (" + strconv.Itoa(l.page.Count) + " projects)"
	}
	sb.WriteString(styles.Subtitle.Render(status))
	return sb.String()
}
