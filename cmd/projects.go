// ABOUTME: Project commands for the bugtracker CLI
// ABOUTME: Lists pages and submits create, edit, delete and favorite forms

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/pagination"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/tui/icons"
	"github.com/markalston/bugtracker-cli/internal/tui/styles"
)

var (
	listPage  string
	listLimit string

	projectName     string
	projectKey      string
	projectType     string
	projectFavorite bool

	deleteYes   bool
	favoriteOff bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project", "p"},
	Short:   "List and manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of your projects",
	Long: `Show one page of your projects.

Without --page the first page at the configured size is shown. With --page
the given page and --limit are sent to the backend as-is; --limit defaults
to the configured page size.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		query := url.Values{}
		if cmd.Flags().Changed("page") {
			query.Set(pagination.PageParam, listPage)
		}
		if cmd.Flags().Changed("limit") {
			query.Set(pagination.LimitParam, listLimit)
		}
		runProjectCommand(func(ctx context.Context, w io.Writer, a *app) int {
			return runList(ctx, w, a, query)
		})
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		form := formFromFlags(cmd, projects.IntentCreate)
		runProjectCommand(func(ctx context.Context, w io.Writer, a *app) int {
			return runSubmit(ctx, w, a, form)
		})
	},
}

var projectsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a project",
	Long: `Edit a project.

Only the given fields are changed, except the favorite flag: like the edit
form's checkbox, leaving out --favorite clears it. Use "projects favorite"
to change only the flag.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		form := formFromFlags(cmd, projects.IntentEdit)
		form.Set(projects.FieldProjectID, args[0])
		runProjectCommand(func(ctx context.Context, w io.Writer, a *app) int {
			return runSubmit(ctx, w, a, form)
		})
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		if !deleteYes && !confirmDelete(id) {
			fmt.Println("Canceled.")
			return
		}
		form := url.Values{
			projects.FieldIntent:    {projects.IntentDelete.String()},
			projects.FieldProjectID: {id},
		}
		runProjectCommand(func(ctx context.Context, w io.Writer, a *app) int {
			return runSubmit(ctx, w, a, form)
		})
	},
}

var projectsFavoriteCmd = &cobra.Command{
	Use:   "favorite ID",
	Short: "Mark a project as favorite (or clear it with --off)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		runProjectCommand(func(ctx context.Context, w io.Writer, a *app) int {
			return runFavorite(ctx, w, a, id, !favoriteOff)
		})
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsEditCmd, projectsDeleteCmd, projectsFavoriteCmd)

	projectsListCmd.Flags().StringVar(&listPage, "page", "", "Page to show")
	projectsListCmd.Flags().StringVar(&listLimit, "limit", "", "Projects per page (with --page, default PAGE_LIMIT)")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsEditCmd} {
		c.Flags().StringVar(&projectName, "name", "", "Project name")
		c.Flags().StringVar(&projectKey, "key", "", "Project key (stored uppercase)")
		c.Flags().StringVar(&projectType, "type", "", "Project type: Fullstack, Back-end or Front-end")
		c.Flags().BoolVar(&projectFavorite, "favorite", false, "Mark as favorite")
	}

	projectsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
	projectsFavoriteCmd.Flags().BoolVar(&favoriteOff, "off", false, "Clear the favorite flag")
}

func runProjectCommand(run func(ctx context.Context, w io.Writer, a *app) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := withApp(os.Stdout, func(a *app) int {
		return run(ctx, os.Stdout, a)
	})
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// formFromFlags builds a submission from the flags the user actually set
func formFromFlags(cmd *cobra.Command, intent projects.Intent) url.Values {
	form := url.Values{projects.FieldIntent: {intent.String()}}
	flags := cmd.Flags()
	if flags.Changed("name") {
		form.Set(projects.FieldName, projectName)
	}
	if flags.Changed("key") {
		form.Set(projects.FieldKey, projectKey)
	}
	if flags.Changed("type") {
		form.Set(projects.FieldType, projectType)
	}
	if flags.Changed("favorite") && projectFavorite {
		form.Set(projects.FieldFavorite, "on")
	}
	return form
}

// runList prints one page of projects and returns the exit code
func runList(ctx context.Context, w io.Writer, a *app, query url.Values) int {
	if query.Has(pagination.PageParam) && !query.Has(pagination.LimitParam) {
		query.Set(pagination.LimitParam, strconv.Itoa(a.cfg.PageLimit))
	}

	page, err := a.loader.Load(ctx, query)
	if err != nil {
		return a.reportError(w, err)
	}
	if page.Directive.IsRedirect() {
		return reportRedirect(w, page.Directive)
	}

	if IsJSONOutput() {
		printJSON(w, page)
		return exitOK
	}
	fmt.Fprint(w, formatPageHuman(page))
	return exitOK
}

// runSubmit validates and dispatches a project form
func runSubmit(ctx context.Context, w io.Writer, a *app, form url.Values) int {
	if d := a.guard.Check(); d.IsRedirect() {
		return reportRedirect(w, d)
	}

	intent := projects.ParseIntent(form.Get(projects.FieldIntent))
	if intent == projects.IntentCreate || intent == projects.IntentEdit {
		normalized := projects.NormalizeEdit(form)
		if intent == projects.IntentCreate {
			normalized = projects.NormalizeCreate(form)
		}
		if errs := projects.ValidateDraft(intent, projects.DraftFromForm(normalized), projects.English); errs != nil {
			return printOutcome(w, projects.Outcome{Kind: projects.OutcomeErrors, Intent: intent, Errors: errs})
		}
	}

	out, err := a.actions.Dispatch(ctx, form)
	if err != nil {
		return a.reportError(w, err)
	}
	return printOutcome(w, out)
}

// runFavorite sets or clears the favorite flag of one project
func runFavorite(ctx context.Context, w io.Writer, a *app, id string, favorite bool) int {
	if d := a.guard.Check(); d.IsRedirect() {
		return reportRedirect(w, d)
	}

	out, err := a.actions.ToggleFavorite(ctx, id, favorite)
	if err != nil {
		return a.reportError(w, err)
	}
	return printOutcome(w, out)
}

// printOutcome reports a submission result and maps it to an exit code
func printOutcome(w io.Writer, out projects.Outcome) int {
	if IsJSONOutput() {
		printJSON(w, out)
	} else {
		fmt.Fprint(w, formatOutcomeHuman(out))
	}

	switch out.Kind {
	case projects.OutcomeSaved, projects.OutcomeNavigate:
		return exitOK
	case projects.OutcomeErrors, projects.OutcomeRejected:
		return exitInvalid
	}
	if out.Intent == projects.IntentDelete {
		return exitInvalid
	}
	return exitOK
}

func formatOutcomeHuman(out projects.Outcome) string {
	switch out.Kind {
	case projects.OutcomeSaved:
		if out.Project == nil {
			return "✓ Saved\n"
		}
		return fmt.Sprintf("✓ Saved %s (%s)\n", out.Project.Name, out.Project.Key)
	case projects.OutcomeNavigate:
		if out.Intent == projects.IntentDelete {
			return "✓ Deleted\n"
		}
		return fmt.Sprintf("→ %s\n", out.Directive.Target)
	case projects.OutcomeErrors:
		return formatFieldErrors(out.Errors)
	case projects.OutcomeRejected:
		return fmt.Sprintf("✗ Rejected by backend: %s\n", out.Detail)
	}
	if out.Intent == projects.IntentDelete {
		if out.Detail != "" {
			return fmt.Sprintf("✗ Not deleted: %s\n", out.Detail)
		}
		return "✗ Not deleted\n"
	}
	return "Nothing to do\n"
}

func formatPageHuman(page projects.Page) string {
	if page.Empty {
		return "You don't have any projects yet. Create one with 'bugtracker projects create'.\n"
	}

	rows := make([][]string, 0, len(page.Projects))
	for _, p := range page.Projects {
		rows = append(rows, projectRow(p))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "KEY", "NAME", "TYPE", icons.Favorite.Fallback).
		Rows(rows...)

	out := t.Render() + "\n"
	if page.Pages > 0 {
		out += fmt.Sprintf("Page %d of %d", page.Request.Number(), page.Pages)
		if page.Count > 0 {
			out += fmt.Sprintf(" (%d projects)", page.Count)
		}
		out += "\n"
	} else {
		out += fmt.Sprintf("Page %s\n", page.Request.Page)
	}
	return out
}

func projectRow(p client.Project) []string {
	star := ""
	if p.Favorite {
		star = styles.Favorite.Render(icons.Favorite.Fallback)
	}
	return []string{strconv.Itoa(p.ID), p.Key, p.Name, p.Type, star}
}

func confirmDelete(id string) bool {
	confirmed := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete project %s?", id)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	return err == nil && confirmed
}
