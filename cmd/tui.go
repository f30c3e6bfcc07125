// ABOUTME: TUI command for the bugtracker CLI
// ABOUTME: Starts the interactive bubbletea interface on the shared app state

package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/tui"
)

var tuiNotices []string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Long: `Start the interactive terminal UI.

Use --notice to show a banner above the login form, e.g. after following a
verification link: register, verify, forgotPassword or resetPassword.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer cancel()

		exitCode := withApp(os.Stderr, func(a *app) int {
			if err := tui.Run(ctx, a.tuiDeps(tuiNotices)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return exitError
			}
			return exitOK
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringSliceVar(&tuiNotices, "notice", nil, "Login banner to show (repeatable)")
}

func (a *app) tuiDeps(notices []string) tui.Deps {
	q := url.Values{}
	for _, n := range notices {
		q.Set(n, "")
	}
	return tui.Deps{
		APIURL:  a.cfg.APIURL,
		State:   a.state,
		Guard:   a.guard,
		Loader:  a.loader,
		Actions: a.actions,
		Auth:    a.auth,
		Notices: auth.NoticesFor(q),
	}
}
