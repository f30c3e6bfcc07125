// ABOUTME: Login and logout commands for the bugtracker CLI
// ABOUTME: Prompts for missing credentials with huh and saves the session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/route"
)

var (
	loginEmail    string
	loginPassword string
	loginNext     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend",
	Long: `Sign in and save the session for later commands.

Missing --email or --password values are prompted for. The password may
also be given in BUGTRACKER_PASSWORD.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withApp(os.Stdout, func(a *app) int {
			creds := auth.Credentials{Email: loginEmail, Password: loginPassword}
			if creds.Password == "" {
				creds.Password = os.Getenv("BUGTRACKER_PASSWORD")
			}
			if creds.Email == "" || creds.Password == "" {
				if err := promptCredentials(&creds); err != nil {
					fmt.Fprintf(os.Stdout, "Error: %v\n", err)
					return exitError
				}
			}
			return runLogin(ctx, os.Stdout, a, creds, loginNext)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withApp(os.Stdout, func(a *app) int {
			return runLogout(ctx, os.Stdout, a)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginNext, "next", "", "View to continue to after login")
}

// runLogin signs in and returns the exit code
func runLogin(ctx context.Context, w io.Writer, a *app, creds auth.Credentials, next string) int {
	if d := a.guard.RedirectIfAuthenticated(); d.IsRedirect() && next == "" {
		if IsJSONOutput() {
			printJSON(w, auth.Result{Directive: d})
		} else {
			fmt.Fprintln(w, "Already logged in.")
		}
		return exitOK
	}

	res, err := a.auth.Login(ctx, creds, next)
	if err != nil {
		return a.reportError(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, res)
	} else if len(res.Errors) > 0 {
		fmt.Fprint(w, formatFieldErrors(res.Errors))
	} else {
		fmt.Fprintf(w, "Logged in to %s. Continue at %s\n", a.cfg.APIURL, res.Directive.Target)
	}

	if len(res.Errors) > 0 {
		return exitInvalid
	}
	return exitOK
}

// runLogout signs out and returns the exit code
func runLogout(ctx context.Context, w io.Writer, a *app) int {
	if !a.state.Snapshot().Authenticated {
		if IsJSONOutput() {
			printJSON(w, auth.Result{Directive: route.Redirect(route.Login)})
		} else {
			fmt.Fprintln(w, "Not logged in.")
		}
		return exitOK
	}

	res, err := a.auth.Logout(ctx)
	if err != nil {
		return a.reportError(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, res)
	} else {
		fmt.Fprintln(w, "Logged out.")
	}
	return exitOK
}

func promptCredentials(creds *auth.Credentials) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&creds.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password),
		),
	).Run()
}

// formatFieldErrors lists field errors in a stable order
func formatFieldErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out string
	for _, k := range keys {
		out += fmt.Sprintf("✗ %s: %s\n", k, errs[k])
	}
	return out
}
