// ABOUTME: Root command for the bugtracker CLI
// ABOUTME: Handles global flags and wires the shared session, client and handlers

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/config"
	"github.com/markalston/bugtracker-cli/internal/logger"
	"github.com/markalston/bugtracker-cli/internal/pagination"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/route"
	"github.com/markalston/bugtracker-cli/internal/session"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string
)

// Exit codes
const (
	exitOK      = 0
	exitInvalid = 1 // input rejected; the user must correct it
	exitError   = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "bugtracker",
	Short: "Terminal client for the bugtracker project tracker",
	Long: `bugtracker is a terminal client for the bugtracker backend.

It signs you in, lists your projects page by page, and creates, edits,
favorites and deletes them. Run "bugtracker tui" for the interactive UI.

Exit codes:
  0 - Success
  1 - Rejected input (validation or conflict)
  2 - Error (connectivity, not logged in, invalid flags)

Environment Variables:
  BUGTRACKER_API_URL     Backend API URL (default: http://localhost:8000)
  BUGTRACKER_CONFIG_DIR  Session and log directory (default: ~/.config/bugtracker)
  BUGTRACKER_ENV_FILE    .env file to load (default: ./.env)
  PAGE_LIMIT             Projects per page (default: 20)
  REQUEST_TIMEOUT        Backend request timeout (default: 30s)
  LOG_LEVEL, LOG_FORMAT  Debug log settings (written to debug.log)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides BUGTRACKER_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for the saved session and debug log")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// app holds everything one invocation shares. There is exactly one session
// state per process and every handler reads the same instance.
type app struct {
	cfg     *config.Config
	state   *session.State
	store   *session.Store
	client  *client.Client
	guard   *route.Guard
	loader  *projects.Loader
	actions *projects.Actions
	auth    *auth.Service
	logFile io.Closer
}

// newApp loads configuration, applies global flags and starts logging
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = strings.TrimRight(apiURL, "/")
	}
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = session.DefaultConfigDir()
	}

	var logFile io.Closer
	out, err := logger.OpenFile(cfg.ConfigDir)
	if err != nil {
		logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.Warn("Cannot open debug log, logging to stderr", "error", err)
	} else {
		logger.Init(out, cfg.LogLevel, cfg.LogFormat)
		logFile = out
	}

	a := buildApp(cfg)
	a.logFile = logFile
	slog.Debug("Starting", "api_url", cfg.APIURL, "config_dir", cfg.ConfigDir, "authenticated", a.state.IsAuthenticated())
	return a, nil
}

// buildApp wires the handlers from an already loaded configuration
func buildApp(cfg *config.Config) *app {
	store := session.NewStore(cfg.ConfigDir)
	state := store.LoadState()

	c := client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		client.WithTokenSource(state),
		client.WithProxy(cfg.AllProxy),
	)

	guard := route.NewGuard(state)
	loader := projects.NewLoader(guard, c, pagination.WithLimit(cfg.PageLimit), cfg.PageCacheTTL)

	return &app{
		cfg:     cfg,
		state:   state,
		store:   store,
		client:  c,
		guard:   guard,
		loader:  loader,
		actions: projects.NewActions(c, projects.English, loader),
		auth:    auth.NewService(c, state, store, cfg.SessionLifetime).WithInvalidator(loader),
	}
}

func (a *app) Close() {
	a.loader.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// withApp builds the app for a command and converts setup failures to exit
// code 2
func withApp(w io.Writer, run func(a *app) int) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	defer a.Close()
	return run(a)
}

// reportError prints err and drops a session the backend no longer accepts
func (a *app) reportError(w io.Writer, err error) int {
	if errors.Is(err, client.ErrUnauthorized) {
		a.auth.Expire()
		slog.Info("Backend rejected session, logged out locally")
		fmt.Fprintln(w, "Error: session expired. Run 'bugtracker login' to sign in again.")
		return exitError
	}
	slog.Error("Command failed", "error", err)
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitError
}

// reportRedirect explains a guard redirect to the login view
func reportRedirect(w io.Writer, d route.Directive) int {
	if d.Target == route.Login {
		fmt.Fprintln(w, "Error: not logged in. Run 'bugtracker login' first.")
	} else {
		fmt.Fprintf(w, "Error: redirected to %s\n", d.Target)
	}
	return exitError
}

func printJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
