// ABOUTME: Test helpers for TUI tests
// ABOUTME: Wires real handlers against an httptest backend

package tui

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/bugtracker-cli/internal/auth"
	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/pagination"
	"github.com/markalston/bugtracker-cli/internal/projects"
	"github.com/markalston/bugtracker-cli/internal/route"
	"github.com/markalston/bugtracker-cli/internal/session"
)

// newTestDeps wires handlers against handler. authenticated seeds the session.
func newTestDeps(t *testing.T, handler http.HandlerFunc, authenticated bool) (Deps, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	state := session.New()
	if authenticated {
		state.Login("tok", time.Hour)
	}
	c := client.New(server.URL, client.WithTokenSource(state))
	guard := route.NewGuard(state)
	loader := projects.NewLoader(guard, c, pagination.Default, 0)
	t.Cleanup(loader.Close)

	return Deps{
		APIURL:  server.URL,
		State:   state,
		Guard:   guard,
		Loader:  loader,
		Actions: projects.NewActions(c, projects.English, loader),
		Auth:    auth.NewService(c, state, nil, time.Hour).WithInvalidator(loader),
	}, &hits
}

func noBackend(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func samplePage() projects.Page {
	return projects.Page{
		Request: pagination.Default,
		Projects: []client.Project{
			{ID: 1, Name: "Tracker", Key: "TRK", Type: "Back-end", Favorite: true},
			{ID: 2, Name: "Website", Key: "WEB", Type: "Front-end"},
		},
		Count: 45,
		Pages: 3,
	}
}
