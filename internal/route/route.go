// ABOUTME: Navigation directives and the authentication route guard
// ABOUTME: Guards consult session state before a protected view loads

package route

import (
	"github.com/markalston/bugtracker-cli/internal/session"
)

// Known view paths
const (
	Login    = "/login"
	Logout   = "/logout"
	Projects = "/projects"
)

// Directive tells the caller whether to continue rendering or navigate away
type Directive struct {
	// Target is empty when the view may proceed
	Target string
	// Replace asks the caller to replace the current history entry
	Replace bool
}

// Proceed lets the current view continue
func Proceed() Directive {
	return Directive{}
}

// Redirect navigates to target, replacing the current history entry
func Redirect(target string) Directive {
	return Directive{Target: target, Replace: true}
}

// Push navigates to target, keeping the current history entry
func Push(target string) Directive {
	return Directive{Target: target}
}

// IsRedirect reports whether the directive navigates away
func (d Directive) IsRedirect() bool {
	return d.Target != ""
}

// Guard gates protected views on the shared session state
type Guard struct {
	state *session.State
}

// NewGuard creates a guard reading the given state.
// A nil state always redirects to login.
func NewGuard(state *session.State) *Guard {
	return &Guard{state: state}
}

// Check returns Proceed for an authenticated, unexpired session and a
// redirect to the login view otherwise. It never modifies the session.
func (g *Guard) Check() Directive {
	if g == nil || !g.state.IsAuthenticated() {
		return Redirect(Login)
	}
	return Proceed()
}

// RedirectIfAuthenticated is the login view's loader: signed-in users are
// sent to the project list instead of seeing the login form again.
func (g *Guard) RedirectIfAuthenticated() Directive {
	if g != nil && g.state.IsAuthenticated() {
		return Redirect(Projects)
	}
	return Proceed()
}

// LoginWithNext builds the login path carrying the view to return to.
func LoginWithNext(next string) string {
	if next == "" || next == Login {
		return Login
	}
	return Login + "?next=" + next
}
