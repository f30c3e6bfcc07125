// ABOUTME: Login and logout handlers driving the shared session state
// ABOUTME: Maps backend login codes to form errors and persists the session

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/route"
	"github.com/markalston/bugtracker-cli/internal/session"
)

// Login failure codes sent by the backend
const (
	DetailBadCredentials = "LOGIN_BAD_CREDENTIALS"
	DetailNotVerified    = "LOGIN_USER_NOT_VERIFIED"
)

// Error keys shown by the login view
const (
	FieldAuth     = "auth"
	FieldVerify   = "verify"
	FieldEmail    = "email"
	FieldPassword = "password"
)

const (
	MsgBadCredentials = "Invalid email and/or password!"
	MsgNotVerified    = "You are not verified! Check email."
)

// API is the part of the backend client the handlers use
type API interface {
	Login(ctx context.Context, username, password string) (*client.LoginResult, error)
	Logout(ctx context.Context) (*client.LogoutResult, error)
}

// Invalidator drops data cached for the previous user
type Invalidator interface {
	Invalidate()
}

// Credentials are the login form fields
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is either a navigation directive or login form errors
type Result struct {
	Directive route.Directive   `json:"directive,omitzero"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Service runs login and logout against the backend and the session state
type Service struct {
	api      API
	state    *session.State
	store    *session.Store
	lifetime time.Duration
	cache    Invalidator
}

var validate = validator.New()

// NewService creates the handlers. store may be nil to skip persistence;
// fallback is the session lifetime used when the backend reports none.
func NewService(api API, state *session.State, store *session.Store, fallback time.Duration) *Service {
	return &Service{api: api, state: state, store: store, lifetime: fallback}
}

// WithInvalidator clears inv whenever the session changes hands
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.cache = inv
	return s
}

// ValidateCredentials checks the form before anything is sent
func ValidateCredentials(creds Credentials) map[string]string {
	err := validate.Struct(creds)
	if err == nil {
		return nil
	}

	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[FieldAuth] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		switch {
		case fe.Field() == "Email" && fe.Tag() == "email":
			errs[FieldEmail] = "Email must be a valid address"
		case fe.Field() == "Email":
			errs[FieldEmail] = "Email is required"
		case fe.Field() == "Password":
			errs[FieldPassword] = "Password is required"
		}
	}
	return errs
}

// Login submits credentials. Known failure codes come back as form errors
// and leave the session unauthenticated. On success the session is
// recorded and the result redirects to next, or the project list.
func (s *Service) Login(ctx context.Context, creds Credentials, next string) (Result, error) {
	if errs := ValidateCredentials(creds); errs != nil {
		return Result{Errors: errs}, nil
	}

	res, err := s.api.Login(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		return Result{}, err
	}

	switch res.Detail {
	case "":
	case DetailBadCredentials:
		return Result{Errors: map[string]string{FieldAuth: MsgBadCredentials}}, nil
	case DetailNotVerified:
		return Result{Errors: map[string]string{FieldVerify: MsgNotVerified}}, nil
	default:
		return Result{Errors: map[string]string{FieldAuth: string(res.Detail)}}, nil
	}

	lifetime := res.Lifetime
	if lifetime <= 0 {
		lifetime = s.lifetime
	}
	s.state.Login(res.Token, lifetime)
	s.invalidate()
	s.persist()

	return Result{Directive: route.Redirect(safeNext(next))}, nil
}

// Logout ends the session on the backend, then locally. A rejected logout
// keeps the session and returns an error. A backend that no longer knows
// the session counts as logged out.
func (s *Service) Logout(ctx context.Context) (Result, error) {
	res, err := s.api.Logout(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
	case err != nil:
		return Result{}, err
	case !res.OK:
		return Result{}, fmt.Errorf("logout rejected by backend with status %d", res.Status)
	}

	s.Expire()
	return Result{Directive: route.Redirect(route.Login)}, nil
}

// Expire drops the session locally, e.g. after the backend answers 401
func (s *Service) Expire() {
	s.state.Logout()
	s.invalidate()
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			slog.Warn("Failed to clear saved session", "error", err)
		}
	}
}

func (s *Service) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.state.Snapshot()); err != nil {
		slog.Warn("Failed to save session", "error", err)
	}
}

func (s *Service) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// safeNext accepts only local view paths
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return route.Projects
	}
	if next == route.Login || strings.HasPrefix(next, route.Login+"?") {
		return route.Projects
	}
	return next
}
