// ABOUTME: Single entry point for project form submissions
// ABOUTME: Routes create, edit and delete intents and reports an explicit Outcome

package projects

import (
	"context"
	"net/url"

	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/route"
)

// DeleteSuccess is the delete response marker that confirms removal
const DeleteSuccess = "Success"

// Lister fetches pages of the project list
type Lister interface {
	ListProjects(ctx context.Context, page, limit string) (*client.ProjectPage, error)
}

// Mutator performs project mutations
type Mutator interface {
	CreateProject(ctx context.Context, input client.ProjectInput) (*client.MutationResult, error)
	UpdateProject(ctx context.Context, id string, input client.ProjectInput) (*client.MutationResult, error)
	DeleteProject(ctx context.Context, id string) (*client.DeleteResult, error)
}

// Backend is everything the project views need from the API
type Backend interface {
	Lister
	Mutator
}

// Invalidator drops cached list pages after a mutation
type Invalidator interface {
	Invalidate()
}

type OutcomeKind int

const (
	// OutcomeNoOp means nothing changed: unknown intent or an unconfirmed delete
	OutcomeNoOp OutcomeKind = iota
	// OutcomeNavigate carries a directive, e.g. back to the list after delete
	OutcomeNavigate
	// OutcomeErrors carries field errors for the form to show inline
	OutcomeErrors
	// OutcomeSaved carries the created or updated project
	OutcomeSaved
	// OutcomeRejected carries a backend detail that maps to no field
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoOp:
		return "noop"
	case OutcomeNavigate:
		return "navigate"
	case OutcomeErrors:
		return "errors"
	case OutcomeSaved:
		return "saved"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome is the result of one submission. Only the fields matching Kind
// are set.
type Outcome struct {
	Kind      OutcomeKind     `json:"kind"`
	Intent    Intent          `json:"-"`
	Directive route.Directive `json:"directive,omitzero"`
	Errors    FieldErrors     `json:"errors,omitempty"`
	Project   *client.Project `json:"project,omitempty"`
	Detail    string          `json:"detail,omitempty"`
}

// Actions dispatches project form submissions
type Actions struct {
	backend  Mutator
	messages Messages
	cache    Invalidator
}

// NewActions creates a dispatcher. messages defaults to English; cache may
// be nil.
func NewActions(backend Mutator, messages Messages, cache Invalidator) *Actions {
	if messages == nil {
		messages = English
	}
	return &Actions{backend: backend, messages: messages, cache: cache}
}

// Dispatch routes a submitted form by its intent field. Backend conflicts
// come back as an Outcome; only transport failures are errors.
func (a *Actions) Dispatch(ctx context.Context, form url.Values) (Outcome, error) {
	intent := ParseIntent(form.Get(FieldIntent))

	switch intent {
	case IntentCreate:
		draft := DraftFromForm(NormalizeCreate(form))
		res, err := a.backend.CreateProject(ctx, draft.Input())
		if err != nil {
			return Outcome{Intent: intent}, err
		}
		return a.settle(intent, res), nil

	case IntentEdit:
		draft := DraftFromForm(NormalizeEdit(form))
		res, err := a.backend.UpdateProject(ctx, form.Get(FieldProjectID), draft.Input())
		if err != nil {
			return Outcome{Intent: intent}, err
		}
		return a.settle(intent, res), nil

	case IntentDelete:
		res, err := a.backend.DeleteProject(ctx, form.Get(FieldProjectID))
		if err != nil {
			return Outcome{Intent: intent}, err
		}
		if res.Results != DeleteSuccess {
			detail := res.Results
			if res.Detail != "" {
				detail = string(res.Detail)
			}
			return Outcome{Kind: OutcomeNoOp, Intent: intent, Detail: detail}, nil
		}
		a.invalidate()
		return Outcome{Kind: OutcomeNavigate, Intent: intent, Directive: route.Redirect(route.Projects)}, nil
	}

	return Outcome{Kind: OutcomeNoOp}, nil
}

// ToggleFavorite submits an edit carrying only the favorite flag
func (a *Actions) ToggleFavorite(ctx context.Context, id string, favorite bool) (Outcome, error) {
	form := url.Values{
		FieldIntent:    {IntentEdit.String()},
		FieldProjectID: {id},
	}
	if favorite {
		form.Set(FieldFavorite, "true")
	}
	return a.Dispatch(ctx, form)
}

func (a *Actions) settle(intent Intent, res *client.MutationResult) Outcome {
	if res.Detail == "" {
		a.invalidate()
		return Outcome{Kind: OutcomeSaved, Intent: intent, Project: res.Project}
	}

	errs, kind := Translate(intent, string(res.Detail), a.messages)
	if kind == ConflictUnknown {
		return Outcome{Kind: OutcomeRejected, Intent: intent, Detail: string(res.Detail)}
	}
	return Outcome{Kind: OutcomeErrors, Intent: intent, Errors: errs}
}

func (a *Actions) invalidate() {
	if a.cache != nil {
		a.cache.Invalidate()
	}
}
