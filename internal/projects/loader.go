// ABOUTME: Loader for the protected project list view
// ABOUTME: Runs the route guard, derives the page cursor and fetches through a TTL cache

package projects

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/markalston/bugtracker-cli/internal/cache"
	"github.com/markalston/bugtracker-cli/internal/client"
	"github.com/markalston/bugtracker-cli/internal/pagination"
	"github.com/markalston/bugtracker-cli/internal/route"
)

// EmptyMessage is the results text the backend sends for a user with no projects
const EmptyMessage = "You don't have any project!"

// Page is what the list view renders. When Directive is a redirect nothing
// was fetched.
type Page struct {
	Directive route.Directive        `json:"directive,omitzero"`
	Request   pagination.PageRequest `json:"request"`
	Projects  []client.Project       `json:"projects"`
	// Empty is set for the no-projects sentinel, never for a fetch failure
	Empty bool `json:"empty"`
	Count int  `json:"count,omitempty"`
	Pages int  `json:"pages,omitempty"`
}

// Loader loads project list pages for authenticated sessions
type Loader struct {
	guard    *route.Guard
	lister   Lister
	defaults pagination.PageRequest
	pages    *cache.Cache[*client.ProjectPage]

	// gen counts invalidations; a fetch started under an older gen is not cached
	mu  sync.Mutex
	gen uint64
}

// NewLoader creates a loader. A zero ttl disables page caching.
func NewLoader(guard *route.Guard, lister Lister, defaults pagination.PageRequest, ttl time.Duration) *Loader {
	if defaults == (pagination.PageRequest{}) {
		defaults = pagination.Default
	}
	return &Loader{
		guard:    guard,
		lister:   lister,
		defaults: defaults,
		pages:    cache.New[*client.ProjectPage](ttl),
	}
}

// Load returns the page named by query. An unauthenticated session gets a
// redirect to the login view and no backend call is made.
func (l *Loader) Load(ctx context.Context, query url.Values) (Page, error) {
	if d := l.guard.Check(); d.IsRedirect() {
		return Page{Directive: d}, nil
	}

	req := pagination.FromQuery(query, l.defaults)
	key := req.Query().Encode()

	result, ok := l.pages.Get(key)
	if !ok {
		gen := l.generation()
		var err error
		result, err = l.lister.ListProjects(ctx, req.Page, req.Limit)
		if err != nil {
			return Page{Request: req}, err
		}
		l.store(gen, key, result)
	}

	page := Page{
		Request: req,
		Count:   result.Count,
		Pages:   result.Pages,
	}
	if result.Message == EmptyMessage {
		page.Empty = true
		return page, nil
	}
	page.Projects = append([]client.Project(nil), result.Results...)
	return page, nil
}

// Defaults returns the page used when a query names none
func (l *Loader) Defaults() pagination.PageRequest {
	return l.defaults
}

// Invalidate drops every cached page. Fetches already in flight finish but
// their pages are not cached.
func (l *Loader) Invalidate() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.pages.Purge()
}

func (l *Loader) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *Loader) store(gen uint64, key string, page *client.ProjectPage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.pages.Set(key, page)
}

// Close stops the cache cleanup loop
func (l *Loader) Close() {
	if l == nil {
		return
	}
	l.pages.Close()
}
