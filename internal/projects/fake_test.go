package projects

import (
	"context"
	"sync"

	"github.com/markalston/bugtracker-cli/internal/client"
)

// fakeBackend records calls and answers with canned results
type fakeBackend struct {
	mu sync.Mutex

	page      *client.ProjectPage
	mutation  *client.MutationResult
	deletion  *client.DeleteResult
	err       error
	listCalls int

	lastInput client.ProjectInput
	lastID    string
	calls     []string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListProjects(ctx context.Context, page, limit string) (*client.ProjectPage, error) {
	f.record("list " + page + " " + limit)
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeBackend) CreateProject(ctx context.Context, input client.ProjectInput) (*client.MutationResult, error) {
	f.record("create")
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.mutation, nil
}

func (f *fakeBackend) UpdateProject(ctx context.Context, id string, input client.ProjectInput) (*client.MutationResult, error) {
	f.record("update " + id)
	f.lastID = id
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.mutation, nil
}

func (f *fakeBackend) DeleteProject(ctx context.Context, id string) (*client.DeleteResult, error) {
	f.record("delete " + id)
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.deletion, nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func strPtr(s string) *string { return &s }
