// ABOUTME: Project endpoints of the bugtracker API
// ABOUTME: List pages, create, update and delete projects

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Project is a project as returned by the backend
type Project struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"key"`
	Type     string `json:"type"`
	Favorite bool   `json:"favorite"`
}

// UnmarshalJSON also accepts the legacy "starred" field
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	aux := struct {
		*plain
		Starred *bool `json:"starred"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Starred != nil && !p.Favorite {
		p.Favorite = *aux.Starred
	}
	return nil
}

// ProjectPage is one page of the project list. The backend reports an empty
// collection by sending a message string in place of the results array.
type ProjectPage struct {
	Results []Project `json:"results"`
	Message string    `json:"message,omitempty"`
	Count   int       `json:"count,omitempty"`
	Page    int       `json:"page,omitempty"`
	Pages   int       `json:"pages,omitempty"`
}

func (p *ProjectPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Results json.RawMessage `json:"results"`
		Count   int             `json:"count"`
		Page    int             `json:"page"`
		Pages   int             `json:"pages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = ProjectPage{Count: raw.Count, Page: raw.Page, Pages: raw.Pages}

	if len(raw.Results) == 0 || string(raw.Results) == "null" {
		return nil
	}
	if raw.Results[0] == '"' {
		return json.Unmarshal(raw.Results, &p.Message)
	}
	return json.Unmarshal(raw.Results, &p.Results)
}

// ProjectInput is a create or partial update body. Nil fields are omitted.
type ProjectInput struct {
	Name     *string `json:"name,omitempty"`
	Key      *string `json:"key,omitempty"`
	Type     *string `json:"type,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// MutationResult is either the saved project or a backend detail message
type MutationResult struct {
	Project *Project
	Detail  Detail
}

func (m *MutationResult) UnmarshalJSON(data []byte) error {
	var probe ErrorResponse
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Detail != "" {
		*m = MutationResult{Detail: probe.Detail}
		return nil
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MutationResult{Project: &p}
	return nil
}

func (m MutationResult) MarshalJSON() ([]byte, error) {
	if m.Detail != "" {
		return json.Marshal(map[string]Detail{"detail": m.Detail})
	}
	return json.Marshal(m.Project)
}

// DeleteResult is the delete response: results "Success" or a detail
type DeleteResult struct {
	Results string `json:"results,omitempty"`
	Detail  Detail `json:"detail,omitempty"`
}

// ListProjects calls GET /projects. Identical concurrent calls share one
// request; the shared request is not cancelled when one caller gives up.
func (c *Client) ListProjects(ctx context.Context, page, limit string) (*ProjectPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, c.handleRequestError(ctx, err)
	}

	q := url.Values{}
	if page != "" {
		q.Set("page", page)
	}
	if limit != "" {
		q.Set("limit", limit)
	}
	key := strconv.FormatUint(c.writes.Load(), 10) + "?" + q.Encode()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.pages.DoChan(key, func() (any, error) {
		req, err := c.newRequest(fetchCtx, http.MethodGet, "/projects?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.send(fetchCtx, req)
		if err != nil {
			return nil, err
		}

		var result ProjectPage
		if err := c.decode(resp, &result, false); err != nil {
			return nil, err
		}
		return &result, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, c.handleRequestError(ctx, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		// Callers may hold the same page; hand out a copy of the slice
		cp := *res.Val.(*ProjectPage)
		cp.Results = append([]Project(nil), cp.Results...)
		return &cp, nil
	}
	return res.Val.(*ProjectPage), nil
}

// CreateProject calls POST /projects
func (c *Client) CreateProject(ctx context.Context, input ProjectInput) (*MutationResult, error) {
	return c.mutate(ctx, http.MethodPost, "/projects", input)
}

// UpdateProject calls PATCH /projects/{id}
func (c *Client) UpdateProject(ctx context.Context, id string, input ProjectInput) (*MutationResult, error) {
	if id == "" {
		return nil, fmt.Errorf("project id is required")
	}
	return c.mutate(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), input)
}

// DeleteProject calls DELETE /projects/{id}
func (c *Client) DeleteProject(ctx context.Context, id string) (*DeleteResult, error) {
	if id == "" {
		return nil, fmt.Errorf("project id is required")
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var result DeleteResult
	if err := c.decode(resp, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, input ProjectInput) (*MutationResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var result MutationResult
	if err := c.decode(resp, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}
