// ABOUTME: Tests for the bugtracker API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestListProjects_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects" {
			t.Errorf("expected path /projects, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page 2, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("expected limit 20, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":1,"name":"Tracker","key":"TRK","type":"Back-end","favorite":true}],"count":21,"page":2,"pages":2}`))
	}))
	defer server.Close()

	c := New(server.URL)
	page, err := c.ListProjects(context.Background(), "2", "20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 project, got %d", len(page.Results))
	}
	if page.Results[0].Key != "TRK" || !page.Results[0].Favorite {
		t.Errorf("unexpected project: %+v", page.Results[0])
	}
	if page.Count != 21 || page.Pages != 2 {
		t.Errorf("expected count 21 pages 2, got %d/%d", page.Count, page.Pages)
	}
	if page.Message != "" {
		t.Errorf("expected no message, got %q", page.Message)
	}
}

func TestListProjects_EmptySentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":"You don't have any project!"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	page, err := c.ListProjects(context.Background(), "1", "20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Message != "You don't have any project!" {
		t.Errorf("expected sentinel message, got %q", page.Message)
	}
	if len(page.Results) != 0 {
		t.Errorf("expected no results, got %d", len(page.Results))
	}
}

func TestListProjects_LegacyStarredField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":3,"name":"Old","key":"OLD","type":"Fullstack","starred":true}]}`))
	}))
	defer server.Close()

	page, err := New(server.URL).ListProjects(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Results[0].Favorite {
		t.Error("expected starred to map to favorite")
	}
}

func TestListProjects_SharesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"results":[{"id":1,"name":"A","key":"AAA","type":"Fullstack"}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ListProjects(context.Background(), "1", "20"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	// Let the goroutines pile up on the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 backend call, got %d", got)
	}
}

func TestListProjects_CancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(`{"results":[{"id":1,"name":"A","key":"AAA","type":"Fullstack"}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ListProjects(ctx, "1", "20")
		firstErr <- err
	}()
	<-started

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.ListProjects(context.Background(), "1", "20")
		secondErr <- err
	}()
	// Let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-firstErr; err == nil || err.Error() != "request canceled" {
		t.Errorf("expected cancelled caller to see request canceled, got %v", err)
	}

	close(release)
	if err := <-secondErr; err != nil {
		t.Errorf("expected joined caller to succeed, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 backend call, got %d", got)
	}
}

func TestListProjects_WriteStartsFreshFetch(t *testing.T) {
	var lists atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Write([]byte(`{"id":1,"name":"A","key":"AAA","type":"Fullstack","favorite":true}`))
			return
		}
		if lists.Add(1) == 1 {
			close(started)
			<-release
			w.Write([]byte(`{"results":[{"id":1,"name":"A","key":"AAA","type":"Fullstack","favorite":false}]}`))
			return
		}
		w.Write([]byte(`{"results":[{"id":1,"name":"A","key":"AAA","type":"Fullstack","favorite":true}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ListProjects(context.Background(), "1", "20")
	}()
	<-started

	favorite := true
	if _, err := c.UpdateProject(context.Background(), "1", ProjectInput{Favorite: &favorite}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	page, err := c.ListProjects(context.Background(), "1", "20")
	close(release)
	<-done

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lists.Load(); got != 2 {
		t.Errorf("expected a fresh list request after the write, got %d", got)
	}
	if len(page.Results) != 1 || !page.Results[0].Favorite {
		t.Errorf("expected post-write page, got %+v", page.Results)
	}
}

func TestListProjects_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).ListProjects(context.Background(), "1", "20")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListProjects_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database down"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).ListProjects(context.Background(), "1", "20")
	if err == nil {
		t.Fatal("expected error for non-OK status, got nil")
	}
	if !strings.Contains(err.Error(), "database down") {
		t.Errorf("expected backend message in error, got %v", err)
	}
}

func TestListProjects_ConnectionError(t *testing.T) {
	_, err := New("http://localhost:99999").ListProjects(context.Background(), "1", "20")
	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

func TestListProjects_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL).ListProjects(ctx, "1", "20")
	if err == nil || err.Error() != "request canceled" {
		t.Errorf("expected request canceled, got %v", err)
	}
}

func TestCreateProject_SendsJSONAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/projects" {
			t.Errorf("expected POST /projects, got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if ck, err := r.Cookie(DefaultAuthCookie); err != nil || ck.Value != "tok-123" {
			t.Errorf("expected auth cookie, got %v %v", ck, err)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["key"] != "TRK" || body["favorite"] != false {
			t.Errorf("unexpected body: %v", body)
		}
		if _, ok := body["type"]; ok {
			t.Error("expected nil type to be omitted")
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"name":"Tracker","key":"TRK","type":"Back-end","favorite":false}`))
	}))
	defer server.Close()

	name, key, fav := "Tracker", "TRK", false
	c := New(server.URL, WithTokenSource(staticToken("tok-123")))
	res, err := c.CreateProject(context.Background(), ProjectInput{Name: &name, Key: &key, Favorite: &fav})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Detail != "" {
		t.Errorf("expected no detail, got %q", res.Detail)
	}
	if res.Project == nil || res.Project.ID != 7 {
		t.Errorf("expected project 7, got %+v", res.Project)
	}
}

func TestCreateProject_DetailIsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Project with this key already exist!"}`))
	}))
	defer server.Close()

	res, err := New(server.URL).CreateProject(context.Background(), ProjectInput{})
	if err != nil {
		t.Fatalf("expected detail as data, got error %v", err)
	}
	if res.Detail != "Project with this key already exist!" {
		t.Errorf("unexpected detail %q", res.Detail)
	}
	if res.Project != nil {
		t.Errorf("expected no project, got %+v", res.Project)
	}
}

func TestCreateProject_ValidationDetailList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","name"],"msg":"field required"}]}`))
	}))
	defer server.Close()

	res, err := New(server.URL).CreateProject(context.Background(), ProjectInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(res.Detail), "field required") {
		t.Errorf("expected raw detail list, got %q", res.Detail)
	}
}

func TestUpdateProject_PatchesByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/projects/42" {
			t.Errorf("expected PATCH /projects/42, got %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id":42,"name":"Tracker","key":"TRK","type":"Back-end","favorite":true}`))
	}))
	defer server.Close()

	fav := true
	res, err := New(server.URL).UpdateProject(context.Background(), "42", ProjectInput{Favorite: &fav})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Project.Favorite {
		t.Error("expected favorite project")
	}
}

func TestUpdateProject_RequiresID(t *testing.T) {
	if _, err := New("http://unused").UpdateProject(context.Background(), "", ProjectInput{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestDeleteProject(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantResults string
		wantDetail  Detail
	}{
		{"success", http.StatusOK, `{"results":"Success"}`, "Success", ""},
		{"missing", http.StatusBadRequest, `{"detail":"The project to delete doesn't exist!"}`, "", "The project to delete doesn't exist!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/projects/9" {
					t.Errorf("expected DELETE /projects/9, got %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			res, err := New(server.URL).DeleteProject(context.Background(), "9")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Results != tc.wantResults || res.Detail != tc.wantDetail {
				t.Errorf("got %+v", res)
			}
		})
	}
}

func TestLogin_BearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("expected path /auth/login, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %s", ct)
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "ann@example.com" || r.PostForm.Get("password") != "secret" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		w.Write([]byte(`{"access_token":"jwt-abc","token_type":"bearer","expires_in":900}`))
	}))
	defer server.Close()

	res, err := New(server.URL).Login(context.Background(), "ann@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "jwt-abc" {
		t.Errorf("expected token jwt-abc, got %q", res.Token)
	}
	if res.Lifetime != 15*time.Minute {
		t.Errorf("expected 15m lifetime, got %s", res.Lifetime)
	}
}

func TestLogin_SessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: DefaultAuthCookie, Value: "cookie-tok", MaxAge: 3600})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	res, err := New(server.URL).Login(context.Background(), "ann@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "cookie-tok" {
		t.Errorf("expected cookie token, got %q", res.Token)
	}
	if res.Lifetime != time.Hour {
		t.Errorf("expected 1h lifetime, got %s", res.Lifetime)
	}
}

func TestLogin_BadCredentialsIsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"LOGIN_BAD_CREDENTIALS"}`))
	}))
	defer server.Close()

	res, err := New(server.URL).Login(context.Background(), "ann@example.com", "wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Detail != "LOGIN_BAD_CREDENTIALS" {
		t.Errorf("expected bad credentials detail, got %q", res.Detail)
	}
	if res.Token != "" {
		t.Errorf("expected no token, got %q", res.Token)
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name   string
		status int
		wantOK bool
	}{
		{"accepted", http.StatusNoContent, true},
		{"rejected", http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/auth/logout" {
					t.Errorf("expected POST /auth/logout, got %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			res, err := New(server.URL).Logout(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.OK != tc.wantOK || res.Status != tc.status {
				t.Errorf("got %+v", res)
			}
		})
	}
}

func TestRateLimit_ThrottlesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"results":"Success"}`))
	}))
	defer server.Close()

	c := New(server.URL, WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.DeleteProject(context.Background(), "1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// burst 1 at 20 rps: the 2nd and 3rd requests wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected throttling, finished in %s", elapsed)
	}
}

func TestCookieLifetime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		cookie http.Cookie
		want   time.Duration
	}{
		{"max-age", http.Cookie{MaxAge: 60}, time.Minute},
		{"expires", http.Cookie{Expires: now.Add(2 * time.Hour)}, 2 * time.Hour},
		{"past expires", http.Cookie{Expires: now.Add(-time.Hour)}, 0},
		{"session cookie", http.Cookie{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cookieLifetime(&tc.cookie, now); got != tc.want {
				t.Errorf("cookieLifetime() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseProxyURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
		want    proxySettings
	}{
		{
			name: "full",
			in:   "ssh+socks5://jumpbox@10.0.0.5:22?private-key=/tmp/key",
			want: proxySettings{username: "jumpbox", host: "10.0.0.5:22", keyPath: "/tmp/key"},
		},
		{name: "missing key", in: "ssh+socks5://jumpbox@10.0.0.5:22", wantErr: true},
		{name: "wrong scheme", in: "ssh+http://10.0.0.5:22?private-key=/tmp/key", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProxyURL(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWithProxy_IgnoresPlainSchemes(t *testing.T) {
	c := New("http://unused", WithProxy("socks5://127.0.0.1:1080"))
	if c.httpClient.Transport != nil {
		t.Error("expected default transport for unsupported proxy scheme")
	}
}
