// ABOUTME: Authentication endpoints of the bugtracker API
// ABOUTME: Login with form credentials and logout of the current session

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LoginResult is a successful login (Token set) or a detail code such as
// LOGIN_BAD_CREDENTIALS
type LoginResult struct {
	Detail   Detail        `json:"detail,omitempty"`
	Token    string        `json:"-"`
	Lifetime time.Duration `json:"-"` // zero when the backend did not say
}

// LogoutResult reports whether the backend accepted the logout
type LogoutResult struct {
	OK     bool
	Status int
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login calls POST /auth/login with form fields username and password
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result LoginResult
		if err := c.decode(resp, &result, true); err != nil {
			return nil, err
		}
		return &result, nil
	}
	defer resp.Body.Close()

	result := &LoginResult{}

	// Bearer transport answers with a JSON token
	body, _ := io.ReadAll(resp.Body)
	var tok tokenResponse
	if len(body) > 0 && json.Unmarshal(body, &tok) == nil && tok.AccessToken != "" {
		result.Token = tok.AccessToken
		result.Lifetime = time.Duration(tok.ExpiresIn) * time.Second
		return result, nil
	}

	// Cookie transport answers 204 with the session cookie
	for _, ck := range resp.Cookies() {
		if ck.Name != c.authCookie || ck.Value == "" {
			continue
		}
		result.Token = ck.Value
		result.Lifetime = cookieLifetime(ck, time.Now())
		break
	}
	return result, nil
}

// Logout calls POST /auth/logout. A non-2xx answer is reported in the
// result, not as an error.
func (c *Client) Logout(ctx context.Context) (*LogoutResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return &LogoutResult{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
	}, nil
}

// cookieLifetime prefers Max-Age over Expires
func cookieLifetime(ck *http.Cookie, now time.Time) time.Duration {
	if ck.MaxAge > 0 {
		return time.Duration(ck.MaxAge) * time.Second
	}
	if !ck.Expires.IsZero() && ck.Expires.After(now) {
		return ck.Expires.Sub(now)
	}
	return 0
}
