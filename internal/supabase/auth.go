// internal/supabase/auth.go
//
// GoTrue (auth/v1) endpoints used by the auth routes and callback flow.
//
// Context
// -------
// End-user credential operations run with the anon key plus, where a live
// session is needed, the user's bearer token.  The admin user listing runs
// with the service key and powers the "does this email already have an
// account" checks in the callback, check-email, and email-PDF routes.
//
//------------------------------------------------------------------------------

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

/*──────────────────────────── types ───────────────────────────────────────*/

// Session is a GoTrue token grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// User is the slice of the provider's user object this app reads.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at"`
	CreatedAt        string `json:"created_at"`
}

// Confirmed reports whether the provider has recorded email confirmation.
func (u *User) Confirmed() bool { return u != nil && u.EmailConfirmedAt != "" }

/*──────────────────────────── credential flows ────────────────────────────*/

// SignUp registers a new password credential.  options may carry
// propcost-specific metadata (e.g., the guest property id) which GoTrue
// stores on the user record.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	return c.authPost(ctx, "/auth/v1/signup", "", body)
}

// SignInWithPassword exchanges email+password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	return c.authPost(ctx, "/auth/v1/token?grant_type=password", "", body)
}

// ExchangeCode resolves the one-time code appended by GoTrue to OAuth and
// email-link redirects into a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	body := map[string]any{"auth_code": code}
	return c.authPost(ctx, "/auth/v1/token?grant_type=pkce", "", body)
}

// SignOut revokes the session behind accessToken.  GoTrue returns 204.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.authRequest(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// UpdatePassword sets a new password on the user behind accessToken.
// Requires a live (recovery) session.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	req, err := c.authRequest(ctx, http.MethodPut, "/auth/v1/user", accessToken,
		map[string]any{"password": password})
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// SendRecovery asks GoTrue to email a password-reset link.  redirectTo is
// where the emailed link lands after code exchange.
func (c *Client) SendRecovery(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	req, err := c.authRequest(ctx, http.MethodPost, path, "", map[string]any{"email": email})
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// GetUser fetches the user behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := c.authRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

/*──────────────────────────── admin surface ───────────────────────────────*/

// FindUserByEmail pages through the admin user listing and matches email
// case-insensitively.  Returns (nil, nil) when no account exists.  Needs
// the service key.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	if c.serviceKey == "" {
		return nil, ErrNotConfigured
	}

	want := strings.ToLower(strings.TrimSpace(email))
	const perPage = 200

	for page := 1; page <= 50; page++ {
		req, err := c.authRequest(ctx, http.MethodGet,
			fmt.Sprintf("/auth/v1/admin/users?page=%d&per_page=%d", page, perPage), "", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("apikey", c.serviceKey)
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)

		raw, err := c.do(req)
		if err != nil {
			return nil, err
		}

		var payload struct {
			Users []User `json:"users"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal user listing: %w", err)
		}

		for i := range payload.Users {
			if strings.ToLower(payload.Users[i].Email) == want {
				return &payload.Users[i], nil
			}
		}
		if len(payload.Users) < perPage {
			break
		}
	}
	return nil, nil
}

/*──────────────────────────── plumbing ────────────────────────────────────*/

// authPost posts a JSON body to a GoTrue endpoint and decodes the session
// grant.
func (c *Client) authPost(ctx context.Context, path, accessToken string, body any) (*Session, error) {
	req, err := c.authRequest(ctx, http.MethodPost, path, accessToken, body)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	// Signup with email confirmation enabled answers with a bare user
	// object and no tokens; normalize that shape.
	if sess.User == nil && sess.AccessToken == "" {
		var u User
		if err := json.Unmarshal(raw, &u); err == nil && u.ID != "" {
			sess.User = &u
		}
	}
	return &sess, nil
}

// authRequest builds a GoTrue request.  The anon key identifies the
// project; accessToken, when present, rides in the Authorization header.
func (c *Client) authRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	var reqBody *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	bearer := accessToken
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	return req, nil
}
