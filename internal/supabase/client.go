// internal/supabase/client.go
//
// Supabase REST client – core transport and PostgREST helper.
//
// Context
// -------
// Propcost keeps no relational store of its own.  Every property record and
// survey lead lives in a hosted Supabase project, reached over its REST
// surface: PostgREST under /rest/v1 for tables, GoTrue under /auth/v1 for
// identity.  This file holds the shared transport; auth endpoints live in
// auth.go, and the typed repositories in internal/store build on Request.
//
// Clients are constructed explicitly and injected into handlers.  There is
// no package-level singleton, so tests substitute an httptest server URL
// and exercise real request/response handling.
//
//------------------------------------------------------------------------------

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Hard caps on provider response sizes.  PostgREST never legitimately
// returns more than a few records per call in this app.
const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// Client talks to one Supabase project.  Safe for concurrent use.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
	configured bool
}

// Config holds client construction parameters.  ServiceKey is optional;
// admin endpoints return ErrNotConfigured without it.
type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string
	HTTPClient *http.Client
}

// ErrNotConfigured is returned when a call needs a credential the client
// was built without.  Routes translate it into a 500.
var ErrNotConfigured = errors.New("supabase: client not configured")

// New builds a Client.  An empty URL or anon key is not a construction
// error: startup must survive an unconfigured project, so the client
// builds anyway and every call returns ErrNotConfigured until the keys
// are supplied.
func New(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: httpClient,
		configured: cfg.URL != "" && cfg.AnonKey != "",
	}, nil
}

/*──────────────────────────── error model ─────────────────────────────────*/

// APIError is a non-2xx answer from PostgREST or GoTrue.  Code carries the
// Postgres SQLSTATE when PostgREST supplies one, letting callers single
// out duplicate keys (23505) or missing tables (42P01).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.Code == "23505" || ae.Status == http.StatusConflict)
}

// IsMissingRelation reports whether err means the target table does not
// exist in the project (undeployed migration).
func IsMissingRelation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == "42P01"
}

// IsAuthFailure reports whether err is a credential or token problem the
// routes should surface as 400/401 rather than 500.
func IsAuthFailure(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.Status == http.StatusBadRequest ||
		ae.Status == http.StatusUnauthorized || ae.Status == http.StatusUnprocessableEntity)
}

/*──────────────────────────── PostgREST ───────────────────────────────────*/

// Request performs one PostgREST call against `table`.  `query` is the raw
// encoded filter string ("id=eq.7&select=*"); body, when non-nil, is JSON
// encoded.  The service key is preferred so row-level security never blocks
// server-side bookkeeping; the anon key is the fallback.
func (c *Client) Request(ctx context.Context, method, table string, body any, query string) ([]byte, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if query != "" {
		url += "?" + query
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	key := c.serviceKey
	if key == "" {
		key = c.anonKey
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Prefer", "return=representation")

	return c.do(req)
}

/*──────────────────────────── transport ───────────────────────────────────*/

// do executes the request and normalizes non-2xx answers into *APIError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// parseAPIError extracts the PostgREST / GoTrue error shape.  Both
// services use different field names, so every known one is tried.
func parseAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Msg
	}
	if msg == "" {
		msg = payload.ErrorDescription
	}
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	return &APIError{Status: status, Code: payload.Code, Message: msg}
}
