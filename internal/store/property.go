// internal/store/property.go
//
// Property repository: save/load calculator state, ownership transfer.
//
// Context
// -------
// Each call is one PostgREST statement; concurrency safety is the
// database's row-level guarantee.  No retries — failures surface to the
// caller, which decides whether the step was best-effort.
//
//------------------------------------------------------------------------------

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/propcost/internal/supabase"
)

// PropertyStore persists calculator sessions in the `properties` table.
type PropertyStore struct {
	client *supabase.Client
}

// NewPropertyStore wires the repository to an injected Supabase client.
func NewPropertyStore(client *supabase.Client) *PropertyStore {
	return &PropertyStore{client: client}
}

// Save upserts one property: update by ID when the caller knows it,
// insert otherwise.  Nested sections default to empty objects so the
// table never stores SQL NULL for them.  Returns the stored row, whose ID
// is fresh on insert.
func (s *PropertyStore) Save(ctx context.Context, p *Property) (*Property, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: property cannot be nil", ErrInvalidInput)
	}
	if p.SessionID == "" {
		return nil, fmt.Errorf("%w: session id cannot be empty", ErrInvalidInput)
	}
	fillDefaults(p)

	var (
		raw []byte
		err error
	)
	if p.ID != "" {
		id := p.ID
		p.ID = "" // PATCH body must not rewrite the key
		q := url.Values{}
		q.Set("id", "eq."+id)
		raw, err = s.client.Request(ctx, http.MethodPatch, "properties", p, q.Encode())
		p.ID = id
	} else {
		raw, err = s.client.Request(ctx, http.MethodPost, "properties", p, "")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: save property: %v", ErrProvider, err)
	}

	var rows []Property
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal properties: %v", ErrProvider, err)
	}
	if len(rows) == 0 {
		// Update matched nothing; treat as a provider-side miss.
		return nil, fmt.Errorf("%w: save matched no row", ErrProvider)
	}
	return &rows[0], nil
}

// LatestBySession returns the most recently updated property for a
// session, or nil when the session has never saved.
func (s *PropertyStore) LatestBySession(ctx context.Context, sessionID string) (*Property, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id cannot be empty", ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("session_id", "eq."+sessionID)
	q.Set("order", "updated_at.desc")
	q.Set("limit", "1")

	raw, err := s.client.Request(ctx, http.MethodGet, "properties", nil, q.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: load property: %v", ErrProvider, err)
	}

	var rows []Property
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal properties: %v", ErrProvider, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// LinkToUser bulk-updates the given properties to the new owner and marks
// them saved + active.  One statement, idempotent: re-linking already
// owned rows rewrites the same values.
func (s *PropertyStore) LinkToUser(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}
	if userID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("id", "in.("+strings.Join(ids, ",")+")")

	patch := map[string]any{
		"user_id":    userID,
		"user_saved": true,
		"is_active":  true,
	}
	if _, err := s.client.Request(ctx, http.MethodPatch, "properties", patch, q.Encode()); err != nil {
		return fmt.Errorf("%w: link properties: %v", ErrProvider, err)
	}
	return nil
}

// ReactivateForUser flips user_saved and is_active back on for every
// property already owned by userID where either flag went falsy.  Login
// calls this so a returning user always sees their saved sessions.
func (s *PropertyStore) ReactivateForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("or", "(user_saved.is.false,is_active.is.false)")

	patch := map[string]any{"user_saved": true, "is_active": true}
	if _, err := s.client.Request(ctx, http.MethodPatch, "properties", patch, q.Encode()); err != nil {
		return fmt.Errorf("%w: reactivate properties: %v", ErrProvider, err)
	}
	return nil
}

// fillDefaults normalizes absent nested objects to {}.
func fillDefaults(p *Property) {
	if p.PropertyDetails == nil {
		p.PropertyDetails = map[string]any{}
	}
	if p.BuyerDetails == nil {
		p.BuyerDetails = map[string]any{}
	}
	if p.LoanDetails == nil {
		p.LoanDetails = map[string]any{}
	}
	if p.SellerQuestions == nil {
		p.SellerQuestions = map[string]any{}
	}
	if p.Calculations == nil {
		p.Calculations = map[string]any{}
	}
}
