// internal/store/lead.go
//
// Survey-lead repository: guest email captures and their conversion.
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

// LeadStore persists guest captures in the `survey_leads` table.
type LeadStore struct {
	client *supabase.Client
}

// NewLeadStore wires the repository to an injected Supabase client.
func NewLeadStore(client *supabase.Client) *LeadStore {
	return &LeadStore{client: client}
}

// Insert records one guest capture.  A duplicate (same email + property)
// or a missing table are expected conditions in fresh projects; callers
// check supabase.IsDuplicate / IsMissingRelation and carry on.
func (s *LeadStore) Insert(ctx context.Context, email, propertyID string) error {
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	lead := SurveyLead{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		PropertyID: propertyID,
		Converted:  false,
	}
	if _, err := s.client.Request(ctx, http.MethodPost, "survey_leads", lead, ""); err != nil {
		return err
	}
	return nil
}

// UnconvertedByEmail returns every lead for the email, case-insensitively,
// that has not been converted yet.  Insert lowercases stored emails, so an
// exact match on the lowered input suffices; a pattern operator would let
// `_` and `%` in an address match other people's leads.
func (s *LeadStore) UnconvertedByEmail(ctx context.Context, email string) ([]SurveyLead, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("email", "eq."+strings.ToLower(strings.TrimSpace(email)))
	q.Set("converted", "is.false")

	raw, err := s.client.Request(ctx, http.MethodGet, "survey_leads", nil, q.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: list leads: %v", ErrProvider, err)
	}

	var leads []SurveyLead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, fmt.Errorf("%w: unmarshal leads: %v", ErrProvider, err)
	}
	return leads, nil
}

// MarkConverted flips converted=true on the given leads in one statement.
func (s *LeadStore) MarkConverted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q := url.Values{}
	q.Set("id", "in.("+strings.Join(ids, ",")+")")

	patch := map[string]any{"converted": true}
	if _, err := s.client.Request(ctx, http.MethodPatch, "survey_leads", patch, q.Encode()); err != nil {
		return fmt.Errorf("%w: mark leads converted: %v", ErrProvider, err)
	}
	return nil
}
