// internal/store/models.go
//
// Row types and error taxonomy for the Supabase-backed repositories.
//
// Context
// -------
// Two tables back the calculator: `properties` (one row per calculator
// session) and `survey_leads` (guest email captures pending account
// linkage).  Field tags mirror the column names PostgREST expects.
//
//------------------------------------------------------------------------------

package store

import "errors"

// Sentinel errors.  Repositories wrap provider failures so handlers can
// branch with errors.Is without inspecting HTTP details.
var (
	ErrInvalidInput = errors.New("store: invalid input")
	ErrProvider     = errors.New("store: provider error")
)

// Property is one saved calculator session.  Nested form sections and the
// calculation results stay schemaless maps; the calculator owns their
// shape, the server only round-trips them.
type Property struct {
	ID              string         `json:"id,omitempty"`
	SessionID       string         `json:"session_id"`
	UserID          *string        `json:"user_id,omitempty"`
	Price           *float64       `json:"price"`
	Address         string         `json:"address"`
	State           string         `json:"state"`
	PropertyDetails map[string]any `json:"property_details"`
	BuyerDetails    map[string]any `json:"buyer_details"`
	LoanDetails     map[string]any `json:"loan_details"`
	SellerQuestions map[string]any `json:"seller_questions"`
	Calculations    map[string]any `json:"calculations"`
	Completed       bool           `json:"completed"`
	CompletionPct   int            `json:"completion_pct"`
	CurrentSection  string         `json:"current_section"`
	UserSaved       bool           `json:"user_saved"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}

// SurveyLead is one guest email capture.  Converted leads are excluded
// from future merges, which makes re-running a merge a no-op.
type SurveyLead struct {
	ID         string `json:"id,omitempty"`
	Email      string `json:"email"`
	PropertyID string `json:"property_id"`
	Converted  bool   `json:"converted"`
	CreatedAt  string `json:"created_at,omitempty"`
}
