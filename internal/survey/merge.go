// internal/survey/merge.go
//
// Guest-survey merge: hand anonymous calculator sessions to a fresh login.
//
// Context
// -------
// Guests who email themselves a PDF leave a survey lead (email + property
// id).  When that email later authenticates, every unconverted lead's
// property is re-pointed at the account, then the leads are marked
// converted.  Converted leads are excluded from the lookup, so re-running
// the merge is a no-op — which is also the recovery path when the final
// conversion step fails: properties are already correctly owned, and the
// leftover leads re-link harmlessly next time.
//
// Workflow
// --------
//  1. List unconverted leads for the email (case-insensitive).
//  2. Bulk-link their properties to the user (one statement).
//  3. Mark the leads converted (best-effort; outcome reported, not fatal).
//
//------------------------------------------------------------------------------

package survey

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/metrics"
	"github.com/yanizio/propcost/internal/store"
)

// Outcome records a best-effort step instead of silently swallowing its
// error.  OK steps have an empty Reason.
type Outcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// StepOK is the zero-noise success outcome.
var StepOK = Outcome{OK: true}

// StepFailed wraps an error into a reportable outcome.
func StepFailed(err error) Outcome {
	if err == nil {
		return StepOK
	}
	return Outcome{OK: false, Reason: err.Error()}
}

// Result is what a merge reports back to the auth routes.
type Result struct {
	LinkedCount int     // properties re-pointed at the user
	Convert     Outcome // lead conversion, best-effort
}

// leadSource and propertyLinker are the narrow store surfaces the merge
// needs; both *store.LeadStore and *store.PropertyStore satisfy them.
type leadSource interface {
	UnconvertedByEmail(ctx context.Context, email string) ([]store.SurveyLead, error)
	MarkConverted(ctx context.Context, ids []string) error
}

type propertyLinker interface {
	LinkToUser(ctx context.Context, ids []string, userID string) error
}

// Merger owns the merge operation.  Construct once, inject everywhere.
type Merger struct {
	leads      leadSource
	properties propertyLinker
	log        *zap.SugaredLogger
}

// NewMerger builds a Merger.  log may be nil (falls back to the global).
func NewMerger(leads leadSource, properties propertyLinker, log *zap.SugaredLogger) *Merger {
	if log == nil {
		log = zap.S()
	}
	return &Merger{leads: leads, properties: properties, log: log}
}

// Merge links every unconverted lead for email to userID.  The property
// linkage is the primary effect: its failure fails the merge.  Lead
// conversion afterwards is best-effort and only reflected in the Outcome.
func (m *Merger) Merge(ctx context.Context, email, userID string) (*Result, error) {
	leads, err := m.leads.UnconvertedByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return &Result{LinkedCount: 0, Convert: StepOK}, nil
	}

	propertyIDs := make([]string, 0, len(leads))
	leadIDs := make([]string, 0, len(leads))
	for _, l := range leads {
		if l.PropertyID != "" {
			propertyIDs = append(propertyIDs, l.PropertyID)
		}
		leadIDs = append(leadIDs, l.ID)
	}

	if err := m.properties.LinkToUser(ctx, propertyIDs, userID); err != nil {
		return nil, err
	}

	res := &Result{LinkedCount: len(propertyIDs), Convert: StepOK}
	if err := m.leads.MarkConverted(ctx, leadIDs); err != nil {
		// Properties are already owned; unconverted leads retry next merge.
		res.Convert = StepFailed(err)
		m.log.Warnw("lead conversion failed after relink",
			"email", email, "user", userID, "leads", len(leadIDs), "err", err)
	}

	metrics.SurveyMergesTotal.Inc()
	metrics.SurveyLinkedTotal.Add(float64(res.LinkedCount))
	m.log.Infow("guest surveys merged",
		"email", email, "user", userID,
		"linked", res.LinkedCount, "converted_ok", res.Convert.OK)
	return res, nil
}
