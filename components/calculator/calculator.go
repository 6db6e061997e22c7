// components/calculator/calculator.go
//
// Calculator component – property persistence, PDF summary email, and the
// auxiliary lookups the calculator front end calls while the user works
// through the form.
//
//------------------------------------------------------------------------------

package calculator

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/mailer"
	"github.com/yanizio/propcost/internal/metrics"
	"github.com/yanizio/propcost/internal/pdf"
	"github.com/yanizio/propcost/internal/postcode"
	"github.com/yanizio/propcost/internal/session"
	"github.com/yanizio/propcost/internal/store"
	"github.com/yanizio/propcost/internal/supabase"
	"github.com/yanizio/propcost/internal/web"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the calculator feature.
type Component struct {
	deps component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string { return "calculator" }

func (c *Component) Init(d component.Deps) error {
	c.deps = d
	return nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/calculator", c.handlePage)
	r.Post("/api/supabase", c.handleProperty)
	r.Post("/api/email-pdf", c.handleEmailPDF)
	r.Get("/api/check-email", c.handleCheckEmail)
	r.Get("/api/validate-suburb", c.handleValidateSuburb)
	r.Get("/api/google-maps-config", c.handleMapsConfig)
	return r
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Page ─────────────────────────────────────────*/

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	content := map[string]any{
		"MapsEnabled": c.deps.Config.Maps.APIKey != "",
	}
	if err := c.deps.Views.Render(w, r, "calculator", "calculator", content, session.FromContext(r.Context())); err != nil {
		c.deps.Log.Errorw("render failed", "template", "calculator", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

/*──────────────────────────── Persistence ──────────────────────────────────*/

type propertyReq struct {
	Action     string         `json:"action"`
	SessionID  string         `json:"sessionId"`
	PropertyID string         `json:"propertyId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// handleProperty multiplexes save and load on the action field, mirroring
// the single endpoint the front end talks to.
func (c *Component) handleProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyReq
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		web.BadRequest(w, "sessionId is required")
		return
	}

	switch req.Action {
	case "save":
		c.saveProperty(w, r, req)
	case "load":
		c.loadProperty(w, r, req)
	default:
		web.BadRequest(w, "action must be 'save' or 'load'")
	}
}

func (c *Component) saveProperty(w http.ResponseWriter, r *http.Request, req propertyReq) {
	p := propertyFromData(req.SessionID, req.PropertyID, req.Data)
	if user := session.FromContext(r.Context()); user != nil {
		uid := user.UserID
		p.UserID = &uid
		p.UserSaved = true
	}

	saved, err := c.deps.Properties.Save(r.Context(), p)
	if err != nil {
		metrics.PropertySavesTotal.WithLabelValues("error").Inc()
		c.deps.Log.Errorw("property save failed", "session", req.SessionID, "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Could not save the property"})
		return
	}
	metrics.PropertySavesTotal.WithLabelValues("ok").Inc()
	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "property": saved})
}

func (c *Component) loadProperty(w http.ResponseWriter, r *http.Request, req propertyReq) {
	p, err := c.deps.Properties.LatestBySession(r.Context(), req.SessionID)
	if err != nil {
		c.deps.Log.Errorw("property load failed", "session", req.SessionID, "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Could not load the property"})
		return
	}
	// p is nil when the session has never saved; the front end treats null
	// as a fresh start.
	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "property": p})
}

// propertyFromData maps the posted calculator state onto a store.Property.
// The front end sends camelCase keys and the price as a string.
func propertyFromData(sessionID, propertyID string, data map[string]any) *store.Property {
	p := &store.Property{
		ID:        propertyID,
		SessionID: sessionID,
		IsActive:  true,
	}
	if data == nil {
		return p
	}

	p.Price = parsePrice(data["price"])
	p.Address, _ = data["address"].(string)
	p.State, _ = data["state"].(string)
	p.PropertyDetails = asObject(data["propertyDetails"])
	p.BuyerDetails = asObject(data["buyerDetails"])
	p.LoanDetails = asObject(data["loanDetails"])
	p.SellerQuestions = asObject(data["sellerQuestions"])
	p.Calculations = asObject(data["calculations"])
	p.Completed, _ = data["completed"].(bool)
	if pct, ok := data["completionPercentage"].(float64); ok {
		p.CompletionPct = int(pct)
	}
	p.CurrentSection, _ = data["currentSection"].(string)
	return p
}

// parsePrice accepts a string or number and returns nil when absent or
// unparseable.
func parsePrice(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

/*──────────────────────────── Email / PDF ──────────────────────────────────*/

type emailPDFReq struct {
	UserEmail    string         `json:"userEmail"`
	FormData     map[string]any `json:"formData"`
	Calculations map[string]any `json:"calculations"`
	IsGuest      bool           `json:"isGuest"`
	PropertyID   string         `json:"propertyId,omitempty"`
}

// handleEmailPDF renders the summary PDF and dispatches it.  Guest requests
// with a property id additionally do account-matching bookkeeping, all of it
// best-effort: nothing on that path may block the send.
func (c *Component) handleEmailPDF(w http.ResponseWriter, r *http.Request) {
	var req emailPDFReq
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if req.UserEmail == "" {
		web.BadRequest(w, "userEmail is required")
		return
	}

	ctx := r.Context()
	address, _ := req.FormData["address"].(string)
	state, _ := req.FormData["state"].(string)

	doc, err := pdf.Render(pdf.Summary{
		Email:        req.UserEmail,
		Address:      address,
		State:        state,
		Price:        parsePrice(req.FormData["price"]),
		FormData:     req.FormData,
		Calculations: req.Calculations,
	})
	if err != nil {
		c.deps.Log.Errorw("pdf render failed", "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Could not generate the summary"})
		return
	}

	kind := mailer.BodyAuthenticated
	emailExists := false
	if req.IsGuest {
		kind = mailer.BodyNewAccount
		if req.PropertyID != "" {
			kind, emailExists = c.guestBookkeeping(r, req)
		}
	}

	res, err := c.deps.Mailer.Send(ctx, mailer.Summary{
		To:      req.UserEmail,
		Kind:    kind,
		Address: address,
		PDF:     doc,
	})
	if err != nil {
		c.deps.Log.Errorw("summary email failed", "to", req.UserEmail, "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Could not send the email"})
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"emailId":     res.EmailID,
		"emailExists": emailExists,
	})
}

// guestBookkeeping matches the guest email against existing accounts.  On a
// match the property is linked straight away; otherwise a survey lead is
// recorded for a later merge.  Failures log and fall through.
func (c *Component) guestBookkeeping(r *http.Request, req emailPDFReq) (mailer.BodyKind, bool) {
	ctx := r.Context()

	user, err := c.deps.Supabase.FindUserByEmail(ctx, req.UserEmail)
	if err != nil {
		c.deps.Log.Warnw("account lookup failed", "email", req.UserEmail, "err", err)
		return mailer.BodyNewAccount, false
	}
	if user == nil {
		err := c.deps.Leads.Insert(ctx, req.UserEmail, req.PropertyID)
		switch {
		case err == nil:
		case supabase.IsDuplicate(err), supabase.IsMissingRelation(err):
			c.deps.Log.Debugw("lead insert skipped", "err", err)
		default:
			c.deps.Log.Warnw("lead insert failed", "email", req.UserEmail, "err", err)
		}
		return mailer.BodyNewAccount, false
	}

	if err := c.deps.Properties.LinkToUser(ctx, []string{req.PropertyID}, user.ID); err != nil {
		c.deps.Log.Warnw("property link failed", "property", req.PropertyID, "user", user.ID, "err", err)
	}
	return mailer.BodyExistingAccount, true
}

/*──────────────────────────── Auxiliary lookups ────────────────────────────*/

func (c *Component) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		web.BadRequest(w, "email is required")
		return
	}

	user, err := c.deps.Supabase.FindUserByEmail(r.Context(), email)
	if err != nil {
		c.deps.Log.Errorw("check-email lookup failed", "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Lookup unavailable"})
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"exists": user != nil})
}

func (c *Component) handleValidateSuburb(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("postcode")
	if !postcode.IsWellFormed(code) {
		web.BadRequest(w, "Postcode must be four digits")
		return
	}

	suburbs, err := c.deps.Postcode.Lookup(r.Context(), code)
	if err != nil {
		c.deps.Log.Errorw("postcode lookup failed", "postcode", code, "err", err)
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Lookup unavailable"})
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"valid":   len(suburbs) > 0,
		"suburbs": suburbs,
	})
}

// handleMapsConfig exposes a script URL built from the server-held key so
// the key never ships in page markup.
func (c *Component) handleMapsConfig(w http.ResponseWriter, r *http.Request) {
	key := c.deps.Config.Maps.APIKey
	if key == "" {
		web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Maps are not configured"})
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"scriptUrl": "https://maps.googleapis.com/maps/api/js?key=" + url.QueryEscape(key) + "&libraries=places",
	})
}
