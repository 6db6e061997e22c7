// components/auth/auth.go
//
// Authentication component – password credentials, recovery, confirmation
// callback, and session lifecycle against the Supabase backend.
//
//------------------------------------------------------------------------------

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/propcost/internal/authflow"
	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/metrics"
	"github.com/yanizio/propcost/internal/middleware"
	"github.com/yanizio/propcost/internal/session"
	"github.com/yanizio/propcost/internal/supabase"
	"github.com/yanizio/propcost/internal/web"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates authentication functionality.
type Component struct {
	deps component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init captures shared dependencies.
func (c *Component) Init(d component.Deps) error {
	c.deps = d
	return nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/login", c.page("login"))
	r.Get("/signup", c.page("signup"))
	r.Get("/forgot-password", c.page("forgot-password"))
	r.Get("/reset-password", c.page("reset-password"))

	r.Route("/api/auth", func(api chi.Router) {
		api.Post("/login", c.handleLogin)
		api.Post("/signup", c.handleSignup)
		api.Post("/forgot-password", c.handleForgotPassword)
		api.Post("/reset-password", c.handleResetPassword)
		api.Post("/signout", c.handleSignout)
		api.Post("/heartbeat", c.handleHeartbeat)
		api.Get("/callback", c.handleCallback)
	})
	return r
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Page handlers ────────────────────────────────*/

// page renders a presentation template, passing through the query-string
// flags the callback redirects set (confirmed, error).
func (c *Component) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content := map[string]any{
			"Confirmed": r.URL.Query().Get("confirmed") == "true",
			"Error":     r.URL.Query().Get("error"),
			"Code":      r.URL.Query().Get("code"),
		}
		if err := c.deps.Views.Render(w, r, "auth", name, content, session.FromContext(r.Context())); err != nil {
			c.deps.Log.Errorw("render failed", "template", name, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

/*──────────────────────────── Credential routes ────────────────────────────*/

type credentialsReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	PropertyID string `json:"propertyId,omitempty"`
}

// handleLogin authenticates a password credential, merges any guest surveys
// recorded under the email, and re-activates the user's saved properties.
func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		web.BadRequest(w, "Email and password are required")
		return
	}

	ctx := r.Context()
	sess, err := c.deps.Supabase.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		c.authFail(w, "login", err, "Invalid email or password")
		return
	}
	metrics.AuthRequestsTotal.WithLabelValues("login", "ok").Inc()

	// Guest-survey merge and reactivation are side effects of login; their
	// failure never blocks the sign-in itself.
	linked := 0
	if sess.User != nil {
		if res, err := c.deps.Merger.Merge(ctx, req.Email, sess.User.ID); err != nil {
			c.deps.Log.Warnw("survey merge failed", "email", req.Email, "err", err)
		} else {
			linked = res.LinkedCount
		}
		if err := c.deps.Properties.ReactivateForUser(ctx, sess.User.ID); err != nil {
			c.deps.Log.Warnw("property reactivation failed", "user", sess.User.ID, "err", err)
		}
	}

	c.issueSession(w, r, sess)
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"user":          userView(sess.User),
		"linkedSurveys": linked,
	})
}

// handleSignup registers a credential.  A guest property id, when present,
// becomes a survey lead before the merge runs, so the new account picks the
// property up immediately.
func (c *Component) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		web.BadRequest(w, "Email and password are required")
		return
	}
	if len(req.Password) < 6 {
		web.BadRequest(w, "Password must be at least 6 characters")
		return
	}

	ctx := r.Context()
	var metadata map[string]any
	if req.PropertyID != "" {
		metadata = map[string]any{"property_id": req.PropertyID}
	}
	sess, err := c.deps.Supabase.SignUp(ctx, req.Email, req.Password, metadata)
	if err != nil {
		c.authFail(w, "signup", err, "Could not create the account")
		return
	}
	metrics.AuthRequestsTotal.WithLabelValues("signup", "ok").Inc()

	if req.PropertyID != "" {
		err := c.deps.Leads.Insert(ctx, req.Email, req.PropertyID)
		switch {
		case err == nil:
		case supabase.IsDuplicate(err), supabase.IsMissingRelation(err):
			// Already recorded, or the table is absent in this environment.
			c.deps.Log.Debugw("lead insert skipped", "err", err)
		default:
			c.deps.Log.Warnw("lead insert failed", "email", req.Email, "err", err)
		}
	}

	linked := 0
	if sess.User != nil {
		if res, err := c.deps.Merger.Merge(ctx, req.Email, sess.User.ID); err != nil {
			c.deps.Log.Warnw("survey merge failed", "email", req.Email, "err", err)
		} else {
			linked = res.LinkedCount
		}
	}

	// Confirmation-required projects return a user with no session; only a
	// live token gets a cookie.
	if sess.AccessToken != "" {
		c.issueSession(w, r, sess)
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"user":          userView(sess.User),
		"linkedSurveys": linked,
	})
}

// handleForgotPassword always reports success so responses cannot be used to
// enumerate accounts.
func (c *Component) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		web.BadRequest(w, "Email is required")
		return
	}

	redirectTo := c.deps.Config.Site.BaseURL + "/api/auth/callback?next=/reset-password"
	if err := c.deps.Supabase.SendRecovery(r.Context(), req.Email, redirectTo); err != nil {
		c.deps.Log.Warnw("recovery email failed", "email", req.Email, "err", err)
		metrics.AuthRequestsTotal.WithLabelValues("forgot_password", "provider_error").Inc()
	} else {
		metrics.AuthRequestsTotal.WithLabelValues("forgot_password", "ok").Inc()
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If an account exists for that address, a reset link is on its way",
	})
}

// handleResetPassword updates the credential behind the recovery session the
// callback established, then forces re-authentication.
func (c *Component) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !web.DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Password) < 6 {
		web.BadRequest(w, "Password must be at least 6 characters")
		return
	}

	p := session.FromContext(r.Context())
	if p == nil || p.AccessToken == "" {
		web.WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Auth session missing"})
		return
	}

	if _, err := c.deps.Supabase.UpdatePassword(r.Context(), p.AccessToken, req.Password); err != nil {
		c.authFail(w, "reset_password", err, "Could not update the password")
		return
	}
	metrics.AuthRequestsTotal.WithLabelValues("reset_password", "ok").Inc()

	// Fresh credential, fresh login.
	c.deps.Guard.SignOut(w, r, p)
	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

/*──────────────────────────── Session routes ───────────────────────────────*/

func (c *Component) handleSignout(w http.ResponseWriter, r *http.Request) {
	if p := session.FromContext(r.Context()); p != nil {
		c.deps.Guard.SignOut(w, r, p)
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleHeartbeat records explicit client activity and reports the idle
// state so the front end can raise its pre-logout warning.
func (c *Component) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	p := session.FromContext(r.Context())
	if p == nil {
		web.WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "No session"})
		return
	}
	c.deps.Guard.Touch(w, r, p)
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"state":     "active",
		"expiresAt": c.deps.Guard.Deadline(p).UTC().Format(time.RFC3339),
	})
}

/*──────────────────────────── Callback route ───────────────────────────────*/

// handleCallback resolves a confirmation or recovery code into a session and
// redirects per the classified flow.  Every response disables caching.
func (c *Component) handleCallback(w http.ResponseWriter, r *http.Request) {
	middleware.NoStore(w)

	params := authflow.ParamsFromQuery(r.URL.Query())
	flow := authflow.Classify(params)
	ctx := r.Context()

	if params.Code == "" {
		c.callbackFailure(w, r, flow, params)
		return
	}

	sess, err := c.deps.Supabase.ExchangeCode(ctx, params.Code)
	if err != nil {
		c.deps.Log.Infow("code exchange failed", "flow", flow.String(), "err", err)
		c.callbackFailure(w, r, flow, params)
		return
	}

	red := authflow.Success(flow, params)
	if red.DropSession {
		// Confirmation must not grant a live session.
		if err := c.deps.Supabase.SignOut(ctx, sess.AccessToken); err != nil {
			c.deps.Log.Warnw("post-confirmation sign-out failed", "err", err)
		}
	} else {
		c.issueSession(w, r, sess)
	}
	metrics.AuthRequestsTotal.WithLabelValues("callback_"+flow.String(), "ok").Inc()
	http.Redirect(w, r, red.Location, http.StatusSeeOther)
}

// callbackFailure picks the error redirect, consulting the admin listing for
// the confirmation flow so an already-confirmed user lands on a friendlier
// message than "expired".
func (c *Component) callbackFailure(w http.ResponseWriter, r *http.Request, flow authflow.Flow, params authflow.Params) {
	alreadyConfirmed := false
	if flow == authflow.FlowEmailConfirm && params.Email != "" {
		u, err := c.deps.Supabase.FindUserByEmail(r.Context(), params.Email)
		if err != nil {
			c.deps.Log.Warnw("admin user lookup failed", "email", params.Email, "err", err)
		}
		alreadyConfirmed = u.Confirmed()
	}

	red := authflow.Failure(flow, alreadyConfirmed)
	metrics.AuthRequestsTotal.WithLabelValues("callback_"+flow.String(), "error").Inc()
	http.Redirect(w, r, red.Location, http.StatusSeeOther)
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

// issueSession writes the signed cookie for a live provider session.
func (c *Component) issueSession(w http.ResponseWriter, r *http.Request, sess *supabase.Session) {
	p := &session.Payload{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		LastActivity: time.Now().Unix(),
	}
	if sess.User != nil {
		p.UserID = sess.User.ID
		p.Email = sess.User.Email
	}
	c.deps.Sessions.Issue(w, r, p)
}

// authFail maps a provider error onto the right HTTP status and metric.
func (c *Component) authFail(w http.ResponseWriter, op string, err error, message string) {
	if supabase.IsAuthFailure(err) {
		metrics.AuthRequestsTotal.WithLabelValues(op, "rejected").Inc()
		status := http.StatusUnauthorized
		if op == "signup" {
			status = http.StatusBadRequest
		}
		web.WriteJSON(w, status, map[string]any{"error": message})
		return
	}
	metrics.AuthRequestsTotal.WithLabelValues(op, "provider_error").Inc()
	c.deps.Log.Errorw("auth provider error", "op", op, "err", err)
	web.WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "Authentication service unavailable"})
}

func userView(u *supabase.User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{"id": u.ID, "email": u.Email}
}
