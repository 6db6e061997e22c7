// components/auth/auth_test.go
//
// Handler tests against an httptest fake standing in for GoTrue and
// PostgREST.
//
// Run: go test ./components/auth -v

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/config"
	"github.com/yanizio/propcost/internal/idle"
	"github.com/yanizio/propcost/internal/session"
	"github.com/yanizio/propcost/internal/store"
	"github.com/yanizio/propcost/internal/supabase"
	"github.com/yanizio/propcost/internal/survey"
)

const sessionJSON = `{
  "access_token": "at-1", "token_type": "bearer", "expires_in": 3600,
  "refresh_token": "rt-1",
  "user": {"id": "user-1", "email": "jess@example.com", "email_confirmed_at": "2026-01-01T00:00:00Z"}
}`

// newHarness wires a Component to a fake backend and returns the wrapped
// router (guard middleware included, as mounted in cmd/web).
func newHarness(t *testing.T, backend http.HandlerFunc) (http.Handler, *Component) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon", ServiceKey: "service"})
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}

	log := zap.NewNop().Sugar()
	props := store.NewPropertyStore(client)
	leads := store.NewLeadStore(client)
	codec := session.NewCodec("test-secret")
	policy := idle.Policy{Timeout: 30 * time.Minute, Warning: 2 * time.Minute, Debounce: 30 * time.Second}
	guard := session.NewGuard(codec, policy, client, log)

	c := &Component{}
	cfg := &config.Config{}
	cfg.Site.BaseURL = "https://propcost.example"
	if err := c.Init(component.Deps{
		Config:     cfg,
		Log:        log,
		Supabase:   client,
		Properties: props,
		Leads:      leads,
		Merger:     survey.NewMerger(leads, props, log),
		Sessions:   codec,
		Guard:      guard,
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return guard.Middleware(c.Routes()), c
}

// happyBackend answers every provider route a login needs.
func happyBackend(t *testing.T, hits *[]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits = append(*hits, r.Method+" "+r.URL.Path)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/auth/v1/token"):
			w.Write([]byte(sessionJSON))
		case r.URL.Path == "/auth/v1/signup":
			w.Write([]byte(sessionJSON))
		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/auth/v1/user":
			w.Write([]byte(`{"id": "user-1", "email": "jess@example.com"}`))
		case r.URL.Path == "/auth/v1/recover":
			w.Write([]byte(`{}`))
		case r.URL.Path == "/rest/v1/survey_leads" && r.Method == http.MethodGet:
			w.Write([]byte(`[]`))
		case r.URL.Path == "/rest/v1/survey_leads":
			w.Write([]byte(`[{"id": "lead-1"}]`))
		case r.URL.Path == "/rest/v1/properties":
			w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return m
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "propcost_session" && ck.Value != "" {
			return ck
		}
	}
	return nil
}

/*──────────────────────────── login ────────────────────────────────────────*/

func TestLoginSuccessSetsCookieAndMerges(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))

	rec := postJSON(h, "/api/auth/login", `{"email":"jess@example.com","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if body["linkedSurveys"] != float64(0) {
		t.Fatalf("linkedSurveys = %v", body["linkedSurveys"])
	}
	if sessionCookie(rec) == nil {
		t.Fatal("no session cookie issued")
	}
}

func TestLoginMissingFields(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))
	rec := postJSON(h, "/api/auth/login", `{"email":"jess@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_description": "Invalid login credentials"}`))
	})
	rec := postJSON(h, "/api/auth/login", `{"email":"jess@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

/*──────────────────────────── signup ───────────────────────────────────────*/

func TestSignupShortPasswordRejectedBeforeProviderCall(t *testing.T) {
	var hits []string
	h, _ := newHarness(t, happyBackend(t, &hits))

	rec := postJSON(h, "/api/auth/signup", `{"email":"jess@example.com","password":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(hits) != 0 {
		t.Fatalf("provider was called: %v", hits)
	}
}

func TestSignupWithGuestPropertyInsertsLead(t *testing.T) {
	var hits []string
	h, _ := newHarness(t, happyBackend(t, &hits))

	rec := postJSON(h, "/api/auth/signup",
		`{"email":"jess@example.com","password":"hunter22","propertyId":"prop-7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	sawInsert := false
	for _, hit := range hits {
		if hit == "POST /rest/v1/survey_leads" {
			sawInsert = true
		}
	}
	if !sawInsert {
		t.Fatalf("lead insert not issued; hits %v", hits)
	}
}

func TestSignupDuplicateLeadTolerated(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/signup":
			w.Write([]byte(sessionJSON))
		case r.URL.Path == "/rest/v1/survey_leads" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"code": "23505", "message": "duplicate key value"}`))
		case r.URL.Path == "/rest/v1/survey_leads":
			w.Write([]byte(`[]`))
		case r.URL.Path == "/rest/v1/properties":
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	rec := postJSON(h, "/api/auth/signup",
		`{"email":"jess@example.com","password":"hunter22","propertyId":"prop-7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

/*──────────────────────────── forgot password ──────────────────────────────*/

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError) // provider down
	})

	rec := postJSON(h, "/api/auth/forgot-password", `{"email":"whoever@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["success"] != true {
		t.Fatal("expected success:true despite provider failure")
	}
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))
	rec := postJSON(h, "/api/auth/forgot-password", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

/*──────────────────────────── reset password ───────────────────────────────*/

func withSession(t *testing.T, c *Component, req *http.Request) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.deps.Sessions.Issue(rec, req, &session.Payload{
		UserID:       "user-1",
		Email:        "jess@example.com",
		AccessToken:  "at-1",
		LastActivity: time.Now().Unix(),
	})
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
}

func TestResetPasswordRequiresSession(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))
	rec := postJSON(h, "/api/auth/reset-password", `{"password":"newpass9"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestResetPasswordUpdatesAndSignsOut(t *testing.T) {
	var hits []string
	h, c := newHarness(t, happyBackend(t, &hits))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password",
		strings.NewReader(`{"password":"newpass9"}`))
	withSession(t, c, req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	sawUpdate := false
	for _, hit := range hits {
		if hit == "PUT /auth/v1/user" {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Fatalf("password update not issued; hits %v", hits)
	}
	// The cleared cookie forces re-authentication.
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "propcost_session" && ck.MaxAge >= 0 && ck.Value != "" {
			t.Fatal("session cookie survived password reset")
		}
	}
}

/*──────────────────────────── callback ─────────────────────────────────────*/

func getCallback(h http.Handler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+query, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallbackRecoverySuccess(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))

	rec := getCallback(h, "code=abc&type=recovery")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/reset-password?code=abc" {
		t.Fatalf("Location = %q", loc)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("Cache-Control = %q", cc)
	}
	if sessionCookie(rec) == nil {
		t.Fatal("recovery exchange should establish a session")
	}
}

func TestCallbackRecoveryExpiredCode(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_description": "code expired"}`))
	})

	rec := getCallback(h, "code=dead&type=recovery")
	if loc := rec.Header().Get("Location"); loc != "/forgot-password?error=expired" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestCallbackConfirmationDropsSession(t *testing.T) {
	var hits []string
	h, _ := newHarness(t, happyBackend(t, &hits))

	rec := getCallback(h, "code=abc&type=signup")
	if loc := rec.Header().Get("Location"); loc != "/login?confirmed=true" {
		t.Fatalf("Location = %q", loc)
	}
	sawLogout := false
	for _, hit := range hits {
		if hit == "POST /auth/v1/logout" {
			sawLogout = true
		}
	}
	if !sawLogout {
		t.Fatalf("confirmation exchange kept the session; hits %v", hits)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("confirmation must not set a session cookie")
	}
}

func TestCallbackConfirmationAlreadyConfirmed(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/auth/v1/token"):
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error_description": "code expired"}`))
		case r.URL.Path == "/auth/v1/admin/users":
			w.Write([]byte(`{"users": [{"id": "user-1", "email": "Jess@Example.com", "email_confirmed_at": "2026-01-01T00:00:00Z"}]}`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	rec := getCallback(h, "code=dead&type=signup&email=jess%40example.com")
	if loc := rec.Header().Get("Location"); loc != "/login?error=alreadyConfirmed" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestCallbackGenericMissingCode(t *testing.T) {
	h, _ := newHarness(t, happyBackend(t, nil))

	rec := getCallback(h, "next=/calculator")
	if loc := rec.Header().Get("Location"); loc != "/login?error=auth_failed" {
		t.Fatalf("Location = %q", loc)
	}
}
