// components/calculator/calculator_test.go
//
// Handler tests against an httptest fake backend and a captured mail
// sender.
//
// Run: go test ./components/calculator -v

package calculator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/config"
	"github.com/yanizio/propcost/internal/mailer"
	"github.com/yanizio/propcost/internal/metrics"
	"github.com/yanizio/propcost/internal/postcode"
	"github.com/yanizio/propcost/internal/store"
	"github.com/yanizio/propcost/internal/supabase"
)

type fakeSender struct {
	sent []*resend.SendEmailRequest
}

func (f *fakeSender) Send(_ context.Context, req *resend.SendEmailRequest) (string, error) {
	f.sent = append(f.sent, req)
	return "email-1", nil
}

func newHarness(t *testing.T, backend http.HandlerFunc) (http.Handler, *fakeSender) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon", ServiceKey: "service"})
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}

	log := zap.NewNop().Sugar()
	sender := &fakeSender{}
	cfg := &config.Config{}
	cfg.Site.BaseURL = "https://propcost.example"
	cfg.Maps.APIKey = "maps-key"

	c := &Component{}
	if err := c.Init(component.Deps{
		Config:     cfg,
		Log:        log,
		Supabase:   client,
		Properties: store.NewPropertyStore(client),
		Leads:      store.NewLeadStore(client),
		Mailer:     mailer.NewWithSender(sender, "Propcost <noreply@propcost.example>", "https://propcost.example", log),
		Postcode:   postcode.New("", ""),
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c.Routes(), sender
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

/*──────────────────────────── save / load ─────────────────────────────────*/

func TestSaveInsertsThenUpdates(t *testing.T) {
	okSaves := testutil.ToFloat64(metrics.PropertySavesTotal.WithLabelValues("ok"))
	var methods []string
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/properties" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		methods = append(methods, r.Method)
		w.Write([]byte(`[{"id": "prop-1", "session_id": "sess-1", "price": 750000, "address": "1 Example St"}]`))
	})

	body := `{"action":"save","sessionId":"sess-1","data":{"price":"750,000","address":"1 Example St","state":"NSW"}}`
	rec := postJSON(h, "/api/supabase", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	prop := decodeBody(t, rec)["property"].(map[string]any)
	if prop["id"] != "prop-1" {
		t.Fatalf("id = %v", prop["id"])
	}

	// Second save carries the id and must update, not insert.
	body = `{"action":"save","sessionId":"sess-1","propertyId":"prop-1","data":{"price":"800000"}}`
	if rec := postJSON(h, "/api/supabase", body); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if len(methods) != 2 || methods[0] != http.MethodPost || methods[1] != http.MethodPatch {
		t.Fatalf("backend methods = %v, want [POST PATCH]", methods)
	}
	if got := testutil.ToFloat64(metrics.PropertySavesTotal.WithLabelValues("ok")); got != okSaves+2 {
		t.Fatalf("ok saves counter = %v, want %v", got, okSaves+2)
	}
}

func TestLoadReturnsNullForUnknownSession(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	rec := postJSON(h, "/api/supabase", `{"action":"load","sessionId":"sess-none"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if v, ok := decodeBody(t, rec)["property"]; !ok || v != nil {
		t.Fatalf("property = %v, want null", v)
	}
}

func TestPropertyRejectsUnknownAction(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := postJSON(h, "/api/supabase", `{"action":"delete","sessionId":"sess-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestParsePrice(t *testing.T) {
	if p := parsePrice("750,000"); p == nil || *p != 750000 {
		t.Fatalf("parsePrice(750,000) = %v", p)
	}
	if p := parsePrice(""); p != nil {
		t.Fatalf("empty string should be nil, got %v", *p)
	}
	if p := parsePrice("about a million"); p != nil {
		t.Fatalf("garbage should be nil, got %v", *p)
	}
	if p := parsePrice(float64(42)); p == nil || *p != 42 {
		t.Fatalf("number passthrough failed: %v", p)
	}
	if p := parsePrice(nil); p != nil {
		t.Fatalf("nil should be nil, got %v", *p)
	}
}

/*──────────────────────────── email-pdf ────────────────────────────────────*/

const emailPDFBody = `{
  "userEmail": "jess@example.com",
  "formData": {"price": "750000", "address": "1 Example St", "state": "NSW"},
  "calculations": {"stamp_duty": 29085},
  "isGuest": true,
  "propertyId": "prop-1"
}`

func TestEmailPDFGuestWithoutAccountRecordsLead(t *testing.T) {
	var leadInserted bool
	h, sender := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/admin/users":
			w.Write([]byte(`{"users": []}`))
		case r.URL.Path == "/rest/v1/survey_leads" && r.Method == http.MethodPost:
			leadInserted = true
			w.Write([]byte(`[{"id": "lead-1"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	rec := postJSON(h, "/api/email-pdf", emailPDFBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["emailExists"] != false {
		t.Fatalf("emailExists = %v", body["emailExists"])
	}
	if body["emailId"] != "email-1" {
		t.Fatalf("emailId = %v", body["emailId"])
	}
	if !leadInserted {
		t.Fatal("survey lead was not recorded")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails", len(sender.sent))
	}
	req := sender.sent[0]
	if len(req.Attachments) != 1 || req.Attachments[0].Filename != "property-cost-summary.pdf" {
		t.Fatalf("attachment missing: %+v", req.Attachments)
	}
	if !strings.Contains(req.Html, "/signup") {
		t.Fatal("guest body should prompt to sign up")
	}
}

func TestEmailPDFGuestWithAccountLinksProperty(t *testing.T) {
	var linked bool
	h, sender := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/admin/users":
			w.Write([]byte(`{"users": [{"id": "user-1", "email": "jess@example.com", "email_confirmed_at": "2026-01-01T00:00:00Z"}]}`))
		case r.URL.Path == "/rest/v1/properties" && r.Method == http.MethodPatch:
			linked = true
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	rec := postJSON(h, "/api/email-pdf", emailPDFBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["emailExists"] != true {
		t.Fatal("emailExists should be true")
	}
	if !linked {
		t.Fatal("property was not linked")
	}
	if !strings.Contains(sender.sent[0].Html, "/login") {
		t.Fatal("existing-account body should prompt to log in")
	}
}

func TestEmailPDFRequiresEmail(t *testing.T) {
	h, sender := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	rec := postJSON(h, "/api/email-pdf", `{"formData": {}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}

/*──────────────────────────── auxiliary lookups ────────────────────────────*/

func getPath(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestValidateSuburbFallbackTable(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := getPath(h, "/api/validate-suburb?postcode=2000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["valid"] != true {
		t.Fatalf("valid = %v", body["valid"])
	}

	// Unknown but well-formed: empty list, not an error.
	rec = getPath(h, "/api/validate-suburb?postcode=9999")
	if rec.Code != http.StatusOK || decodeBody(t, rec)["valid"] != false {
		t.Fatalf("unknown postcode: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestValidateSuburbRejectsMalformed(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	for _, bad := range []string{"", "20", "200O", "20000"} {
		if rec := getPath(h, "/api/validate-suburb?postcode="+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("postcode %q: status = %d", bad, rec.Code)
		}
	}
}

func TestCheckEmail(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users": [{"id": "user-1", "email": "jess@example.com"}]}`))
	})

	rec := getPath(h, "/api/check-email?email=jess%40example.com")
	if rec.Code != http.StatusOK || decodeBody(t, rec)["exists"] != true {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	if rec := getPath(h, "/api/check-email"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email: status = %d", rec.Code)
	}
}

func TestMapsConfig(t *testing.T) {
	h, _ := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := getPath(h, "/api/google-maps-config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if u := decodeBody(t, rec)["scriptUrl"].(string); !strings.Contains(u, "key=maps-key") {
		t.Fatalf("scriptUrl = %q", u)
	}
}
