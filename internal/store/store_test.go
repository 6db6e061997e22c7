// internal/store/store_test.go
//
// Unit-tests for the property and lead repositories against a fake
// PostgREST endpoint.
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/propcost/internal/supabase"
)

// capture remembers the last request the fake PostgREST saw.
type capture struct {
	method string
	path   string
	query  string
	body   []byte
}

func fakePostgREST(t *testing.T, status int, respond string, cap *capture) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.query = r.URL.RawQuery
		cap.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		w.Write([]byte(respond))
	}))
	t.Cleanup(srv.Close)

	c, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon", ServiceKey: "svc"})
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}
	return c
}

func TestPropertySave_InsertWhenNoID(t *testing.T) {
	var cap capture
	s := NewPropertyStore(fakePostgREST(t, 201, `[{"id":"p-1","session_id":"sess-1"}]`, &cap))

	saved, err := s.Save(context.Background(), &Property{SessionID: "sess-1", Address: "1 High St"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cap.method != http.MethodPost || cap.path != "/rest/v1/properties" {
		t.Errorf("request = %s %s, want POST /rest/v1/properties", cap.method, cap.path)
	}
	if saved.ID != "p-1" {
		t.Errorf("fresh id = %q", saved.ID)
	}

	// Absent sections default to {}, not null.
	var sent map[string]any
	if err := json.Unmarshal(cap.body, &sent); err != nil {
		t.Fatalf("sent body: %v", err)
	}
	for _, key := range []string{"property_details", "buyer_details", "loan_details", "seller_questions"} {
		if m, ok := sent[key].(map[string]any); !ok || m == nil {
			t.Errorf("%s = %v, want empty object", key, sent[key])
		}
	}
}

func TestPropertySave_UpdateByID(t *testing.T) {
	var cap capture
	s := NewPropertyStore(fakePostgREST(t, 200, `[{"id":"p-1","session_id":"sess-1"}]`, &cap))

	if _, err := s.Save(context.Background(), &Property{ID: "p-1", SessionID: "sess-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cap.method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", cap.method)
	}
	if cap.query != "id=eq.p-1" {
		t.Errorf("query = %q", cap.query)
	}
	// The PATCH body must not carry the primary key.
	var sent map[string]any
	json.Unmarshal(cap.body, &sent)
	if _, ok := sent["id"]; ok {
		t.Error("PATCH body rewrites id")
	}
}

func TestLatestBySession_NoneIsNil(t *testing.T) {
	var cap capture
	s := NewPropertyStore(fakePostgREST(t, 200, `[]`, &cap))

	p, err := s.LatestBySession(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("LatestBySession: %v", err)
	}
	if p != nil {
		t.Fatalf("want nil, got %+v", p)
	}
	if cap.query != "limit=1&order=updated_at.desc&session_id=eq.sess-9" {
		t.Errorf("query = %q", cap.query)
	}
}

func TestLinkToUser_BulkPatch(t *testing.T) {
	var cap capture
	s := NewPropertyStore(fakePostgREST(t, 200, `[]`, &cap))

	if err := s.LinkToUser(context.Background(), []string{"p-1", "p-2"}, "u-7"); err != nil {
		t.Fatalf("LinkToUser: %v", err)
	}
	if cap.method != http.MethodPatch {
		t.Errorf("method = %s", cap.method)
	}
	var sent map[string]any
	json.Unmarshal(cap.body, &sent)
	if sent["user_id"] != "u-7" || sent["user_saved"] != true || sent["is_active"] != true {
		t.Errorf("patch = %v", sent)
	}
}

func TestLinkToUser_EmptyIsNoop(t *testing.T) {
	var cap capture
	s := NewPropertyStore(fakePostgREST(t, 500, ``, &cap))

	if err := s.LinkToUser(context.Background(), nil, "u-7"); err != nil {
		t.Fatalf("LinkToUser(nil): %v", err)
	}
	if cap.method != "" {
		t.Error("no-op still issued a request")
	}
}

func TestUnconvertedByEmail_FiltersConverted(t *testing.T) {
	var cap capture
	s := NewLeadStore(fakePostgREST(t, 200,
		`[{"id":"l-1","email":"a@b.c","property_id":"p-1","converted":false}]`, &cap))

	leads, err := s.UnconvertedByEmail(context.Background(), "A@b.c")
	if err != nil {
		t.Fatalf("UnconvertedByEmail: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != "l-1" {
		t.Fatalf("leads = %+v", leads)
	}
	if cap.query != "converted=is.false&email=eq.a%40b.c" {
		t.Errorf("query = %q", cap.query)
	}
}

func TestUnconvertedByEmail_MatchesExactly(t *testing.T) {
	// `_` is a single-character wildcard under pattern operators; the
	// filter must stay an exact match so john_smith@ cannot pick up
	// johnXsmith@'s leads.
	var cap capture
	s := NewLeadStore(fakePostgREST(t, 200, `[]`, &cap))

	if _, err := s.UnconvertedByEmail(context.Background(), "John_Smith@example.com"); err != nil {
		t.Fatalf("UnconvertedByEmail: %v", err)
	}
	if cap.query != "converted=is.false&email=eq.john_smith%40example.com" {
		t.Errorf("query = %q", cap.query)
	}
}

func TestLeadInsert_SurfacesDuplicate(t *testing.T) {
	var cap capture
	s := NewLeadStore(fakePostgREST(t, 409, `{"code":"23505","message":"duplicate"}`, &cap))

	err := s.Insert(context.Background(), "a@b.c", "p-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !supabase.IsDuplicate(err) {
		t.Errorf("IsDuplicate = false for %v", err)
	}
}
