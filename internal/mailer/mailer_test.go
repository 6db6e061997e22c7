// internal/mailer/mailer_test.go
//
// Unit-tests for the summary mailer with a fake sender.
//
// Run: go test ./internal/mailer -v

package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
)

type fakeSender struct {
	got *resend.SendEmailRequest
	id  string
	err error
}

func (f *fakeSender) Send(_ context.Context, req *resend.SendEmailRequest) (string, error) {
	f.got = req
	return f.id, f.err
}

func TestSend_AttachesPDFAndPicksBody(t *testing.T) {
	fake := &fakeSender{id: "em_123"}
	m := NewWithSender(fake, "Propcost <x@y.z>", "https://propcost.example/", nil)

	res, err := m.Send(context.Background(), Summary{
		To:      "buyer@example.com",
		Kind:    BodyExistingAccount,
		Address: "1 High St",
		PDF:     []byte("%PDF-fake"),
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.EmailID != "em_123" || res.Sandboxed {
		t.Errorf("result = %+v", res)
	}

	if len(fake.got.Attachments) != 1 || fake.got.Attachments[0].Filename != "property-cost-summary.pdf" {
		t.Fatalf("attachments = %+v", fake.got.Attachments)
	}
	if !strings.Contains(fake.got.Html, "/login") {
		t.Error("existing-account body should prompt to log in")
	}
	// Trailing slash on the site URL must not double up in links.
	if strings.Contains(fake.got.Html, "example//login") {
		t.Error("site URL slash not trimmed")
	}
}

func TestSend_BodyVariants(t *testing.T) {
	cases := []struct {
		kind BodyKind
		want string
	}{
		{BodyExistingAccount, "/login"},
		{BodyNewAccount, "/signup"},
		{BodyAuthenticated, "/calculator"},
	}
	for _, tc := range cases {
		fake := &fakeSender{id: "em_1"}
		m := NewWithSender(fake, "", "https://propcost.example", nil)
		if _, err := m.Send(context.Background(), Summary{To: "a@b.c", Kind: tc.kind}); err != nil {
			t.Fatalf("Send(%v): %v", tc.kind, err)
		}
		if !strings.Contains(fake.got.Html, tc.want) {
			t.Errorf("kind %v body missing %q", tc.kind, tc.want)
		}
	}
}

func TestSend_SandboxRejectionIsWarning(t *testing.T) {
	fake := &fakeSender{err: errors.New(
		"validation_error: You can only send testing emails to your own email address")}
	m := NewWithSender(fake, "", "https://propcost.example", nil)

	res, err := m.Send(context.Background(), Summary{To: "a@b.c"})
	if err != nil {
		t.Fatalf("sandbox rejection should not error, got %v", err)
	}
	if !res.Sandboxed || res.EmailID != "" {
		t.Errorf("result = %+v, want sandboxed", res)
	}
}

func TestSend_RealFailureErrors(t *testing.T) {
	fake := &fakeSender{err: errors.New("internal_server_error")}
	m := NewWithSender(fake, "", "https://propcost.example", nil)

	if _, err := m.Send(context.Background(), Summary{To: "a@b.c"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSend_RequiresRecipient(t *testing.T) {
	m := NewWithSender(&fakeSender{}, "", "", nil)
	if _, err := m.Send(context.Background(), Summary{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
