// internal/authflow/flow_test.go
//
// Table tests for callback classification and redirect descriptors.
//
// Run: go test ./internal/authflow -v

package authflow

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		p    Params
		want Flow
	}{
		{"recovery by type", Params{Type: "recovery"}, FlowRecovery},
		{"recovery by next", Params{Next: "/reset-password"}, FlowRecovery},
		{"recovery wins over signup", Params{Type: "recovery", Next: "/login"}, FlowRecovery},
		{"confirm by type", Params{Type: "signup"}, FlowEmailConfirm},
		{"confirm by next proxy", Params{Next: "/login"}, FlowEmailConfirm},
		{"generic empty", Params{}, FlowGeneric},
		{"generic with next", Params{Next: "/calculator"}, FlowGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.p); got != tc.want {
				t.Errorf("Classify(%+v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestSuccessRedirects(t *testing.T) {
	r := Success(FlowRecovery, Params{Code: "abc 123"})
	if r.Location != "/reset-password?code=abc+123" {
		t.Errorf("recovery location = %q", r.Location)
	}
	if r.DropSession {
		t.Error("recovery must keep the exchanged session")
	}

	r = Success(FlowEmailConfirm, Params{Code: "abc"})
	if r.Location != "/login?confirmed=true" {
		t.Errorf("confirm location = %q", r.Location)
	}
	if !r.DropSession {
		t.Error("confirmation must drop the session")
	}

	r = Success(FlowGeneric, Params{Next: "/calculator"})
	if r.Location != "/calculator" {
		t.Errorf("generic location = %q", r.Location)
	}
}

func TestFailureRedirects(t *testing.T) {
	if got := Failure(FlowRecovery, false).Location; got != "/forgot-password?error=expired" {
		t.Errorf("recovery failure = %q", got)
	}
	if got := Failure(FlowEmailConfirm, true).Location; got != "/login?error=alreadyConfirmed" {
		t.Errorf("already-confirmed = %q", got)
	}
	if got := Failure(FlowEmailConfirm, false).Location; got != "/login?error=expired" {
		t.Errorf("confirm expired = %q", got)
	}
	if got := Failure(FlowGeneric, false).Location; got != "/login?error=auth_failed" {
		t.Errorf("generic failure = %q", got)
	}
}

func TestSanitizeNext(t *testing.T) {
	cases := map[string]string{
		"":                  "/",
		"/dashboard":        "/dashboard",
		"//evil.com":        "/",
		"https://evil.com":  "/",
		"dashboard":         "/",
		"/calculator?s=nsw": "/calculator?s=nsw",
	}
	for in, want := range cases {
		if got := SanitizeNext(in); got != want {
			t.Errorf("SanitizeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
