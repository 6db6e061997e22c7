// internal/authflow/flow.go
//
// Callback-flow classification and redirect descriptors.
//
// Context
// -------
// GoTrue lands OAuth and email-link completions on one callback URL with
// up to four query parameters: `code`, `type`, `email`, and `next`.  The
// handler must tell three flows apart — password recovery, signup email
// confirmation, and generic login — and each flow redirects differently on
// both success and failure.  This package keeps that logic pure: Classify
// returns a closed set of flow variants, and each variant's redirect is a
// plain descriptor the handler writes out.  No HTTP, no provider calls.
//
// `next == "/login"` classifies as email confirmation even without
// `type=signup`; confirmation links have historically carried only the
// next parameter, so the proxy stays.
//
//------------------------------------------------------------------------------

package authflow

import (
	"net/url"
	"strings"
)

// Flow is the closed set of callback variants.
type Flow int

const (
	FlowGeneric Flow = iota
	FlowRecovery
	FlowEmailConfirm
)

func (f Flow) String() string {
	switch f {
	case FlowRecovery:
		return "recovery"
	case FlowEmailConfirm:
		return "email_confirm"
	default:
		return "generic"
	}
}

// Params is the callback's parsed query surface.
type Params struct {
	Code  string
	Type  string
	Email string
	Next  string
}

// ParamsFromQuery lifts the relevant keys out of a parsed query string.
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Code:  q.Get("code"),
		Type:  q.Get("type"),
		Email: q.Get("email"),
		Next:  q.Get("next"),
	}
}

// Classify maps the parameter combination onto a flow variant.  Recovery
// wins over confirmation when both signals are present.
func Classify(p Params) Flow {
	if p.Type == "recovery" || p.Next == "/reset-password" {
		return FlowRecovery
	}
	if p.Type == "signup" || p.Next == "/login" {
		return FlowEmailConfirm
	}
	return FlowGeneric
}

/*──────────────────────────── redirects ───────────────────────────────────*/

// Redirect is a pure description of the response the handler must write.
// Every callback redirect disables caching; confirmation success must also
// drop the session the code exchange created.
type Redirect struct {
	Location    string
	DropSession bool
}

// Success returns the redirect for a flow whose code exchange worked.
func Success(f Flow, p Params) Redirect {
	switch f {
	case FlowRecovery:
		return Redirect{Location: "/reset-password?code=" + url.QueryEscape(p.Code)}
	case FlowEmailConfirm:
		// Confirmation must not grant a live session.
		return Redirect{Location: "/login?confirmed=true", DropSession: true}
	default:
		return Redirect{Location: SanitizeNext(p.Next)}
	}
}

// Failure returns the redirect for a flow whose code was missing, expired,
// or rejected.  alreadyConfirmed applies only to the confirmation flow,
// when the admin lookup shows the email is confirmed despite the dead link.
func Failure(f Flow, alreadyConfirmed bool) Redirect {
	switch f {
	case FlowRecovery:
		return Redirect{Location: "/forgot-password?error=expired"}
	case FlowEmailConfirm:
		if alreadyConfirmed {
			return Redirect{Location: "/login?error=alreadyConfirmed"}
		}
		return Redirect{Location: "/login?error=expired"}
	default:
		return Redirect{Location: "/login?error=auth_failed"}
	}
}

// SanitizeNext keeps redirects on-site: only rooted, non-protocol-relative
// paths pass, anything else falls back to "/".
func SanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
