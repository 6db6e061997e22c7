// internal/session/middleware.go
//
// Session middleware: identity injection and idle-timeout enforcement.
//
// Context
// -------
// Every request through this middleware either carries no session (passes
// through anonymous), a live one (identity lands in the request context,
// activity may be touched), or an expired one.  Expiry is evaluated
// against the cookie's last-activity stamp, so a browser resuming from
// suspend past the cutoff is signed out on its first request — there is
// no server-side timer to miss.  Sign-out clears the cookie first, then
// revokes the provider session best-effort: a GoTrue failure must never
// leave the user logged in locally.
//
// Touch writes are debounced through the idle policy so mouse-move class
// heartbeats do not rewrite the cookie on every request.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/idle"
	"github.com/yanizio/propcost/internal/metrics"
)

type ctxKey struct{}

// FromContext returns the session payload the middleware attached, or nil
// for anonymous requests.
func FromContext(ctx context.Context) *Payload {
	p, _ := ctx.Value(ctxKey{}).(*Payload)
	return p
}

// Revoker is the provider sign-out seam; *supabase.Client satisfies it.
type Revoker interface {
	SignOut(ctx context.Context, accessToken string) error
}

// Guard owns enforcement.  Construct once in main and wrap the router.
type Guard struct {
	codec   *Codec
	policy  idle.Policy
	revoker Revoker
	log     *zap.SugaredLogger
	now     func() time.Time // test seam
}

// NewGuard builds a Guard.  revoker may be nil (no provider revocation).
func NewGuard(codec *Codec, policy idle.Policy, revoker Revoker, log *zap.SugaredLogger) *Guard {
	if log == nil {
		log = zap.S()
	}
	return &Guard{codec: codec, policy: policy, revoker: revoker, log: log, now: time.Now}
}

// Middleware evaluates the idle policy and injects identity.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := g.codec.Read(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		now := g.now()
		switch g.policy.Evaluate(p.Last(), now) {
		case idle.StateExpired:
			metrics.IdleLogoutsTotal.Inc()
			g.log.Infow("session expired by idle timeout", "user", p.UserID)
			g.SignOut(w, r, p)
			next.ServeHTTP(w, r) // proceeds anonymous
			return

		case idle.StateWarning:
			w.Header().Set("X-Session-State", "warning")
			w.Header().Set("X-Session-Expires",
				g.policy.Deadline(p.Last()).UTC().Format(time.RFC3339))

		case idle.StateActive:
			w.Header().Set("X-Session-State", "active")
		}

		if g.policy.ShouldTouch(p.Last(), now) {
			p.LastActivity = now.Unix()
			g.codec.Issue(w, r, p)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

// SignOut ends the session: cookie first, provider second.  Revocation
// failures log and move on.
func (g *Guard) SignOut(w http.ResponseWriter, r *http.Request, p *Payload) {
	g.codec.Clear(w)

	if g.revoker != nil && p.AccessToken != "" {
		if err := g.revoker.SignOut(r.Context(), p.AccessToken); err != nil {
			g.log.Warnw("provider sign-out failed", "user", p.UserID, "err", err)
		}
	}
}

// Touch reissues the cookie with a fresh activity stamp, unconditionally.
// The heartbeat endpoint uses it after explicit client activity.
func (g *Guard) Touch(w http.ResponseWriter, r *http.Request, p *Payload) {
	p.LastActivity = g.now().Unix()
	g.codec.Issue(w, r, p)
}

// Deadline reports when the session expires absent further activity.
func (g *Guard) Deadline(p *Payload) time.Time {
	return g.policy.Deadline(p.Last())
}
