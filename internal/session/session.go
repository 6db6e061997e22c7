// internal/session/session.go
//
// Signed auth-session cookie.
//
// Context
// -------
// A logged-in browser carries one HMAC-signed cookie holding the Supabase
// tokens, the user identity, and the last-activity timestamp the idle
// policy runs on.  The payload is base64url(JSON) + "." + base64url(MAC);
// tampering with either half invalidates the session.  Tokens never touch
// client-side storage, so the idle sign-out is authoritative: once the
// cookie is cleared the browser holds nothing usable.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const cookieName = "propcost_session"

// Payload is what the cookie stores.
type Payload struct {
	UserID       string `json:"uid"`
	Email        string `json:"email"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt,omitempty"`
	LastActivity int64  `json:"la"` // unix seconds
}

// Last returns the last-activity timestamp as a time.Time.
func (p *Payload) Last() time.Time { return time.Unix(p.LastActivity, 0) }

// Codec signs and verifies session cookies.  Zero value is invalid.
type Codec struct {
	secret []byte
}

// NewCodec builds a Codec over the configured session secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue writes the session cookie.
func (c *Codec) Issue(w http.ResponseWriter, r *http.Request, p *Payload) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    c.encode(p),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// Clear removes the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Read parses and verifies the cookie.  ok == false when the cookie is
// missing, malformed, or fails the MAC.
func (c *Codec) Read(r *http.Request) (p *Payload, ok bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return c.decode(cookie.Value)
}

/*──────────────────────────── wire format ─────────────────────────────────*/

func (c *Codec) encode(p *Payload) string {
	body, _ := json.Marshal(p)
	b64 := base64.RawURLEncoding.EncodeToString(body)
	return b64 + "." + c.sign(b64)
}

func (c *Codec) decode(value string) (*Payload, bool) {
	b64, mac, found := strings.Cut(value, ".")
	if !found {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(c.sign(b64)), []byte(mac)) != 1 {
		return nil, false
	}
	body, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return nil, false
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Codec) sign(b64 string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(b64))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
