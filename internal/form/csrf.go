// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Rendered pages embed a hidden `csrf_token` input generated at render
//   time.  The server must verify this token on POST to ensure the request
//   originated from a form it rendered.  We implement a *stateless* token:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Prevents replay across users.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the site secret.  Verifies authenticity.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side sessions are required, keeping the system cache-
//   friendly and multi-instance safe.
//
// Workflow
//   •  SetSecret(key)   → called once at boot, normally with the session key.
//   •  GenerateToken()  → returns token string for the template.
//   •  VerifyToken(tok) → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"os"
	"sync"
	"time"
)

const (
	tokenBytes   = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge       = 2 * time.Hour        // token valid window
	secretEnvKey = "PROPCOST_CSRF_KEY"  // 32-byte base64 key suggested
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// SetSecret installs the process-wide CSRF key.  cmd/web calls this with the
// configured session secret so tokens survive restarts.
func SetSecret(key []byte) {
	secretMu.Lock()
	secretKey = key
	secretMu.Unlock()
}

// GenerateToken creates a new CSRF token.  Call once per form render.
func GenerateToken() (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	sig := mac.Sum(nil)

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sig...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks.
func VerifyToken(tok string) bool {
	sec := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Timestamp window check.
	ts := binary.BigEndian.Uint64(tsBytes)
	issued := time.UnixMicro(int64(ts))
	if time.Since(issued) > maxAge || time.Until(issued) > time.Minute {
		// Future timestamp (clock skew) or older than maxAge.
		return false
	}

	// Recompute HMAC.
	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(tsBytes)
	want := mac.Sum(nil)

	return hmac.Equal(sig, want)
}

// fetchSecret returns the process-wide CSRF secret.  When SetSecret was never
// called, we fall back to PROPCOST_CSRF_KEY, then to an ephemeral random key.
func fetchSecret() []byte {
	secretMu.RLock()
	key := secretKey
	secretMu.RUnlock()
	if key != nil {
		return key
	}

	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey != nil {
		return secretKey
	}
	if env := os.Getenv(secretEnvKey); env != "" {
		if b, err := base64.RawURLEncoding.DecodeString(env); err == nil && len(b) >= 32 {
			secretKey = b
			return secretKey
		}
	}
	// Fallback random key (ephemeral – resets on restart).
	secretKey = make([]byte, 32)
	_, _ = rand.Read(secretKey)
	os.Stderr.WriteString("WARNING: PROPCOST_CSRF_KEY not set – using random key\n")
	return secretKey
}
