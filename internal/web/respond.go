// internal/web/respond.go
//
// Small JSON request/response helpers shared by the API components.  Kept
// deliberately thin: encode, decode with a size cap, and the two error
// shapes the routes use.
//

package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// maxBodyBytes caps API request bodies.  Calculator payloads carry nested
// form sections but stay well under this.
const maxBodyBytes = 1 << 20

// WriteJSON encodes v with status.  Encoding failures are logged; headers
// are already gone by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("response encode failed", "err", err)
	}
}

// DecodeJSON parses the request body into dst.  On failure it writes a 400
// and returns false so handlers can bail with a bare return.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

// BadRequest writes the standard 400 error shape.
func BadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, map[string]any{"error": message})
}
