// modules/debug/debug.go
//
// Diagnostic module that echoes the enriched request metadata: parsed
// user-agent, GeoIP result, and the idle state of the current session.
package debug

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/yanizio/propcost/internal/module"
	"github.com/yanizio/propcost/internal/requestinfo"
	"github.com/yanizio/propcost/internal/session"
)

func init() {
	// Register at exact path /debug/request
	module.Register("/debug/request", handler)
}

// handler writes a JSON blob with selected context fields.
func handler(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"path":  r.URL.Path,
		"query": r.URL.RawQuery,
		"ip":    clientIP(r),
		"ua":    r.UserAgent(),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		out["ua_parsed"] = info.UA
		out["geo"] = info.Geo
	}
	if p := session.FromContext(r.Context()); p != nil {
		out["session"] = map[string]any{
			"user":          p.UserID,
			"last_activity": p.Last().UTC(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) string {
	h, _, _ := net.SplitHostPort(r.RemoteAddr)
	return h
}
