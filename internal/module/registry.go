// internal/module/registry.go
//
// A super-light registry for operational endpoints that sit outside the
// component system: modules call Register(path, handler) in an init()
// function, and cmd/web mounts every entry on the root router.  Components
// carry the product surface; modules carry diagnostics.
package module

import (
	"net/http"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]http.HandlerFunc{}
)

// Register is called from module init() functions.
func Register(path string, h http.HandlerFunc) {
	mu.Lock()
	registry[path] = h
	mu.Unlock()
}

// All returns a copy of the path → handler table.
func All() map[string]http.HandlerFunc {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]http.HandlerFunc, len(registry))
	for p, h := range registry {
		out[p] = h
	}
	return out
}
