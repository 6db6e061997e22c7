// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  At boot the server invokes
// Init(deps) on every component, then mounts its Routes() at "/".

package component

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/propcost/internal/config"
	"github.com/yanizio/propcost/internal/mailer"
	"github.com/yanizio/propcost/internal/postcode"
	"github.com/yanizio/propcost/internal/session"
	"github.com/yanizio/propcost/internal/store"
	"github.com/yanizio/propcost/internal/supabase"
	"github.com/yanizio/propcost/internal/survey"
	"github.com/yanizio/propcost/internal/view"
)

// Deps bundles the shared resources a component may need.  Everything is
// constructed once in cmd/web and handed down; components never reach for
// globals.
type Deps struct {
	Config     *config.Config
	Log        *zap.SugaredLogger
	Supabase   *supabase.Client
	Properties *store.PropertyStore
	Leads      *store.LeadStore
	Mailer     *mailer.Mailer
	Postcode   *postcode.Validator
	Sessions   *session.Codec
	Guard      *session.Guard
	Merger     *survey.Merger
	Views      *view.Renderer
}

// Component contract.
//
// Routes() should mount BOTH page and API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/login", getLogin)
//	r.Route("/api", func(api chi.Router) { ... })
//	return r
type Component interface {
	Name() string
	Init(Deps) error
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component in arbitrary order.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	return out
}

// Mount flattens a component's routes onto root.  Components share the "/"
// namespace, so their trees are walked and re-registered endpoint by
// endpoint rather than mounted wholesale.
func Mount(root chi.Router, c Component) error {
	return chi.Walk(c.Routes(),
		func(method, route string, h http.Handler, _ ...func(http.Handler) http.Handler) error {
			root.Method(method, route, h)
			return nil
		})
}
