// internal/config/model.go
//
// Typed configuration model for Propcost.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `PROPCOST_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* validation, so the model never stores
// Vault URIs—only plain strings.
//
// Provider keys (Supabase service key, Resend key, postcode API key, Maps
// key) are deliberately NOT `required`: a missing key disables only the
// routes that depend on it, which report 500 at call time.  Startup must
// not fail because one optional integration is unconfigured.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Supabase section
//

// Supabase identifies the hosted auth + Postgres backend.  AnonKey is used
// for end-user auth flows; ServiceKey unlocks the admin user listing and
// unrestricted PostgREST access, and is usually a `vault:` reference.
type Supabase struct {
	URL        string `koanf:"url" validate:"omitempty,url"`
	AnonKey    string `koanf:"anon_key"`
	ServiceKey string `koanf:"service_key"`
}

//
// Email section
//

// Email configures the transactional provider (Resend) and the sender
// identity stamped on outgoing PDF summaries.
type Email struct {
	ResendKey string `koanf:"resend_key"`
	From      string `koanf:"from" validate:"omitempty,email"`
	ContactTo string `koanf:"contact_to" validate:"omitempty,email"`
}

//
// Site section
//

// Site holds the public-facing identity: the base URL embedded in auth
// redirect links and email bodies, and the default page title.
type Site struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Title   string `koanf:"title"`
}

//
// Lookups section
//

// Postcode configures the external suburb-lookup API.  When APIKey is
// empty the validator falls back to the built-in table.
type Postcode struct {
	APIKey   string `koanf:"api_key"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

// Maps exposes the server-held Google Maps key to the config route.
type Maps struct {
	APIKey string `koanf:"api_key"`
}

//
// Session section
//

// Session controls the signed auth cookie and the idle-timeout policy.
// Secret signs the cookie payload; rotation invalidates live sessions.
type Session struct {
	Secret        string        `koanf:"secret"`
	IdleTimeout   time.Duration `koanf:"idle_timeout"`
	WarningWindow time.Duration `koanf:"warning_window"`
	TouchDebounce time.Duration `koanf:"touch_debounce"`
}

//
// GeoIP section
//

// GeoIP points at the MaxMind database used by request-info enrichment.
// Optional; lookups are skipped when the path is empty.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or PROPCOST_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // PROPCOST_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Supabase Supabase `koanf:"supabase"`
	Email    Email    `koanf:"email"`
	Site     Site     `koanf:"site"`
	Postcode Postcode `koanf:"postcode"`
	Maps     Maps     `koanf:"maps"`
	Session  Session  `koanf:"session"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
