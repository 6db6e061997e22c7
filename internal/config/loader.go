// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `PROPCOST_`, where `__` maps to “.”
     (e.g., `PROPCOST_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
`vault:`-prefixed secrets are resolved through the injected resolver,
defaults are applied, the result is validated, enriched with the runtime
root path, and cached in an `atomic.Pointer` for lock-free reads.
`Reload()` simply calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Secret resolution is pluggable via SetSecretResolver so tests never
    need a live Vault.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into a plain value.  The
// default resolver passes values through untouched; main wires the Vault
// client in before Load.
type SecretResolver func(ref string) (string, error)

var resolveSecret atomic.Pointer[SecretResolver]

func init() {
	passthrough := SecretResolver(func(ref string) (string, error) { return ref, nil })
	resolveSecret.Store(&passthrough)
}

// SetSecretResolver installs the resolver used for `vault:`-prefixed
// values on the next Load.
func SetSecretResolver(r SecretResolver) {
	if r != nil {
		resolveSecret.Store(&r)
	}
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves PROPCOST_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv("PROPCOST_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: PROPCOST_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("PROPCOST_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(&cfg); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg)

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"supabase", cfg.Supabase.URL != "",
		"resend", cfg.Email.ResendKey != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*────────────────────────── secrets + defaults ────────────────────────────*/

const vaultPrefix = "vault:"

// resolveSecrets rewrites every `vault:`-prefixed credential in place.
// Only fields that may carry secrets are inspected; structural values
// (URLs, addresses) never reference Vault.
func resolveSecrets(cfg *Config) error {
	targets := []*string{
		&cfg.Supabase.AnonKey,
		&cfg.Supabase.ServiceKey,
		&cfg.Email.ResendKey,
		&cfg.Postcode.APIKey,
		&cfg.Maps.APIKey,
		&cfg.Session.Secret,
	}
	r := *resolveSecret.Load()
	for _, t := range targets {
		if !strings.HasPrefix(*t, vaultPrefix) {
			continue
		}
		plain, err := r(strings.TrimPrefix(*t, vaultPrefix))
		if err != nil {
			return err
		}
		*t = plain
	}
	return nil
}

// applyDefaults fills idle-policy durations so the session layer never has
// to special-case zero values.
func applyDefaults(cfg *Config) {
	if cfg.Session.IdleTimeout <= 0 {
		cfg.Session.IdleTimeout = 30 * time.Minute
	}
	if cfg.Session.WarningWindow <= 0 {
		cfg.Session.WarningWindow = 2 * time.Minute
	}
	if cfg.Session.TouchDebounce <= 0 {
		cfg.Session.TouchDebounce = 30 * time.Second
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
