// cmd/web/main.go
//
// Propcost – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (server-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Connect Vault (optional) and install the config secret resolver.
//
//  4. Load and validate configuration.
//
//  5. Construct the provider clients: Supabase, Resend mailer, postcode
//     validator, GeoIP reader.
//
//  6. Register form definitions, initialise components, and mount every
//     component router plus Prometheus /metrics.
//
//  7. Wrap the router in session-guard, request-info, security-header, and
//     ForceHTTPS middleware, then serve with graceful shutdown.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/propcost/internal/component"
	"github.com/yanizio/propcost/internal/config"
	"github.com/yanizio/propcost/internal/form"
	"github.com/yanizio/propcost/internal/idle"
	"github.com/yanizio/propcost/internal/logger"
	"github.com/yanizio/propcost/internal/mailer"
	"github.com/yanizio/propcost/internal/middleware"
	"github.com/yanizio/propcost/internal/module"
	"github.com/yanizio/propcost/internal/postcode"
	"github.com/yanizio/propcost/internal/requestinfo"
	"github.com/yanizio/propcost/internal/server"
	"github.com/yanizio/propcost/internal/session"
	"github.com/yanizio/propcost/internal/store"
	"github.com/yanizio/propcost/internal/supabase"
	"github.com/yanizio/propcost/internal/survey"
	"github.com/yanizio/propcost/internal/vault"
	"github.com/yanizio/propcost/internal/view"

	_ "github.com/yanizio/propcost/components/auth"
	_ "github.com/yanizio/propcost/components/calculator"
	_ "github.com/yanizio/propcost/components/pages"
	_ "github.com/yanizio/propcost/modules/debug" // diagnostics
)

const serverEnvPath = "/usr/local/etc/propcost/global.env"

// loadEnv prefers the server-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Vault (optional) + configuration ────────────────────────────
	//
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			logOut.Fatalw("vault connect failed", "err", err)
		}
		config.SetSecretResolver(vc.Resolve)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalw("config load failed", "err", err)
	}
	logOut.Infow("configuration loaded", "listen", cfg.HTTP.ListenAddr,
		"supabase", cfg.Supabase.URL != "", "resend", cfg.Email.ResendKey != "",
		"maps", cfg.Maps.APIKey != "", "postcode_api", cfg.Postcode.APIKey != "")

	//
	// ── 2.  Provider clients ────────────────────────────────────────────
	//
	supa, err := supabase.New(supabase.Config{
		URL:        cfg.Supabase.URL,
		AnonKey:    cfg.Supabase.AnonKey,
		ServiceKey: cfg.Supabase.ServiceKey,
	})
	if err != nil {
		logOut.Fatalw("supabase client failed", "err", err)
	}

	properties := store.NewPropertyStore(supa)
	leads := store.NewLeadStore(supa)
	post := mailer.New(cfg.Email.ResendKey, cfg.Email.From, cfg.Site.BaseURL, logOut)
	suburbs := postcode.New(cfg.Postcode.APIKey, cfg.Postcode.Endpoint)

	if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
		// Geo enrichment is analytics-only; boot continues without it.
		logOut.Warnw("geoip init failed", "path", cfg.GeoIP.DBPath, "err", err)
	}

	//
	// ── 3.  Session guard ───────────────────────────────────────────────
	//
	codec := session.NewCodec(cfg.Session.Secret)
	guard := session.NewGuard(codec, idle.Policy{
		Timeout:  cfg.Session.IdleTimeout,
		Warning:  cfg.Session.WarningWindow,
		Debounce: cfg.Session.TouchDebounce,
	}, supa, logOut)
	form.SetSecret([]byte(cfg.Session.Secret))

	//
	// ── 4.  Components ──────────────────────────────────────────────────
	//
	if err := form.RegisterForms(cfg.Paths.Root); err != nil {
		logOut.Fatalw("form registration failed", "err", err)
	}

	deps := component.Deps{
		Config:     cfg,
		Log:        logOut,
		Supabase:   supa,
		Properties: properties,
		Leads:      leads,
		Mailer:     post,
		Postcode:   suburbs,
		Sessions:   codec,
		Guard:      guard,
		Merger:     survey.NewMerger(leads, properties, logOut),
		Views: view.New(cfg.Paths.Root, "default",
			view.SiteMeta{Title: cfg.Site.Title, BaseURL: cfg.Site.BaseURL},
			os.Getenv("PROPCOST_DEV") != ""),
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/",
		http.FileServer(http.Dir(filepath.Join(cfg.Paths.Root, "static")))))
	for _, c := range component.All() {
		if err := c.Init(deps); err != nil {
			logOut.Fatalw("component init failed", "component", c.Name(), "err", err)
		}
		if err := component.Mount(r, c); err != nil {
			logOut.Fatalw("component mount failed", "component", c.Name(), "err", err)
		}
		logOut.Infow("component mounted", "component", c.Name())
	}
	for path, h := range module.All() {
		r.Get(path, h)
	}

	//
	// ── 5.  Middleware chain and serve ──────────────────────────────────
	//
	var handler = guard.Middleware(r)
	handler = requestinfo.Enrich(handler)
	handler = middleware.Security(handler)
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := server.Run(ctx, srv, 15*time.Second); err != nil {
		logOut.Fatalw("http server", "err", err)
	}
	logOut.Info("shutdown complete")
}
