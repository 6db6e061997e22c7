// internal/config/loader_test.go
//
// Unit-tests for the three-layer config loader.
//
// Run: go test ./internal/config -v

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeGlobalYAML drops a minimal conf/global.yaml under a temp root and
// points PROPCOST_ROOT at it.
func writeGlobalYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir conf: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("PROPCOST_ROOT", root)
	return root
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	root := writeGlobalYAML(t, `
http:
  listen_addr: ":8080"
supabase:
  url: "https://example.supabase.co"
  service_key: "svc-key"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want :8080", cfg.HTTP.ListenAddr)
	}
	if cfg.Supabase.ServiceKey != "svc-key" {
		t.Errorf("service_key = %q", cfg.Supabase.ServiceKey)
	}
	if cfg.Paths.Root != root {
		t.Errorf("root = %q, want %q", cfg.Paths.Root, root)
	}
	// Idle-policy defaults fill in when YAML is silent.
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("idle_timeout = %v, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.WarningWindow != 2*time.Minute {
		t.Errorf("warning_window = %v, want 2m", cfg.Session.WarningWindow)
	}
}

func TestLoad_EnvOverlayWins(t *testing.T) {
	writeGlobalYAML(t, `
http:
  listen_addr: ":8080"
`)
	t.Setenv("PROPCOST_HTTP__LISTEN_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Errorf("env overlay lost: listen_addr = %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoad_VaultRefResolved(t *testing.T) {
	writeGlobalYAML(t, `
http:
  listen_addr: ":8080"
email:
  resend_key: "vault:secret/propcost#resend"
`)

	SetSecretResolver(func(ref string) (string, error) {
		if ref != "secret/propcost#resend" {
			t.Errorf("resolver got ref %q", ref)
		}
		return "re_live_123", nil
	})
	t.Cleanup(func() {
		SetSecretResolver(func(ref string) (string, error) { return ref, nil })
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Email.ResendKey != "re_live_123" {
		t.Errorf("resend_key = %q, want resolved secret", cfg.Email.ResendKey)
	}
}

func TestLoad_MissingListenAddrFails(t *testing.T) {
	writeGlobalYAML(t, `
site:
  title: "Propcost"
`)

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for missing listen_addr")
	}
}
