package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/gfxtrace/internal/service"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gfxtrace.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
name = "trace-lab"

[http]
addr = "0.0.0.0:8080"
cors_origins = [" http://localhost:5173 ", ""]

[stream]
addr = "0.0.0.0:8081"
auth_token = "secret"

[store]
driver = "SQLite"
path = "/var/lib/gfxtrace/captures.db"
capture_dir = " /srv/captures "

[client]
timeout = "5s"
drop_unknown = true
retry_attempts = 5
retry_initial_delay = "50ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "trace-lab" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.HTTPAddr != "0.0.0.0:8080" || cfg.StreamAddr != "0.0.0.0:8081" {
		t.Fatalf("unexpected addrs: %q %q", cfg.HTTPAddr, cfg.StreamAddr)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.Stream.AuthToken != "secret" {
		t.Fatalf("unexpected auth token: %q", cfg.Stream.AuthToken)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StorePath != "/var/lib/gfxtrace/captures.db" {
		t.Fatalf("unexpected store: %q %q", cfg.StoreDriver, cfg.StorePath)
	}
	if cfg.CaptureDir != "/srv/captures" {
		t.Fatalf("unexpected capture dir: %q", cfg.CaptureDir)
	}
	if cfg.Client.Timeout != 5*time.Second || !cfg.Client.DropUnknown {
		t.Fatalf("unexpected client config: %+v", cfg.Client)
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.Backoff.InitialDelay != 50*time.Millisecond {
		t.Fatalf("unexpected retry config: %+v", cfg.Retry)
	}

	def := Default()
	if cfg.Client.CacheSize != def.Client.CacheSize {
		t.Fatalf("undefined key changed cache size: %d", cfg.Client.CacheSize)
	}
	if cfg.Retry.Backoff.MaxDelay != def.Retry.Backoff.MaxDelay {
		t.Fatalf("undefined key changed max delay: %s", cfg.Retry.Backoff.MaxDelay)
	}
	if cfg.Client.Limits != def.Limits {
		t.Fatalf("client limits not propagated: %+v", cfg.Client.Limits)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[store]\nflavor = \"x\"\n", "unknown key"},
		{"sqlite without path", "[store]\ndriver = \"sqlite\"\n", "store.path"},
		{"unknown driver", "[store]\ndriver = \"redis\"\n", "store.driver"},
		{"bad duration", "[client]\ntimeout = \"soon\"\n", "client.timeout"},
		{"zero attempts", "[client]\nretry_attempts = 0\n", "retry_attempts"},
		{"production without tls", "[stream]\nsecurity_mode = \"production\"\n", "tls required"},
		{"no listeners", "[http]\naddr = \"\"\n[stream]\naddr = \"\"\n", "http.addr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadProductionStream(t *testing.T) {
	path := writeConfig(t, `
[stream]
security_mode = "production"
tls_enabled = true
tls_mutual = true
tls_cert_file = "/etc/gfxtrace/server.crt"
tls_key_file = "/etc/gfxtrace/server.key"
tls_ca_file = "/etc/gfxtrace/ca.crt"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Stream.Security != service.SecurityModeProduction {
		t.Fatalf("unexpected security mode: %q", cfg.Stream.Security)
	}
	if !cfg.Stream.TLS.Mutual || cfg.Stream.TLS.CAFile != "/etc/gfxtrace/ca.crt" {
		t.Fatalf("unexpected tls config: %+v", cfg.Stream.TLS)
	}
}

func TestTemplatesLoadAsDefaults(t *testing.T) {
	for _, kind := range []string{"server", "client"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), kind+".toml")
			if err := WriteTemplate(path, kind, false); err != nil {
				t.Fatalf("write template: %v", err)
			}
			if err := WriteTemplate(path, kind, false); err == nil {
				t.Fatalf("expected refusal to overwrite")
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("load template: %v", err)
			}
			def := Default()
			if cfg.Name != def.Name || cfg.StreamAddr != def.StreamAddr {
				t.Fatalf("template drifted from defaults: %+v", cfg)
			}
			if cfg.Client.Timeout != def.Client.Timeout || cfg.Retry != def.Retry {
				t.Fatalf("template client drifted: %+v %+v", cfg.Client, cfg.Retry)
			}
			if cfg.Limits != def.Limits {
				t.Fatalf("template limits drifted: %+v", cfg.Limits)
			}
		})
	}
	if _, err := Template("replayer"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
