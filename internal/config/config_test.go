package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if !strings.HasSuffix(cfg.Database.Path, filepath.Join(".config", "djournal", "djournal.db")) || strings.HasPrefix(cfg.Database.Path, "~") {
		t.Errorf("database path = %q, want expanded default", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MaxBodyBytes != 32<<20 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Auth.TokenTTL != 720*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Backup.MaxBackups != 14 || cfg.Timezone != "Local" || cfg.Log.Debug {
		t.Errorf("cfg = %+v", cfg)
	}
	if p := cfg.DefaultPolicy(); p.MaxAgeDays != 0 || p.MaxCount != 0 {
		t.Errorf("default policy = %+v, want unlimited", p)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `database:
  path: /tmp/journal.db
server:
  addr: "127.0.0.1:9000"
retention:
  max_age_days: 90
  max_count: 30
auth:
  token_ttl: 1h
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DJOURNAL_AUTH_SECRET", "from-env")
	t.Setenv("DJOURNAL_RETENTION_MAX_COUNT", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/journal.db" || cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Auth.Secret != "from-env" || cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if p := cfg.DefaultPolicy(); p.MaxAgeDays != 90 || p.MaxCount != 7 {
		t.Errorf("policy = %+v, want env to override max_count", p)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "database: [unclosed"},
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"negative retention", "retention:\n  max_count: -1\n"},
		{"unknown timezone", "timezone: Mars/Olympus_Mons\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"~/journal.db", filepath.Join(home, "journal.db")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
