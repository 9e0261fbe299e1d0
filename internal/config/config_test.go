package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var trackedKeys = []string{
	"CONFIG_FILE", "APP_ENV", "DB_DRIVER", "SQLITE_PATH", "SESSION_BACKEND",
	"SECRET_KEY", "SESSION_TTL", "SERVER_PORT", "RUN_MIGRATIONS", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range trackedKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Session.Backend != SessionBackendBolt {
		t.Fatalf("expected bolt sessions, got %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Fatalf("unexpected session ttl %s", cfg.Session.TTL)
	}
	if cfg.Session.Secret != devSecret {
		t.Fatalf("expected development secret outside production")
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  port: "9090"
database:
  path: ${DATA_DIR}/tareas.db
session:
  secret: file-secret-that-is-long-enough-for-hs256
logger:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATA_DIR", "/srv/pendientes")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SESSION_TTL", "3600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/srv/pendientes/tareas.db" {
		t.Fatalf("expected expanded path, got %q", cfg.Database.Path)
	}
	if cfg.Logger.Level != "warn" {
		t.Fatalf("env should win over file, got %q", cfg.Logger.Level)
	}
	if cfg.Session.TTL != time.Hour {
		t.Fatalf("expected plain seconds to parse, got %s", cfg.Session.TTL)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("unset keys should keep defaults, got %s", cfg.HTTP.ReadTimeout)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"session backend", map[string]string{"SESSION_BACKEND": "memcached"}, "SESSION_BACKEND"},
		{"production secret", map[string]string{"APP_ENV": "production"}, "required"},
		{"short secret", map[string]string{"SECRET_KEY": "short"}, "at least"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for key, val := range tc.env {
				t.Setenv(key, val)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestPostgresURL(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "n", SSLMode: "disable"}
	if got := db.PostgresURL(); got != "postgres://u:p@h:5432/n?sslmode=disable" {
		t.Fatalf("unexpected url %q", got)
	}
	db.URL = "postgres://explicit"
	if got := db.PostgresURL(); got != "postgres://explicit" {
		t.Fatalf("explicit url should win, got %q", got)
	}
}
