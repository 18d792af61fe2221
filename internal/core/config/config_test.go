package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "estimator.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAPIKeys(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		t.Setenv("EST_API_KEYS", "key-a=tenant-a, key-b=tenant-b")

		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys() error = %v, want nil", err)
		}
		if len(keys) != 2 || keys["key-a"] != "tenant-a" || keys["key-b"] != "tenant-b" {
			t.Errorf("APIKeys() = %v, want key-a and key-b", keys)
		}
	})

	t.Run("numbered", func(t *testing.T) {
		t.Setenv("EST_API_KEY_1", "key-a=tenant-a")
		t.Setenv("EST_API_KEY_2", "key-b=tenant-b")
		t.Setenv("EST_API_KEY_4", "key-d=tenant-d")

		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys() error = %v, want nil", err)
		}
		if len(keys) != 2 {
			t.Errorf("APIKeys() = %v, want 2 keys (scan stops at first gap)", keys)
		}
	})

	t.Run("none", func(t *testing.T) {
		keys, err := APIKeys()
		if err != nil {
			t.Fatalf("APIKeys() error = %v, want nil", err)
		}
		if len(keys) != 0 {
			t.Errorf("APIKeys() = %v, want empty", keys)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Setenv("EST_API_KEYS", "no-separator")
		if _, err := APIKeys(); err == nil {
			t.Error("APIKeys() error = nil, want error for missing =")
		}
	})

	t.Run("empty tenant", func(t *testing.T) {
		t.Setenv("EST_API_KEY_1", "key-a=")
		if _, err := APIKeys(); err == nil {
			t.Error("APIKeys() error = nil, want error for empty tenant")
		}
	})

	t.Run("duplicate between list and numbered", func(t *testing.T) {
		t.Setenv("EST_API_KEYS", "key-a=tenant-a")
		t.Setenv("EST_API_KEY_1", "key-a=tenant-b")
		if _, err := APIKeys(); err == nil {
			t.Error("APIKeys() error = nil, want error for duplicate key")
		}
	})

	t.Run("duplicate within list", func(t *testing.T) {
		t.Setenv("EST_API_KEYS", "key-a=tenant-a,key-a=tenant-b")
		if _, err := APIKeys(); err == nil {
			t.Error("APIKeys() error = nil, want error for duplicate key")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("Host = %s, want 0.0.0.0", cfg.Server.Host)
		}
		if cfg.Server.Port != 50051 {
			t.Errorf("Port = %d, want 50051", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("RequestTimeout = %v, want 30s", cfg.Server.RequestTimeout)
		}
		if cfg.Catalog.ProfilesPath != "" || cfg.Catalog.RulesPath != "" {
			t.Errorf("Catalog = %+v, want embedded defaults", cfg.Catalog)
		}
		if cfg.Store.DatabaseURL != "" {
			t.Errorf("DatabaseURL = %q, want empty", cfg.Store.DatabaseURL)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v, want info/json", cfg.Log)
		}
		if cfg.Auth.AllowTenantHeader {
			t.Error("AllowTenantHeader = true, want false")
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("EST_SERVER_PORT", "9999")
		t.Setenv("EST_CATALOG_RULES_PATH", "/etc/estimator/rules.yaml")
		t.Setenv("EST_AUTH_ALLOW_TENANT_HEADER", "true")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("Port = %d, want 9999", cfg.Server.Port)
		}
		if cfg.Catalog.RulesPath != "/etc/estimator/rules.yaml" {
			t.Errorf("RulesPath = %q", cfg.Catalog.RulesPath)
		}
		if !cfg.Auth.AllowTenantHeader {
			t.Error("AllowTenantHeader = false, want true")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 7000\nstore:\n  database_url: sqlite://est.db\nlog:\n  format: text\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if cfg.Server.Port != 7000 {
			t.Errorf("Port = %d, want 7000", cfg.Server.Port)
		}
		if cfg.Store.DatabaseURL != "sqlite://est.db" {
			t.Errorf("DatabaseURL = %q, want sqlite://est.db", cfg.Store.DatabaseURL)
		}
		if cfg.Log.Format != "text" {
			t.Errorf("Format = %q, want text", cfg.Log.Format)
		}
	})

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("EST_SERVER_PORT", "8080")
		path := writeConfig(t, "server:\n  port: 9090\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v, want nil", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("Port = %d, want 8080", cfg.Server.Port)
		}
	})

	t.Run("api keys in file rejected", func(t *testing.T) {
		path := writeConfig(t, "auth:\n  api_keys: \"k=t\"\n")

		_, err := LoadConfig(path)
		if !eris.Is(err, ErrSecretInConfig) {
			t.Errorf("LoadConfig() error = %v, want ErrSecretInConfig", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		for env, val := range map[string]string{
			"EST_SERVER_PORT":            "70000",
			"EST_SERVER_MAX_CONNECTIONS": "-1",
			"EST_LOG_LEVEL":              "chatty",
			"EST_LOG_FORMAT":             "xml",
		} {
			t.Run(env, func(t *testing.T) {
				t.Setenv(env, val)
				if _, err := LoadConfig(""); err == nil {
					t.Errorf("LoadConfig() error = nil, want error for %s=%s", env, val)
				}
			})
		}
	})
}

func TestInitLogger(t *testing.T) {
	logger, err := InitLogger(LogConfig{Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("InitLogger() error = %v, want nil", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}

	if _, err := InitLogger(LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("InitLogger() error = nil, want error for unknown level")
	}
}
