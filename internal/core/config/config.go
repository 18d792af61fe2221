// Package config provides configuration management for the estimator.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Store   StoreConfig
	Log     LogConfig
	Auth    AuthConfig
}

// ServerConfig holds the gRPC listener settings.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	// MetricsAddr serves /metrics over HTTP; empty disables it.
	MetricsAddr string
}

// CatalogConfig locates the profiles and rules documents. Empty paths use
// the documents embedded in the binary.
type CatalogConfig struct {
	ProfilesPath string
	RulesPath    string
}

// StoreConfig holds the snapshot database settings. An empty URL disables
// snapshot persistence.
type StoreConfig struct {
	DatabaseURL string
}

// LogConfig selects the zap logger level and encoding ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig controls request authentication.
type AuthConfig struct {
	// AllowTenantHeader accepts x-tenant-id metadata when no API key is sent.
	AllowTenantHeader bool
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
			MetricsAddr:    ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// APIKeys reads API key to tenant mappings from the environment.
// EST_API_KEYS holds a comma separated list of key=tenant pairs; each of
// EST_API_KEY_1, EST_API_KEY_2, ... holds one pair, scanning stops at the
// first unset index. A key may map to only one tenant.
func APIKeys() (map[string]string, error) {
	keys := make(map[string]string)

	if val := os.Getenv("EST_API_KEYS"); val != "" {
		parsed, err := ParseAPIKeys(val)
		if err != nil {
			return nil, eris.Wrap(err, "EST_API_KEYS")
		}
		for k, tenant := range parsed {
			keys[k] = tenant
		}
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("EST_API_KEY_%d", i)
		val := os.Getenv(name)
		if val == "" {
			break
		}
		key, tenant, err := parseAPIKeyPair(val)
		if err != nil {
			return nil, eris.Wrap(err, name)
		}
		if _, exists := keys[key]; exists {
			return nil, eris.Errorf("%s: duplicate API key (check EST_API_KEYS and EST_API_KEY_* for conflicts)", name)
		}
		keys[key] = tenant
	}

	return keys, nil
}

// ParseAPIKeys parses "key=tenant,key2=tenant2".
func ParseAPIKeys(s string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, tenant, err := parseAPIKeyPair(pair)
		if err != nil {
			return nil, err
		}
		if _, exists := keys[key]; exists {
			return nil, eris.New("duplicate API key")
		}
		keys[key] = tenant
	}
	return keys, nil
}

func parseAPIKeyPair(pair string) (key, tenant string, err error) {
	key, tenant, ok := strings.Cut(strings.TrimSpace(pair), "=")
	if !ok {
		return "", "", eris.New("format must be <api_key>=<tenant_id>")
	}
	key, tenant = strings.TrimSpace(key), strings.TrimSpace(tenant)
	if key == "" || tenant == "" {
		return "", "", eris.New("API key and tenant id must be non-empty")
	}
	return key, tenant, nil
}
