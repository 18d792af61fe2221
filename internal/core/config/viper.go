package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrSecretInConfig indicates API keys placed in a config file.
var ErrSecretInConfig = eris.New("API keys not allowed in config files (use EST_API_KEYS environment variable)")

// LoadConfig loads configuration using viper.
// Precedence: environment (EST_*) > config file > defaults. Commands apply
// explicitly set CLI flags on top of the result.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	v.SetDefault("catalog.profiles_path", "")
	v.SetDefault("catalog.rules_path", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("auth.allow_tenant_header", false)

	v.SetEnvPrefix("EST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrap(err, "failed to read config file")
		}
	}

	if v.InConfig("api_keys") || v.InConfig("auth.api_keys") {
		return nil, ErrSecretInConfig
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MetricsAddr:    v.GetString("server.metrics_addr"),
		},
		Catalog: CatalogConfig{
			ProfilesPath: v.GetString("catalog.profiles_path"),
			RulesPath:    v.GetString("catalog.rules_path"),
		},
		Store: StoreConfig{
			DatabaseURL: v.GetString("store.database_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Auth: AuthConfig{
			AllowTenantHeader: v.GetBool("auth.allow_tenant_header"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxConnections <= 0 {
		return eris.Errorf("max_connections must be positive, got %d", c.Server.MaxConnections)
	}
	if c.Server.RequestTimeout <= 0 {
		return eris.Errorf("request_timeout must be positive, got %v", c.Server.RequestTimeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return eris.Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text", "console":
	default:
		return eris.Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// InitLogger builds the zap logger described by cfg and installs it as the
// global logger.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "text" || cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
