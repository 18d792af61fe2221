package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/estimator/internal/catalog"
	"github.com/solatis/estimator/internal/core/config"
	"github.com/solatis/estimator/internal/core/metrics"
)

// Version is the estimator release.
const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	profilesPath string
	rulesPath    string
)

var rootCmd = &cobra.Command{
	Use:          "estimator",
	Short:        "Intake rules and defaults engine for construction estimates",
	Long:         `Estimator resolves location profiles, evaluates intake visibility and requirement rules, and stores intake snapshots.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "snapshot database URL (sqlite://path, sqlite::memory: or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and environment, then applies the
// persistent flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.Store.DatabaseURL = dbURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Lookup("profiles") != nil && flags.Changed("profiles") {
		cfg.Catalog.ProfilesPath = profilesPath
	}
	if flags.Lookup("rules") != nil && flags.Changed("rules") {
		cfg.Catalog.RulesPath = rulesPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addCatalogFlags registers document path overrides on cmd.
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "location profiles document (json or yaml); default embedded")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rules document (json or yaml); default embedded")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.InitLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// catalogCache returns a cache loading the configured documents.
func catalogCache(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger, m *metrics.Metrics) *catalog.Cache {
	return catalog.NewCache(func() (*catalog.Catalog, error) {
		return catalog.Load(ctx, catalog.Options{
			ProfilesPath: cfg.ProfilesPath,
			RulesPath:    cfg.RulesPath,
			Logger:       logger,
			Metrics:      m,
		})
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
