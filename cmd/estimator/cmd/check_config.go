package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/estimator/internal/core/config"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration, API keys and the profiles and rules documents",
	RunE:  runCheckConfig,
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
	addCatalogFlags(checkConfigCmd)
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	apiKeys, err := config.APIKeys()
	if err != nil {
		return err
	}

	cat, err := catalogCache(cmd.Context(), cfg.Catalog, logger, nil).Get()
	if err != nil {
		return err
	}

	profileIDs := make([]string, 0, len(cat.Profiles))
	for _, p := range cat.Profiles {
		profileIDs = append(profileIDs, p.ProfileID)
	}
	logger.Info("configuration ok",
		zap.String("rules_version", cat.RulesVersion),
		zap.Strings("profiles", profileIDs),
	)

	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"rules_version":       cat.RulesVersion,
		"profiles":            profileIDs,
		"api_keys":            len(apiKeys),
		"snapshots_enabled":   cfg.Store.DatabaseURL != "",
		"allow_tenant_header": cfg.Auth.AllowTenantHeader,
	})
}
