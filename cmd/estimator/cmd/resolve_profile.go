package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/solatis/estimator/internal/service"
)

var resolveProfileCmd = &cobra.Command{
	Use:   "resolve-profile",
	Short: "Print the location profile selected for a place",
	Long: `Resolves a selected place to its location profile. The place is read
from --place, or built from --country and --city. With neither, the global
default profile is printed.`,
	RunE: runResolveProfile,
}

var (
	placePath    string
	placeCountry string
	placeRegion  string
	placeCity    string
)

func init() {
	rootCmd.AddCommand(resolveProfileCmd)
	resolveProfileCmd.Flags().StringVar(&placePath, "place", "", "selected_place JSON file (- for stdin)")
	resolveProfileCmd.Flags().StringVar(&placeCountry, "country", "", "ISO 3166-1 alpha-2 country code")
	resolveProfileCmd.Flags().StringVar(&placeRegion, "region", "", "first-level administrative region")
	resolveProfileCmd.Flags().StringVar(&placeCity, "city", "", "city name")
	resolveProfileCmd.MarkFlagsMutuallyExclusive("place", "country")
	resolveProfileCmd.MarkFlagsMutuallyExclusive("place", "city")
	addCatalogFlags(resolveProfileCmd)
}

func runResolveProfile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var place any
	switch {
	case placePath != "":
		place, err = readObject(cmd, placePath)
		if err != nil {
			return err
		}
	case placeCountry != "" || placeCity != "":
		p := map[string]any{
			"location_id":  uuid.NewString(),
			"country_iso2": placeCountry,
			"city":         placeCity,
			"source":       "manual",
		}
		if placeRegion != "" {
			p["admin_level_1"] = placeRegion
		}
		place = p
	}

	svc := service.New(service.Config{
		Catalog: catalogCache(cmd.Context(), cfg.Catalog, logger, nil),
		Logger:  logger,
	})
	profile, err := svc.ResolveProfile(cmd.Context(), place)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"location_profile_id": profile.ProfileID,
		"location_profile":    profile,
	})
}
