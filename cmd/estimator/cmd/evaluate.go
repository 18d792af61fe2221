package cmd

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/solatis/estimator/internal/service"
	"github.com/solatis/estimator/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate visibility, requirement and default rules for an intake",
	Long: `Reads an intake JSON document and prints the normalized intake, the
resolved location profile and the rules output. Without --strict the intake
may be partial.`,
	RunE: runEvaluate,
}

var (
	intakePath   string
	strictIntake bool
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&intakePath, "intake", "", "intake JSON file (- for stdin)")
	evaluateCmd.Flags().BoolVar(&strictIntake, "strict", false, "require a complete, valid intake")
	_ = evaluateCmd.MarkFlagRequired("intake")
	addCatalogFlags(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	payload, err := readObject(cmd, intakePath)
	if err != nil {
		return err
	}

	svc := service.New(service.Config{
		Catalog: catalogCache(cmd.Context(), cfg.Catalog, logger, nil),
		Logger:  logger,
	})

	var ev *service.Evaluation
	if strictIntake {
		ev, err = svc.EvaluateIntake(cmd.Context(), payload)
	} else {
		ev, err = svc.EvaluateRules(cmd.Context(), payload)
	}
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), map[string]any{
		"intake":           ev.Intake,
		"location_profile": ev.Profile,
		"rules":            ev.Rules,
	})
}

// readObject decodes a JSON object from path, or stdin for "-".
func readObject(cmd *cobra.Command, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	var payload map[string]any
	if err := types.DecodeStrict(data, &payload); err != nil {
		return nil, eris.Wrapf(err, "%s must hold a JSON object", path)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}
