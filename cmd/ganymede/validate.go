package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/admission/tier"
	"mercator-hq/ganymede/pkg/config"
)

var validateFlags struct {
	tiersPath string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and tier definitions",
	Long: `Validate the configuration file and the tier definitions it points to.

Validation covers:
  - Configuration schema, defaults, and environment overrides
  - Tier definitions: positive capacities and refill amounts,
    whole-second refill intervals, unique tier ids
  - Model assignments: every model claimed by at most one tier

Examples:
  # Validate the default configuration
  ganymede validate

  # Validate a specific configuration file
  ganymede validate --config /etc/ganymede/config.yaml

  # Validate a tier file directly, overriding the configured path
  ganymede validate --tiers tiers.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.tiersPath, "tiers", "", "tier definitions file (overrides config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Println("✓ Configuration valid")

	tiersPath := cfg.Tiers.Path
	if validateFlags.tiersPath != "" {
		tiersPath = validateFlags.tiersPath
	}

	logger := setupLogging(cfg)
	registry, err := tier.NewRegistry(context.Background(), tier.NewFileSource(tiersPath), logger)
	if err != nil {
		return fmt.Errorf("tier definitions invalid: %w", err)
	}

	tiers := registry.Tiers()
	models := 0
	for _, t := range tiers {
		models += len(t.Models)
	}
	fmt.Printf("✓ Tier definitions valid (%d tiers, %d models)\n", len(tiers), models)

	for _, t := range tiers {
		fmt.Printf("  - %s: capacity %d, refill %d per %s, models %v\n",
			t.ID, t.Capacity, t.RefillAmount, t.RefillInterval, t.Models)
	}

	return nil
}
