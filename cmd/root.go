package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jacobfeldgoise/country-comparison/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "country-comparison",
	Short: "Compare countries on World Bank development indicators",
	Long:  "Fetches World Bank indicators for every country, joins them with boundary data, and serves side-by-side comparisons and choropleth scales.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return cfg.Validate(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
