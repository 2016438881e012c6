package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tyon-geoscience/tyon/internal/config"
	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/metrics"
)

// app carries the loaded configuration to every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "tyon",
		Short: "Rank well-log depth intervals by formation quality",
		Long: `Score every depth window of a well log for groundwater, hydrocarbon or
geothermal potential, select the best non-overlapping target zones and
optionally predict drilling rate through them.
`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "configs/config.yaml", "Path to configuration file")

	cmd.AddCommand(a.analyzeCmd())
	cmd.AddCommand(a.simulateCmd())
	cmd.AddCommand(a.historyCmd())
	return cmd
}

// setup loads configuration, applies command-line overrides and starts logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("mode"); f != nil && f.Changed {
		cfg.Analysis.Mode = f.Value.String()
	}
	if f := cmd.Flags().Lookup("window"); f != nil && f.Changed {
		window, err := cmd.Flags().GetInt("window")
		if err != nil {
			return err
		}
		cfg.Analysis.WindowSize = window
	}
	mode, err := formation.ParseMode(cfg.Analysis.Mode)
	if err != nil {
		return fmt.Errorf("invalid mode: %w", err)
	}
	cfg.Analysis.Mode = string(mode)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("Configuration loaded from %s", a.configPath)
	a.cfg = cfg
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		logger.Warn("Failed to write metrics to %s: %v", a.cfg.Metrics.Textfile, err)
		return
	}
	logger.Debug("Metrics written to %s", a.cfg.Metrics.Textfile)
}
