package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/welldata"
)

func (a *app) simulateCmd() *cobra.Command {
	var (
		points    int
		top, base float64
		seed      uint64
		output    string
	)
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Generate a synthetic well log",
		Example: `tyon simulate --mode groundwater --points 100 --output log.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			mode := formation.Mode(a.cfg.Analysis.Mode)
			log, err := welldata.Simulate(mode, points, top, base, seed)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := welldata.WriteLogCSV(out, log); err != nil {
				return err
			}
			if output != "" {
				logger.Info("Wrote %d simulated %s samples to %s (seed %d)", log.Len(), mode, output, seed)
			}
			return nil
		},
	}
	cmd.Flags().String("mode", string(formation.Groundwater), "Application mode: groundwater, hydrocarbon or geothermal")
	cmd.Flags().IntVarP(&points, "points", "n", 100, "Number of samples")
	cmd.Flags().Float64Var(&top, "top", 0, "Top depth in metres (0 with --base 0 uses the mode default)")
	cmd.Flags().Float64Var(&base, "base", 0, "Base depth in metres")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default: current time)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the log to this CSV file instead of stdout")
	return cmd
}
