package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
	"github.com/tyon-geoscience/tyon/internal/session"
	"github.com/tyon-geoscience/tyon/internal/storage"
	"github.com/tyon-geoscience/tyon/internal/telegram"
	"github.com/tyon-geoscience/tyon/internal/welldata"
)

func (a *app) analyzeCmd() *cobra.Command {
	var (
		input        string
		trainingData string
		output       string
		strict       bool
	)
	cmd := &cobra.Command{
		Use:     "analyze",
		Short:   "Score a well log and select target zones",
		Example: `tyon analyze --input well.csv --mode hydrocarbon --window 15 --output results.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.analyze(ctx, cmd.OutOrStdout(), input, trainingData, output, strict)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Well log CSV file")
	cmd.Flags().String("mode", string(formation.Groundwater), "Application mode: groundwater, hydrocarbon or geothermal")
	cmd.Flags().IntP("window", "w", formation.DefaultWindowSize, "Samples per analysis window")
	cmd.Flags().StringVar(&trainingData, "training-data", "", "Drilling history CSV used to predict drilling rate per zone")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write per-window results to this CSV file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject series the mode does not use instead of ignoring them")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) analyze(ctx context.Context, out io.Writer, input, trainingData, output string, strict bool) error {
	cfg := a.cfg

	wellLog, err := welldata.LoadFile(input)
	if err != nil {
		return err
	}
	mode := formation.Mode(cfg.Analysis.Mode)
	if !strict {
		if wellLog, err = welldata.FilterSchema(wellLog, mode); err != nil {
			return err
		}
	}
	logger.Info("Loaded %s: %d samples, series %v", wellLog.Name, wellLog.Len(), wellLog.AuxNames())

	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	sess, err := session.New(session.Options{
		Mode:       mode,
		WindowSize: cfg.Analysis.WindowSize,
		Zones:      cfg.ZoneOptions(),
		Ridge:      cfg.Drilling.Ridge,
	}, store)
	if err != nil {
		return err
	}

	analysis, err := sess.Analyze(ctx, wellLog)
	if err != nil {
		return err
	}

	var rates []float64
	if trainingData != "" {
		if rates, err = a.predictRates(sess, wellLog, analysis.Zones, trainingData); err != nil {
			return err
		}
	}

	printZones(out, analysis, rates)

	if output != "" {
		if err := writeResults(output, analysis.Results); err != nil {
			return err
		}
		logger.Info("Wrote %d window results to %s", len(analysis.Results), output)
	}

	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Warn("Failed to initialize Telegram client: %v", err)
		} else if err := client.Send(analysis); err != nil {
			logger.Warn("Failed to send Telegram notification: %v", err)
		}
	}
	return nil
}

// predictRates trains the drilling model and predicts a rate for every zone.
func (a *app) predictRates(sess *session.Session, wellLog *models.WellLog, zones []models.TargetZone, path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training data: %w", err)
	}
	defer f.Close()

	X, y, err := welldata.LoadTrainingCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	if _, err := sess.TrainDrillingModel(X, y); err != nil {
		return nil, err
	}

	rates := make([]float64, len(zones))
	for i, z := range zones {
		clay := zoneClay(wellLog, z, a.cfg.Drilling.DefaultClayContent)
		if rates[i], err = sess.PredictDrillingRate(z, clay); err != nil {
			return nil, fmt.Errorf("failed to predict drilling rate at %.1f m: %w", z.Depth, err)
		}
	}
	return rates, nil
}

// zoneClay returns the mean clay content of the zone's window, or fallback when
// the log has no clay curve.
func zoneClay(wellLog *models.WellLog, z models.TargetZone, fallback float64) float64 {
	clay, ok := wellLog.Aux[models.SeriesClayContent]
	if !ok {
		return fallback
	}
	var values []float64
	for i, d := range wellLog.Depth {
		if d >= z.Top && d <= z.Base {
			values = append(values, clay[i])
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return stat.Mean(values, nil)
}

func printZones(out io.Writer, a *models.Analysis, rates []float64) {
	fmt.Fprintf(out, "%s: %s mode, window %d, %d samples, %d windows\n",
		a.Well, a.Mode, a.WindowSize, a.Samples, len(a.Results))
	if len(a.Zones) == 0 {
		fmt.Fprintln(out, "No target zones found")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "#\tTOP\tBASE\tSCORE\tQUALITY\tENTROPY\tFRACTAL\tRISK"
	if rates != nil {
		header += "\tROP (m/h)"
	}
	fmt.Fprintln(tw, header)
	for i, z := range a.Zones {
		fmt.Fprintf(tw, "%d\t%.1f\t%.1f\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f",
			i+1, z.ZoneTop, z.ZoneBase, z.CompositeScore, z.QualityIndex, z.Entropy, z.FractalDim, z.RiskFactor)
		if rates != nil {
			fmt.Fprintf(tw, "\t%.1f", rates[i])
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

func writeResults(path string, results []models.WindowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := welldata.WriteResultsCSV(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
