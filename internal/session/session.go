// Package session holds the caller-owned state of an interactive analysis: the last
// analysis result and the drilling-rate model. The pipeline components it drives stay
// stateless; the session replaces its cached analysis wholesale on every new run.
//
// A Session is not safe for concurrent use. Callers serialize Analyze, Train and Predict.
package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/tyon-geoscience/tyon/internal/drilling"
	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/metrics"
	"github.com/tyon-geoscience/tyon/internal/models"
	"github.com/tyon-geoscience/tyon/internal/storage"
)

// Options configures the pipeline a session drives.
type Options struct {
	Mode       formation.Mode
	WindowSize int
	Zones      formation.ZoneOptions
	Ridge      float64 // 0 fits the drilling model with ordinary least squares
}

// Session is one analyst's working context.
type Session struct {
	id        string
	opts      Options
	extractor *formation.Extractor
	detector  *formation.ZoneDetector
	model     *drilling.Predictor
	store     *storage.Storage
	last      *models.Analysis
	now       func() time.Time
}

// New builds the extractor, zone detector and an unfitted drilling model.
// store may be nil, in which case runs are only cached in memory.
func New(opts Options, store *storage.Storage) (*Session, error) {
	if opts.WindowSize == 0 {
		opts.WindowSize = formation.DefaultWindowSize
	}

	extractor, err := formation.NewExtractor(opts.Mode, opts.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	detector, err := formation.NewZoneDetector(opts.WindowSize, opts.Zones)
	if err != nil {
		return nil, fmt.Errorf("failed to create zone detector: %w", err)
	}
	model, err := drilling.NewRidge(opts.Ridge)
	if err != nil {
		return nil, fmt.Errorf("failed to create drilling model: %w", err)
	}

	return &Session{
		id:        uuid.New().String(),
		opts:      opts,
		extractor: extractor,
		detector:  detector,
		model:     model,
		store:     store,
		now:       time.Now,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the application mode of the session.
func (s *Session) Mode() formation.Mode {
	return s.extractor.Mode()
}

// Last returns the most recent analysis, or nil before the first run.
func (s *Session) Last() *models.Analysis {
	return s.last
}

// Analyze scores the log, selects target zones, and caches the result as the
// session's last analysis. Re-analyzing identical input returns the cached analysis.
func (s *Session) Analyze(ctx context.Context, log *models.WellLog) (*models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := string(s.extractor.Mode())
	if err := s.extractor.Validate(log); err != nil {
		metrics.RecordAnalysisError(mode)
		return nil, err
	}

	fp := Fingerprint(s.extractor.Mode(), s.extractor.WindowSize(), log)
	if s.last != nil && s.last.Fingerprint == fp {
		logger.Debug("session %s: input unchanged (fingerprint %016x), reusing analysis %s", s.id, fp, s.last.ID)
		return s.last, nil
	}

	start := s.now()
	results, err := s.extractor.Extract(log)
	if err != nil {
		metrics.RecordAnalysisError(mode)
		return nil, fmt.Errorf("failed to extract features: %w", err)
	}
	zones := s.detector.Detect(results)

	analysis := &models.Analysis{
		ID:          uuid.New().String(),
		Well:        log.Name,
		Mode:        mode,
		WindowSize:  s.extractor.WindowSize(),
		Samples:     log.Len(),
		Fingerprint: fp,
		Results:     results,
		Zones:       zones,
		CreatedAt:   start,
	}
	elapsed := time.Since(start)
	metrics.RecordAnalysis(mode, len(results), len(zones), elapsed.Seconds())

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
			logger.Warn("session %s: failed to persist analysis %s: %v", s.id, analysis.ID, err)
		} else if err := s.store.RotateRuns(ctx); err != nil {
			logger.Warn("session %s: failed to rotate runs: %v", s.id, err)
		}
	}

	s.last = analysis
	logger.Info("Analysis %s complete: %d windows, %d target zones in %v", analysis.ID, len(results), len(zones), elapsed)
	return analysis, nil
}

// TrainDrillingModel fits the session's drilling model and returns R².
func (s *Session) TrainDrillingModel(X [][]float64, y []float64) (float64, error) {
	r2, err := s.model.Fit(X, y)
	metrics.RecordFit(r2, err)
	if err != nil {
		return 0, fmt.Errorf("failed to train drilling model: %w", err)
	}
	logger.Info("Drilling model trained on %d samples (R²=%.3f)", len(y), r2)
	return r2, nil
}

// ModelTrained reports whether the drilling model has been fitted.
func (s *Session) ModelTrained() bool {
	return s.model.IsFitted()
}

// PredictDrillingRate predicts the drilling rate through a target zone.
func (s *Session) PredictDrillingRate(zone models.TargetZone, clayContent float64) (float64, error) {
	return s.model.Predict(drilling.ZoneFeatures(zone, clayContent))
}

// Fingerprint hashes the mode, window size and every input series of the log.
func Fingerprint(mode formation.Mode, windowSize int, log *models.WellLog) uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	buf = append(buf, mode...)
	buf = append(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(windowSize))
	_, _ = d.Write(buf)

	writeSeries := func(name string, values []float64) {
		buf = append(buf[:0], name...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(values)))
		_, _ = d.Write(buf)
		for _, v := range values {
			buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(v))
			_, _ = d.Write(buf)
		}
	}

	writeSeries("depth", log.Depth)
	writeSeries("porosity", log.Porosity)
	writeSeries("permeability", log.Permeability)
	for _, name := range log.AuxNames() {
		writeSeries(name, log.Aux[name])
	}
	return d.Sum64()
}
