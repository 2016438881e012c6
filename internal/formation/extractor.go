// Package formation provides sliding-window formation scoring and target zone selection.
//
// Each window of W consecutive samples is scored with a three-factor composite:
//
//	score = quality_index × entropy × risk_factor
//
// The quality index is a mode-specific estimate of flow/storage potential in [0, 1].
// Entropy (bits) measures how spread the porosity values in the window are.
// The risk factor derates the window by the share of hazard flags that fired, and is 1
// when no hazard inputs were supplied. The Katz fractal dimension of the porosity curve
// is reported alongside as a roughness feature.
//
// Use Extractor to score a well log and ZoneDetector to pick non-overlapping target
// intervals from the scored sequence.
package formation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// DefaultWindowSize is the number of samples per window when none is configured.
const DefaultWindowSize = 10

// ErrInvalidWindow is returned for a window size below 1.
var ErrInvalidWindow = errors.New("window size must be at least 1")

// Extractor scores well logs window by window for one application mode.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	profile    Profile
	windowSize int
}

// NewExtractor resolves the profile for mode once and returns an extractor for it.
func NewExtractor(mode Mode, windowSize int) (*Extractor, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}
	profile, err := Lookup(mode)
	if err != nil {
		return nil, err
	}
	return &Extractor{profile: profile, windowSize: windowSize}, nil
}

// Mode returns the application mode the extractor was built for.
func (e *Extractor) Mode() Mode {
	return e.profile.Mode
}

// WindowSize returns the number of samples per window.
func (e *Extractor) WindowSize() int {
	return e.windowSize
}

// Profile returns the resolved mode profile.
func (e *Extractor) Profile() Profile {
	return e.profile
}

// Validate checks log against the input contract without scoring it.
func (e *Extractor) Validate(log *models.WellLog) error {
	if log == nil {
		return models.ErrEmptyLog
	}
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid well log: %w", err)
	}
	if err := e.profile.ValidateSeries(log); err != nil {
		return fmt.Errorf("invalid well log: %w", err)
	}
	return nil
}

// Extract scores every window of the log in depth order. The result has
// N − W + 1 entries, or none (and no error) when the window is larger than the log.
// Input errors are reported before any window is processed.
func (e *Extractor) Extract(log *models.WellLog) ([]models.WindowResult, error) {
	if err := e.Validate(log); err != nil {
		return nil, err
	}

	n, w := log.Len(), e.windowSize
	if w > n {
		logger.Debug("Extract: window %d larger than log (%d samples), no results", w, n)
		return []models.WindowResult{}, nil
	}

	// Only rules whose series were supplied take part.
	var rules []RiskRule
	for _, r := range e.profile.Risks {
		if log.HasSeries(r.Series) {
			rules = append(rules, r)
		}
	}
	auxNames := log.AuxNames()

	results := make([]models.WindowResult, 0, n-w+1)
	flagged := 0
	for i := 0; i+w <= n; i++ {
		r := e.scoreWindow(log, i, i+w, auxNames, rules)
		if r.RiskFactor < 1 {
			flagged++
		}
		results = append(results, r)
	}

	logger.Debug("Extract: mode=%s samples=%d window=%d results=%d derated=%d rules=%d",
		e.profile.Mode, n, w, len(results), flagged, len(rules))

	return results, nil
}

func (e *Extractor) scoreWindow(log *models.WellLog, lo, hi int, auxNames []string, rules []RiskRule) models.WindowResult {
	porosity := log.Porosity[lo:hi]

	stats := WindowStats{
		Porosity:     stat.Mean(porosity, nil),
		Permeability: stat.Mean(log.Permeability[lo:hi], nil),
		Aux:          make(map[string]float64, len(auxNames)),
	}
	for _, name := range auxNames {
		stats.Aux[name] = stat.Mean(log.Aux[name][lo:hi], nil)
	}

	quality := clamp01(e.profile.Quality(stats))
	entropy := Entropy(porosity)

	var risks map[string]int
	riskFactor := 1.0
	if len(rules) > 0 {
		risks = make(map[string]int, len(rules))
		fired := 0
		for _, rule := range rules {
			flag := rule.Evaluate(stats.Aux[rule.Series])
			risks[rule.Name] = flag
			fired += flag
		}
		riskFactor = 1 - float64(fired)/float64(len(rules))
	}

	return models.WindowResult{
		Depth:          stat.Mean(log.Depth[lo:hi], nil),
		Top:            log.Depth[lo],
		Base:           log.Depth[hi-1],
		QualityIndex:   quality,
		Entropy:        entropy,
		FractalDim:     FractalDimension(porosity),
		RiskFactor:     riskFactor,
		CompositeScore: quality * entropy * riskFactor,
		Risks:          risks,
	}
}
