package formation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// ThresholdMode selects how the minimum acceptable composite score is derived.
type ThresholdMode string

const (
	// ThresholdMean uses the mean composite score of the sequence.
	ThresholdMean ThresholdMode = "mean"
	// ThresholdAbsolute uses ZoneOptions.Threshold as is.
	ThresholdAbsolute ThresholdMode = "absolute"
)

// ZoneOptions configures target zone selection.
type ZoneOptions struct {
	ThresholdMode ThresholdMode
	Threshold     float64 // used with ThresholdAbsolute
	MinSeparation float64 // depth units; 0 derives half the window span
	MaxZones      int     // 0 means no limit
}

// ZoneDetector selects non-overlapping target intervals from a scored sequence.
// It holds no mutable state and is safe for concurrent use.
type ZoneDetector struct {
	windowSize int
	opts       ZoneOptions
}

// NewZoneDetector returns a detector for results produced with windowSize samples per window.
func NewZoneDetector(windowSize int, opts ZoneOptions) (*ZoneDetector, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}
	if opts.ThresholdMode == "" {
		opts.ThresholdMode = ThresholdMean
	}
	if opts.ThresholdMode != ThresholdMean && opts.ThresholdMode != ThresholdAbsolute {
		return nil, fmt.Errorf("unsupported threshold mode %q", opts.ThresholdMode)
	}
	if opts.MinSeparation < 0 {
		return nil, fmt.Errorf("min separation must not be negative, got %g", opts.MinSeparation)
	}
	if opts.MaxZones < 0 {
		return nil, fmt.Errorf("max zones must not be negative, got %d", opts.MaxZones)
	}
	return &ZoneDetector{windowSize: windowSize, opts: opts}, nil
}

// Threshold returns the minimum composite score a window must exceed to qualify.
func (d *ZoneDetector) Threshold(results []models.WindowResult) float64 {
	if d.opts.ThresholdMode == ThresholdAbsolute {
		return d.opts.Threshold
	}
	if len(results) == 0 {
		return 0
	}
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.CompositeScore
	}
	return stat.Mean(scores, nil)
}

// Separation returns the distance two zone depths must exceed to both be kept.
// Unless configured, it is half the window span: windowSize/2 times the mean
// sample spacing, taken from the representative depths of the results. When the
// depths span nothing, as with a single result, the Top/Base interval is used.
func (d *ZoneDetector) Separation(results []models.WindowResult) float64 {
	if d.opts.MinSeparation > 0 {
		return d.opts.MinSeparation
	}
	half := float64(d.windowSize) / 2
	if n := len(results); n > 1 {
		if span := results[n-1].Depth - results[0].Depth; span > 0 {
			return half * span / float64(n-1)
		}
	}
	if len(results) == 0 {
		return 0
	}
	samples := len(results) + d.windowSize - 1
	if samples < 2 {
		return 0
	}
	spacing := (results[len(results)-1].Base - results[0].Top) / float64(samples-1)
	return half * spacing
}

// Detect returns the target zones in depth-ascending order. A window qualifies when
// its composite score is a local maximum among its neighbours and exceeds the
// threshold. Of two qualifying windows within the separation distance, only the one
// with the higher score is kept (ties keep the shallower one). Returns an empty
// (non-nil) slice when nothing qualifies.
func (d *ZoneDetector) Detect(results []models.WindowResult) []models.TargetZone {
	if len(results) == 0 {
		return []models.TargetZone{}
	}

	threshold := d.Threshold(results)
	var candidates []int
	for i, r := range results {
		if r.CompositeScore <= threshold {
			continue
		}
		if i > 0 && results[i-1].CompositeScore > r.CompositeScore {
			continue
		}
		if i < len(results)-1 && results[i+1].CompositeScore > r.CompositeScore {
			continue
		}
		candidates = append(candidates, i)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ra, rb := results[candidates[a]], results[candidates[b]]
		if ra.CompositeScore != rb.CompositeScore {
			return ra.CompositeScore > rb.CompositeScore
		}
		return ra.Depth < rb.Depth
	})

	separation := d.Separation(results)
	zones := make([]models.TargetZone, 0, len(candidates))
	for _, idx := range candidates {
		if d.opts.MaxZones > 0 && len(zones) >= d.opts.MaxZones {
			break
		}
		r := results[idx]
		tooClose := false
		for _, z := range zones {
			if math.Abs(z.Depth-r.Depth) <= separation {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		zones = append(zones, models.NewTargetZone(r))
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].Depth < zones[j].Depth
	})

	logger.Debug("Detect: windows=%d threshold=%.6f candidates=%d separation=%.3f zones=%d",
		len(results), threshold, len(candidates), separation, len(zones))

	return zones
}
