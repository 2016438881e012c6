package models

import (
	"errors"
	"math"
	"sort"
)

// Record keys shared by WindowResult.Record and the CSV exporter.
const (
	KeyDepth          = "depth"
	KeyTop            = "top"
	KeyBase           = "base"
	KeyQualityIndex   = "quality_index"
	KeyEntropy        = "entropy"
	KeyFractalDim     = "fractal_dim"
	KeyRiskFactor     = "risk_factor"
	KeyCompositeScore = "composite_score"
)

// compositeTolerance bounds float drift when re-deriving the composite score.
const compositeTolerance = 1e-9

// WindowResult is the scored outcome of one sliding window.
//
// CompositeScore is always QualityIndex × Entropy × RiskFactor. Risks holds a flag
// (0 or 1) only for the hazards whose input series were supplied.
type WindowResult struct {
	Depth          float64        `json:"depth"` // mean depth of the window
	Top            float64        `json:"top"`   // first depth in the window
	Base           float64        `json:"base"`  // last depth in the window
	QualityIndex   float64        `json:"quality_index"`
	Entropy        float64        `json:"entropy"`     // bits
	FractalDim     float64        `json:"fractal_dim"` // Katz dimension, >= 1
	RiskFactor     float64        `json:"risk_factor"`
	CompositeScore float64        `json:"composite_score"`
	Risks          map[string]int `json:"risks,omitempty"`
}

// Span returns the depth extent covered by the window.
func (r WindowResult) Span() float64 {
	return r.Base - r.Top
}

// RiskNames returns the evaluated risk names in sorted order.
func (r WindowResult) RiskNames() []string {
	names := make([]string, 0, len(r.Risks))
	for name := range r.Risks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record flattens the result into a key/value map. The key set varies between
// results depending on which risk flags were computed.
func (r WindowResult) Record() map[string]float64 {
	rec := map[string]float64{
		KeyDepth:          r.Depth,
		KeyTop:            r.Top,
		KeyBase:           r.Base,
		KeyQualityIndex:   r.QualityIndex,
		KeyEntropy:        r.Entropy,
		KeyFractalDim:     r.FractalDim,
		KeyRiskFactor:     r.RiskFactor,
		KeyCompositeScore: r.CompositeScore,
	}
	for name, flag := range r.Risks {
		rec[name] = float64(flag)
	}
	return rec
}

// Validate checks the bounds of every factor and that the composite score is
// recomputable from its three factors.
func (r WindowResult) Validate() error {
	if r.QualityIndex < 0.0 || r.QualityIndex > 1.0 {
		return errors.New("quality index must be between 0.0 and 1.0")
	}
	if r.Entropy < 0 {
		return errors.New("entropy must not be negative")
	}
	if r.RiskFactor < 0.0 || r.RiskFactor > 1.0 {
		return errors.New("risk factor must be between 0.0 and 1.0")
	}
	for _, flag := range r.Risks {
		if flag != 0 && flag != 1 {
			return errors.New("risk flags must be 0 or 1")
		}
	}
	expected := r.QualityIndex * r.Entropy * r.RiskFactor
	if math.Abs(r.CompositeScore-expected) > compositeTolerance {
		return errors.New("composite score must equal quality_index × entropy × risk_factor")
	}
	if r.Top > r.Base {
		return errors.New("window top must be <= base")
	}
	return nil
}

// TargetZone is a window judged favorable, with interval bounds derived from
// its representative depth ± half the window span.
type TargetZone struct {
	WindowResult
	ZoneTop  float64 `json:"zone_top"`
	ZoneBase float64 `json:"zone_base"`
}

// NewTargetZone derives the zone interval from a window result.
func NewTargetZone(r WindowResult) TargetZone {
	half := r.Span() / 2
	return TargetZone{
		WindowResult: r,
		ZoneTop:      r.Depth - half,
		ZoneBase:     r.Depth + half,
	}
}

// Thickness returns the height of the zone interval.
func (z TargetZone) Thickness() float64 {
	return z.ZoneBase - z.ZoneTop
}
