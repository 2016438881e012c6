// Package models defines the core domain entities for the tyon formation analyzer.
// These models represent well-log measurements, per-window analysis results, and the
// target zones selected from them.
// All input models include built-in validation so malformed logs are rejected before
// any window is processed.
//
// Terminology:
//   - Well log: index-aligned depth, porosity and permeability series plus optional
//     named auxiliary series (clay_content, salinity, temperature, ...).
//   - Window: a contiguous run of W consecutive depth samples.
//   - Target zone: a depth interval judged favorable by the zone detector.
package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Standard auxiliary series names.
const (
	SeriesClayContent     = "clay_content"
	SeriesSalinity        = "salinity"
	SeriesTemperature     = "temperature"
	SeriesWaterSaturation = "water_saturation"
)

var (
	// ErrEmptyLog is returned when a well log has no samples.
	ErrEmptyLog = errors.New("well log has no samples")
	// ErrMisaligned is returned when series lengths differ.
	ErrMisaligned = errors.New("well log series are not index-aligned")
	// ErrNonMonotonicDepth is returned when depth does not strictly increase.
	ErrNonMonotonicDepth = errors.New("depth must be strictly increasing")
	// ErrNonFinite is returned when a series contains NaN or Inf.
	ErrNonFinite = errors.New("series contains non-finite values")
)

// WellLog holds the index-aligned measurements of a single well.
// A WellLog is treated as immutable input by the analysis pipeline.
type WellLog struct {
	Name         string               `json:"name,omitempty"`
	Depth        []float64            `json:"depth"`        // meters, strictly increasing
	Porosity     []float64            `json:"porosity"`     // fraction or percent
	Permeability []float64            `json:"permeability"` // mD
	Aux          map[string][]float64 `json:"aux,omitempty"`
}

// Len returns the number of samples in the log.
func (w *WellLog) Len() int {
	return len(w.Depth)
}

// HasSeries reports whether the named auxiliary series was supplied.
func (w *WellLog) HasSeries(name string) bool {
	_, ok := w.Aux[name]
	return ok
}

// AuxNames returns the supplied auxiliary series names in sorted order.
func (w *WellLog) AuxNames() []string {
	names := make([]string, 0, len(w.Aux))
	for name := range w.Aux {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that all series are present, aligned, finite, and that depth increases.
func (w *WellLog) Validate() error {
	n := len(w.Depth)
	if n == 0 {
		return ErrEmptyLog
	}
	if len(w.Porosity) != n {
		return fmt.Errorf("%w: porosity has %d samples, depth has %d", ErrMisaligned, len(w.Porosity), n)
	}
	if len(w.Permeability) != n {
		return fmt.Errorf("%w: permeability has %d samples, depth has %d", ErrMisaligned, len(w.Permeability), n)
	}
	for _, name := range w.AuxNames() {
		if len(w.Aux[name]) != n {
			return fmt.Errorf("%w: %s has %d samples, depth has %d", ErrMisaligned, name, len(w.Aux[name]), n)
		}
	}

	if err := checkFinite("depth", w.Depth); err != nil {
		return err
	}
	if err := checkFinite("porosity", w.Porosity); err != nil {
		return err
	}
	if err := checkFinite("permeability", w.Permeability); err != nil {
		return err
	}
	for _, name := range w.AuxNames() {
		if err := checkFinite(name, w.Aux[name]); err != nil {
			return err
		}
	}

	for i := 1; i < n; i++ {
		if w.Depth[i] <= w.Depth[i-1] {
			return fmt.Errorf("%w: depth[%d]=%g follows depth[%d]=%g", ErrNonMonotonicDepth, i, w.Depth[i], i-1, w.Depth[i-1])
		}
	}
	return nil
}

func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d]=%v", ErrNonFinite, name, i, v)
		}
	}
	return nil
}
