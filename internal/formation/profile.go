package formation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/tyon-geoscience/tyon/internal/models"
)

// Mode is an application domain tag.
type Mode string

// Built-in application modes.
const (
	Groundwater Mode = "groundwater"
	Hydrocarbon Mode = "hydrocarbon"
	Geothermal  Mode = "geothermal"
)

var (
	// ErrUnsupportedMode is returned for a mode with no registered profile.
	ErrUnsupportedMode = errors.New("unsupported application mode")
	// ErrUnknownSeries is returned for an auxiliary series the mode does not recognize.
	ErrUnknownSeries = errors.New("unknown auxiliary series")
	// ErrMissingSeries is returned when a series required by the mode was not supplied.
	ErrMissingSeries = errors.New("missing required auxiliary series")
)

// WindowStats holds the window means a quality formula is evaluated on.
// Aux only contains the auxiliary series that were supplied.
type WindowStats struct {
	Porosity     float64
	Permeability float64
	Aux          map[string]float64
}

// QualityFormula maps window means to a quality index in [0, 1].
type QualityFormula func(WindowStats) float64

// RiskRule flags a hazard when the window mean of Series exceeds Threshold.
type RiskRule struct {
	Name      string
	Series    string
	Threshold float64
}

// Evaluate returns 1 when mean is above the rule threshold, 0 otherwise.
func (r RiskRule) Evaluate(mean float64) int {
	if mean > r.Threshold {
		return 1
	}
	return 0
}

// Profile binds a mode to its quality formula, risk rules and auxiliary schema.
type Profile struct {
	Mode     Mode
	Quality  QualityFormula
	Risks    []RiskRule
	Required []string // auxiliary series the formula cannot do without
	Optional []string // recognized series with no risk rule of their own
}

// Recognizes reports whether name is part of the profile's auxiliary schema.
func (p Profile) Recognizes(name string) bool {
	for _, s := range p.Required {
		if s == name {
			return true
		}
	}
	for _, s := range p.Optional {
		if s == name {
			return true
		}
	}
	for _, r := range p.Risks {
		if r.Series == name {
			return true
		}
	}
	return false
}

// Schema returns every auxiliary series name the profile recognizes, sorted.
func (p Profile) Schema() []string {
	seen := make(map[string]bool)
	for _, s := range p.Required {
		seen[s] = true
	}
	for _, s := range p.Optional {
		seen[s] = true
	}
	for _, r := range p.Risks {
		seen[r.Series] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateSeries checks the supplied auxiliary series against the schema.
func (p Profile) ValidateSeries(log *models.WellLog) error {
	for _, name := range log.AuxNames() {
		if !p.Recognizes(name) {
			return fmt.Errorf("%w %q for mode %s", ErrUnknownSeries, name, p.Mode)
		}
	}
	for _, name := range p.Required {
		if !log.HasSeries(name) {
			return fmt.Errorf("%w %q for mode %s", ErrMissingSeries, name, p.Mode)
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = map[Mode]Profile{
		Groundwater: {
			Mode:    Groundwater,
			Quality: GroundwaterQuality,
			Risks: []RiskRule{
				{Name: "high_clay_risk", Series: models.SeriesClayContent, Threshold: 0.35},
				{Name: "high_salinity_risk", Series: models.SeriesSalinity, Threshold: 1000},
			},
			Optional: []string{models.SeriesTemperature},
		},
		Hydrocarbon: {
			Mode:    Hydrocarbon,
			Quality: HydrocarbonQuality,
			Risks: []RiskRule{
				{Name: "shale_risk", Series: models.SeriesClayContent, Threshold: 0.40},
				{Name: "high_water_saturation_risk", Series: models.SeriesWaterSaturation, Threshold: 0.6},
			},
			Optional: []string{models.SeriesTemperature, models.SeriesSalinity},
		},
		Geothermal: {
			Mode:    Geothermal,
			Quality: GeothermalQuality,
			Risks: []RiskRule{
				{Name: "high_temperature_risk", Series: models.SeriesTemperature, Threshold: 250},
				{Name: "scaling_risk", Series: models.SeriesSalinity, Threshold: 10000},
			},
			Required: []string{models.SeriesTemperature},
			Optional: []string{models.SeriesClayContent},
		},
	}
)

// Register adds or replaces the profile for p.Mode.
func Register(p Profile) error {
	if p.Mode == "" {
		return errors.New("profile mode must not be empty")
	}
	if p.Quality == nil {
		return fmt.Errorf("profile %s has no quality formula", p.Mode)
	}
	for _, r := range p.Risks {
		if r.Name == "" || r.Series == "" {
			return fmt.Errorf("profile %s has a risk rule without name or series", p.Mode)
		}
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Mode] = p
	return nil
}

// Lookup returns the registered profile for mode.
func Lookup(mode Mode) (Profile, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[mode]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	return p, nil
}

// ParseMode normalizes a user supplied tag ("Groundwater", " hydrocarbon ") and
// checks that a profile is registered for it.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Lookup(mode); err != nil {
		return "", err
	}
	return mode, nil
}

// Modes returns the registered modes in sorted order.
func Modes() []Mode {
	registryMu.RLock()
	defer registryMu.RUnlock()

	modes := make([]Mode, 0, len(registry))
	for m := range registry {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// GroundwaterQuality is the geometric mean of a storage term, clamp(φ/0.35),
// and a flow term, 1 − exp(−k/100 mD).
func GroundwaterQuality(s WindowStats) float64 {
	phi := porosityFraction(s.Porosity)
	storage := clamp01(phi / 0.35)
	flow := 1 - math.Exp(-math.Max(s.Permeability, 0)/100)
	return clamp01(math.Sqrt(storage * flow))
}

// HydrocarbonQuality scales clamp(φ/0.30) by a saturating reservoir quality index,
// RQI/(RQI+0.5) with RQI = 0.0314·sqrt(k/φ) in µm.
func HydrocarbonQuality(s WindowStats) float64 {
	phi := porosityFraction(s.Porosity)
	if phi <= 0 {
		return 0
	}
	rqi := ReservoirQualityIndex(phi, s.Permeability)
	return clamp01(clamp01(phi/0.30) * rqi / (rqi + 0.5))
}

// GeothermalQuality multiplies a heat term, clamp((T−50)/150) from the window's
// mean temperature in °C, by a flow term, 1 − exp(−k/50 mD). Without a
// temperature series the heat term is 0.
func GeothermalQuality(s WindowStats) float64 {
	temp, ok := s.Aux[models.SeriesTemperature]
	if !ok {
		return 0
	}
	heat := clamp01((temp - 50) / 150)
	flow := 1 - math.Exp(-math.Max(s.Permeability, 0)/50)
	return clamp01(heat * flow)
}

// ReservoirQualityIndex returns 0.0314·sqrt(k/φ) in µm for k in mD and φ as a fraction.
func ReservoirQualityIndex(phi, perm float64) float64 {
	if phi <= 0 || perm <= 0 {
		return 0
	}
	return 0.0314 * math.Sqrt(perm/phi)
}

// porosityFraction treats porosity above 1 as a percentage.
func porosityFraction(phi float64) float64 {
	if phi > 1 {
		return phi / 100
	}
	return phi
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
