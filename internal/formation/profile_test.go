package formation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyon-geoscience/tyon/internal/models"
)

func TestQualityFormulas_Golden(t *testing.T) {
	tests := []struct {
		name    string
		formula QualityFormula
		stats   WindowStats
		want    float64
	}{
		{"groundwater fraction", GroundwaterQuality, WindowStats{Porosity: 0.2, Permeability: 50}, 0.47417256671105756},
		{"groundwater percent", GroundwaterQuality, WindowStats{Porosity: 20, Permeability: 50}, 0.47417256671105756},
		{"groundwater saturated", GroundwaterQuality, WindowStats{Porosity: 0.5, Permeability: 1000}, 0.9999772997774687},
		{"groundwater zero perm", GroundwaterQuality, WindowStats{Porosity: 0.3, Permeability: 0}, 0},
		{"hydrocarbon fraction", HydrocarbonQuality, WindowStats{Porosity: 0.2, Permeability: 100}, 0.38937999707118015},
		{"hydrocarbon percent", HydrocarbonQuality, WindowStats{Porosity: 25, Permeability: 400}, 0.5960516324981018},
		{"hydrocarbon zero porosity", HydrocarbonQuality, WindowStats{Porosity: 0, Permeability: 400}, 0},
		{
			"geothermal hot", GeothermalQuality,
			WindowStats{Permeability: 50, Aux: map[string]float64{models.SeriesTemperature: 200}},
			0.6321205588285577,
		},
		{
			"geothermal warm", GeothermalQuality,
			WindowStats{Permeability: 100, Aux: map[string]float64{models.SeriesTemperature: 125}},
			0.43233235838169365,
		},
		{"geothermal without temperature", GeothermalQuality, WindowStats{Permeability: 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.formula(tt.stats), 1e-12)
		})
	}
}

func TestQualityFormulas_Bounded(t *testing.T) {
	formulas := map[string]QualityFormula{
		"groundwater": GroundwaterQuality,
		"hydrocarbon": HydrocarbonQuality,
		"geothermal":  GeothermalQuality,
	}
	porosities := []float64{-0.1, 0, 0.01, 0.2, 0.9, 1, 15, 40, 100}
	perms := []float64{-5, 0, 0.1, 10, 300, 5000}
	temps := []float64{-10, 20, 90, 350}

	for name, f := range formulas {
		for _, phi := range porosities {
			for _, k := range perms {
				for _, temp := range temps {
					q := f(WindowStats{Porosity: phi, Permeability: k, Aux: map[string]float64{models.SeriesTemperature: temp}})
					if q < 0 || q > 1 {
						t.Errorf("%s(φ=%v, k=%v, T=%v) = %v, outside [0, 1]", name, phi, k, temp, q)
					}
				}
			}
		}
	}
}

func TestRiskRuleEvaluate(t *testing.T) {
	r := RiskRule{Name: "high_clay_risk", Series: models.SeriesClayContent, Threshold: 0.35}
	assert.Equal(t, 1, r.Evaluate(0.36))
	assert.Equal(t, 0, r.Evaluate(0.35))
	assert.Equal(t, 0, r.Evaluate(0.1))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"groundwater", Groundwater, false},
		{" Hydrocarbon ", Hydrocarbon, false},
		{"GEOTHERMAL", Geothermal, false},
		{"lithium", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedMode, "ParseMode(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseMode(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestProfileSchema(t *testing.T) {
	p, err := Lookup(Groundwater)
	require.NoError(t, err)

	assert.Equal(t, []string{models.SeriesClayContent, models.SeriesSalinity, models.SeriesTemperature}, p.Schema())
	assert.True(t, p.Recognizes(models.SeriesSalinity))
	assert.False(t, p.Recognizes(models.SeriesWaterSaturation))
}

func TestProfileValidateSeries(t *testing.T) {
	geo, err := Lookup(Geothermal)
	require.NoError(t, err)

	log := &models.WellLog{Aux: map[string][]float64{models.SeriesSalinity: {1}}}
	assert.True(t, errors.Is(geo.ValidateSeries(log), ErrMissingSeries))

	log.Aux[models.SeriesTemperature] = []float64{150}
	assert.NoError(t, geo.ValidateSeries(log))

	log.Aux["gamma_ray"] = []float64{80}
	assert.ErrorIs(t, geo.ValidateSeries(log), ErrUnknownSeries)
}

func TestRegister(t *testing.T) {
	assert.Error(t, Register(Profile{}))
	assert.Error(t, Register(Profile{Mode: "lithium"}))
	assert.Error(t, Register(Profile{
		Mode:    "lithium",
		Quality: func(WindowStats) float64 { return 1 },
		Risks:   []RiskRule{{Name: "no_series"}},
	}))

	assert.Contains(t, Modes(), Groundwater)
	assert.Contains(t, Modes(), Hydrocarbon)
	assert.Contains(t, Modes(), Geothermal)
}
