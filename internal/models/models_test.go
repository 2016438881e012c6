package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validLog() WellLog {
	return WellLog{
		Name:         "well-1",
		Depth:        []float64{100, 101, 102, 103},
		Porosity:     []float64{0.20, 0.22, 0.21, 0.25},
		Permeability: []float64{50, 60, 55, 70},
		Aux: map[string][]float64{
			SeriesClayContent: {0.1, 0.2, 0.3, 0.4},
		},
	}
}

func TestWellLogValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *WellLog)
		wantErr error
	}{
		{
			name:   "valid log",
			mutate: func(w *WellLog) {},
		},
		{
			name:    "empty log",
			mutate:  func(w *WellLog) { *w = WellLog{} },
			wantErr: ErrEmptyLog,
		},
		{
			name:    "short porosity",
			mutate:  func(w *WellLog) { w.Porosity = w.Porosity[:3] },
			wantErr: ErrMisaligned,
		},
		{
			name:    "short permeability",
			mutate:  func(w *WellLog) { w.Permeability = w.Permeability[:2] },
			wantErr: ErrMisaligned,
		},
		{
			name:    "misaligned aux series",
			mutate:  func(w *WellLog) { w.Aux[SeriesSalinity] = []float64{1, 2} },
			wantErr: ErrMisaligned,
		},
		{
			name:    "NaN porosity",
			mutate:  func(w *WellLog) { w.Porosity[1] = math.NaN() },
			wantErr: ErrNonFinite,
		},
		{
			name:    "Inf aux value",
			mutate:  func(w *WellLog) { w.Aux[SeriesClayContent][0] = math.Inf(1) },
			wantErr: ErrNonFinite,
		},
		{
			name:    "repeated depth",
			mutate:  func(w *WellLog) { w.Depth[2] = w.Depth[1] },
			wantErr: ErrNonMonotonicDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validLog()
			tt.mutate(&w)
			err := w.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("WellLog.Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("WellLog.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWellLogAuxNames(t *testing.T) {
	w := validLog()
	w.Aux[SeriesSalinity] = []float64{1, 2, 3, 4}

	names := w.AuxNames()
	if len(names) != 2 || names[0] != SeriesClayContent || names[1] != SeriesSalinity {
		t.Errorf("AuxNames() = %v, want sorted [clay_content salinity]", names)
	}
	if !w.HasSeries(SeriesSalinity) || w.HasSeries(SeriesTemperature) {
		t.Error("HasSeries() reported the wrong series")
	}
}

func TestWindowResultValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  WindowResult
		wantErr bool
	}{
		{
			name: "valid result",
			result: WindowResult{
				Depth: 104.5, Top: 100, Base: 109,
				QualityIndex: 0.5, Entropy: 2, FractalDim: 1.2, RiskFactor: 0.5,
				CompositeScore: 0.5,
				Risks:          map[string]int{"high_clay_risk": 1, "high_salinity_risk": 0},
			},
		},
		{
			name: "composite mismatch",
			result: WindowResult{
				QualityIndex: 0.5, Entropy: 2, RiskFactor: 1, CompositeScore: 0.9,
			},
			wantErr: true,
		},
		{
			name:    "quality above one",
			result:  WindowResult{QualityIndex: 1.5, Entropy: 1, RiskFactor: 1, CompositeScore: 1.5},
			wantErr: true,
		},
		{
			name:    "negative entropy",
			result:  WindowResult{QualityIndex: 0.5, Entropy: -1, RiskFactor: 1, CompositeScore: -0.5},
			wantErr: true,
		},
		{
			name: "bad risk flag",
			result: WindowResult{
				QualityIndex: 0.5, Entropy: 1, RiskFactor: 1, CompositeScore: 0.5,
				Risks: map[string]int{"high_clay_risk": 2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("WindowResult.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWindowResultRecord(t *testing.T) {
	withRisk := WindowResult{Depth: 10, Risks: map[string]int{"high_clay_risk": 1}}
	without := WindowResult{Depth: 11}

	rec := withRisk.Record()
	if rec["high_clay_risk"] != 1 {
		t.Errorf("Record() high_clay_risk = %v, want 1", rec["high_clay_risk"])
	}
	if len(rec) != len(without.Record())+1 {
		t.Errorf("Record() key sets should differ by the one risk flag: %d vs %d", len(rec), len(without.Record()))
	}
	if _, ok := without.Record()["high_clay_risk"]; ok {
		t.Error("Record() must not include risks that were not evaluated")
	}
}

func TestNewTargetZone(t *testing.T) {
	z := NewTargetZone(WindowResult{Depth: 104.5, Top: 100, Base: 109})
	if z.ZoneTop != 100 || z.ZoneBase != 109 {
		t.Errorf("NewTargetZone() bounds = [%v, %v], want [100, 109]", z.ZoneTop, z.ZoneBase)
	}
	if z.Thickness() != 9 {
		t.Errorf("Thickness() = %v, want 9", z.Thickness())
	}
}

func TestAnalysisBestZoneAndValidate(t *testing.T) {
	a := Analysis{
		ID:         "run-1",
		Mode:       "groundwater",
		WindowSize: 10,
		CreatedAt:  time.Now().Add(-time.Minute),
		Zones: []TargetZone{
			NewTargetZone(WindowResult{Depth: 10, CompositeScore: 0.2}),
			NewTargetZone(WindowResult{Depth: 30, CompositeScore: 0.7}),
			NewTargetZone(WindowResult{Depth: 50, CompositeScore: 0.4}),
		},
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("Analysis.Validate() error = %v", err)
	}

	best, ok := a.BestZone()
	if !ok || best.Depth != 30 {
		t.Errorf("BestZone() = %v, %v; want depth 30", best.Depth, ok)
	}

	empty := Analysis{}
	if _, ok := empty.BestZone(); ok {
		t.Error("BestZone() on analysis without zones should report false")
	}
	if err := empty.Validate(); err == nil {
		t.Error("Analysis.Validate() on empty analysis should fail")
	}
}
