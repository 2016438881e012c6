package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tyon-geoscience/tyon/internal/models"
)

func mustStorage(t *testing.T, maxRuns int, dsn string) *Storage {
	t.Helper()
	s, err := New(maxRuns, dsn)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleAnalysis(createdAt time.Time) *models.Analysis {
	results := []models.WindowResult{
		{Depth: 104.5, Top: 100, Base: 109, QualityIndex: 0.5, Entropy: 2, FractalDim: 1.2, RiskFactor: 1, CompositeScore: 1},
		{
			Depth: 105.5, Top: 101, Base: 110, QualityIndex: 0.6, Entropy: 2, FractalDim: 1.3, RiskFactor: 0.5, CompositeScore: 0.6,
			Risks: map[string]int{"high_clay_risk": 1, "high_salinity_risk": 0},
		},
	}
	return &models.Analysis{
		ID:          uuid.New().String(),
		Well:        "well-7",
		Mode:        "groundwater",
		WindowSize:  10,
		Samples:     11,
		Fingerprint: 0xfeedfacecafebeef,
		Results:     results,
		Zones:       []models.TargetZone{models.NewTargetZone(results[1])},
		CreatedAt:   createdAt,
	}
}

func TestStorage_SaveAndGetAnalysis(t *testing.T) {
	s := mustStorage(t, 10, ":memory:")
	ctx := context.Background()

	a := sampleAnalysis(time.Now().Add(-time.Minute))
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := s.GetAnalysis(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}

	if got.Fingerprint != a.Fingerprint {
		t.Errorf("Expected fingerprint %x, got %x", a.Fingerprint, got.Fingerprint)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", a.CreatedAt, got.CreatedAt)
	}
	if len(got.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got.Results))
	}
	if got.Results[1].Risks["high_clay_risk"] != 1 {
		t.Errorf("Expected high_clay_risk flag to round-trip, got %v", got.Results[1].Risks)
	}
	if got.Results[0].Risks != nil {
		t.Errorf("Expected no risks on first result, got %v", got.Results[0].Risks)
	}
	if len(got.Zones) != 1 {
		t.Fatalf("Expected 1 zone, got %d", len(got.Zones))
	}
	if got.Zones[0].ZoneTop != a.Zones[0].ZoneTop || got.Zones[0].CompositeScore != 0.6 {
		t.Errorf("Zone did not round-trip: %+v", got.Zones[0])
	}
}

func TestStorage_GetAnalysisNotFound(t *testing.T) {
	s := mustStorage(t, 10, ":memory:")

	_, err := s.GetAnalysis(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStorage_SaveRejectsInvalid(t *testing.T) {
	s := mustStorage(t, 10, ":memory:")

	a := sampleAnalysis(time.Now())
	a.ID = ""
	if err := s.SaveAnalysis(context.Background(), a); err == nil {
		t.Error("Expected error saving analysis without ID")
	}
}

func TestStorage_SaveReplacesRun(t *testing.T) {
	s := mustStorage(t, 10, ":memory:")
	ctx := context.Background()

	a := sampleAnalysis(time.Now().Add(-time.Minute))
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	a.Zones = nil
	if err := s.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("second SaveAnalysis failed: %v", err)
	}

	got, err := s.GetAnalysis(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if len(got.Zones) != 0 {
		t.Errorf("Expected replaced run to have no zones, got %d", len(got.Zones))
	}
}

func TestStorage_ListAndRotate(t *testing.T) {
	s := mustStorage(t, 3, ":memory:")
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		a := sampleAnalysis(base.Add(time.Duration(i) * time.Minute))
		a.Well = fmt.Sprintf("well-%d", i)
		if err := s.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
		ids = append(ids, a.ID)
	}

	all, err := s.ListAnalyses(ctx, 0)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Expected 5 runs, got %d", len(all))
	}
	if all[0].Well != "well-4" {
		t.Errorf("Expected newest run first, got %s", all[0].Well)
	}

	if err := s.RotateRuns(ctx); err != nil {
		t.Fatalf("RotateRuns failed: %v", err)
	}
	remaining, err := s.ListAnalyses(ctx, 10)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("Expected 3 runs after rotation, got %d", len(remaining))
	}
	if _, err := s.GetAnalysis(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected oldest run to be rotated out, got %v", err)
	}

	// Zones of rotated runs go with them.
	var orphans int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM zones WHERE run_id NOT IN (SELECT id FROM runs)`).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("Expected no orphaned zones, got %d", orphans)
	}
}

func TestStorage_FilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	a := sampleAnalysis(time.Now().Add(-time.Minute))
	first := mustStorage(t, 10, path)
	if err := first.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := mustStorage(t, 10, path)
	if _, err := second.GetAnalysis(ctx, a.ID); err != nil {
		t.Errorf("Expected run to survive reopen, got %v", err)
	}
}
