package models

import (
	"errors"
	"time"
)

// Analysis is one complete run of the pipeline over a well log.
// It is produced fresh per call and replaced wholesale by its owner.
type Analysis struct {
	ID          string         `json:"id"`
	Well        string         `json:"well,omitempty"`
	Mode        string         `json:"mode"`
	WindowSize  int            `json:"window_size"`
	Samples     int            `json:"samples"`
	Fingerprint uint64         `json:"fingerprint"`
	Results     []WindowResult `json:"results"`
	Zones       []TargetZone   `json:"zones"`
	CreatedAt   time.Time      `json:"created_at"`
}

// BestZone returns the target zone with the highest composite score.
func (a *Analysis) BestZone() (TargetZone, bool) {
	if len(a.Zones) == 0 {
		return TargetZone{}, false
	}
	best := a.Zones[0]
	for _, z := range a.Zones[1:] {
		if z.CompositeScore > best.CompositeScore {
			best = z
		}
	}
	return best, true
}

// Validate checks that all analysis fields are valid
func (a *Analysis) Validate() error {
	if a.ID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if a.Mode == "" {
		return errors.New("analysis mode must not be empty")
	}
	if a.WindowSize < 1 {
		return errors.New("window size must be at least 1")
	}
	if a.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
