// Package welldata moves well logs and analysis results in and out of CSV files and
// generates synthetic logs for trying the analyzer without field data.
package welldata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/tyon-geoscience/tyon/internal/drilling"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// MaxMissingFraction is the share of blank cells above which a column is dropped.
const MaxMissingFraction = 0.1

// Column names of the core series.
const (
	ColumnDepth        = "depth"
	ColumnPorosity     = "porosity"
	ColumnPermeability = "permeability"
	ColumnDrillingRate = "drilling_rate"
)

var (
	// ErrMissingColumn is returned when a required column is absent or was dropped.
	ErrMissingColumn = errors.New("missing required column")
	// ErrBadValue is returned for a cell that is neither blank nor a number.
	ErrBadValue = errors.New("invalid numeric value")
)

var aliases = map[string]string{
	"depth_m": ColumnDepth,
	"md":      ColumnDepth,
	"phi":     ColumnPorosity,
	"perm":    ColumnPermeability,
	"k":       ColumnPermeability,
	"vclay":   models.SeriesClayContent,
	"vsh":     models.SeriesClayContent,
	"temp":    models.SeriesTemperature,
	"sw":      models.SeriesWaterSaturation,
	"rop":     ColumnDrillingRate,
}

// NormalizeHeader maps a raw CSV header to its canonical series name.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.Fields(h), "_")
	if canonical, ok := aliases[h]; ok {
		return canonical
	}
	return h
}

func isBlank(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "nan", "na", "n/a", "null":
		return true
	}
	return false
}

// readTable reads a CSV into named columns. Blank cells become NaN. A column keeps
// at least floor(n·(1−MaxMissingFraction)) values or is dropped; the rest are gap-filled.
func readTable(r io.Reader) (map[string][]float64, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, models.ErrEmptyLog
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = NormalizeHeader(h)
		if names[i] == "" {
			return nil, nil, fmt.Errorf("column %d has an empty header", i+1)
		}
		if slices.Contains(names[:i], names[i]) {
			return nil, nil, fmt.Errorf("duplicate column %q", names[i])
		}
	}

	columns := make(map[string][]float64, len(names))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		for i, cell := range record {
			v := math.NaN()
			if !isBlank(cell) {
				v, err = strconv.ParseFloat(strings.TrimSpace(cell), 64)
				if err != nil {
					return nil, nil, fmt.Errorf("%w %q in column %s, line %d", ErrBadValue, cell, names[i], line)
				}
			}
			columns[names[i]] = append(columns[names[i]], v)
		}
	}

	var kept []string
	for _, name := range names {
		values := columns[name]
		if len(values) == 0 {
			return nil, nil, models.ErrEmptyLog
		}
		missing := 0
		for _, v := range values {
			if math.IsNaN(v) {
				missing++
			}
		}
		if len(values)-missing < int(float64(len(values))*(1-MaxMissingFraction)) {
			logger.Warn("Dropping column %s: %d of %d values missing", name, missing, len(values))
			delete(columns, name)
			continue
		}
		if missing > 0 {
			logger.Debug("Interpolating %d missing values in column %s", missing, name)
			fillGaps(values)
		}
		kept = append(kept, name)
	}
	return columns, kept, nil
}

// fillGaps replaces NaN runs by linear interpolation between their neighbours.
// Leading and trailing runs take the nearest value.
func fillGaps(values []float64) {
	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev == -1:
			for j := 0; j < i; j++ {
				values[j] = v
			}
		case i-prev > 1:
			step := (v - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev == -1 {
		return
	}
	for j := prev + 1; j < len(values); j++ {
		values[j] = values[prev]
	}
}

// LoadCSV reads a well log. Depth, porosity and permeability columns are required;
// every other column becomes an auxiliary series.
func LoadCSV(r io.Reader) (*models.WellLog, error) {
	columns, names, err := readTable(r)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{ColumnDepth, ColumnPorosity, ColumnPermeability} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	log := &models.WellLog{
		Depth:        columns[ColumnDepth],
		Porosity:     columns[ColumnPorosity],
		Permeability: columns[ColumnPermeability],
	}
	for _, name := range names {
		switch name {
		case ColumnDepth, ColumnPorosity, ColumnPermeability:
			continue
		}
		if log.Aux == nil {
			log.Aux = make(map[string][]float64)
		}
		log.Aux[name] = columns[name]
	}
	return log, nil
}

// LoadFile reads a well log from path and names it after the file.
func LoadFile(path string) (*models.WellLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open well log: %w", err)
	}
	defer f.Close()

	log, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return log, nil
}

// LoadTrainingCSV reads drilling history: one column per drilling feature plus
// drilling_rate. Extra columns are ignored.
func LoadTrainingCSV(r io.Reader) ([][]float64, []float64, error) {
	columns, _, err := readTable(r)
	if err != nil {
		return nil, nil, err
	}

	required := append(slices.Clone(drilling.FeatureNames[:]), ColumnDrillingRate)
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	y := columns[ColumnDrillingRate]
	X := make([][]float64, len(y))
	for i := range X {
		row := make([]float64, drilling.FeatureCount)
		for j, name := range drilling.FeatureNames {
			row[j] = columns[name][i]
		}
		X[i] = row
	}
	return X, y, nil
}

// WriteLogCSV writes a well log with its auxiliary series in sorted column order.
func WriteLogCSV(w io.Writer, log *models.WellLog) error {
	aux := log.AuxNames()
	header := append([]string{ColumnDepth, ColumnPorosity, ColumnPermeability}, aux...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(header))
	for i := 0; i < log.Len(); i++ {
		row[0] = formatFloat(log.Depth[i])
		row[1] = formatFloat(log.Porosity[i])
		row[2] = formatFloat(log.Permeability[i])
		for j, name := range aux {
			row[3+j] = formatFloat(log.Aux[name][i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var resultColumns = []string{
	models.KeyDepth,
	models.KeyTop,
	models.KeyBase,
	models.KeyQualityIndex,
	models.KeyEntropy,
	models.KeyFractalDim,
	models.KeyRiskFactor,
	models.KeyCompositeScore,
}

// WriteResultsCSV writes one row per window result. Risk flag columns are the union
// over all results; a flag a result did not compute is left blank.
func WriteResultsCSV(w io.Writer, results []models.WindowResult) error {
	var risks []string
	for _, r := range results {
		for _, name := range r.RiskNames() {
			if !slices.Contains(risks, name) {
				risks = append(risks, name)
			}
		}
	}
	slices.Sort(risks)
	header := append(slices.Clone(resultColumns), risks...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := make([]string, len(header))
	for i, r := range results {
		rec := r.Record()
		for j, key := range header {
			v, ok := rec[key]
			if !ok {
				row[j] = ""
				continue
			}
			row[j] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write result %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
