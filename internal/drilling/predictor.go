// Package drilling predicts drilling rate (m/h) from formation features with a
// linear regression fitted on historical runs.
//
// The feature vector order is fixed: quality_index, entropy, fractal_dim, clay_content.
// A Predictor is not safe for concurrent use; callers serialize Fit and Predict.
package drilling

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// FeatureCount is the length of a feature vector.
const FeatureCount = 4

// FeatureNames lists the features in vector order.
var FeatureNames = [FeatureCount]string{"quality_index", "entropy", "fractal_dim", "clay_content"}

var (
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("drilling model is not fitted")
	// ErrShape is returned for feature matrices or vectors of the wrong size.
	ErrShape = errors.New("feature shape mismatch")
	// ErrInsufficientData is returned when there are fewer rows than coefficients.
	ErrInsufficientData = errors.New("not enough samples to fit drilling model")
)

// Predictor is a linear drilling-rate model with an intercept.
type Predictor struct {
	ridge    float64
	coef     []float64 // intercept first
	rSquared float64
	samples  int
	fitted   bool
}

// New returns an unfitted ordinary least squares predictor.
func New() *Predictor {
	return &Predictor{}
}

// NewRidge returns an unfitted predictor that adds lambda·I to the normal equations
// (intercept excluded). Ridge keeps the fit solvable when a feature is constant.
func NewRidge(lambda float64) (*Predictor, error) {
	if lambda < 0 || math.IsNaN(lambda) {
		return nil, fmt.Errorf("ridge lambda must be >= 0, got %v", lambda)
	}
	return &Predictor{ridge: lambda}, nil
}

// IsFitted reports whether Fit has succeeded at least once.
func (p *Predictor) IsFitted() bool {
	return p.fitted
}

// RSquared returns the coefficient of determination of the last successful fit.
func (p *Predictor) RSquared() float64 {
	return p.rSquared
}

// Samples returns the number of rows the model was last fitted on.
func (p *Predictor) Samples() int {
	return p.samples
}

// Coefficients returns a copy of the fitted coefficients, intercept first.
func (p *Predictor) Coefficients() []float64 {
	return append([]float64(nil), p.coef...)
}

// Fit regresses y on the n×4 feature matrix X and returns R² on the same data.
// A failed fit leaves the previous model untouched.
func (p *Predictor) Fit(X [][]float64, y []float64) (float64, error) {
	n := len(X)
	if n != len(y) {
		return 0, fmt.Errorf("%w: %d feature rows, %d targets", ErrShape, n, len(y))
	}
	if n < FeatureCount+1 {
		return 0, fmt.Errorf("%w: need at least %d rows, got %d", ErrInsufficientData, FeatureCount+1, n)
	}

	cols := FeatureCount + 1
	design := mat.NewDense(n, cols, nil)
	for i, row := range X {
		if len(row) != FeatureCount {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), FeatureCount)
		}
		if !allFinite(row) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return 0, fmt.Errorf("%w: row %d contains non-finite values", models.ErrNonFinite, i)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	beta, err := p.solve(design, target)
	if err != nil {
		return 0, err
	}

	var estimates mat.VecDense
	estimates.MulVec(design, beta)
	r2 := rSquared(estimates.RawVector().Data, y)

	p.coef = append(p.coef[:0], beta.RawVector().Data...)
	p.rSquared = r2
	p.samples = n
	p.fitted = true

	logger.Debug("drilling: fitted on %d samples, R²=%.4f, coef=%v", n, r2, p.coef)
	return r2, nil
}

func (p *Predictor) solve(design *mat.Dense, target *mat.VecDense) (*mat.VecDense, error) {
	_, cols := design.Dims()
	beta := mat.NewVecDense(cols, nil)

	if p.ridge == 0 {
		// QR least squares on the overdetermined system.
		if err := beta.SolveVec(design, target); err != nil {
			return nil, fmt.Errorf("failed to solve least squares: %w", err)
		}
		return beta, nil
	}

	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	normal := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := xtx.At(i, j)
			if i == j && i > 0 {
				v += p.ridge
			}
			normal.SetSym(i, j, v)
		}
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var chol mat.Cholesky
	if ok := chol.Factorize(normal); !ok {
		return nil, errors.New("failed to solve ridge system: normal matrix is not positive definite")
	}
	if err := chol.SolveVecTo(beta, &xty); err != nil {
		return nil, fmt.Errorf("failed to solve ridge system: %w", err)
	}
	return beta, nil
}

// Predict returns the predicted drilling rate for a feature vector.
// No clamping to a physical range is applied.
func (p *Predictor) Predict(features []float64) (float64, error) {
	if !p.fitted {
		return 0, ErrNotFitted
	}
	if len(features) != FeatureCount {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShape, len(features), FeatureCount)
	}
	if !allFinite(features) {
		return 0, fmt.Errorf("%w: features %v", models.ErrNonFinite, features)
	}
	return p.coef[0] + floats.Dot(p.coef[1:], features), nil
}

// ZoneFeatures builds the feature vector for a target zone and a clay content value.
func ZoneFeatures(zone models.TargetZone, clayContent float64) []float64 {
	return []float64{zone.QualityIndex, zone.Entropy, zone.FractalDim, clayContent}
}

// rSquared is stat.RSquaredFrom with constant targets reported as 0.
func rSquared(estimates, values []float64) float64 {
	if stat.Variance(values, nil) == 0 {
		return 0
	}
	return stat.RSquaredFrom(estimates, values, nil)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
