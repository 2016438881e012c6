package welldata

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// DepthRange returns the default simulated depth interval of a mode, in metres.
func DepthRange(mode formation.Mode) (top, base float64, err error) {
	switch mode {
	case formation.Groundwater:
		return 50, 500, nil
	case formation.Hydrocarbon:
		return 1500, 3000, nil
	case formation.Geothermal:
		return 500, 3000, nil
	}
	return 0, 0, fmt.Errorf("%w: no simulator for %q", formation.ErrUnsupportedMode, mode)
}

// Simulate generates a synthetic log of n evenly spaced samples between top and base.
// A zero interval uses DepthRange. The same seed always yields the same log.
// Porosity is in percent, as most field logs report it.
func Simulate(mode formation.Mode, n int, top, base float64, seed uint64) (*models.WellLog, error) {
	if n < 2 {
		return nil, fmt.Errorf("simulation needs at least 2 points, got %d", n)
	}
	if top == 0 && base == 0 {
		var err error
		if top, base, err = DepthRange(mode); err != nil {
			return nil, err
		}
	}
	if !(base > top) {
		return nil, fmt.Errorf("depth base %g must be below top %g", base, top)
	}

	var sample func(rng *rand.Rand, depth float64) (phi, perm float64, aux map[string]float64)
	switch mode {
	case formation.Groundwater:
		sample = groundwaterSample
	case formation.Hydrocarbon:
		sample = hydrocarbonSample
	case formation.Geothermal:
		sample = geothermalSample
	default:
		return nil, fmt.Errorf("%w: no simulator for %q", formation.ErrUnsupportedMode, mode)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	log := &models.WellLog{
		Name:         fmt.Sprintf("simulated-%s", mode),
		Depth:        make([]float64, n),
		Porosity:     make([]float64, n),
		Permeability: make([]float64, n),
		Aux:          make(map[string][]float64),
	}
	step := (base - top) / float64(n-1)
	for i := 0; i < n; i++ {
		depth := top + step*float64(i)
		phi, perm, aux := sample(rng, depth)
		log.Depth[i] = depth
		log.Porosity[i] = phi
		log.Permeability[i] = perm
		for name, v := range aux {
			if log.Aux[name] == nil {
				log.Aux[name] = make([]float64, n)
			}
			log.Aux[name][i] = v
		}
	}

	logger.Debug("Simulated %s log: %d samples over %g-%g m (seed %d)", mode, n, top, base, seed)
	return log, nil
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func normal(rng *rand.Rand, sigma float64) float64 {
	return sigma * rng.NormFloat64()
}

func groundwaterSample(rng *rand.Rand, depth float64) (float64, float64, map[string]float64) {
	phi := 15 + 10*math.Sin(depth/50) + normal(rng, 3)
	perm := 80*math.Exp(-depth/300) + normal(rng, 15)
	return clip(phi, 5, 35), clip(perm, 1, 300), map[string]float64{
		models.SeriesClayContent: clip(0.3-0.0005*depth+normal(rng, 0.05), 0.05, 0.6),
		models.SeriesSalinity:    clip(300+5*depth+normal(rng, 100), 100, 3000),
	}
}

func hydrocarbonSample(rng *rand.Rand, depth float64) (float64, float64, map[string]float64) {
	phi := 14 + 8*math.Sin(depth/120) + normal(rng, 2)
	perm := 150*math.Exp(-(depth-1500)/800) + normal(rng, 20)
	return clip(phi, 2, 30), clip(perm, 0.1, 1000), map[string]float64{
		models.SeriesClayContent:     clip(0.25+0.1*math.Sin(depth/200)+normal(rng, 0.05), 0.02, 0.7),
		models.SeriesWaterSaturation: clip(0.45+0.2*math.Cos(depth/150)+normal(rng, 0.05), 0.05, 1),
	}
}

func geothermalSample(rng *rand.Rand, depth float64) (float64, float64, map[string]float64) {
	phi := 8 + 5*math.Sin(depth/300) + normal(rng, 2)
	perm := 40*math.Exp(-depth/2000) + normal(rng, 8)
	return clip(phi, 1, 25), clip(perm, 0.1, 200), map[string]float64{
		models.SeriesTemperature: 15 + 0.065*depth + normal(rng, 3),
		models.SeriesSalinity:    clip(2000+4*depth+normal(rng, 500), 500, 30000),
	}
}
