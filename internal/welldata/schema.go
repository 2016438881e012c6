package welldata

import (
	"github.com/tyon-geoscience/tyon/internal/formation"
	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// FilterSchema returns a copy of log holding only the auxiliary series the mode
// recognizes. Field exports often carry extra curves the analyzer would reject.
func FilterSchema(log *models.WellLog, mode formation.Mode) (*models.WellLog, error) {
	profile, err := formation.Lookup(mode)
	if err != nil {
		return nil, err
	}

	out := *log
	out.Aux = nil
	for _, name := range log.AuxNames() {
		if !profile.Recognizes(name) {
			logger.Debug("Ignoring series %s not used in %s mode", name, mode)
			continue
		}
		if out.Aux == nil {
			out.Aux = make(map[string][]float64)
		}
		out.Aux[name] = log.Aux[name]
	}
	return &out, nil
}
