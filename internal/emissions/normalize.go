package emissions

import (
	"math"
	"strings"

	"github.com/ukydev/carbon-tracker/internal/models"
)

const (
	gramsToKg  = 0.001
	kgToKg     = 1.0
	tonsToKg   = 1000.0
	poundsToKg = 0.453592
)

func unitFactor(unit string) (float64, bool) {
	switch strings.ToLower(unit) {
	case "g", "gco2e":
		return gramsToKg, true
	case "kg", "kgco2e":
		return kgToKg, true
	case "t", "tco2e":
		return tonsToKg, true
	case "lb", "lbco2e":
		return poundsToKg, true
	default:
		return 0, false
	}
}

// NormalizeToKg converts a CO2e quantity to kilograms.
// Units g, kg, t, lb and their CO2e forms are accepted, case-insensitive.
func NormalizeToKg(value float64, unit string) (float64, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrCalculationOverflow
	}
	if value < 0 {
		return 0, ErrNegativeValue
	}
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}
	result := value * factor
	if math.IsInf(result, 0) {
		return 0, ErrCalculationOverflow
	}
	return result, nil
}

// Kilograms returns the estimate expressed in kilograms.
func Kilograms(est models.EmissionEstimate) (float64, error) {
	return NormalizeToKg(est.CO2e, est.Unit)
}
