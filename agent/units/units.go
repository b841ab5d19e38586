// Package units converts customer quantities to catalog base units.
// Every extraction point goes through Normalize so quoted and stocked
// quantities never drift apart.
package units

import (
	"math"
	"strings"
)

const (
	SheetsPerReam = 500
	SheetsPerBox  = 2500
)

// Factor returns the base-unit multiplier for a unit word. Unknown or empty
// units are already base units.
func Factor(unit string) int64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "ream", "reams":
		return SheetsPerReam
	case "box", "boxes":
		return SheetsPerBox
	default:
		return 1
	}
}

// Normalize converts quantity expressed in unit to whole base units.
func Normalize(quantity float64, unit string) int64 {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0
	}
	return int64(math.Round(quantity * float64(Factor(unit))))
}
