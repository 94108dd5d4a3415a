// Package units converts reported quantities to the simulator's base units:
// kilograms of fuel, liters of water, and per-day or per-month figures.
package units

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// Fuel units accepted by ToMassKg.
const (
	Kilogram = "kilogram"
	Liter    = "liter"
	Bag      = "bag"
	Cylinder = "cylinder"
)

// Reporting periods accepted by ToPerDay and ToPerMonth.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// fuelDensity maps a liquid or gaseous cooking fuel to kg per liter.
var fuelDensity = map[string]float64{
	"biogas":   0.0012,
	"biofuel":  0.9,
	"kerosene": 0.8,
	"lpg":      0.55,
	"ethanol":  0.789,
	"eth_alc":  0.789,
}

var daysPerPeriod = map[string]float64{
	Daily:   1,
	Weekly:  7,
	Monthly: 30,
}

var periodsPerMonth = map[string]float64{
	Daily:   30,
	Weekly:  4,
	Monthly: 1,
}

// Density returns the kg/liter density of a fuel. Lookup ignores case.
func Density(fuel string) (float64, bool) {
	d, ok := fuelDensity[strings.ToLower(strings.TrimSpace(fuel))]
	return d, ok
}

// ToMassKg converts a fuel quantity to kilograms. Liters use the fuel's
// density; bags and cylinders use bagToKg, where a value <= 0 means the
// respondent did not declare the container size.
func ToMassKg(quantity float64, unit, fuel string, bagToKg float64) (float64, error) {
	switch unit {
	case Kilogram:
		return quantity, nil
	case Liter:
		d, ok := Density(fuel)
		if !ok {
			return 0, fmt.Errorf("no density for fuel %q: %w", fuel, domain.ErrMissingConversionFactor)
		}
		return quantity * d, nil
	case Bag, Cylinder:
		if bagToKg <= 0 {
			return 0, fmt.Errorf("%s size for fuel %q: %w", unit, fuel, domain.ErrMissingConversionFactor)
		}
		return quantity * bagToKg, nil
	default:
		return 0, fmt.Errorf("fuel unit %q: %w", unit, domain.ErrInvalidUnit)
	}
}

// ToPerDay divides a quantity reported over a period by the period's days
// (a month counts as 30).
func ToPerDay(quantity float64, period string) (float64, error) {
	d, ok := daysPerPeriod[period]
	if !ok {
		return 0, fmt.Errorf("period %q: %w", period, domain.ErrInvalidPeriod)
	}
	return quantity / d, nil
}

// ToPerMonth scales a quantity reported over a period up to a month
// (daily x30, weekly x4).
func ToPerMonth(quantity float64, period string) (float64, error) {
	m, ok := periodsPerMonth[period]
	if !ok {
		return 0, fmt.Errorf("period %q: %w", period, domain.ErrInvalidPeriod)
	}
	return quantity * m, nil
}

// ToLiters converts a water quantity to liters. Units mentioning "liter" pass
// through; units mentioning "buck" are multiplied by the declared bucket size.
func ToLiters(quantity float64, unit string, buckToLiters float64) (float64, error) {
	switch {
	case strings.Contains(unit, "liter"):
		return quantity, nil
	case strings.Contains(unit, "buck"):
		if buckToLiters <= 0 {
			return 0, fmt.Errorf("bucket size: %w", domain.ErrMissingConversionFactor)
		}
		return quantity * buckToLiters, nil
	default:
		return 0, fmt.Errorf("water unit %q: %w", unit, domain.ErrInvalidUnit)
	}
}

// NeedsContainerSize reports whether a fuel unit is converted through a declared container size.
func NeedsContainerSize(unit string) bool {
	return unit == Bag || unit == Cylinder
}

// NeedsBucketSize reports whether a water unit is converted through a declared bucket size.
func NeedsBucketSize(unit string) bool {
	return strings.Contains(unit, "buck")
}
