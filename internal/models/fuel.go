package models

import (
	"fmt"
	"strings"
)

// FuelType enumerates the fuel kinds a price report may target.
type FuelType string

const (
	FuelGasoline FuelType = "Gasoline"
	FuelDiesel   FuelType = "Diesel"
	FuelLPG      FuelType = "LPG"
	FuelMethane  FuelType = "Methane"
)

// FuelTypes lists all supported fuels in display order.
var FuelTypes = []FuelType{FuelGasoline, FuelDiesel, FuelLPG, FuelMethane}

// ParseFuelType normalizes user input into a FuelType.
func ParseFuelType(raw string) (FuelType, error) {
	for _, ft := range FuelTypes {
		if strings.EqualFold(strings.TrimSpace(raw), string(ft)) {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown fuel type %q", raw)
}
