package models

import "strings"

// TransportMode is the way a trip was made.
type TransportMode string

const (
	ModeCar  TransportMode = "car"
	ModeAir  TransportMode = "air"
	ModeRail TransportMode = "rail"
)

// Climatiq activity identifiers for each mode.
const (
	// medium diesel car
	CarActivityID = "passenger_vehicle-vehicle_type_medium_car-fuel_source_diesel-engine_size_na-vehicle_age_na-vehicle_weight_na"
	// domestic passenger flight; Climatiq often rejects these without airports
	AirActivityID = "passenger_flight-route_type_domestic"
	// generic passenger rail
	RailActivityID = "passenger_train-route_type_na-fuel_source_na"
)

// AllModes returns every transport mode in display order.
func AllModes() []TransportMode {
	return []TransportMode{ModeCar, ModeAir, ModeRail}
}

// IsValidMode checks if a transport mode is known
func IsValidMode(mode TransportMode) bool {
	switch mode {
	case ModeCar, ModeAir, ModeRail:
		return true
	default:
		return false
	}
}

// ActivityID returns the emission factor identifier for the mode.
// It depends on the mode alone; an unknown mode yields "".
func (m TransportMode) ActivityID() string {
	switch m {
	case ModeCar:
		return CarActivityID
	case ModeAir:
		return AirActivityID
	case ModeRail:
		return RailActivityID
	default:
		return ""
	}
}

// DisplayName returns the capitalized mode name, e.g. "Rail".
func (m TransportMode) DisplayName() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}
