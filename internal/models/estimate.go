package models

// EmissionEstimate is the normalized result of one estimation call.
type EmissionEstimate struct {
	CO2e float64 `json:"co2e"`
	Unit string  `json:"unit"`
}

// EmissionRequest is the body sent to the estimate endpoint.
type EmissionRequest struct {
	EmissionFactor EmissionFactor     `json:"emission_factor"`
	Parameters     EmissionParameters `json:"parameters"`
}

// EmissionFactor selects the dataset used for the estimate.
type EmissionFactor struct {
	ActivityID  string `json:"activity_id"`
	DataVersion string `json:"data_version"`
}

// EmissionParameters describes the activity quantity.
// Passengers is only set for flights and is omitted from the JSON otherwise.
type EmissionParameters struct {
	Distance     float64 `json:"distance"`
	DistanceUnit string  `json:"distance_unit"`
	Passengers   *int    `json:"passengers,omitempty"`
}

// EmissionResponse is the part of the estimate response we read.
// Pointers let the decoder tell a missing key from a zero value.
type EmissionResponse struct {
	CO2e     *float64 `json:"co2e"`
	CO2eUnit *string  `json:"co2e_unit"`
}
