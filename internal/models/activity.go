package models

import "time"

// UntitledTrip is used when an activity is added without a title.
const UntitledTrip = "Untitled Trip"

// ActivityEntry is a logged trip and its estimated emissions.
// Only Title and Color change after creation.
type ActivityEntry struct {
	ID         string        `json:"id" bson:"_id"`
	Title      string        `json:"title" bson:"title"`
	Mode       TransportMode `json:"mode" bson:"mode"`
	DistanceKm float64       `json:"distance_km" bson:"distance_km"`
	EmissionKg float64       `json:"emission_kg" bson:"emission_kg"`
	Date       time.Time     `json:"date" bson:"date"`
	Color      ActivityColor `json:"color" bson:"color"`
}

// EntryPatch names the mutable fields of an entry. Nil fields are left alone.
type EntryPatch struct {
	Title *string        `json:"title,omitempty"`
	Color *ActivityColor `json:"color,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Color == nil
}

// Apply copies the patched fields onto e.
func (p EntryPatch) Apply(e *ActivityEntry) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
}
