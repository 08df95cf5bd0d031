package models

// DestinationKind classifies what a destination reference points at.
type DestinationKind string

const (
	KindCountry DestinationKind = "country"
	KindCity    DestinationKind = "city"
	KindHotel   DestinationKind = "hotel"
)

// DestinationRef identifies one searchable place. Identity is (Kind, ID);
// Name is display-only and never participates in equality or cache keys.
type DestinationRef struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Kind DestinationKind `json:"kind"`
}

// Equal compares identity, ignoring the display name.
func (d DestinationRef) Equal(other DestinationRef) bool {
	return d.Kind == other.Kind && d.ID == other.ID
}
