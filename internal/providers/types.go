package providers

// Availability is the booking state a provider reports for an offer or room.
type Availability string

const (
	Available   Availability = "available"
	OnRequest   Availability = "on_request"
	Unavailable Availability = "unavailable"
)

// Offer is one priced inventory item for a hotel and stay. It is the narrow
// boundary type: whatever shape the upstream payload had, nothing looser
// than this crosses into the search engine.
type Offer struct {
	ID           string       `json:"id"`
	Provider     string       `json:"provider"`
	Name         string       `json:"name"`
	Stars        int          `json:"stars"`
	Location     string       `json:"location"`
	MealPlan     string       `json:"meal_plan"` // raw upstream string
	Price        float64      `json:"price"`
	Currency     string       `json:"currency"`
	Availability Availability `json:"availability"`
	Rooms        []RoomOffer  `json:"rooms"`
	SalesCount   int          `json:"sales_count,omitempty"`
}

// RoomOffer is one bookable room inside an Offer. Capacity is the raw
// descriptor string from upstream ("2", "2+1", sometimes free text).
type RoomOffer struct {
	Name         string       `json:"name"`
	MealPlan     string       `json:"meal_plan"`
	Capacity     string       `json:"capacity"`
	Price        float64      `json:"price"`
	Availability Availability `json:"availability"`
}
