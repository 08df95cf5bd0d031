package providers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// adapter.go is the only place that tolerates the loose upstream payload
// shapes: field-name variants, numbers sent as strings, price objects,
// capacity as number or text. Everything leaving this file is a fully
// typed Offer.

// DecodeOffers parses a raw provider response body into Offers tagged with
// the given provider name. Entries that lack an id or a usable price are
// dropped rather than failing the whole payload.
func DecodeOffers(provider string, body []byte) ([]Offer, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		// Some suppliers wrap the list in a {"hotels": [...]} envelope.
		var envelope map[string]json.RawMessage
		if err2 := json.Unmarshal(body, &envelope); err2 != nil {
			return nil, fmt.Errorf("decode offers: %w", err)
		}
		inner, ok := envelope["hotels"]
		if !ok {
			inner, ok = envelope["offers"]
		}
		if !ok {
			return nil, fmt.Errorf("decode offers: no hotels/offers field")
		}
		if err2 := json.Unmarshal(inner, &raw); err2 != nil {
			return nil, fmt.Errorf("decode offers: %w", err2)
		}
	}

	offers := make([]Offer, 0, len(raw))
	for _, item := range raw {
		o, ok := adaptOffer(provider, item)
		if !ok {
			continue
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func adaptOffer(provider string, item map[string]json.RawMessage) (Offer, bool) {
	o := Offer{
		Provider:     provider,
		ID:           firstString(item, "id", "hid", "hotel_id", "hotelId", "code"),
		Name:         firstString(item, "name", "hotel_name", "hotelName", "title"),
		Location:     firstString(item, "location", "city", "destination"),
		MealPlan:     firstString(item, "meal_plan", "mealPlan", "meal", "board"),
		Currency:     firstString(item, "currency"),
		Availability: adaptAvailability(firstString(item, "availability", "status")),
	}

	o.Stars = int(firstNumber(item, "stars", "category", "rating"))
	price, priceOK := adaptPrice(item)
	o.Price = price

	if rawRooms, ok := item["rooms"]; ok {
		var roomItems []map[string]json.RawMessage
		if err := json.Unmarshal(rawRooms, &roomItems); err == nil {
			for _, ri := range roomItems {
				r, rok := adaptRoom(ri)
				if rok {
					o.Rooms = append(o.Rooms, r)
				}
			}
		}
	}

	if strings.TrimSpace(o.ID) == "" {
		return o, false
	}
	if !priceOK && len(o.Rooms) == 0 {
		return o, false
	}
	if o.Currency == "" {
		o.Currency = "EUR"
	}
	if o.Stars < 0 || o.Stars > 5 {
		o.Stars = 0
	}
	return o, true
}

func adaptRoom(item map[string]json.RawMessage) (RoomOffer, bool) {
	r := RoomOffer{
		Name:         firstString(item, "name", "room_name", "roomName", "type"),
		MealPlan:     firstString(item, "meal_plan", "mealPlan", "meal", "board"),
		Capacity:     adaptCapacity(item),
		Availability: adaptAvailability(firstString(item, "availability", "status")),
	}
	price, ok := adaptPrice(item)
	if !ok || price < 0 {
		return r, false
	}
	r.Price = price
	return r, true
}

// adaptPrice accepts a plain number, a numeric string, or an object with an
// "amount" field.
func adaptPrice(item map[string]json.RawMessage) (float64, bool) {
	raw, ok := item["price"]
	if !ok {
		raw, ok = item["amount"]
	}
	if !ok {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n >= 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return v, perr == nil && v >= 0
	}
	var obj struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Amount, obj.Amount >= 0
	}
	return 0, false
}

// adaptCapacity keeps the descriptor as text whether it arrived as a string
// ("2+1") or a bare number.
func adaptCapacity(item map[string]json.RawMessage) string {
	raw, ok := item["capacity"]
	if !ok {
		raw, ok = item["places"]
	}
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}

func adaptAvailability(s string) Availability {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "available", "free", "ok", "yes":
		return Available
	case "on_request", "onrequest", "request":
		return OnRequest
	default:
		return Unavailable
	}
}

func firstString(item map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := item[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(item map[string]json.RawMessage, keys ...string) float64 {
	for _, k := range keys {
		raw, ok := item[k]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
				return v
			}
		}
	}
	return 0
}
