// Package mealplan maps the inconsistent board-basis vocabulary returned by
// upstream inventory providers onto a small closed set of canonical codes.
package mealplan

import "strings"

// Canonical board-basis codes, from bare room to ultra all inclusive.
const (
	RO  = "RO"  // room only
	BB  = "BB"  // bed & breakfast
	HB  = "HB"  // half board
	FB  = "FB"  // full board
	AI  = "AI"  // all inclusive
	UAI = "UAI" // ultra all inclusive
)

// Codes lists every canonical code.
var Codes = []string{RO, BB, HB, FB, AI, UAI}

// exact upstream codes, checked before any substring heuristic. A code like
// "BB" embedded in longer free text must not short-circuit here.
var exactCodes = map[string]string{
	"UAI": UAI,
	"AI":  AI, "ALL": AI,
	"FB": FB, "PA": FB,
	"HB": HB, "PP": HB, "НВ": HB, "ПП": HB,
	"BB": BB, "ND": BB,
	"RO": RO, "RR": RO, "OB": RO, "SC": RO, "NA": RO, "NM": RO,
}

// Normalize maps a raw upstream meal-plan string to a canonical code.
// Precedence is fixed: the exact-code table first, then keyword heuristics
// from most to least inclusive. Anything unrecognized falls back to RO.
func Normalize(raw string) string {
	p := strings.ToUpper(strings.TrimSpace(raw))
	if p == "" {
		return RO
	}

	if code, ok := exactCodes[p]; ok {
		return code
	}

	if strings.Contains(p, "ULTRA") {
		return UAI
	}
	if strings.Contains(p, "ALL INCL") || strings.Contains(p, "SVE UKLJ") {
		return AI
	}
	if (strings.Contains(p, "FULL") || strings.Contains(p, "PUN") || strings.Contains(p, "PANSION")) &&
		!strings.Contains(p, "POLU") && !strings.Contains(p, "HALF") {
		return FB
	}
	if strings.Contains(p, "HALF") || strings.Contains(p, "POLU") || strings.Contains(p, "HB") ||
		strings.Contains(p, "DORUCAK I VECERA") || strings.Contains(p, "DORUČAK I VEČERA") {
		return HB
	}
	if strings.Contains(p, "BED") || strings.Contains(p, "BREAKFAST") ||
		strings.Contains(p, "DORUCAK") || strings.Contains(p, "DORUČAK") ||
		strings.Contains(p, "NOCENJE") || strings.Contains(p, "NOĆENJE") ||
		strings.Contains(p, "BB") {
		return BB
	}
	if strings.Contains(p, "ROOM") || strings.Contains(p, "NAJAM") ||
		strings.Contains(p, "ONLY") || strings.Contains(p, "BEZ USLUGE") {
		return RO
	}

	return RO
}

var displayNames = map[string]string{
	RO:  "Samo Smeštaj",
	BB:  "Noćenje sa Doručkom",
	HB:  "Polupansion",
	FB:  "Pun Pansion",
	AI:  "All Inclusive",
	UAI: "Ultra All Inclusive",
}

// DisplayName returns the agency-facing label for a raw or canonical code.
func DisplayName(code string) string {
	if name, ok := displayNames[Normalize(code)]; ok {
		return name
	}
	return code
}

// Matches reports whether a raw upstream plan satisfies a requested filter.
// An empty filter or "all" accepts everything.
func Matches(raw, filter string) bool {
	f := strings.ToUpper(strings.TrimSpace(filter))
	if f == "" || f == "ALL" {
		return true
	}
	return Normalize(raw) == f
}
