package explorer

import (
	"regexp"
	"strings"
)

// maskedNumber matches house numbers masked for privacy, e.g. 98X or 9XX.
var maskedNumber = regexp.MustCompile(`\b(\d+)(X+)\b`)

// ExpandBlock replaces the masked digits of a block's house number with
// zeros: "98X UNIVERSITY AV W" becomes "980 UNIVERSITY AV W".
func ExpandBlock(block string) string {
	return maskedNumber.ReplaceAllStringFunc(block, func(m string) string {
		digits := strings.TrimRight(m, "X")
		return digits + strings.Repeat("0", len(m)-len(digits))
	})
}

// LocateQuery is the geocoder query for an incident block in city.
func LocateQuery(block, city string) string {
	q := strings.TrimSpace(ExpandBlock(block))
	if city == "" {
		return q
	}
	return q + ", " + city
}
