package explorer

import (
	"fmt"
	"math"

	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/model"
)

// NeighborhoodAnchors are the marker positions for the seventeen Saint Paul
// district councils.
var NeighborhoodAnchors = map[int]geocode.Location{
	1:  {Lat: 44.9420, Lon: -93.0250},
	2:  {Lat: 44.9770, Lon: -93.0250},
	3:  {Lat: 44.9310, Lon: -93.0790},
	4:  {Lat: 44.9570, Lon: -93.0570},
	5:  {Lat: 44.9780, Lon: -93.0690},
	6:  {Lat: 44.9770, Lon: -93.1070},
	7:  {Lat: 44.9600, Lon: -93.1210},
	8:  {Lat: 44.9490, Lon: -93.1280},
	9:  {Lat: 44.9300, Lon: -93.1190},
	10: {Lat: 44.9820, Lon: -93.1500},
	11: {Lat: 44.9630, Lon: -93.1670},
	12: {Lat: 44.9730, Lon: -93.1970},
	13: {Lat: 44.9480, Lon: -93.1780},
	14: {Lat: 44.9340, Lon: -93.1780},
	15: {Lat: 44.9130, Lon: -93.1700},
	16: {Lat: 44.9370, Lon: -93.1380},
	17: {Lat: 44.9500, Lon: -93.0930},
}

// MarkerRadii sizes one marker per key of counts by area:
// r = Min + (Max-Min) * sqrt(count/maxCount). When every count is zero all
// radii are Min.
func MarkerRadii(counts map[int]int, rr RadiusRange) map[int]float64 {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	out := make(map[int]float64, len(counts))
	for id, c := range counts {
		if maxCount == 0 || c <= 0 {
			out[id] = rr.Min
			continue
		}
		out[id] = rr.Min + (rr.Max-rr.Min)*math.Sqrt(float64(c)/float64(maxCount))
	}
	return out
}

// CountByNeighborhood tallies incidents per neighborhood number.
func CountByNeighborhood(incidents []model.Incident) map[int]int {
	out := map[int]int{}
	for _, inc := range incidents {
		out[inc.NeighborhoodNumber]++
	}
	return out
}

func buildMarkers(anchors map[int]geocode.Location, incidents []model.Incident, names map[int]string, rr RadiusRange) map[int]Marker {
	tally := CountByNeighborhood(incidents)
	counts := make(map[int]int, len(anchors))
	for id := range anchors {
		counts[id] = tally[id]
	}
	radii := MarkerRadii(counts, rr)

	out := make(map[int]Marker, len(anchors))
	for id, loc := range anchors {
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("Neighborhood %d", id)
		}
		out[id] = Marker{
			Location: loc,
			Label:    fmt.Sprintf("%s: %d incidents", name, counts[id]),
			Count:    counts[id],
			Radius:   radii[id],
		}
	}
	return out
}
