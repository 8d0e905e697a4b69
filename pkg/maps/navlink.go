package maps

import (
	"fmt"
	"strings"

	"fleet-ops/internal/models"
)

// navigationBaseURL is the mapping application's directions deep link root.
// Each coordinate pair becomes one path segment, origin first.
const navigationBaseURL = "https://www.google.com/maps/dir"

// ReorderStops applies an optimized visiting order (indices into stops) to
// a stop list. Indices out of range or repeated are ignored; stops the
// order does not cover are appended afterward in their original order.
func ReorderStops(stops []models.RouteStop, order []int) []models.RouteStop {
	if len(order) == 0 {
		return stops
	}

	out := make([]models.RouteStop, 0, len(stops))
	used := make([]bool, len(stops))
	for _, idx := range order {
		if idx < 0 || idx >= len(stops) || used[idx] {
			continue
		}
		out = append(out, stops[idx])
		used[idx] = true
	}
	for i, stop := range stops {
		if !used[i] {
			out = append(out, stop)
		}
	}
	return out
}

// BuildNavigationLink assembles a turn-by-turn deep link from an origin
// through every stop that has coordinates. Stops without coordinates are
// dropped; if none remain, ok is false and no link is produced. The last
// valid stop is the destination, all earlier ones are waypoints.
func BuildNavigationLink(origin models.StartLocation, stops []models.RouteStop) (link string, ok bool) {
	segments := make([]string, 0, len(stops)+1)
	segments = append(segments, formatCoord(origin.Latitude, origin.Longitude))

	valid := 0
	for _, stop := range stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		segments = append(segments, formatCoord(*stop.Latitude, *stop.Longitude))
		valid++
	}
	if valid == 0 {
		return "", false
	}

	return navigationBaseURL + "/" + strings.Join(segments, "/"), true
}

func formatCoord(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}
