package kml

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// parseCoordinates parses a KML coordinate string into points.
// KML format: whitespace-separated lon,lat[,altitude] tuples.
// Malformed tuples are skipped.
func parseCoordinates(raw string) []orb.Point {
	var points []orb.Point

	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}

		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}

		points = append(points, orb.Point{lon, lat})
	}

	return points
}
