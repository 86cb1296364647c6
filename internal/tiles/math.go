package tiles

import "math"

// MaxLat is the Web Mercator latitude cutoff.
const MaxLat = 85.05112878

// TileAt converts WGS84 coordinates to the tile containing them at the
// given zoom, using the standard Web Mercator tiling scheme.
func TileAt(lon, lat, zoom float64) (x, y int) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	n := math.Exp2(zoom)
	x = int((lon + 180.0) / 360.0 * n)

	latRad := lat * math.Pi / 180.0
	y = int((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n)

	last := int(n) - 1
	if x > last {
		x = last
	}
	if y > last {
		y = last
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return x, y
}
