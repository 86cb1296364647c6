// Package metrics derives aggregate statistics from a feature collection.
package metrics

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Extent is a geographic bounding box in degrees.
type Extent struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Summary holds the statistics derived from one pass over a collection.
// ElementCounts tallies features per geometry type; LineLengths accumulates
// geodesic kilometers for line-like geometry types only.
type Summary struct {
	ElementCounts map[string]int     `json:"element_counts"`
	LineLengths   map[string]float64 `json:"line_lengths"`
	Bound         *Extent            `json:"bound,omitempty"`
}

// Compute walks the collection once, counting features by geometry type,
// summing line lengths and unioning the bounding box. Features without a
// geometry are skipped. A length measurement failure for a single feature
// is logged and its contribution omitted; the rest still counts.
func Compute(fc *geojson.FeatureCollection) Summary {
	s := Summary{
		ElementCounts: make(map[string]int),
		LineLengths:   make(map[string]float64),
	}

	var bound orb.Bound
	bounded := false
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		geomType := f.Geometry.GeoJSONType()
		s.ElementCounts[geomType]++

		if bounded {
			bound = bound.Union(f.Geometry.Bound())
		} else {
			bound = f.Geometry.Bound()
			bounded = true
		}

		if !isLineType(f.Geometry) {
			continue
		}

		km, err := lengthKm(f.Geometry)
		if err != nil {
			log.Warn().
				Err(err).
				Int("feature", i).
				Str("type", geomType).
				Msg("Length measurement failed, feature skipped")
			continue
		}
		s.LineLengths[geomType] += km
	}

	if bounded {
		s.Bound = &Extent{
			West:  bound.Min[0],
			South: bound.Min[1],
			East:  bound.Max[0],
			North: bound.Max[1],
		}
	}

	return s
}

func isLineType(g orb.Geometry) bool {
	switch g.(type) {
	case orb.LineString, orb.MultiLineString:
		return true
	}

	return false
}

// lengthKm measures the geodesic length of a geometry in kilometers.
// The measurement library panics on degenerate input, so the call is
// fenced to keep one bad feature from aborting the whole pass.
func lengthKm(g orb.Geometry) (km float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("measure length: %v", r)
		}
	}()

	return geo.Length(g) / 1000, nil
}
