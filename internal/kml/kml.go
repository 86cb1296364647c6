// Package kml converts KML markup into GeoJSON feature collections.
package kml

import (
	"encoding/xml"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   kmlDocument    `xml:"Document"`
	Folder     *kmlFolder     `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description"`
	Point       *kmlPoint      `xml:"Point"`
	LineString  *kmlLineString `xml:"LineString"`
	Polygon     *kmlPolygon    `xml:"Polygon"`
	MultiGeom   *kmlMultiGeom  `xml:"MultiGeometry"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	OuterBoundaryIs kmlBoundary   `xml:"outerBoundaryIs"`
	InnerBoundaryIs []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	LinearRing kmlLinearRing `xml:"LinearRing"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlMultiGeom struct {
	Points      []kmlPoint      `xml:"Point"`
	LineStrings []kmlLineString `xml:"LineString"`
	Polygons    []kmlPolygon    `xml:"Polygon"`
}

// Convert parses raw KML markup and returns the contained placemarks as a
// GeoJSON feature collection. Placemarks without a usable geometry are
// dropped; a placemark name or description becomes a feature property.
func Convert(data []byte) (*geojson.FeatureCollection, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse KML: %w", err)
	}

	placemarks := root.Placemarks
	placemarks = append(placemarks, root.Document.Placemarks...)
	for _, folder := range root.Document.Folders {
		placemarks = append(placemarks, collectPlacemarks(folder)...)
	}
	if root.Folder != nil {
		placemarks = append(placemarks, collectPlacemarks(*root.Folder)...)
	}

	fc := geojson.NewFeatureCollection()
	for _, pm := range placemarks {
		geom := placemarkGeometry(pm)
		if geom == nil {
			continue
		}

		f := geojson.NewFeature(geom)
		if pm.Name != "" {
			f.Properties["name"] = pm.Name
		}
		if pm.Description != "" {
			f.Properties["description"] = pm.Description
		}
		fc.Append(f)
	}

	return fc, nil
}

// collectPlacemarks walks a folder and its subfolders depth first.
func collectPlacemarks(folder kmlFolder) []kmlPlacemark {
	result := folder.Placemarks
	for _, sub := range folder.Folders {
		result = append(result, collectPlacemarks(sub)...)
	}

	return result
}

func placemarkGeometry(pm kmlPlacemark) orb.Geometry {
	switch {
	case pm.Point != nil:
		coords := parseCoordinates(pm.Point.Coordinates)
		if len(coords) == 0 {
			return nil
		}
		return coords[0]

	case pm.LineString != nil:
		coords := parseCoordinates(pm.LineString.Coordinates)
		if len(coords) < 2 {
			return nil
		}
		return orb.LineString(coords)

	case pm.Polygon != nil:
		return polygonGeometry(*pm.Polygon)

	case pm.MultiGeom != nil:
		return multiGeometry(*pm.MultiGeom)
	}

	return nil
}

func polygonGeometry(poly kmlPolygon) orb.Geometry {
	outer := parseCoordinates(poly.OuterBoundaryIs.LinearRing.Coordinates)
	if len(outer) < 3 {
		return nil
	}

	rings := []orb.Ring{closeRing(outer)}
	for _, inner := range poly.InnerBoundaryIs {
		coords := parseCoordinates(inner.LinearRing.Coordinates)
		if len(coords) >= 3 {
			rings = append(rings, closeRing(coords))
		}
	}

	return orb.Polygon(rings)
}

// multiGeometry maps a KML MultiGeometry to the matching GeoJSON multi type
// when its members are homogeneous, and to a GeometryCollection otherwise.
func multiGeometry(mg kmlMultiGeom) orb.Geometry {
	var points orb.MultiPoint
	for _, pt := range mg.Points {
		coords := parseCoordinates(pt.Coordinates)
		if len(coords) > 0 {
			points = append(points, coords[0])
		}
	}

	var lines orb.MultiLineString
	for _, ls := range mg.LineStrings {
		coords := parseCoordinates(ls.Coordinates)
		if len(coords) >= 2 {
			lines = append(lines, orb.LineString(coords))
		}
	}

	var polygons orb.MultiPolygon
	for _, poly := range mg.Polygons {
		if g := polygonGeometry(poly); g != nil {
			polygons = append(polygons, g.(orb.Polygon))
		}
	}

	var members []orb.Geometry
	if len(points) > 0 {
		members = append(members, points)
	}
	if len(lines) > 0 {
		members = append(members, lines)
	}
	if len(polygons) > 0 {
		members = append(members, polygons)
	}

	switch len(members) {
	case 0:
		return nil
	case 1:
		return members[0]
	default:
		return orb.Collection(members)
	}
}

// closeRing appends the first point when the ring is not already closed.
func closeRing(coords []orb.Point) orb.Ring {
	if coords[0] != coords[len(coords)-1] {
		coords = append(coords, coords[0])
	}

	return orb.Ring(coords)
}
