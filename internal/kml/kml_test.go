package kml

import (
	"testing"

	"github.com/paulmach/orb"
)

const pointsAndLinesKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Test</name>
    <Placemark>
      <name>Camp A</name>
      <Point><coordinates>10.0,50.0,0</coordinates></Point>
    </Placemark>
    <Folder>
      <name>Routes</name>
      <Placemark>
        <name>Trail</name>
        <LineString>
          <coordinates>
            10.0,50.0,0
            10.1,50.1,0
            10.2,50.2,0
          </coordinates>
        </LineString>
      </Placemark>
      <Folder>
        <Placemark>
          <Point><coordinates>11.0,51.0</coordinates></Point>
        </Placemark>
      </Folder>
    </Folder>
  </Document>
</kml>`

func TestConvertCollectsNestedPlacemarks(t *testing.T) {
	fc, err := Convert([]byte(pointsAndLinesKML))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if len(fc.Features) != 3 {
		t.Fatalf("got %d features, want 3", len(fc.Features))
	}

	types := make(map[string]int)
	for _, f := range fc.Features {
		types[f.Geometry.GeoJSONType()]++
	}
	if types["Point"] != 2 || types["LineString"] != 1 {
		t.Errorf("geometry types = %v, want 2 Point + 1 LineString", types)
	}

	if name := fc.Features[0].Properties["name"]; name != "Camp A" {
		t.Errorf("first feature name = %v, want Camp A", name)
	}
	if _, ok := fc.Features[2].Properties["name"]; ok {
		t.Error("unnamed placemark should carry no name property")
	}
}

func TestConvertGeometries(t *testing.T) {
	tests := []struct {
		name     string
		kml      string
		wantType string
	}{
		{
			name: "polygon with hole",
			kml: `<kml><Placemark><Polygon>
				<outerBoundaryIs><LinearRing><coordinates>0,0 4,0 4,4 0,4 0,0</coordinates></LinearRing></outerBoundaryIs>
				<innerBoundaryIs><LinearRing><coordinates>1,1 2,1 2,2 1,2</coordinates></LinearRing></innerBoundaryIs>
			</Polygon></Placemark></kml>`,
			wantType: "Polygon",
		},
		{
			name: "homogeneous multigeometry lines",
			kml: `<kml><Placemark><MultiGeometry>
				<LineString><coordinates>0,0 1,1</coordinates></LineString>
				<LineString><coordinates>2,2 3,3</coordinates></LineString>
			</MultiGeometry></Placemark></kml>`,
			wantType: "MultiLineString",
		},
		{
			name: "homogeneous multigeometry points",
			kml: `<kml><Placemark><MultiGeometry>
				<Point><coordinates>0,0</coordinates></Point>
				<Point><coordinates>1,1</coordinates></Point>
			</MultiGeometry></Placemark></kml>`,
			wantType: "MultiPoint",
		},
		{
			name: "mixed multigeometry",
			kml: `<kml><Placemark><MultiGeometry>
				<Point><coordinates>0,0</coordinates></Point>
				<LineString><coordinates>0,0 1,1</coordinates></LineString>
			</MultiGeometry></Placemark></kml>`,
			wantType: "GeometryCollection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := Convert([]byte(tt.kml))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if len(fc.Features) != 1 {
				t.Fatalf("got %d features, want 1", len(fc.Features))
			}
			if got := fc.Features[0].Geometry.GeoJSONType(); got != tt.wantType {
				t.Errorf("geometry type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestConvertClosesPolygonRings(t *testing.T) {
	kml := `<kml><Placemark><Polygon>
		<outerBoundaryIs><LinearRing><coordinates>0,0 4,0 4,4 0,4</coordinates></LinearRing></outerBoundaryIs>
	</Polygon></Placemark></kml>`

	fc, err := Convert([]byte(kml))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	poly := fc.Features[0].Geometry.(orb.Polygon)
	ring := poly[0]
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("outer ring not closed: first %v, last %v", ring[0], ring[len(ring)-1])
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not XML at all", "this is not markup"},
		{"truncated XML", "<kml><Placemark>"},
		{"wrong root element", "<gpx><trk></trk></gpx>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Convert([]byte(tt.data)); err == nil {
				t.Error("Convert() expected error, got nil")
			}
		})
	}
}

func TestConvertDropsGeometrylessPlacemarks(t *testing.T) {
	kml := `<kml><Document>
		<Placemark><name>No geometry</name></Placemark>
		<Placemark><Point><coordinates>garbage</coordinates></Point></Placemark>
		<Placemark><LineString><coordinates>1,1</coordinates></LineString></Placemark>
	</Document></kml>`

	fc, err := Convert([]byte(kml))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(fc.Features) != 0 {
		t.Errorf("got %d features, want 0", len(fc.Features))
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []orb.Point
	}{
		{"lon lat alt", "10.5,50.25,120", []orb.Point{{10.5, 50.25}}},
		{"lon lat only", "10.5,50.25", []orb.Point{{10.5, 50.25}}},
		{"multiline whitespace", "1,2\n\t 3,4\r\n5,6", []orb.Point{{1, 2}, {3, 4}, {5, 6}}},
		{"malformed tuple skipped", "1,2 nonsense 3,4 7", []orb.Point{{1, 2}, {3, 4}}},
		{"non numeric skipped", "a,b 1,2", []orb.Point{{1, 2}}},
		{"empty", "   \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCoordinates(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
