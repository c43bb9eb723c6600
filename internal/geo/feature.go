package geo

// GeoJSON feature types used by route reconstruction.
//
// All structs marshal with a fixed field order and map properties are
// serialized with sorted keys by encoding/json, so identical inputs always
// produce byte-identical JSON. Route responses rely on that determinism.

// LineString is a GeoJSON line geometry. Coordinates are [lng, lat] pairs.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewLineString returns an empty line geometry.
func NewLineString() LineString {
	return LineString{Type: "LineString", Coordinates: [][2]float64{}}
}

// AppendPoint extends the line with p, merging consecutive duplicates:
// appending a point equal to the current endpoint is a no-op.
func (l *LineString) AppendPoint(p Point) {
	n := len(l.Coordinates)
	if n > 0 && l.Coordinates[n-1] == p.Coordinates {
		return
	}
	l.Coordinates = append(l.Coordinates, p.Coordinates)
}

// GeometryCollection is a composite geometry. Transfer events store one per
// hop: origin point, connecting line, destination point.
type GeometryCollection struct {
	Type       string `json:"type"`
	Geometries []any  `json:"geometries"`
}

// CompositePath builds the per-hop geometry stored on a transfer event.
func CompositePath(from, to Point) GeometryCollection {
	line := NewLineString()
	line.AppendPoint(from)
	line.AppendPoint(to)
	return GeometryCollection{
		Type:       "GeometryCollection",
		Geometries: []any{from, line, to},
	}
}

// Feature is a GeoJSON feature: a geometry plus free-form properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   any            `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// NewFeature wraps a geometry in a feature.
func NewFeature(geometry any, properties map[string]any) Feature {
	return Feature{Type: "Feature", Geometry: geometry, Properties: properties}
}

// FeatureCollection is the top-level route projection result.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns a collection with a non-nil, empty feature
// slice so an empty route marshals as [] rather than null.
func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}
