package geo

import (
	"encoding/json"
	"fmt"
)

// Point is a canonical GeoJSON point. Coordinates are [longitude, latitude],
// matching the GeoJSON axis order (RFC 7946).
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// InvalidGeometryError reports location input that is neither a canonical
// GeoJSON point nor a {lat, lng} pair, or whose coordinates are out of range.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// NewPoint builds a canonical point from a longitude/latitude pair.
// Coordinates outside [-180,180] / [-90,90] are rejected.
func NewPoint(lng, lat float64) (Point, error) {
	if lat < -90 || lat > 90 {
		return Point{}, &InvalidGeometryError{Reason: fmt.Sprintf("latitude %v out of range [-90, 90]", lat)}
	}
	if lng < -180 || lng > 180 {
		return Point{}, &InvalidGeometryError{Reason: fmt.Sprintf("longitude %v out of range [-180, 180]", lng)}
	}
	return Point{Type: "Point", Coordinates: [2]float64{lng, lat}}, nil
}

// Lng returns the longitude component.
func (p Point) Lng() float64 { return p.Coordinates[0] }

// Lat returns the latitude component.
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Normalize canonicalizes location input. Two shapes are accepted:
//
//	{"type": "Point", "coordinates": [lng, lat]}
//	{"lat": ..., "lng": ...}
//
// Anything else fails with *InvalidGeometryError. Coordinate ranges are
// always validated; downstream range queries depend on valid coordinates.
func Normalize(raw json.RawMessage) (Point, error) {
	if len(raw) == 0 {
		return Point{}, &InvalidGeometryError{Reason: "empty location"}
	}

	// Canonical GeoJSON shape first.
	var canonical struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &canonical); err == nil && canonical.Type == "Point" {
		if len(canonical.Coordinates) != 2 {
			return Point{}, &InvalidGeometryError{
				Reason: fmt.Sprintf("point must have exactly 2 coordinates, got %d", len(canonical.Coordinates)),
			}
		}
		return NewPoint(canonical.Coordinates[0], canonical.Coordinates[1])
	}

	// Simplified {lat, lng} pair. Pointers distinguish absent from zero.
	var simple struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(raw, &simple); err == nil && simple.Lat != nil && simple.Lng != nil {
		return NewPoint(*simple.Lng, *simple.Lat)
	}

	return Point{}, &InvalidGeometryError{Reason: "location must be a GeoJSON Point or a {lat, lng} pair"}
}
