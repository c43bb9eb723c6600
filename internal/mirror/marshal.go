package mirror

import (
	"encoding/json"
	"fmt"

	"github.com/ledgertrace/custodia/internal/geo"
)

// Free-form and composite fields are stored as JSON text columns.

func marshalMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(raw), nil
}

func unmarshalMetadata(raw string) (map[string]any, error) {
	metadata := make(map[string]any)
	if raw == "" {
		return metadata, nil
	}
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// newStoredPoint rebuilds a point from stored columns. Range validation ran
// on the way in, so a failure here means the database was edited by hand.
func newStoredPoint(lng, lat float64) (geo.Point, error) {
	p, err := geo.NewPoint(lng, lat)
	if err != nil {
		return geo.Point{}, fmt.Errorf("stored location: %w", err)
	}
	return p, nil
}

func marshalPath(path geo.GeometryCollection) (string, error) {
	raw, err := json.Marshal(path)
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return string(raw), nil
}

func unmarshalPath(raw string) (geo.GeometryCollection, error) {
	// Geometries decode as generic JSON; the stored shape is
	// [origin point, connecting line, destination point].
	var path geo.GeometryCollection
	if err := json.Unmarshal([]byte(raw), &path); err != nil {
		return geo.GeometryCollection{}, fmt.Errorf("unmarshal path: %w", err)
	}
	return path, nil
}
