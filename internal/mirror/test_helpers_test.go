package mirror

import (
	"path/filepath"
	"testing"

	"github.com/ledgertrace/custodia/internal/geo"
)

// createTestStore creates a fresh file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMaterial creates a material document with minimal required fields.
func createTestMaterial(id string, createdAt int64) *Material {
	return &Material{
		MaterialID:    id,
		Description:   "steel coil",
		Metadata:      map[string]any{"batch": "B-17"},
		CurrentHolder: "operator-1",
		LastSequence:  0,
		Status:        StatusCreated,
		TxHash:        "0xabc",
		CreatedAt:     createdAt,
	}
}

// createTestWaste creates a waste document with minimal required fields.
func createTestWaste(id string, createdAt int64) *Waste {
	return &Waste{
		WasteID:       id,
		WasteType:     "solvent",
		HazardClass:   "H3",
		Quantity:      40,
		Units:         "L",
		CurrentHolder: "operator-1",
		Status:        StatusCreated,
		Sequence:      1,
		TxHash:        "0xdef",
		CreatedAt:     createdAt,
	}
}

func mustPoint(t *testing.T, lng, lat float64) geo.Point {
	t.Helper()
	p, err := geo.NewPoint(lng, lat)
	if err != nil {
		t.Fatalf("NewPoint(%v, %v) failed: %v", lng, lat, err)
	}
	return p
}
