// Package route reconstructs geospatial routes from append-only transfer
// history.
//
// Build is a pure read-time projection: it never mutates history, and
// identical event sequences always produce byte-identical JSON (fixed
// struct field order, map properties serialized with sorted keys).
package route

import (
	"time"

	"github.com/ledgertrace/custodia/internal/geo"
	"github.com/ledgertrace/custodia/internal/mirror"
)

// Build assembles the route projection for one item's transfer events.
//
// Input must already be ordered by timestamp ascending with ties broken by
// insertion order (the mirror's history scan guarantees this). Per event the
// output carries a departure and an arrival point feature; one connecting
// LineString feature closes the collection, with consecutive duplicate
// points merged so chained transfers A→B, B→C trace [A,B,C], not [A,B,B,C].
//
// An empty event slice yields an empty feature collection, not an error.
func Build(events []mirror.TransferEvent) geo.FeatureCollection {
	fc := geo.NewFeatureCollection()
	if len(events) == 0 {
		return fc
	}

	path := geo.NewLineString()
	for _, ev := range events {
		ts := time.Unix(ev.Ts, 0).UTC().Format(time.RFC3339)

		fc.Features = append(fc.Features, geo.NewFeature(ev.From, map[string]any{
			"kind":        "departure",
			"status":      string(ev.Status),
			"description": "Departed " + ts,
			"txHash":      ev.TxHash,
		}))
		fc.Features = append(fc.Features, geo.NewFeature(ev.To, map[string]any{
			"kind":        "arrival",
			"status":      string(ev.Status),
			"description": "Arrived " + ts,
			"txHash":      ev.TxHash,
		}))

		path.AppendPoint(ev.From)
		path.AppendPoint(ev.To)
	}

	fc.Features = append(fc.Features, geo.NewFeature(path, map[string]any{
		"kind": "path",
	}))
	return fc
}
