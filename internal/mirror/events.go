package mirror

import (
	"context"
	"database/sql"
	"fmt"
)

// AppendTransfer inserts an immutable material transfer event and fills in
// the assigned insertion id.
//
// Events are keyed by (material_id, ts) with insertion order as tie-break;
// there is no unique constraint on the natural key, so DuplicateKey is not
// expected here in normal operation.
func (s *Store) AppendTransfer(ctx context.Context, ev *TransferEvent) error {
	pathJSON, err := marshalPath(ev.Path)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers
		(material_id, from_lng, from_lat, to_lng, to_lat, path, ts, tx_hash, description, status, submitted_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.MaterialID,
		ev.From.Lng(),
		ev.From.Lat(),
		ev.To.Lng(),
		ev.To.Lat(),
		pathJSON,
		ev.Ts,
		ev.TxHash,
		ev.Description,
		string(ev.Status),
		ev.SubmittedBy,
	)
	if err != nil {
		return fmt.Errorf("append transfer: %w", mapInsertErr(err))
	}

	ev.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append transfer: last insert id: %w", err)
	}
	return nil
}

// MaterialHistory returns all transfer events for a material ordered by
// timestamp ascending, ties broken by insertion order. The ordering is
// deterministic: identical data always yields an identical sequence.
func (s *Store) MaterialHistory(ctx context.Context, materialID string) ([]TransferEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, material_id, from_lng, from_lat, to_lng, to_lat, path, ts, tx_hash, description, status, submitted_by
		FROM transfers
		WHERE material_id = ?
		ORDER BY ts ASC, id ASC
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("material history %s: %w", materialID, err)
	}
	defer rows.Close()

	events := []TransferEvent{}
	for rows.Next() {
		var (
			ev                             TransferEvent
			fromLng, fromLat, toLng, toLat float64
			pathJSON, status               string
		)
		err := rows.Scan(
			&ev.ID,
			&ev.MaterialID,
			&fromLng,
			&fromLat,
			&toLng,
			&toLat,
			&pathJSON,
			&ev.Ts,
			&ev.TxHash,
			&ev.Description,
			&status,
			&ev.SubmittedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("material history %s: %w", materialID, err)
		}

		ev.Status = Status(status)
		if ev.From, err = newStoredPoint(fromLng, fromLat); err != nil {
			return nil, fmt.Errorf("material history %s: %w", materialID, err)
		}
		if ev.To, err = newStoredPoint(toLng, toLat); err != nil {
			return nil, fmt.Errorf("material history %s: %w", materialID, err)
		}
		if ev.Path, err = unmarshalPath(pathJSON); err != nil {
			return nil, fmt.Errorf("material history %s: %w", materialID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("material history %s: %w", materialID, err)
	}
	return events, nil
}

// AppendWasteEvent inserts an immutable waste lifecycle event.
func (s *Store) AppendWasteEvent(ctx context.Context, ev *WasteEvent) error {
	var fromLng, fromLat, toLng, toLat sql.NullFloat64
	if ev.From != nil {
		fromLng = sql.NullFloat64{Float64: ev.From.Lng(), Valid: true}
		fromLat = sql.NullFloat64{Float64: ev.From.Lat(), Valid: true}
	}
	if ev.To != nil {
		toLng = sql.NullFloat64{Float64: ev.To.Lng(), Valid: true}
		toLat = sql.NullFloat64{Float64: ev.To.Lat(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO waste_history
		(waste_id, event, from_lng, from_lat, to_lng, to_lat, ts, tx_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.WasteID,
		ev.Event,
		fromLng,
		fromLat,
		toLng,
		toLat,
		ev.Ts,
		ev.TxHash,
	)
	if err != nil {
		return fmt.Errorf("append waste event: %w", mapInsertErr(err))
	}

	ev.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append waste event: last insert id: %w", err)
	}
	return nil
}

// WasteHistory returns all lifecycle events for a waste record ordered by
// timestamp ascending, ties broken by insertion order.
func (s *Store) WasteHistory(ctx context.Context, wasteID string) ([]WasteEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, waste_id, event, from_lng, from_lat, to_lng, to_lat, ts, tx_hash
		FROM waste_history
		WHERE waste_id = ?
		ORDER BY ts ASC, id ASC
	`, wasteID)
	if err != nil {
		return nil, fmt.Errorf("waste history %s: %w", wasteID, err)
	}
	defer rows.Close()

	events := []WasteEvent{}
	for rows.Next() {
		var (
			ev                             WasteEvent
			fromLng, fromLat, toLng, toLat sql.NullFloat64
		)
		err := rows.Scan(
			&ev.ID,
			&ev.WasteID,
			&ev.Event,
			&fromLng,
			&fromLat,
			&toLng,
			&toLat,
			&ev.Ts,
			&ev.TxHash,
		)
		if err != nil {
			return nil, fmt.Errorf("waste history %s: %w", wasteID, err)
		}

		if fromLng.Valid && fromLat.Valid {
			p, err := newStoredPoint(fromLng.Float64, fromLat.Float64)
			if err != nil {
				return nil, fmt.Errorf("waste history %s: %w", wasteID, err)
			}
			ev.From = &p
		}
		if toLng.Valid && toLat.Valid {
			p, err := newStoredPoint(toLng.Float64, toLat.Float64)
			if err != nil {
				return nil, fmt.Errorf("waste history %s: %w", wasteID, err)
			}
			ev.To = &p
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("waste history %s: %w", wasteID, err)
	}
	return events, nil
}
