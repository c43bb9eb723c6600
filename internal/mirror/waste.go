package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertWaste inserts a newly created waste document.
// Returns ErrDuplicateKey if the waste id already exists.
func (s *Store) InsertWaste(ctx context.Context, w *Waste) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO waste
		(waste_id, waste_type, hazard_class, quantity, units, current_holder, status, sequence, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.WasteID,
		w.WasteType,
		w.HazardClass,
		w.Quantity,
		w.Units,
		w.CurrentHolder,
		string(w.Status),
		w.Sequence,
		w.TxHash,
		w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert waste: %w", mapInsertErr(err))
	}
	return nil
}

// GetWaste reads one waste document. Returns ErrNotFound if absent.
func (s *Store) GetWaste(ctx context.Context, wasteID string) (*Waste, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT waste_id, waste_type, hazard_class, quantity, units, current_holder, status, sequence, tx_hash, created_at
		FROM waste
		WHERE waste_id = ?
	`, wasteID)

	w, err := scanWaste(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waste %s: %w", wasteID, err)
	}
	return w, nil
}

// ListWaste returns all waste documents ordered by creation time, ties
// broken by id.
func (s *Store) ListWaste(ctx context.Context) ([]Waste, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT waste_id, waste_type, hazard_class, quantity, units, current_holder, status, sequence, tx_hash, created_at
		FROM waste
		ORDER BY created_at ASC, waste_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}
	defer rows.Close()

	var records []Waste
	for rows.Next() {
		w, err := scanWaste(rows)
		if err != nil {
			return nil, fmt.Errorf("list waste: %w", err)
		}
		records = append(records, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}
	return records, nil
}

// UpdateWasteState overwrites the ledger-owned fields after a confirmed
// lifecycle operation.
func (s *Store) UpdateWasteState(ctx context.Context, wasteID, holder string, status Status, sequence int64, txHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE waste
		SET current_holder = ?, status = ?, sequence = ?, tx_hash = ?
		WHERE waste_id = ?
	`, holder, string(status), sequence, txHash, wasteID)
	if err != nil {
		return fmt.Errorf("update waste state %s: %w", wasteID, err)
	}
	return requireRow(res, wasteID)
}

func scanWaste(row scanner) (*Waste, error) {
	var (
		w      Waste
		status string
	)
	err := row.Scan(
		&w.WasteID,
		&w.WasteType,
		&w.HazardClass,
		&w.Quantity,
		&w.Units,
		&w.CurrentHolder,
		&status,
		&w.Sequence,
		&w.TxHash,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Status = Status(status)
	return &w, nil
}
