package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertMaterial inserts a newly created material document.
// Returns ErrDuplicateKey if the material id already exists. The caller
// (sync engine) decides how to surface that; after a successful ledger init
// it indicates ledger/mirror skew.
func (s *Store) InsertMaterial(ctx context.Context, m *Material) error {
	metadataJSON, err := marshalMetadata(m.Metadata)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}

	var lng, lat sql.NullFloat64
	if m.Location != nil {
		lng = sql.NullFloat64{Float64: m.Location.Lng(), Valid: true}
		lat = sql.NullFloat64{Float64: m.Location.Lat(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO materials
		(material_id, description, metadata, current_holder, last_sequence, status, lng, lat, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.MaterialID,
		m.Description,
		metadataJSON,
		m.CurrentHolder,
		m.LastSequence,
		string(m.Status),
		lng,
		lat,
		m.TxHash,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert material: %w", mapInsertErr(err))
	}

	return nil
}

// GetMaterial reads one material document. Returns ErrNotFound if absent.
func (s *Store) GetMaterial(ctx context.Context, materialID string) (*Material, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT material_id, description, metadata, current_holder, last_sequence, status, lng, lat, tx_hash, created_at
		FROM materials
		WHERE material_id = ?
	`, materialID)

	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get material %s: %w", materialID, err)
	}
	return m, nil
}

// ListMaterials returns all material documents ordered by creation time,
// ties broken by id for deterministic output.
func (s *Store) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT material_id, description, metadata, current_holder, last_sequence, status, lng, lat, tx_hash, created_at
		FROM materials
		ORDER BY created_at ASC, material_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("list materials: %w", err)
		}
		materials = append(materials, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// UpdateMaterialState overwrites the ledger-owned fields after a confirmed
// transfer: holder, sequence, status, and the confirming tx hash.
func (s *Store) UpdateMaterialState(ctx context.Context, materialID, holder string, sequence int64, status Status, txHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET current_holder = ?, last_sequence = ?, status = ?, tx_hash = ?
		WHERE material_id = ?
	`, holder, sequence, string(status), txHash, materialID)
	if err != nil {
		return fmt.Errorf("update material state %s: %w", materialID, err)
	}
	return requireRow(res, materialID)
}

// RefreshMaterialLedger overwrites holder and sequence from a ledger read,
// leaving status and tx hash untouched. Used by the read path to keep the
// mirror from silently lagging ledger truth.
func (s *Store) RefreshMaterialLedger(ctx context.Context, materialID, holder string, sequence int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET current_holder = ?, last_sequence = ?
		WHERE material_id = ?
	`, holder, sequence, materialID)
	if err != nil {
		return fmt.Errorf("refresh material %s: %w", materialID, err)
	}
	return requireRow(res, materialID)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row scanner) (*Material, error) {
	var (
		m            Material
		metadataJSON string
		status       string
		lng, lat     sql.NullFloat64
	)
	err := row.Scan(
		&m.MaterialID,
		&m.Description,
		&metadataJSON,
		&m.CurrentHolder,
		&m.LastSequence,
		&status,
		&lng,
		&lat,
		&m.TxHash,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = Status(status)
	m.Metadata, err = unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, err
	}
	if lng.Valid && lat.Valid {
		p, err := newStoredPoint(lng.Float64, lat.Float64)
		if err != nil {
			return nil, err
		}
		m.Location = &p
	}
	return &m, nil
}
