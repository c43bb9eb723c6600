package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertCompany registers a principal credential record.
// Returns ErrDuplicateKey if the name is taken.
func (s *Store) InsertCompany(ctx context.Context, c *Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (name, password_hash, created_at)
		VALUES (?, ?, ?)
	`, c.Name, c.PasswordHash, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", mapInsertErr(err))
	}
	return nil
}

// GetCompany reads one company by name. Returns ErrNotFound if absent.
func (s *Store) GetCompany(ctx context.Context, name string) (*Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx, `
		SELECT name, password_hash, created_at
		FROM companies
		WHERE name = ?
	`, name).Scan(&c.Name, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get company %s: %w", name, err)
	}
	return &c, nil
}
