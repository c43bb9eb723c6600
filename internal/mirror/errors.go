package mirror

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("mirror: document not found")

// ErrDuplicateKey is returned when an insert violates a unique key.
// On the create path this is only reachable when the ledger and mirror have
// diverged, since the ledger rejects duplicate initialization first.
var ErrDuplicateKey = errors.New("mirror: duplicate key")

// mapInsertErr converts sqlite unique-constraint violations to
// ErrDuplicateKey and passes other errors through.
func mapInsertErr(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		if serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ErrDuplicateKey
		}
	}
	return err
}
