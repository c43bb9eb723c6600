// Package mirror provides the SQLite-backed queryable mirror of ledger state.
//
// The mirror is a read-optimized replica, never the authority. It holds:
//   - Materials: current custody documents (unique material_id)
//   - Transfers: append-only material transfer events
//   - Waste: hazardous-waste lifecycle documents (unique waste_id)
//   - Waste history: append-only waste lifecycle events
//   - Companies: principal credentials referenced by holder fields
//
// # Invariants
//
//   - A document's sequence must equal the sequence last confirmed by the
//     ledger; the sync engines overwrite it from ledger reads, the store
//     never invents one.
//   - Event rows are insert-only. History scans order by (ts ASC, id ASC)
//     so same-second events tie-break by insertion order, deterministically.
//   - Unique-key violations surface as ErrDuplicateKey; after a successful
//     ledger call they indicate ledger/mirror skew and must not be swallowed.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package mirror
