/*
store.go - Persistence interface for review records

PURPOSE:
  Defines the contract between the scheduling engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory storage.

APPEND-ONLY CONTRACT:
  Insert() is the ONLY write operation. There is no Update and no Delete.
  The current schedule for a pair is always derived by reading the latest
  record, never by mutating a row in place.

IDEMPOTENCY:
  Insert is the atomic insert-if-absent primitive: the store enforces global
  uniqueness of the idempotency key (unique constraint or equivalent) and
  returns ErrDuplicateIdempotencyKey when the key is already present. Losing
  a race to a concurrent writer surfaces exactly the same way, so the
  processor handles retries and races with one code path.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - schedule/store/memory.go: In-memory for testing

SEE ALSO:
  - processor.go: The sole writer
  - due.go: Read-side consumer of QueryDue
*/
package schedule

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Interface for review-record persistence (append-only)
// =============================================================================

// Store handles persistence of review records.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Insert persists a record atomically. Returns
	// ErrDuplicateIdempotencyKey if the idempotency key already exists.
	// This is the ONLY write operation.
	Insert(ctx context.Context, rec ReviewRecord) error

	// GetByIdempotencyKey returns the record committed under key,
	// or nil if none exists.
	GetByIdempotencyKey(ctx context.Context, key string) (*ReviewRecord, error)

	// GetLatestByPair returns the record with the maximum CreatedAt for the
	// pair, or nil if the pair has never been reviewed.
	GetLatestByPair(ctx context.Context, userID UserID, cardID CardID) (*ReviewRecord, error)

	// QueryDue returns, for each of the user's pairs, the latest record's
	// card and next-review time, restricted to NextReviewAt <= until.
	QueryDue(ctx context.Context, userID UserID, until time.Time) ([]DueCard, error)

	// ListByPair returns all records for the pair, oldest first
	// (CreatedAt ascending).
	ListByPair(ctx context.Context, userID UserID, cardID CardID) ([]ReviewRecord, error)
}
