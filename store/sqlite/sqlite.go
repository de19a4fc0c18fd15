/*
Package sqlite provides a SQLite-backed implementation of schedule.Store.

PURPOSE:
  Production persistence for review records. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on review_records
  - No DELETE statements on review_records
  The current schedule for a pair is always derived by reading the latest
  record, never by mutating a row.

IDEMPOTENCY:
  The UNIQUE index on idempotency_key IS the insert-if-absent primitive.
  A conflicting INSERT fails atomically inside SQLite and is mapped to
  schedule.ErrDuplicateIdempotencyKey; the processor then re-reads the
  winner's record. There is no check-then-write window to race through.

INDEXES:
  - idx_records_key (unique):        idempotency enforcement + key lookups
  - idx_records_pair_created:        latest-by-pair reads (hot path)
  - idx_records_user_next_review:    due-set queries

TIMESTAMPS:
  Stored as UTC text with fixed-width nanoseconds. Fixed width matters:
  RFC3339Nano drops trailing zeros, which breaks the lexicographic
  comparisons SQLite does in ORDER BY and in the due-query predicate.
  Nanosecond precision keeps CreatedAt a usable total order for records of
  the same pair committed close together.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  writer, so due-set queries run against a snapshot while submissions
  commit.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

SEE ALSO:
  - schedule/store.go: Interface definition
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/recall-engine/schedule"
)

// timeLayout is RFC3339 with fixed-width nanoseconds, so stored timestamps
// sort lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements schedule.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, &schedule.StoreError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &schedule.StoreError{Op: "open", Err: err}
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, &schedule.StoreError{Op: "migrate", Err: err}
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schemaSQL := `
	-- Review records (append-only log)
	CREATE TABLE IF NOT EXISTS review_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		interval_seconds INTEGER NOT NULL,
		next_review_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		idempotency_key TEXT NOT NULL
	);

	-- CRITICAL: globally unique idempotency keys. This index is the atomic
	-- insert-if-absent primitive the processor relies on.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_key
		ON review_records(idempotency_key);

	-- Latest-by-pair reads (hot path for every submission)
	CREATE INDEX IF NOT EXISTS idx_records_pair_created
		ON review_records(user_id, card_id, created_at DESC);

	-- Due-set queries
	CREATE INDEX IF NOT EXISTS idx_records_user_next_review
		ON review_records(user_id, next_review_at);
	`

	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// STORE IMPLEMENTATION (schedule.Store interface)
// =============================================================================

// Insert appends a record to the log.
func (s *Store) Insert(ctx context.Context, rec schedule.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO review_records
		(id, user_id, card_id, rating, interval_seconds, next_review_at, created_at, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(rec.ID),
		string(rec.UserID),
		string(rec.CardID),
		int(rec.Rating),
		rec.IntervalSeconds,
		rec.NextReviewAt.UTC().Format(timeLayout),
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.IdempotencyKey,
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return schedule.ErrDuplicateIdempotencyKey
		}
		return &schedule.StoreError{Op: "insert", Err: err}
	}
	return nil
}

// GetByIdempotencyKey returns the record committed under key, or nil.
func (s *Store) GetByIdempotencyKey(ctx context.Context, key string) (*schedule.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + ` FROM review_records WHERE idempotency_key = ?`
	return s.queryOne(ctx, "get by key", query, key)
}

// GetLatestByPair returns the pair's current record, or nil.
func (s *Store) GetLatestByPair(ctx context.Context, userID schedule.UserID, cardID schedule.CardID) (*schedule.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// rowid breaks CreatedAt ties in commit order.
	query := selectColumns + `
		FROM review_records
		WHERE user_id = ? AND card_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	return s.queryOne(ctx, "get latest", query, string(userID), string(cardID))
}

// QueryDue returns each due pair's latest record, restricted to
// next_review_at <= until (boundary inclusive).
func (s *Store) QueryDue(ctx context.Context, userID schedule.UserID, until time.Time) ([]schedule.DueCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT card_id, next_review_at FROM (
			SELECT card_id, next_review_at,
			       ROW_NUMBER() OVER (
			           PARTITION BY card_id
			           ORDER BY created_at DESC, rowid DESC
			       ) AS rn
			FROM review_records
			WHERE user_id = ?
		)
		WHERE rn = 1 AND next_review_at <= ?
	`

	rows, err := s.db.QueryContext(ctx, query,
		string(userID), until.UTC().Format(timeLayout))
	if err != nil {
		return nil, &schedule.StoreError{Op: "query due", Err: err}
	}
	defer rows.Close()

	var due []schedule.DueCard
	for rows.Next() {
		var cardID, nextReviewAt string
		if err := rows.Scan(&cardID, &nextReviewAt); err != nil {
			return nil, &schedule.StoreError{Op: "query due", Err: err}
		}
		t, err := time.Parse(time.RFC3339Nano, nextReviewAt)
		if err != nil {
			return nil, &schedule.StoreError{Op: "query due", Err: fmt.Errorf("bad next_review_at %q: %w", nextReviewAt, err)}
		}
		due = append(due, schedule.DueCard{CardID: schedule.CardID(cardID), NextReviewAt: t})
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "query due", Err: err}
	}
	return due, nil
}

// ListByPair returns the pair's full log, oldest first.
func (s *Store) ListByPair(ctx context.Context, userID schedule.UserID, cardID schedule.CardID) ([]schedule.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		FROM review_records
		WHERE user_id = ? AND card_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(userID), string(cardID))
	if err != nil {
		return nil, &schedule.StoreError{Op: "list by pair", Err: err}
	}
	defer rows.Close()

	var records []schedule.ReviewRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &schedule.StoreError{Op: "list by pair", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "list by pair", Err: err}
	}
	return records, nil
}

// =============================================================================
// HELPERS
// =============================================================================

const selectColumns = `
	SELECT id, user_id, card_id, rating, interval_seconds, next_review_at, created_at, idempotency_key`

func (s *Store) queryOne(ctx context.Context, op, query string, args ...any) (*schedule.ReviewRecord, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &schedule.StoreError{Op: op, Err: err}
	}
	return &rec, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (schedule.ReviewRecord, error) {
	var (
		rec          schedule.ReviewRecord
		id           string
		userID       string
		cardID       string
		rating       int
		nextReviewAt string
		createdAt    string
	)

	err := row.Scan(&id, &userID, &cardID, &rating,
		&rec.IntervalSeconds, &nextReviewAt, &createdAt, &rec.IdempotencyKey)
	if err != nil {
		return rec, err
	}

	rec.ID = schedule.RecordID(id)
	rec.UserID = schedule.UserID(userID)
	rec.CardID = schedule.CardID(cardID)
	rec.Rating = schedule.Rating(rating)

	if rec.NextReviewAt, err = time.Parse(time.RFC3339Nano, nextReviewAt); err != nil {
		return rec, fmt.Errorf("bad next_review_at %q: %w", nextReviewAt, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
