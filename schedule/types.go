/*
Package schedule provides the core review-scheduling engine.

PURPOSE:
  This package contains the types and algorithms that turn a user's recall
  rating into the next review time for a flashcard, and record that decision
  durably. The engine is storage-agnostic: persistence goes through the Store
  interface, and the HTTP layer lives elsewhere.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rating: The user's self-assessment of recall quality (closed set)
  - ReviewRecord: An immutable log entry recording one scheduling decision
  - CardSchedule: The derived "current schedule" for a (user, card) pair
  - UserID/CardID/RecordID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: ReviewRecords are never updated or deleted
  2. Idempotency: Every record carries a globally unique idempotency key
  3. Projection: CardSchedule is recomputed on read, never stored
  4. Determinism: The interval policy is a pure function (see policy.go)

SEE ALSO:
  - policy.go: Interval-growth policy
  - processor.go: Idempotent submit path
  - due.go: Due-set resolution
  - store.go: Persistence interface
*/
package schedule

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type CardID string
type RecordID string

// =============================================================================
// RATING - Closed set of recall self-assessments
// =============================================================================

// Rating is the caller's self-assessment of recall quality for a card.
type Rating int

const (
	// RatingNoRecall: the user could not remember the card at all.
	RatingNoRecall Rating = 0

	// RatingRecall: the user remembered the card.
	RatingRecall Rating = 1

	// RatingEasyRecall: the user remembered the card instantly.
	RatingEasyRecall Rating = 2
)

// Valid reports whether r is a member of the closed rating set.
func (r Rating) Valid() bool {
	switch r {
	case RatingNoRecall, RatingRecall, RatingEasyRecall:
		return true
	}
	return false
}

// Label returns the stable wire label for a rating.
func (r Rating) Label() string {
	switch r {
	case RatingNoRecall:
		return "no_recall"
	case RatingRecall:
		return "recall"
	case RatingEasyRecall:
		return "easy_recall"
	default:
		return "unknown"
	}
}

// =============================================================================
// REVIEW RECORD - Append-only log entry
// =============================================================================

// ReviewRecord records a single scheduling decision.
//
// INVARIANTS:
//   - Append-only: records are never updated or deleted.
//   - IdempotencyKey is globally unique across all records, for the lifetime
//     of the system. The store enforces this.
//   - IntervalSeconds is always within [MinIntervalSeconds, MaxIntervalSeconds].
//   - NextReviewAt = submission time + IntervalSeconds, in UTC.
type ReviewRecord struct {
	ID              RecordID
	UserID          UserID
	CardID          CardID
	Rating          Rating
	IntervalSeconds int64
	NextReviewAt    time.Time
	CreatedAt       time.Time
	IdempotencyKey  string
}

// =============================================================================
// CARD SCHEDULE - Derived projection, never stored
// =============================================================================

// CardSchedule is the current schedule for a (user, card) pair: a projection
// of the latest ReviewRecord by CreatedAt. It has no independent lifecycle.
type CardSchedule struct {
	UserID          UserID
	CardID          CardID
	IntervalSeconds int64
	NextReviewAt    time.Time

	// Streak is the trailing run of successful reviews (rating != NoRecall),
	// derived from the record log. Resets to zero on NoRecall.
	Streak int
}

// DueCard is one entry in a due-set query result: a card whose current
// schedule has come due, with the time it became due.
type DueCard struct {
	CardID       CardID
	NextReviewAt time.Time
}
