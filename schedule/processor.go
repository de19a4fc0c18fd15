/*
processor.go - Idempotent review submission

PURPOSE:
  Turns a client-submitted review into exactly one durable ReviewRecord,
  even under retries and concurrent duplicate submissions. This is the only
  writer of review records.

SUBMIT FLOW:
  1. Validate input (rating in the closed set, no empty identifiers)
  2. Fast path: if the idempotency key already has a record, return it with
     isDuplicate=true. The stored rating/interval are authoritative even if
     the caller's arguments differ - duplicates are retries of the original.
  3. Read the pair's current schedule; its interval is the policy input
     (0 when no prior record exists)
  4. Evaluate the interval policy and build the new record
  5. Insert. If a concurrent writer committed the same key first, discard
     the computed record, re-read by key, and return the winner with
     isDuplicate=true.

RACES:
  Two submissions with the same key: the store's uniqueness constraint picks
  exactly one winner; the loser performs one extra read and returns the
  winner's record. Never an error.

  Two submissions for the same pair with DIFFERENT keys: both succeed; the
  current schedule becomes whichever record the store stamps with the later
  CreatedAt. Writes per pair are not serialized.

SEE ALSO:
  - policy.go: Interval computation
  - store.go: Insert/read primitives
*/
package schedule

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PROCESSOR - Sole writer of review records
// =============================================================================

// Processor orchestrates idempotency and persistence for review submissions.
type Processor struct {
	store  Store
	logger *slog.Logger

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewProcessor creates a processor backed by store.
func NewProcessor(store Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, logger: logger, now: time.Now}
}

// SubmitInput is one review submission.
type SubmitInput struct {
	UserID         UserID
	CardID         CardID
	Rating         Rating
	IdempotencyKey string

	// SubmittedAt is the submission time used to compute NextReviewAt.
	// Zero means "now".
	SubmittedAt time.Time
}

// SubmitReview records a review and returns the committed record.
//
// isDuplicate is true when the idempotency key had already been committed,
// whether by an earlier call or by a concurrent writer that won the race.
// Exactly one record is ever persisted per key.
func (p *Processor) SubmitReview(ctx context.Context, in SubmitInput) (ReviewRecord, bool, error) {
	if err := in.validate(); err != nil {
		return ReviewRecord{}, false, err
	}

	p.logger.InfoContext(ctx, "review_received",
		"user_id", string(in.UserID),
		"card_id", string(in.CardID),
		"rating", int(in.Rating),
		"idempotency_key", in.IdempotencyKey,
	)

	// Fast path: the key was already committed.
	if existing, err := p.store.GetByIdempotencyKey(ctx, in.IdempotencyKey); err != nil {
		return ReviewRecord{}, false, err
	} else if existing != nil {
		p.logReuse(ctx, *existing)
		return *existing, true, nil
	}

	// Previous interval comes from the pair's current schedule, not from any
	// process-wide state.
	var previousSeconds int64
	latest, err := p.store.GetLatestByPair(ctx, in.UserID, in.CardID)
	if err != nil {
		return ReviewRecord{}, false, err
	}
	if latest != nil {
		previousSeconds = latest.IntervalSeconds
	}

	submittedAt := in.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = p.now()
	}
	submittedAt = submittedAt.UTC()

	interval := NextInterval(in.Rating, previousSeconds)
	rec := ReviewRecord{
		ID:              RecordID(uuid.NewString()),
		UserID:          in.UserID,
		CardID:          in.CardID,
		Rating:          in.Rating,
		IntervalSeconds: interval,
		NextReviewAt:    submittedAt.Add(time.Duration(interval) * time.Second),
		CreatedAt:       p.now().UTC(),
		IdempotencyKey:  in.IdempotencyKey,
	}

	switch err := p.store.Insert(ctx, rec); {
	case err == nil:
		p.logger.InfoContext(ctx, "review_scheduled",
			"user_id", string(rec.UserID),
			"card_id", string(rec.CardID),
			"interval_seconds", rec.IntervalSeconds,
			"next_review_utc", rec.NextReviewAt.Format(time.RFC3339),
		)
		return rec, false, nil

	case IsDuplicateKey(err):
		// Lost the race: a concurrent writer committed the key between our
		// read and our insert. Discard the computed record and return the
		// winner's.
		winner, rerr := p.store.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if rerr != nil {
			return ReviewRecord{}, false, rerr
		}
		if winner == nil {
			// Insert said duplicate but the key is unreadable; treat as a
			// store fault rather than invent a record.
			return ReviewRecord{}, false, &StoreError{Op: "reread after conflict", Err: err}
		}
		p.logReuse(ctx, *winner)
		return *winner, true, nil

	default:
		return ReviewRecord{}, false, err
	}
}

func (p *Processor) logReuse(ctx context.Context, rec ReviewRecord) {
	p.logger.InfoContext(ctx, "idempotent_reuse",
		"user_id", string(rec.UserID),
		"card_id", string(rec.CardID),
		"idempotency_key", rec.IdempotencyKey,
		"next_review_utc", rec.NextReviewAt.Format(time.RFC3339),
	)
}

func (in SubmitInput) validate() error {
	if strings.TrimSpace(string(in.UserID)) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(string(in.CardID)) == "" {
		return &ValidationError{Field: "card_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return &ValidationError{Field: "idempotency_key", Reason: "must not be empty"}
	}
	if !in.Rating.Valid() {
		return &ValidationError{Field: "rating", Reason: "must be 0, 1 or 2"}
	}
	return nil
}
