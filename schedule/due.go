/*
due.go - Due-set resolution and schedule projection

PURPOSE:
  Read-side queries over the review-record log. Nothing here writes:
  the "current schedule" for a pair is a projection of the latest record,
  recomputed on every read.

DUE-SET SEMANTICS:
  A card is due at cutoff `until` iff the latest record for its pair has
  NextReviewAt <= until (boundary inclusive). Cards that have never been
  reviewed are excluded - a card is never due before its first submission.
  Result order is unspecified; card IDs cannot repeat because the pair is
  the grouping key.

STALENESS:
  Queries do not block writers. A record committed after the query began may
  be missed; that staleness window is accepted.

SEE ALSO:
  - store.go: QueryDue / ListByPair primitives
  - processor.go: Write side
*/
package schedule

import (
	"context"
	"time"
)

// =============================================================================
// DUE-SET RESOLVER
// =============================================================================

// DueResolver answers "which of this user's cards are due?".
type DueResolver struct {
	store Store
}

// NewDueResolver creates a resolver backed by store.
func NewDueResolver(store Store) *DueResolver {
	return &DueResolver{store: store}
}

// FetchDueCards returns every card whose current schedule has
// NextReviewAt <= until. The result may be empty, never contains
// duplicates, and has no defined order.
func (r *DueResolver) FetchDueCards(ctx context.Context, userID UserID, until time.Time) ([]CardID, error) {
	if string(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	due, err := r.store.QueryDue(ctx, userID, until.UTC())
	if err != nil {
		return nil, err
	}

	cards := make([]CardID, 0, len(due))
	for _, d := range due {
		cards = append(cards, d.CardID)
	}
	return cards, nil
}

// =============================================================================
// SCHEDULE PROJECTION
// =============================================================================

// CurrentSchedule projects the pair's current schedule from the record log.
// Returns nil if the pair has never been reviewed.
//
// The streak is the trailing run of successful reviews: it counts records
// back from the latest until a NoRecall rating (exclusive) is hit.
func (r *DueResolver) CurrentSchedule(ctx context.Context, userID UserID, cardID CardID) (*CardSchedule, error) {
	records, err := r.store.ListByPair(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	latest := records[len(records)-1]
	streak := 0
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Rating == RatingNoRecall {
			break
		}
		streak++
	}

	return &CardSchedule{
		UserID:          userID,
		CardID:          cardID,
		IntervalSeconds: latest.IntervalSeconds,
		NextReviewAt:    latest.NextReviewAt,
		Streak:          streak,
	}, nil
}

// History returns the pair's full review log, oldest first.
func (r *DueResolver) History(ctx context.Context, userID UserID, cardID CardID) ([]ReviewRecord, error) {
	return r.store.ListByPair(ctx, userID, cardID)
}
