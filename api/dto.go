/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response types returned to clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run the
  shared validator before touching domain logic. The engine re-validates its
  own inputs - the tags exist to reject malformed payloads at the edge with
  a field-level message.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/recall-engine/schedule"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitReviewRequest is the body of POST /api/reviews.
type SubmitReviewRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	CardID         string `json:"card_id" validate:"required"`
	Rating         *int   `json:"rating" validate:"required,min=0,max=2"`
	IdempotencyKey string `json:"idempotency_key" validate:"required,max=64"`
}

// SubmitReviewResponse reports the committed schedule for a submission.
// Idempotent replays return the originally committed values.
type SubmitReviewResponse struct {
	RecordID        string `json:"record_id"`
	IntervalSeconds int64  `json:"interval_seconds"`
	NextReviewUTC   string `json:"next_review_utc"`
	NextReviewLocal string `json:"next_review_local"`
	RatingLabel     string `json:"rating_label"`
	Idempotent      bool   `json:"idempotent"`
}

// DueCardsResponse lists the cards due for review at the requested cutoff.
type DueCardsResponse struct {
	UserID     string   `json:"user_id"`
	UntilUTC   string   `json:"until_utc"`
	UntilLocal string   `json:"until_local"`
	CardIDs    []string `json:"card_ids"`
}

// ScheduleResponse is the current schedule projection for one pair.
type ScheduleResponse struct {
	UserID          string `json:"user_id"`
	CardID          string `json:"card_id"`
	IntervalSeconds int64  `json:"interval_seconds"`
	NextReviewUTC   string `json:"next_review_utc"`
	Streak          int    `json:"streak"`
}

// ReviewLogEntry is one record in a pair's review history.
type ReviewLogEntry struct {
	RecordID        string `json:"record_id"`
	Rating          int    `json:"rating"`
	RatingLabel     string `json:"rating_label"`
	IntervalSeconds int64  `json:"interval_seconds"`
	NextReviewUTC   string `json:"next_review_utc"`
	CreatedAt       string `json:"created_at"`
}

// HistoryResponse is a pair's full review history, oldest first.
type HistoryResponse struct {
	UserID  string           `json:"user_id"`
	CardID  string           `json:"card_id"`
	Reviews []ReviewLogEntry `json:"reviews"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func newSubmitReviewResponse(rec schedule.ReviewRecord, idempotent bool, loc *time.Location) SubmitReviewResponse {
	return SubmitReviewResponse{
		RecordID:        string(rec.ID),
		IntervalSeconds: rec.IntervalSeconds,
		NextReviewUTC:   rec.NextReviewAt.UTC().Format(time.RFC3339),
		NextReviewLocal: rec.NextReviewAt.In(loc).Format(time.RFC3339),
		RatingLabel:     rec.Rating.Label(),
		Idempotent:      idempotent,
	}
}

func newReviewLogEntry(rec schedule.ReviewRecord) ReviewLogEntry {
	return ReviewLogEntry{
		RecordID:        string(rec.ID),
		Rating:          int(rec.Rating),
		RatingLabel:     rec.Rating.Label(),
		IntervalSeconds: rec.IntervalSeconds,
		NextReviewUTC:   rec.NextReviewAt.UTC().Format(time.RFC3339),
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
