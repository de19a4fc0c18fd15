/*
handlers.go - HTTP API handlers for the review-scheduling service

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  POST /api/reviews                                   Submit a review
  GET  /api/users/{userID}/due-cards?until=RFC3339    Cards due at cutoff
  GET  /api/users/{userID}/cards/{cardID}/schedule    Current schedule
  GET  /api/users/{userID}/cards/{cardID}/reviews     Review history
  GET  /api/healthz                                   Liveness

STATUS CODES:
  201  New review committed
  200  Idempotent replay (same idempotency key) / successful read
  400  Validation error
  404  Pair never reviewed (schedule endpoint)
  503  Store unavailable (safe to retry - writes are idempotent by key)
  500  Anything else

  Idempotency-key races are resolved inside the engine and never reach the
  wire as errors.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/warp/recall-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Processor *schedule.Processor
	Resolver  *schedule.DueResolver

	// DisplayLocation renders the *_local response fields.
	DisplayLocation *time.Location

	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(processor *schedule.Processor, resolver *schedule.DueResolver, loc *time.Location, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Processor:       processor,
		Resolver:        resolver,
		DisplayLocation: loc,
		logger:          logger,
		validate:        validator.New(),
	}
}

// =============================================================================
// REVIEW SUBMISSION
// =============================================================================

// SubmitReview handles POST /api/reviews.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, idempotent, err := h.Processor.SubmitReview(r.Context(), schedule.SubmitInput{
		UserID:         schedule.UserID(req.UserID),
		CardID:         schedule.CardID(req.CardID),
		Rating:         schedule.Rating(*req.Rating),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "review_api_response",
		"request_id", middleware.GetReqID(r.Context()),
		"user_id", req.UserID,
		"card_id", req.CardID,
		"idempotent", idempotent,
		"interval_seconds", rec.IntervalSeconds,
	)

	status := http.StatusCreated
	if idempotent {
		status = http.StatusOK
	}
	writeJSON(w, status, newSubmitReviewResponse(rec, idempotent, h.DisplayLocation))
}

// =============================================================================
// DUE CARDS
// =============================================================================

// GetDueCards handles GET /api/users/{userID}/due-cards.
func (h *Handler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	untilParam := r.URL.Query().Get("until")
	if untilParam == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: until")
		return
	}
	until, err := time.Parse(time.RFC3339, untilParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "until must be an RFC3339 timestamp")
		return
	}

	cards, err := h.Resolver.FetchDueCards(r.Context(), schedule.UserID(userID), until)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	// Empty set serializes as [], not null.
	cardIDs := make([]string, 0, len(cards))
	for _, c := range cards {
		cardIDs = append(cardIDs, string(c))
	}

	h.logger.InfoContext(r.Context(), "due_cards_api_response",
		"request_id", middleware.GetReqID(r.Context()),
		"user_id", userID,
		"until_utc", until.UTC().Format(time.RFC3339),
		"card_count", len(cardIDs),
	)

	writeJSON(w, http.StatusOK, DueCardsResponse{
		UserID:     userID,
		UntilUTC:   until.UTC().Format(time.RFC3339),
		UntilLocal: until.In(h.DisplayLocation).Format(time.RFC3339),
		CardIDs:    cardIDs,
	})
}

// =============================================================================
// SCHEDULE PROJECTION & HISTORY
// =============================================================================

// GetSchedule handles GET /api/users/{userID}/cards/{cardID}/schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	cardID := chi.URLParam(r, "cardID")

	sched, err := h.Resolver.CurrentSchedule(r.Context(), schedule.UserID(userID), schedule.CardID(cardID))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "card has never been reviewed")
		return
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		UserID:          userID,
		CardID:          cardID,
		IntervalSeconds: sched.IntervalSeconds,
		NextReviewUTC:   sched.NextReviewAt.UTC().Format(time.RFC3339),
		Streak:          sched.Streak,
	})
}

// GetHistory handles GET /api/users/{userID}/cards/{cardID}/reviews.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	cardID := chi.URLParam(r, "cardID")

	records, err := h.Resolver.History(r.Context(), schedule.UserID(userID), schedule.CardID(cardID))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	reviews := make([]ReviewLogEntry, 0, len(records))
	for _, rec := range records {
		reviews = append(reviews, newReviewLogEntry(rec))
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		UserID:  userID,
		CardID:  cardID,
		Reviews: reviews,
	})
}

// Healthz handles GET /api/healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ERROR MAPPING & RESPONSE HELPERS
// =============================================================================

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case schedule.IsRetryable(err):
		h.logger.ErrorContext(r.Context(), "store_unavailable",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err.Error(),
		)
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, retry the request")
	default:
		h.logger.ErrorContext(r.Context(), "internal_error",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
