package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/recall-engine/schedule"
	"github.com/warp/recall-engine/schedule/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func record(userID, cardID, key string, rating schedule.Rating, interval int64, createdAt time.Time) schedule.ReviewRecord {
	return schedule.ReviewRecord{
		ID:              schedule.RecordID("rec-" + key),
		UserID:          schedule.UserID(userID),
		CardID:          schedule.CardID(cardID),
		Rating:          rating,
		IntervalSeconds: interval,
		NextReviewAt:    createdAt.Add(time.Duration(interval) * time.Second),
		CreatedAt:       createdAt,
		IdempotencyKey:  key,
	}
}

func mustInsert(t *testing.T, s schedule.Store, recs ...schedule.ReviewRecord) {
	t.Helper()
	for _, rec := range recs {
		if err := s.Insert(context.Background(), rec); err != nil {
			t.Fatalf("insert %s: %v", rec.IdempotencyKey, err)
		}
	}
}

func cardSet(cards []schedule.CardID) map[schedule.CardID]bool {
	set := make(map[schedule.CardID]bool, len(cards))
	for _, c := range cards {
		set[c] = true
	}
	return set
}

// =============================================================================
// DUE-SET RESOLVER TESTS
// =============================================================================

func TestFetchDueCards_UnreviewedCardsNeverDue(t *testing.T) {
	// GIVEN: No records at all
	// WHEN: Querying far in the future
	// THEN: The due set is empty

	r := schedule.NewDueResolver(store.NewMemory())

	cards, err := r.FetchDueCards(context.Background(), "u1", time.Now().Add(1000*time.Hour))
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("due set = %v, want empty", cards)
	}
}

func TestFetchDueCards_BeforeAndAfterNextReview(t *testing.T) {
	// GIVEN: Two reviewed cards
	// WHEN: Querying with a cutoff before both, then after both
	// THEN: Empty set, then the full set

	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, mem,
		record("u1", "c1", "k1", schedule.RatingRecall, 86400, base),
		record("u1", "c2", "k2", schedule.RatingEasyRecall, 345600, base),
	)

	r := schedule.NewDueResolver(mem)
	ctx := context.Background()

	early, err := r.FetchDueCards(ctx, "u1", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	if len(early) != 0 {
		t.Errorf("early due set = %v, want empty", early)
	}

	late, err := r.FetchDueCards(ctx, "u1", base.Add(10*24*time.Hour))
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	set := cardSet(late)
	if len(set) != 2 || !set["c1"] || !set["c2"] {
		t.Errorf("late due set = %v, want {c1, c2}", late)
	}
}

func TestFetchDueCards_BoundaryInclusive(t *testing.T) {
	// GIVEN: A card due exactly at the cutoff
	// WHEN: Querying with until == next_review_at
	// THEN: The card is included (<=, not <)

	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	rec := record("u1", "c1", "k1", schedule.RatingRecall, 86400, base)
	mustInsert(t, mem, rec)

	r := schedule.NewDueResolver(mem)

	cards, err := r.FetchDueCards(context.Background(), "u1", rec.NextReviewAt)
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	if len(cards) != 1 || cards[0] != "c1" {
		t.Errorf("due set at boundary = %v, want [c1]", cards)
	}
}

func TestFetchDueCards_UsesLatestRecordPerPair(t *testing.T) {
	// GIVEN: A card whose latest record (a NoRecall reset) is due soon,
	//        and a card whose latest record pushed it far into the future
	// WHEN: Querying shortly after the resets
	// THEN: Only the reset card is due

	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, mem,
		// c1: long interval, then forgotten -> due in 60s
		record("u1", "c1", "k1", schedule.RatingEasyRecall, 345600, base),
		record("u1", "c1", "k2", schedule.RatingNoRecall, 60, base.Add(time.Hour)),
		// c2: long interval stands
		record("u1", "c2", "k3", schedule.RatingEasyRecall, 345600, base),
	)

	r := schedule.NewDueResolver(mem)

	cards, err := r.FetchDueCards(context.Background(), "u1", base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	if len(cards) != 1 || cards[0] != "c1" {
		t.Errorf("due set = %v, want [c1]", cards)
	}
}

func TestFetchDueCards_ScopedToUser(t *testing.T) {
	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, mem,
		record("u1", "c1", "k1", schedule.RatingNoRecall, 60, base),
		record("u2", "c2", "k2", schedule.RatingNoRecall, 60, base),
	)

	r := schedule.NewDueResolver(mem)

	cards, err := r.FetchDueCards(context.Background(), "u1", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("FetchDueCards: %v", err)
	}
	if len(cards) != 1 || cards[0] != "c1" {
		t.Errorf("due set = %v, want [c1]", cards)
	}
}

// =============================================================================
// SCHEDULE PROJECTION TESTS
// =============================================================================

func TestCurrentSchedule_NeverReviewed_Nil(t *testing.T) {
	r := schedule.NewDueResolver(store.NewMemory())

	sched, err := r.CurrentSchedule(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("CurrentSchedule: %v", err)
	}
	if sched != nil {
		t.Errorf("schedule = %+v, want nil", sched)
	}
}

func TestCurrentSchedule_StreakCountsTrailingSuccesses(t *testing.T) {
	// GIVEN: success, success, failure, success, success, success
	// THEN: Streak is 3 and the latest record drives the schedule

	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	ratings := []schedule.Rating{
		schedule.RatingRecall, schedule.RatingEasyRecall, schedule.RatingNoRecall,
		schedule.RatingRecall, schedule.RatingRecall, schedule.RatingEasyRecall,
	}
	for i, rating := range ratings {
		mustInsert(t, mem, record("u1", "c1", "k"+string(rune('1'+i)), rating, 86400, base.Add(time.Duration(i)*time.Hour)))
	}

	r := schedule.NewDueResolver(mem)

	sched, err := r.CurrentSchedule(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("CurrentSchedule: %v", err)
	}
	if sched == nil {
		t.Fatal("schedule is nil")
	}
	if sched.Streak != 3 {
		t.Errorf("streak = %d, want 3", sched.Streak)
	}
	if sched.IntervalSeconds != 86400 {
		t.Errorf("interval = %d, want 86400", sched.IntervalSeconds)
	}
}

func TestCurrentSchedule_StreakResetsOnNoRecall(t *testing.T) {
	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, mem,
		record("u1", "c1", "k1", schedule.RatingRecall, 86400, base),
		record("u1", "c1", "k2", schedule.RatingNoRecall, 60, base.Add(time.Hour)),
	)

	r := schedule.NewDueResolver(mem)

	sched, err := r.CurrentSchedule(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("CurrentSchedule: %v", err)
	}
	if sched.Streak != 0 {
		t.Errorf("streak = %d, want 0", sched.Streak)
	}
	if sched.IntervalSeconds != 60 {
		t.Errorf("interval = %d, want 60", sched.IntervalSeconds)
	}
}

func TestHistory_OldestFirst(t *testing.T) {
	mem := store.NewMemory()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, mem,
		record("u1", "c1", "k1", schedule.RatingRecall, 86400, base),
		record("u1", "c1", "k2", schedule.RatingEasyRecall, 345600, base.Add(time.Hour)),
	)

	r := schedule.NewDueResolver(mem)

	records, err := r.History(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("history length = %d, want 2", len(records))
	}
	if records[0].IdempotencyKey != "k1" || records[1].IdempotencyKey != "k2" {
		t.Errorf("history order = [%s, %s], want [k1, k2]", records[0].IdempotencyKey, records[1].IdempotencyKey)
	}
}
