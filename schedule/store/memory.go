// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/recall-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	byPair map[pair][]schedule.ReviewRecord
	byKey  map[string]schedule.ReviewRecord
}

type pair struct {
	UserID schedule.UserID
	CardID schedule.CardID
}

func NewMemory() *Memory {
	return &Memory{
		byPair: make(map[pair][]schedule.ReviewRecord),
		byKey:  make(map[string]schedule.ReviewRecord),
	}
}

// Insert adds a single record. Append-only; the idempotency-key check and
// the write happen under one lock, so the insert-if-absent is atomic.
func (m *Memory) Insert(_ context.Context, rec schedule.ReviewRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[rec.IdempotencyKey]; exists {
		return schedule.ErrDuplicateIdempotencyKey
	}

	k := pair{UserID: rec.UserID, CardID: rec.CardID}
	m.byPair[k] = append(m.byPair[k], rec)
	m.byKey[rec.IdempotencyKey] = rec
	return nil
}

func (m *Memory) GetByIdempotencyKey(_ context.Context, key string) (*schedule.ReviewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) GetLatestByPair(_ context.Context, userID schedule.UserID, cardID schedule.CardID) (*schedule.ReviewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latestLocked(pair{UserID: userID, CardID: cardID}), nil
}

// latestLocked returns the record with the maximum CreatedAt; insertion
// order breaks ties, matching how a database would stamp commit order.
func (m *Memory) latestLocked(k pair) *schedule.ReviewRecord {
	records := m.byPair[k]
	if len(records) == 0 {
		return nil
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if !rec.CreatedAt.Before(latest.CreatedAt) {
			latest = rec
		}
	}
	return &latest
}

func (m *Memory) QueryDue(_ context.Context, userID schedule.UserID, until time.Time) ([]schedule.DueCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []schedule.DueCard
	for k := range m.byPair {
		if k.UserID != userID {
			continue
		}
		latest := m.latestLocked(k)
		if latest == nil {
			continue
		}
		// Boundary inclusive: due at exactly `until`.
		if !latest.NextReviewAt.After(until) {
			due = append(due, schedule.DueCard{CardID: k.CardID, NextReviewAt: latest.NextReviewAt})
		}
	}
	return due, nil
}

func (m *Memory) ListByPair(_ context.Context, userID schedule.UserID, cardID schedule.CardID) ([]schedule.ReviewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := pair{UserID: userID, CardID: cardID}
	result := make([]schedule.ReviewRecord, len(m.byPair[k]))
	copy(result, m.byPair[k])
	return result, nil
}
