/*
policy.go - Interval-growth policy

PURPOSE:
  Maps (rating, previous interval) to the next review interval. This is the
  only place scheduling math lives. Pure function: no clock, no randomness,
  no I/O - the same inputs always produce the same output.

POLICY:
  NO_RECALL    -> RetryIntervalSeconds (60s), regardless of previous interval
  RECALL       -> max(1 day,  prev * 1.5)
  EASY_RECALL  -> max(4 days, prev * 2.5)
  Result is clamped to MaxIntervalSeconds (365 days).

  The first submission for a pair has no previous interval; callers pass 0
  and the per-rating floor applies.

NUMERIC SEMANTICS:
  Growth multiplication uses decimal arithmetic truncated to whole seconds
  BEFORE the floor comparison. Float multiplication would give different
  results across platforms for large intervals; decimal keeps every
  implementation of this policy bit-identical.

KNOWN CONTRADICTION:
  The product wording says intervals "never shrink", but NO_RECALL resets an
  arbitrarily large interval straight back to 60 seconds. That reset is the
  documented formula and is kept as-is; the monotonic property only holds
  across successive successful reviews.
*/
package schedule

import "github.com/shopspring/decimal"

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// RetryIntervalSeconds is the fixed interval after a failed recall.
	RetryIntervalSeconds int64 = 60

	// RecallFloorSeconds is the minimum interval after a successful recall (1 day).
	RecallFloorSeconds int64 = 86400

	// EasyRecallFloorSeconds is the minimum interval after an easy recall (4 days).
	EasyRecallFloorSeconds int64 = 345600

	// MinIntervalSeconds is the lower bound on any persisted interval.
	MinIntervalSeconds int64 = 60

	// MaxIntervalSeconds is the upper bound on any persisted interval (365 days).
	MaxIntervalSeconds int64 = 31536000
)

var (
	recallGrowth     = decimal.NewFromFloat(1.5)
	easyRecallGrowth = decimal.NewFromFloat(2.5)
)

// =============================================================================
// INTERVAL POLICY
// =============================================================================

// NextInterval computes the next review interval in seconds.
//
// previousIntervalSeconds is the interval of the pair's current schedule, or
// 0 when no prior record exists. The rating must be valid; callers validate
// before invoking the policy.
func NextInterval(rating Rating, previousIntervalSeconds int64) int64 {
	switch rating {
	case RatingNoRecall:
		return RetryIntervalSeconds
	case RatingRecall:
		return clamp(grown(previousIntervalSeconds, recallGrowth), RecallFloorSeconds)
	case RatingEasyRecall:
		return clamp(grown(previousIntervalSeconds, easyRecallGrowth), EasyRecallFloorSeconds)
	default:
		// Unreachable for validated input.
		return RetryIntervalSeconds
	}
}

// grown multiplies the previous interval by the growth factor, truncated to
// whole seconds.
func grown(previousSeconds int64, factor decimal.Decimal) int64 {
	return decimal.NewFromInt(previousSeconds).Mul(factor).IntPart()
}

// clamp applies the per-rating floor, then the global cap.
func clamp(seconds, floor int64) int64 {
	if seconds < floor {
		seconds = floor
	}
	if seconds > MaxIntervalSeconds {
		seconds = MaxIntervalSeconds
	}
	return seconds
}
