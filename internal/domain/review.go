package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEvent is one graded review. Events are the source of truth for
// scheduling: immutable once accepted, identified by a client-chosen id
// so that retried uploads are idempotent.
type ReviewEvent struct {
	ID          uuid.UUID
	CardID      uuid.UUID
	UserID      uuid.UUID
	Rating      Rating
	ReviewedAt  time.Time
	TimeSpentMs *int
	UserAnswer  *string
	// RecordingKey is an opaque blob key ("recordings/<event-id>.webm").
	RecordingKey *string
}

// ComputedCardState is the derived snapshot of a card's learning state.
// It is a deterministic function of the card's ordered event stream under
// a fixed algorithm version and is never authoritative.
type ComputedCardState struct {
	CardID        uuid.UUID
	Queue         Queue
	Step          int
	Stability     float64
	Difficulty    float64
	ScheduledDays int
	Reps          int
	Lapses        int
	LastReviewed  *time.Time
	// Due is the next due instant: sub-day for LEARNING/RELEARNING,
	// day-granular for REVIEW. NEW cards are always due.
	Due time.Time
}

// IsDue reports whether the card needs review at the given time.
// NEW cards are always due.
func (s *ComputedCardState) IsDue(now time.Time) bool {
	if s.Queue == QueueNew {
		return true
	}
	return !s.Due.After(now)
}

// CachedCardState is a projection row: a ComputedCardState plus the
// bookkeeping that lets a reader decide whether the cache is current.
type CachedCardState struct {
	ComputedCardState
	EventCount  int
	LastEventAt time.Time
	AlgoVersion string
	UpdatedAt   time.Time
}

// EventStats is the per-card aggregate used to validate a projection row
// without replaying the stream.
type EventStats struct {
	Count       int
	LastEventAt time.Time
}

// DailyCount tracks how many NEW cards were introduced for a (user, deck)
// on a UTC calendar day. It may over-report by one under a crash between
// the event append and the increment; it never under-reports.
type DailyCount struct {
	UserID uuid.UUID
	DeckID uuid.UUID
	Day    time.Time
	Count  int
}

// SyncMetadata records, per user, the newest event timestamp the server
// has observed. Monotone non-decreasing.
type SyncMetadata struct {
	UserID      uuid.UUID
	LastEventAt time.Time
	UpdatedAt   time.Time
}

// DayStartUTC returns the start of the UTC calendar day containing t.
// The day boundary is fixed UTC; per-user timezones are out of scope.
func DayStartUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEndUTC returns the end (exclusive) of the UTC calendar day containing t.
func DayEndUTC(t time.Time) time.Time {
	return DayStartUTC(t).Add(24 * time.Hour)
}
