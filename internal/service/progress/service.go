// Package progress builds the tutor-facing view of a student's study
// state. Every read is gated by the relationship capability handle; the
// student id never comes from the request.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/study"
)

// RecentWindow is the lookback for the recent-activity counter.
const RecentWindow = 7 * 24 * time.Hour

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type accessVerifier interface {
	VerifyTutorAccess(ctx context.Context, relationshipID uuid.UUID) (domain.TutorView, error)
}

type studyReader interface {
	DeckCountsFor(ctx context.Context, view domain.TutorView, deckID uuid.UUID) (study.QueueCounts, error)
}

type deckRepo interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Deck, error)
}

type eventRepo interface {
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the progress view.
type Service struct {
	access accessVerifier
	study  studyReader
	decks  deckRepo
	events eventRepo
	users  userRepo
	log    *slog.Logger

	now func() time.Time
}

// NewService creates a new progress service.
func NewService(log *slog.Logger, access accessVerifier, studyReader studyReader, decks deckRepo, events eventRepo, users userRepo) *Service {
	return &Service{
		access: access,
		study:  studyReader,
		decks:  decks,
		events: events,
		users:  users,
		log:    log.With("service", "progress"),
		now:    time.Now,
	}
}

// DeckSummary is one deck's queue snapshot for the student.
type DeckSummary struct {
	DeckID uuid.UUID
	Name   string
	Counts study.QueueCounts
}

// Output is the per-student progress view.
type Output struct {
	StudentID        uuid.UUID
	StudentName      string
	Decks            []DeckSummary
	ReviewsLast7Days int
}

// ForRelationship returns the student's progress for the tutor side of
// an active relationship.
func (s *Service) ForRelationship(ctx context.Context, relationshipID uuid.UUID) (*Output, error) {
	view, err := s.access.VerifyTutorAccess(ctx, relationshipID)
	if err != nil {
		return nil, err
	}

	student, err := s.users.GetByID(ctx, view.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	decks, err := s.decks.List(ctx, view.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list student decks: %w", err)
	}

	out := &Output{
		StudentID:   view.StudentID,
		StudentName: student.Name,
	}
	for _, deck := range decks {
		counts, err := s.study.DeckCountsFor(ctx, view, deck.ID)
		if err != nil {
			return nil, fmt.Errorf("counts for deck %s: %w", deck.ID, err)
		}
		out.Decks = append(out.Decks, DeckSummary{
			DeckID: deck.ID,
			Name:   deck.Name,
			Counts: counts,
		})
	}

	recent, err := s.events.CountSince(ctx, view.StudentID, s.now().Add(-RecentWindow))
	if err != nil {
		return nil, fmt.Errorf("count recent reviews: %w", err)
	}
	out.ReviewsLast7Days = recent

	return out, nil
}
