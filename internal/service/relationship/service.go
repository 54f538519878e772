// Package relationship manages the tutor/student graph: requests between
// existing users, email invitations for users who have not signed up yet,
// and the access checks the progress view is built on.
package relationship

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// InvitationTTL is the default lifetime of an email invitation.
const InvitationTTL = 30 * 24 * time.Hour

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type relationshipRepo interface {
	Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error)
	// GetLiveByPair returns the single non-removed relationship for an
	// unordered pair, or ErrNotFound.
	GetLiveByPair(ctx context.Context, low, high uuid.UUID) (*domain.Relationship, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, at time.Time) (*domain.Relationship, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Relationship, error)
}

type invitationRepo interface {
	Create(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error)
	// GetPendingMatch finds a live pending invitation with the same
	// inviter, email and role, or ErrNotFound.
	GetPendingMatch(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole, now time.Time) (*domain.PendingInvitation, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error)
	ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]domain.PendingInvitation, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) (*domain.PendingInvitation, error)
	// MarkExpired stamps overdue pending invitations EXPIRED and
	// returns how many rows changed.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the relationship business logic.
type Service struct {
	relationships relationshipRepo
	invitations   invitationRepo
	users         userRepo
	tx            txManager
	log           *slog.Logger

	invitationTTL time.Duration

	now func() time.Time
}

// NewService creates a new relationship service. A zero invitationTTL
// falls back to InvitationTTL.
func NewService(
	log *slog.Logger,
	relationships relationshipRepo,
	invitations invitationRepo,
	users userRepo,
	tx txManager,
	invitationTTL time.Duration,
) *Service {
	if invitationTTL <= 0 {
		invitationTTL = InvitationTTL
	}
	return &Service{
		relationships: relationships,
		invitations:   invitations,
		users:         users,
		tx:            tx,
		log:           log.With("service", "relationship"),
		invitationTTL: invitationTTL,
		now:           time.Now,
	}
}
