package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// ProcessPendingInvitationsOnSignUp promotes every live invitation
// addressed to the new user's email into an active relationship. Each
// invitation is handled in its own transaction: one bad invitation is
// logged and skipped, the rest still promote. Returns the number of
// relationships created.
func (s *Service) ProcessPendingInvitationsOnSignUp(ctx context.Context, user *domain.User) int {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	now := s.now()

	invitations, err := s.invitations.ListPendingByEmail(ctx, email, now)
	if err != nil {
		s.log.ErrorContext(ctx, "list invitations on signup failed",
			"user_id", user.ID.String(), "error", err)
		return 0
	}

	promoted := 0
	for _, inv := range invitations {
		inv := inv
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			return s.promote(txCtx, &inv, user.ID)
		})
		if err != nil {
			s.log.ErrorContext(ctx, "invitation promotion failed",
				"invitation_id", inv.ID.String(), "error", err)
			continue
		}
		promoted++
	}

	if promoted > 0 {
		s.log.InfoContext(ctx, "invitations promoted on signup",
			"user_id", user.ID.String(), "count", promoted)
	}
	return promoted
}

func (s *Service) promote(ctx context.Context, inv *domain.PendingInvitation, userID uuid.UUID) error {
	now := s.now()

	if _, err := s.relationships.Create(ctx, &domain.Relationship{
		RequesterID:   inv.InviterID,
		RecipientID:   userID,
		RequesterRole: inv.InviterRole,
		Status:        domain.RelationshipStatusActive,
		AcceptedAt:    &now,
	}); err != nil {
		return fmt.Errorf("create relationship: %w", err)
	}
	if _, err := s.invitations.SetStatus(ctx, inv.ID, domain.InvitationStatusAccepted); err != nil {
		return fmt.Errorf("mark invitation accepted: %w", err)
	}
	return nil
}

// EnsureAITutorBond creates the reserved AI tutor's active relationship
// with the user. Called on every signup; an existing bond makes it a
// no-op.
func (s *Service) EnsureAITutorBond(ctx context.Context, userID uuid.UUID) error {
	if userID == domain.AITutorUserID {
		return nil
	}

	now := s.now()
	_, err := s.relationships.Create(ctx, &domain.Relationship{
		RequesterID:   domain.AITutorUserID,
		RecipientID:   userID,
		RequesterRole: domain.RoleTutor,
		Status:        domain.RelationshipStatusActive,
		AcceptedAt:    &now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create ai tutor bond: %w", err)
	}
	return nil
}
