package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// RequestOutput is the result of a relationship request: exactly one of
// the two fields is set, depending on whether the address resolved to an
// existing user.
type RequestOutput struct {
	Relationship *domain.Relationship
	Invitation   *domain.PendingInvitation
}

// Request starts a relationship with another user. If the email belongs
// to a registered user a PENDING relationship is created for them to
// accept; otherwise a pending invitation is stored and promoted when
// they sign up. Repeating an identical invitation request returns the
// existing one instead of erroring.
func (s *Service) Request(ctx context.Context, input RequestInput) (*RequestOutput, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.RecipientEmail))

	recipient, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		rel, err := s.requestUser(ctx, userID, recipient, input.Role)
		if err != nil {
			return nil, err
		}
		return &RequestOutput{Relationship: rel}, nil
	case errors.Is(err, domain.ErrNotFound):
		inv, err := s.requestInvitation(ctx, userID, email, input.Role)
		if err != nil {
			return nil, err
		}

		// The recipient may have signed up between the email lookup and
		// the invitation write; signup promotion cannot have seen the
		// invitation, so it would stay pending forever. Re-resolve and
		// take the user path instead.
		recipient, rerr := s.users.GetByEmail(ctx, email)
		switch {
		case rerr == nil:
			if _, err := s.invitations.SetStatus(ctx, inv.ID, domain.InvitationStatusCancelled); err != nil {
				return nil, fmt.Errorf("withdraw invitation: %w", err)
			}
			rel, err := s.requestUser(ctx, userID, recipient, input.Role)
			if err != nil {
				return nil, err
			}
			return &RequestOutput{Relationship: rel}, nil
		case errors.Is(rerr, domain.ErrNotFound):
			return &RequestOutput{Invitation: inv}, nil
		default:
			return nil, fmt.Errorf("resolve recipient: %w", rerr)
		}
	default:
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
}

func (s *Service) requestUser(ctx context.Context, userID uuid.UUID, recipient *domain.User, role domain.RelationshipRole) (*domain.Relationship, error) {
	if recipient.ID == userID {
		return nil, domain.NewValidationError("recipient_email", "cannot request a relationship with yourself")
	}

	low, high := domain.PairKey(userID, recipient.ID)
	if existing, err := s.relationships.GetLiveByPair(ctx, low, high); err == nil {
		return nil, fmt.Errorf("relationship %s exists with status %s: %w",
			existing.ID, existing.Status, domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing pair: %w", err)
	}

	rel, err := s.relationships.Create(ctx, &domain.Relationship{
		RequesterID:   userID,
		RecipientID:   recipient.ID,
		RequesterRole: role,
		Status:        domain.RelationshipStatusPending,
	})
	if err != nil {
		// The partial unique index closes the check-then-create race.
		return nil, fmt.Errorf("create relationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship requested",
		"relationship_id", rel.ID.String(), "role", role.String())
	return rel, nil
}

func (s *Service) requestInvitation(ctx context.Context, userID uuid.UUID, email string, role domain.RelationshipRole) (*domain.PendingInvitation, error) {
	now := s.now()

	if existing, err := s.invitations.GetPendingMatch(ctx, userID, email, role, now); err == nil {
		// Identical request, identical answer.
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing invitation: %w", err)
	}

	inv, err := s.invitations.Create(ctx, &domain.PendingInvitation{
		InviterID:      userID,
		RecipientEmail: email,
		InviterRole:    role,
		Status:         domain.InvitationStatusPending,
		ExpiresAt:      now.Add(s.invitationTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.log.InfoContext(ctx, "invitation created", "invitation_id", inv.ID.String())
	return inv, nil
}

// Accept activates a pending relationship. Only the recipient may
// accept, and only while the request is still pending.
func (s *Service) Accept(ctx context.Context, input AcceptInput) (*domain.Relationship, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	rel, err := s.relationships.GetByID(ctx, input.RelationshipID)
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	if !rel.Participant(userID) {
		return nil, domain.ErrNotFound
	}
	if rel.RecipientID != userID {
		return nil, fmt.Errorf("only the recipient can accept: %w", domain.ErrForbidden)
	}
	if rel.Status != domain.RelationshipStatusPending {
		return nil, fmt.Errorf("relationship is %s: %w", rel.Status, domain.ErrConflict)
	}

	updated, err := s.relationships.SetStatus(ctx, rel.ID, domain.RelationshipStatusActive, s.now())
	if err != nil {
		return nil, fmt.Errorf("activate relationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship accepted", "relationship_id", rel.ID.String())
	return updated, nil
}

// Remove ends a relationship. Either participant may remove it in any
// status; removing an already-removed relationship is a no-op.
func (s *Service) Remove(ctx context.Context, input RemoveInput) (*domain.Relationship, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	rel, err := s.relationships.GetByID(ctx, input.RelationshipID)
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	if !rel.Participant(userID) {
		// Hide existence from outsiders.
		return nil, domain.ErrNotFound
	}
	if rel.Status == domain.RelationshipStatusRemoved {
		return rel, nil
	}

	updated, err := s.relationships.SetStatus(ctx, rel.ID, domain.RelationshipStatusRemoved, s.now())
	if err != nil {
		return nil, fmt.Errorf("remove relationship: %w", err)
	}

	s.log.InfoContext(ctx, "relationship removed", "relationship_id", rel.ID.String())
	return updated, nil
}

// CancelInvitation withdraws a pending invitation. Inviter only.
func (s *Service) CancelInvitation(ctx context.Context, input CancelInvitationInput) (*domain.PendingInvitation, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.invitations.GetByID(ctx, input.InvitationID)
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.InviterID != userID {
		return nil, domain.ErrNotFound
	}
	if inv.EffectiveStatus(s.now()) != domain.InvitationStatusPending {
		return nil, fmt.Errorf("invitation is %s: %w", inv.EffectiveStatus(s.now()), domain.ErrConflict)
	}

	updated, err := s.invitations.SetStatus(ctx, inv.ID, domain.InvitationStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel invitation: %w", err)
	}

	s.log.InfoContext(ctx, "invitation cancelled", "invitation_id", inv.ID.String())
	return updated, nil
}
