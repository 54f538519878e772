package relationship

import (
	"context"
	"fmt"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// ListOutput is the user's relationship graph from their own point of
// view. Pending invitations read back with expiry already folded in.
type ListOutput struct {
	Tutors             []domain.Relationship
	Students           []domain.Relationship
	PendingIncoming    []domain.Relationship
	PendingOutgoing    []domain.Relationship
	PendingInvitations []domain.PendingInvitation
}

// List returns the categorised relationship view for the calling user.
func (s *Service) List(ctx context.Context) (*ListOutput, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	rels, err := s.relationships.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}

	out := &ListOutput{}
	for _, rel := range rels {
		switch rel.Status {
		case domain.RelationshipStatusActive:
			if rel.TutorID() == userID {
				out.Students = append(out.Students, rel)
			} else {
				out.Tutors = append(out.Tutors, rel)
			}
		case domain.RelationshipStatusPending:
			if rel.RecipientID == userID {
				out.PendingIncoming = append(out.PendingIncoming, rel)
			} else {
				out.PendingOutgoing = append(out.PendingOutgoing, rel)
			}
		}
	}

	invitations, err := s.invitations.ListByInviter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	now := s.now()
	for _, inv := range invitations {
		inv.Status = inv.EffectiveStatus(now)
		out.PendingInvitations = append(out.PendingInvitations, inv)
	}

	return out, nil
}
