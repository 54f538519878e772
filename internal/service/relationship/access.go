package relationship

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// VerifyTutorAccess proves the calling user is the tutor side of an
// active relationship and returns the capability handle downstream code
// requires. The handle is the only way to obtain a student's id for
// reading, so skipping this check does not compile.
func (s *Service) VerifyTutorAccess(ctx context.Context, relationshipID uuid.UUID) (domain.TutorView, error) {
	rel, err := s.activeParticipant(ctx, relationshipID)
	if err != nil {
		return domain.TutorView{}, err
	}

	userID, _ := ctxutil.UserIDFromCtx(ctx)
	if rel.TutorID() != userID {
		return domain.TutorView{}, fmt.Errorf("caller is not the tutor: %w", domain.ErrForbidden)
	}

	return domain.TutorView{
		Relationship: rel,
		TutorID:      userID,
		StudentID:    rel.StudentID(),
	}, nil
}

// VerifyStudentAccess is the student-side counterpart of
// VerifyTutorAccess.
func (s *Service) VerifyStudentAccess(ctx context.Context, relationshipID uuid.UUID) (domain.StudentView, error) {
	rel, err := s.activeParticipant(ctx, relationshipID)
	if err != nil {
		return domain.StudentView{}, err
	}

	userID, _ := ctxutil.UserIDFromCtx(ctx)
	if rel.StudentID() != userID {
		return domain.StudentView{}, fmt.Errorf("caller is not the student: %w", domain.ErrForbidden)
	}

	return domain.StudentView{
		Relationship: rel,
		StudentID:    userID,
		TutorID:      rel.TutorID(),
	}, nil
}

func (s *Service) activeParticipant(ctx context.Context, relationshipID uuid.UUID) (*domain.Relationship, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if relationshipID == uuid.Nil {
		return nil, domain.NewValidationError("relationship_id", "required")
	}

	rel, err := s.relationships.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	if !rel.Participant(userID) {
		return nil, domain.ErrNotFound
	}
	if rel.Status != domain.RelationshipStatusActive {
		return nil, fmt.Errorf("relationship is %s: %w", rel.Status, domain.ErrForbidden)
	}
	return rel, nil
}
