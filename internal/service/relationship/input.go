package relationship

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// RequestInput holds the parameters for requesting a relationship.
// RecipientEmail is resolved against existing users first; unknown
// addresses get a pending invitation instead.
type RequestInput struct {
	RecipientEmail string
	Role           domain.RelationshipRole
}

// Validate checks all fields and collects all errors.
func (i *RequestInput) Validate() error {
	var errs []domain.FieldError

	email := strings.TrimSpace(i.RecipientEmail)
	if email == "" {
		errs = append(errs, domain.FieldError{Field: "recipient_email", Message: "required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, domain.FieldError{Field: "recipient_email", Message: "invalid email address"})
	}
	if !i.Role.IsValid() {
		errs = append(errs, domain.FieldError{Field: "role", Message: "must be TUTOR or STUDENT"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// AcceptInput holds the parameters for accepting a pending relationship.
type AcceptInput struct {
	RelationshipID uuid.UUID
}

// Validate checks all fields.
func (i *AcceptInput) Validate() error {
	if i.RelationshipID == uuid.Nil {
		return domain.NewValidationError("relationship_id", "required")
	}
	return nil
}

// RemoveInput holds the parameters for removing a relationship.
type RemoveInput struct {
	RelationshipID uuid.UUID
}

// Validate checks all fields.
func (i *RemoveInput) Validate() error {
	if i.RelationshipID == uuid.Nil {
		return domain.NewValidationError("relationship_id", "required")
	}
	return nil
}

// CancelInvitationInput holds the parameters for cancelling an invitation.
type CancelInvitationInput struct {
	InvitationID uuid.UUID
}

// Validate checks all fields.
func (i *CancelInvitationInput) Validate() error {
	if i.InvitationID == uuid.Nil {
		return domain.NewValidationError("invitation_id", "required")
	}
	return nil
}
