package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Relationship is a symmetric two-user association. The requester's
// declared role is stored once; the complementary perspective is derived.
type Relationship struct {
	ID            uuid.UUID
	RequesterID   uuid.UUID
	RecipientID   uuid.UUID
	RequesterRole RelationshipRole
	Status        RelationshipStatus
	CreatedAt     time.Time
	AcceptedAt    *time.Time
	RemovedAt     *time.Time
}

// Participant reports whether the user is one of the two parties.
func (r *Relationship) Participant(userID uuid.UUID) bool {
	return r.RequesterID == userID || r.RecipientID == userID
}

// Other returns the counterpart of the given participant.
func (r *Relationship) Other(userID uuid.UUID) uuid.UUID {
	if r.RequesterID == userID {
		return r.RecipientID
	}
	return r.RequesterID
}

// RoleOf derives the role of a participant from the requester's declared
// role. Calling it for a non-participant is a programming error; it
// returns the student role in that case.
func (r *Relationship) RoleOf(userID uuid.UUID) RelationshipRole {
	if userID == r.RequesterID {
		return r.RequesterRole
	}
	return r.RequesterRole.Opposite()
}

// TutorID returns the id of the tutor side.
func (r *Relationship) TutorID() uuid.UUID {
	if r.RequesterRole == RoleTutor {
		return r.RequesterID
	}
	return r.RecipientID
}

// StudentID returns the id of the student side.
func (r *Relationship) StudentID() uuid.UUID {
	if r.RequesterRole == RoleStudent {
		return r.RequesterID
	}
	return r.RecipientID
}

// PairKey returns the unordered pair as (low, high) by lexicographic id
// order. The storage layer enforces at most one non-removed relationship
// per key.
func PairKey(a, b uuid.UUID) (low, high uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

// TutorView is a capability handle proving the holder is the tutor side
// of an active relationship. Downstream functions take the handle so a
// missing access check is a compile error, not a runtime bug.
type TutorView struct {
	Relationship *Relationship
	TutorID      uuid.UUID
	StudentID    uuid.UUID
}

// StudentView is the student-side capability handle.
type StudentView struct {
	Relationship *Relationship
	StudentID    uuid.UUID
	TutorID      uuid.UUID
}

// PendingInvitation is a relationship request addressed to an email that
// does not resolve to a user yet. It promotes to an active relationship
// the moment the recipient signs up.
type PendingInvitation struct {
	ID             uuid.UUID
	InviterID      uuid.UUID
	RecipientEmail string
	InviterRole    RelationshipRole
	Status         InvitationStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// EffectiveStatus folds read-time expiry into the stored status.
func (i *PendingInvitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationStatusPending && !i.ExpiresAt.After(now) {
		return InvitationStatusExpired
	}
	return i.Status
}
