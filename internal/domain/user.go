package domain

import (
	"time"

	"github.com/google/uuid"
)

// AITutorUserID is the reserved synthetic user every learner is bonded to
// on sign-up. The row is seeded by migration and never deleted.
var AITutorUserID = uuid.MustParse("00000000-0000-0000-0000-00000000a117")

// User is a registered account. Users are created on first sign-in and
// never deleted because review events reference them.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	// RoleTag is advisory only; the effective role is derived per
	// relationship from the requester's declared role.
	RoleTag   RelationshipRole
	CreatedAt time.Time
}

// Session is an opaque bearer credential with an expiry. The ID itself is
// the secret; there is no signing.
type Session struct {
	ID        string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
