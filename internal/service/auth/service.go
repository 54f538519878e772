// Package auth implements registration, login and opaque bearer
// sessions. Passwords are stored as bcrypt hashes; session ids are
// random and carry no structure for clients to parse.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// DefaultSessionTTL is how long a session lives without a new login.
const DefaultSessionTTL = 30 * 24 * time.Hour

const sessionIDBytes = 32

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type userRepo interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionRepo interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// signupHook runs the relationship bootstrap after a successful
// registration: the AI tutor bond and pending invitation promotion.
type signupHook interface {
	EnsureAITutorBond(ctx context.Context, userID uuid.UUID) error
	ProcessPendingInvitationsOnSignUp(ctx context.Context, user *domain.User) int
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the auth business logic.
type Service struct {
	users    userRepo
	sessions sessionRepo
	signup   signupHook
	log      *slog.Logger

	sessionTTL time.Duration
	bcryptCost int

	now func() time.Time
}

// NewService creates a new auth service. A zero sessionTTL falls back
// to DefaultSessionTTL.
func NewService(log *slog.Logger, users userRepo, sessions sessionRepo, signup signupHook, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		signup:     signup,
		log:        log.With("service", "auth"),
		sessionTTL: sessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// newSessionID mints an opaque 256-bit token.
func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *Service) createSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}
