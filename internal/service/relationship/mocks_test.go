package relationship

// Hand-rolled mocks in the moq style, plus a tiny in-memory fake for the
// scenario tests that need real state transitions.

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeStore backs all three repos with maps so multi-step scenarios
// (request, accept, remove, promote) behave like the real thing.
type fakeStore struct {
	users         map[uuid.UUID]*domain.User
	relationships map[uuid.UUID]*domain.Relationship
	invitations   map[uuid.UUID]*domain.PendingInvitation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[uuid.UUID]*domain.User{},
		relationships: map[uuid.UUID]*domain.Relationship{},
		invitations:   map[uuid.UUID]*domain.PendingInvitation{},
	}
}

func (f *fakeStore) addUser(email string) *domain.User {
	u := &domain.User{ID: uuid.New(), Email: strings.ToLower(email)}
	f.users[u.ID] = u
	return u
}

// --- userRepo ---

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// racingUserRepo misses the first GetByEmail lookups, simulating a
// recipient who registers while the request is in flight.
type racingUserRepo struct {
	*fakeStore
	misses int
}

func (r *racingUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.misses > 0 {
		r.misses--
		return nil, domain.ErrNotFound
	}
	return r.fakeStore.GetByEmail(ctx, email)
}

// --- relationshipRepo ---

type fakeRelationshipRepo struct{ store *fakeStore }

func (f *fakeRelationshipRepo) Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	low, high := domain.PairKey(rel.RequesterID, rel.RecipientID)
	for _, r := range f.store.relationships {
		l, h := domain.PairKey(r.RequesterID, r.RecipientID)
		if l == low && h == high && r.Status != domain.RelationshipStatusRemoved {
			return nil, domain.ErrAlreadyExists
		}
	}
	cp := *rel
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	f.store.relationships[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeRelationshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	if r, ok := f.store.relationships[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRelationshipRepo) GetLiveByPair(ctx context.Context, low, high uuid.UUID) (*domain.Relationship, error) {
	for _, r := range f.store.relationships {
		l, h := domain.PairKey(r.RequesterID, r.RecipientID)
		if l == low && h == high && r.Status != domain.RelationshipStatusRemoved {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRelationshipRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, at time.Time) (*domain.Relationship, error) {
	r, ok := f.store.relationships[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Status = status
	switch status {
	case domain.RelationshipStatusActive:
		r.AcceptedAt = &at
	case domain.RelationshipStatusRemoved:
		r.RemovedAt = &at
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRelationshipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Relationship, error) {
	var out []domain.Relationship
	for _, r := range f.store.relationships {
		if r.Participant(userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// --- invitationRepo ---

type fakeInvitationRepo struct{ store *fakeStore }

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error) {
	cp := *inv
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	f.store.invitations[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error) {
	if inv, ok := f.store.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) GetPendingMatch(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole, now time.Time) (*domain.PendingInvitation, error) {
	for _, inv := range f.store.invitations {
		if inv.InviterID == inviterID && inv.RecipientEmail == email &&
			inv.InviterRole == role && inv.EffectiveStatus(now) == domain.InvitationStatusPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error) {
	var out []domain.PendingInvitation
	for _, inv := range f.store.invitations {
		if inv.RecipientEmail == email && inv.EffectiveStatus(now) == domain.InvitationStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]domain.PendingInvitation, error) {
	var out []domain.PendingInvitation
	for _, inv := range f.store.invitations {
		if inv.InviterID == inviterID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) (*domain.PendingInvitation, error) {
	inv, ok := f.store.invitations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	inv.Status = status
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range f.store.invitations {
		if inv.Status == domain.InvitationStatusPending && !inv.ExpiresAt.After(now) {
			inv.Status = domain.InvitationStatusExpired
			n++
		}
	}
	return n, nil
}
