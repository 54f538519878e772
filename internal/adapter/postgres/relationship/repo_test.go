package relationship_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/relationship"
	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

func newRepo(t *testing.T) (*relationship.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return relationship.New(pool), pool
}

func pending(requesterID, recipientID uuid.UUID) *domain.Relationship {
	return &domain.Relationship{
		RequesterID:   requesterID,
		RecipientID:   recipientID,
		RequesterRole: domain.RoleTutor,
		Status:        domain.RelationshipStatusPending,
	}
}

func TestRepo_Create_AndGetByID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tutor := testhelper.SeedUser(t, pool)
	student := testhelper.SeedUser(t, pool)

	created, err := repo.Create(ctx, pending(tutor.ID, student.ID))
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Create must mint an id")
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.RequesterID != tutor.ID || got.RecipientID != student.ID {
		t.Error("participants mismatch")
	}
	if got.Status != domain.RelationshipStatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
}

func TestRepo_Create_LivePairUnique(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tutor := testhelper.SeedUser(t, pool)
	student := testhelper.SeedUser(t, pool)

	if _, err := repo.Create(ctx, pending(tutor.ID, student.ID)); err != nil {
		t.Fatalf("Create[1]: %v", err)
	}

	// Same pair from the other direction still collides.
	_, err := repo.Create(ctx, pending(student.ID, tutor.ID))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRepo_Create_AfterRemoval(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tutor := testhelper.SeedUser(t, pool)
	student := testhelper.SeedUser(t, pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := repo.Create(ctx, pending(tutor.ID, student.ID))
	if err != nil {
		t.Fatalf("Create[1]: %v", err)
	}
	if _, err := repo.SetStatus(ctx, first.ID, domain.RelationshipStatusRemoved, now); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// A removed pair can be bonded again under a fresh id.
	second, err := repo.Create(ctx, pending(student.ID, tutor.ID))
	if err != nil {
		t.Fatalf("Create[2]: unexpected error: %v", err)
	}
	if second.ID == first.ID {
		t.Error("rebond must mint a fresh id")
	}
}

func TestRepo_GetLiveByPair(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tutor := testhelper.SeedUser(t, pool)
	student := testhelper.SeedUser(t, pool)

	created, err := repo.Create(ctx, pending(tutor.ID, student.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	low, high := domain.PairKey(student.ID, tutor.ID)
	got, err := repo.GetLiveByPair(ctx, low, high)
	if err != nil {
		t.Fatalf("GetLiveByPair: unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Error("wrong relationship resolved for pair")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := repo.SetStatus(ctx, created.ID, domain.RelationshipStatusRemoved, now); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	_, err = repo.GetLiveByPair(ctx, low, high)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after removal", err)
	}
}

func TestRepo_SetStatus_Timestamps(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	tutor := testhelper.SeedUser(t, pool)
	student := testhelper.SeedUser(t, pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := repo.Create(ctx, pending(tutor.ID, student.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := repo.SetStatus(ctx, created.ID, domain.RelationshipStatusActive, now)
	if err != nil {
		t.Fatalf("SetStatus(ACTIVE): %v", err)
	}
	if active.AcceptedAt == nil || !active.AcceptedAt.Equal(now) {
		t.Error("ACTIVE must stamp accepted_at")
	}
	if active.RemovedAt != nil {
		t.Error("ACTIVE must not stamp removed_at")
	}

	later := now.Add(time.Hour)
	removed, err := repo.SetStatus(ctx, created.ID, domain.RelationshipStatusRemoved, later)
	if err != nil {
		t.Fatalf("SetStatus(REMOVED): %v", err)
	}
	if removed.RemovedAt == nil || !removed.RemovedAt.Equal(later) {
		t.Error("REMOVED must stamp removed_at")
	}
	if removed.AcceptedAt == nil || !removed.AcceptedAt.Equal(now) {
		t.Error("removal must keep accepted_at")
	}
}

func TestRepo_ListByUser(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool)
	a := testhelper.SeedUser(t, pool)
	b := testhelper.SeedUser(t, pool)

	if _, err := repo.Create(ctx, pending(user.ID, a.ID)); err != nil {
		t.Fatalf("Create[1]: %v", err)
	}
	if _, err := repo.Create(ctx, pending(b.ID, user.ID)); err != nil {
		t.Fatalf("Create[2]: %v", err)
	}
	// Not the user's relationship.
	if _, err := repo.Create(ctx, pending(a.ID, b.ID)); err != nil {
		t.Fatalf("Create[3]: %v", err)
	}

	rels, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: unexpected error: %v", err)
	}
	if len(rels) != 2 {
		t.Errorf("got %d relationships, want 2", len(rels))
	}
	for _, rel := range rels {
		if !rel.Participant(user.ID) {
			t.Errorf("relationship %s does not involve the user", rel.ID)
		}
	}
}
