package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/adapter/postgres/testhelper"
)

func TestTxManager_CommitAndRollback(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool)

	insertDeck := func(ctx context.Context, id uuid.UUID) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		_, err := q.Exec(ctx, `
			INSERT INTO decks (id, owner_id, name, description, weights, request_retention, new_cards_per_day, created_at, updated_at)
			VALUES ($1, $2, 'tx test', '', NULL, 0, 0, now(), now())`, id, owner.ID)
		return err
	}
	deckExists := func(id uuid.UUID) bool {
		var n int
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM decks WHERE id = $1`, id).Scan(&n); err != nil {
			t.Fatalf("count decks: %v", err)
		}
		return n == 1
	}

	committed := uuid.New()
	if err := tm.RunInTx(ctx, func(ctx context.Context) error {
		return insertDeck(ctx, committed)
	}); err != nil {
		t.Fatalf("RunInTx commit: unexpected error: %v", err)
	}
	if !deckExists(committed) {
		t.Error("committed insert must be visible")
	}

	rolledBack := uuid.New()
	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := insertDeck(ctx, rolledBack); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx must return the callback error, got %v", err)
	}
	if deckExists(rolledBack) {
		t.Error("rolled-back insert must not be visible")
	}
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool)
	deckID := uuid.New()

	boom := errors.New("inner failure")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		_, err := q.Exec(ctx, `
			INSERT INTO decks (id, owner_id, name, description, weights, request_retention, new_cards_per_day, created_at, updated_at)
			VALUES ($1, $2, 'nested', '', NULL, 0, 0, now(), now())`, deckID, owner.ID)
		if err != nil {
			return err
		}
		// The nested call must join the outer transaction, so its error
		// rolls everything back.
		return tm.RunInTx(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want inner failure", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM decks WHERE id = $1`, deckID).Scan(&n); err != nil {
		t.Fatalf("count decks: %v", err)
	}
	if n != 0 {
		t.Error("outer transaction must roll back with the inner error")
	}
}
