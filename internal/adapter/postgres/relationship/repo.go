// Package relationship implements the tutor-student relationship
// repository using PostgreSQL. A partial unique index on the unordered
// pair enforces at most one non-removed relationship per pair.
package relationship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides relationship persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new relationship repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const relColumns = `id, requester_id, recipient_id, requester_role, status, created_at, accepted_at, removed_at`

const createSQL = `
INSERT INTO relationships (id, requester_id, recipient_id, requester_role, status,
	user_id_low, user_id_high, created_at, accepted_at, removed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + relColumns

const getByIDSQL = `
SELECT ` + relColumns + `
FROM relationships WHERE id = $1`

const getLiveByPairSQL = `
SELECT ` + relColumns + `
FROM relationships
WHERE user_id_low = $1 AND user_id_high = $2 AND status != 'REMOVED'`

const setStatusSQL = `
UPDATE relationships SET
	status = $2,
	accepted_at = CASE WHEN $2 = 'ACTIVE' THEN $3 ELSE accepted_at END,
	removed_at = CASE WHEN $2 = 'REMOVED' THEN $3 ELSE removed_at END
WHERE id = $1
RETURNING ` + relColumns

const listByUserSQL = `
SELECT ` + relColumns + `
FROM relationships
WHERE requester_id = $1 OR recipient_id = $1
ORDER BY created_at, id`

// Create inserts a relationship. The unordered pair key is derived
// here; a second live relationship for the same pair results in
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, rel *domain.Relationship) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := rel.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := rel.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	low, high := domain.PairKey(rel.RequesterID, rel.RecipientID)

	row := querier.QueryRow(ctx, createSQL,
		id, rel.RequesterID, rel.RecipientID, rel.RequesterRole.String(),
		rel.Status.String(), low, high, createdAt, rel.AcceptedAt, rel.RemovedAt)

	created, err := scanRelationship(row)
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return created, nil
}

// GetByID returns a relationship by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return rel, nil
}

// GetLiveByPair returns the single non-removed relationship for an
// unordered pair, or domain.ErrNotFound.
func (r *Repo) GetLiveByPair(ctx context.Context, low, high uuid.UUID) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, getLiveByPairSQL, low, high))
	if err != nil {
		return nil, mapError(err, "relationship", uuid.Nil)
	}
	return rel, nil
}

// SetStatus transitions a relationship, stamping accepted_at or
// removed_at as the status requires.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.RelationshipStatus, at time.Time) (*domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rel, err := scanRelationship(querier.QueryRow(ctx, setStatusSQL, id, status.String(), at))
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return rel, nil
}

// ListByUser returns every relationship the user participates in,
// oldest first, regardless of status.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Relationship, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []domain.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}

	if rels == nil {
		rels = []domain.Relationship{}
	}
	return rels, nil
}

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	var rel domain.Relationship
	var role, status string
	if err := row.Scan(&rel.ID, &rel.RequesterID, &rel.RecipientID, &role,
		&status, &rel.CreatedAt, &rel.AcceptedAt, &rel.RemovedAt); err != nil {
		return nil, err
	}
	rel.RequesterRole = domain.RelationshipRole(role)
	rel.Status = domain.RelationshipStatus(status)
	return &rel, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
