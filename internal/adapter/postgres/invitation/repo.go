// Package invitation implements the pending invitation repository
// using PostgreSQL.
package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/lingocards-backend/internal/adapter/postgres"
	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// Repo provides pending invitation persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new invitation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const invColumns = `id, inviter_id, recipient_email, inviter_role, status, expires_at, created_at`

const createSQL = `
INSERT INTO pending_invitations (id, inviter_id, recipient_email, inviter_role, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + invColumns

const getByIDSQL = `
SELECT ` + invColumns + `
FROM pending_invitations WHERE id = $1`

const getPendingMatchSQL = `
SELECT ` + invColumns + `
FROM pending_invitations
WHERE inviter_id = $1 AND recipient_email = $2 AND inviter_role = $3
  AND status = 'PENDING' AND expires_at > $4
ORDER BY created_at
LIMIT 1`

const listPendingByEmailSQL = `
SELECT ` + invColumns + `
FROM pending_invitations
WHERE recipient_email = $1 AND status = 'PENDING' AND expires_at > $2
ORDER BY created_at, id`

const listByInviterSQL = `
SELECT ` + invColumns + `
FROM pending_invitations
WHERE inviter_id = $1
ORDER BY created_at, id`

const setStatusSQL = `
UPDATE pending_invitations SET status = $2 WHERE id = $1
RETURNING ` + invColumns

const markExpiredSQL = `
UPDATE pending_invitations SET status = 'EXPIRED'
WHERE status = 'PENDING' AND expires_at <= $1`

// Create inserts a pending invitation.
func (r *Repo) Create(ctx context.Context, inv *domain.PendingInvitation) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	id := inv.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	row := querier.QueryRow(ctx, createSQL,
		id, inv.InviterID, inv.RecipientEmail, inv.InviterRole.String(),
		inv.Status.String(), inv.ExpiresAt, createdAt)

	created, err := scanInvitation(row)
	if err != nil {
		return nil, fmt.Errorf("create invitation %s: %w", id, err)
	}
	return created, nil
}

// GetByID returns an invitation by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	inv, err := scanInvitation(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// GetPendingMatch finds a live pending invitation with the same
// inviter, email and role, or domain.ErrNotFound. Repeated requests
// return the existing invitation instead of stacking duplicates.
func (r *Repo) GetPendingMatch(ctx context.Context, inviterID uuid.UUID, email string, role domain.RelationshipRole, now time.Time) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	inv, err := scanInvitation(querier.QueryRow(ctx, getPendingMatchSQL,
		inviterID, email, role.String(), now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("match invitation: %w", err)
	}
	return inv, nil
}

// ListPendingByEmail returns the live pending invitations addressed to
// an email, oldest first.
func (r *Repo) ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listPendingByEmailSQL, email, now)
	if err != nil {
		return nil, fmt.Errorf("list invitations by email: %w", err)
	}
	defer rows.Close()

	return scanInvitations(rows)
}

// ListByInviter returns every invitation the user sent, oldest first,
// regardless of status.
func (r *Repo) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByInviterSQL, inviterID)
	if err != nil {
		return nil, fmt.Errorf("list invitations by inviter: %w", err)
	}
	defer rows.Close()

	return scanInvitations(rows)
}

// SetStatus transitions an invitation.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) (*domain.PendingInvitation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	inv, err := scanInvitation(querier.QueryRow(ctx, setStatusSQL, id, status.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("set invitation status: %w", err)
	}
	return inv, nil
}

// MarkExpired stamps every overdue pending invitation EXPIRED and
// returns the number of rows changed. Read paths already fold expiry;
// this keeps the stored rows from drifting forever.
func (r *Repo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, markExpiredSQL, now)
	if err != nil {
		return 0, fmt.Errorf("mark invitations expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanInvitation(row pgx.Row) (*domain.PendingInvitation, error) {
	var inv domain.PendingInvitation
	var role, status string
	if err := row.Scan(&inv.ID, &inv.InviterID, &inv.RecipientEmail, &role,
		&status, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.InviterRole = domain.RelationshipRole(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

func scanInvitations(rows pgx.Rows) ([]domain.PendingInvitation, error) {
	var invs []domain.PendingInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}

	if invs == nil {
		invs = []domain.PendingInvitation{}
	}
	return invs, nil
}
