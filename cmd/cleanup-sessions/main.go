// Command cleanup-sessions deletes expired sessions and stamps overdue
// pending invitations EXPIRED. A one-shot alternative to the in-process
// janitor for deployments that prefer an external scheduler.
//
// Usage:
//
//	cleanup-sessions
//
// Requires DATABASE_DSN environment variable to be set.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	sessions, err := pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= now()")
	if err != nil {
		log.Fatalf("cleanup sessions: %v", err)
	}

	invitations, err := pool.Exec(ctx,
		"UPDATE pending_invitations SET status = 'EXPIRED' WHERE status = 'PENDING' AND expires_at <= now()",
	)
	if err != nil {
		log.Fatalf("cleanup invitations: %v", err)
	}

	fmt.Printf("Deleted %d expired sessions, expired %d invitations.\n",
		sessions.RowsAffected(), invitations.RowsAffected())
}
