package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const janitorRunTimeout = 5 * time.Minute

type sessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type invitationCleaner interface {
	CleanupExpiredInvitations(ctx context.Context) (int64, error)
}

// startJanitor schedules the in-process cleanup of expired sessions and
// invitations. Both sweeps are housekeeping: reads already treat expired
// rows as dead, so a missed run costs storage, not correctness.
func startJanitor(log *slog.Logger, schedule string, sessions sessionCleaner, invitations invitationCleaner) (*cron.Cron, error) {
	log = log.With("component", "janitor")

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), janitorRunTimeout)
		defer cancel()

		if _, err := sessions.CleanupExpiredSessions(ctx); err != nil {
			log.ErrorContext(ctx, "session sweep failed", slog.Any("error", err))
		}
		if _, err := invitations.CleanupExpiredInvitations(ctx); err != nil {
			log.ErrorContext(ctx, "invitation sweep failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info("janitor scheduled", slog.String("schedule", schedule))
	return c, nil
}
