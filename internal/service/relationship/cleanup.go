package relationship

import (
	"context"
	"fmt"
)

// CleanupExpiredInvitations stamps overdue pending invitations EXPIRED.
// Reads already fold expiry, so this is housekeeping, not correctness.
func (s *Service) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	n, err := s.invitations.MarkExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark expired invitations: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired invitations cleaned up", "count", n)
	}
	return n, nil
}
