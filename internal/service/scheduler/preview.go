package scheduler

import (
	"fmt"
	"time"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
)

// IntervalPreview is the would-be outcome for one rating.
type IntervalPreview struct {
	Rating   domain.Rating
	Due      time.Time
	Interval string
}

// Preview computes, without mutating anything, the due time each of the
// four ratings would produce from the given state.
func Preview(params Parameters, state domain.ComputedCardState, now time.Time) [4]IntervalPreview {
	var out [4]IntervalPreview
	for r := domain.RatingAgain; r <= domain.RatingEasy; r++ {
		next, err := Apply(params, state, r, now)
		if err != nil {
			// Unreachable for a valid queue; keep the preview total anyway.
			out[r] = IntervalPreview{Rating: r, Due: now, Interval: FormatInterval(0)}
			continue
		}
		out[r] = IntervalPreview{
			Rating:   r,
			Due:      next.Due,
			Interval: FormatInterval(next.Due.Sub(now)),
		}
	}
	return out
}

// FormatInterval renders a duration the way the review screen shows it:
// "10m", "3h", "3d", "2.1mo", "1.5y".
func FormatInterval(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()+0.5))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()+0.5))
	}

	days := d.Hours() / 24
	switch {
	case days < 31:
		return fmt.Sprintf("%dd", int(days+0.5))
	case days < 365:
		return trimTrailingZero(fmt.Sprintf("%.1fmo", days/30.44))
	default:
		return trimTrailingZero(fmt.Sprintf("%.1fy", days/365.25))
	}
}

// trimTrailingZero turns "3.0mo" into "3mo" but leaves "2.1mo" alone.
func trimTrailingZero(s string) string {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '0' {
			return s[:i] + s[i+2:]
		}
	}
	return s
}
