package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationBatch holds one formatted line per enriched spot, newest first.
type NotificationBatch struct {
	Lines []string
}

// Empty reports whether there is nothing to send.
func (b NotificationBatch) Empty() bool { return len(b.Lines) == 0 }

// Message joins the lines with a blank line between them.
func (b NotificationBatch) Message() string { return strings.Join(b.Lines, "\n\n") }

// ComposeBatch renders every enriched spot, keeping the given order.
func ComposeBatch(spots []EnrichedSpot, now time.Time) NotificationBatch {
	lines := make([]string, 0, len(spots))
	for _, s := range spots {
		lines = append(lines, ComposeLine(s, now))
	}
	return NotificationBatch{Lines: lines}
}

// ComposeLine renders a single spot, e.g.
//
//	[US-HI FT8 US-0001] KH6ABC, Jane Doe, was at Volcanoes National Park on 20m (-03:00)
func ComposeLine(s EnrichedSpot, now time.Time) string {
	return fmt.Sprintf("[%s %s %s] %s, %s, was at %s on %s (-%s)",
		s.Location, s.Mode, s.Reference,
		s.Activator, s.Identity,
		s.SiteName, s.Band,
		formatAge(now.Sub(s.SpotTime)),
	)
}

// formatAge renders a duration as MM:SS. Minutes are not wrapped at the hour
// and clock skew that puts a spot in the future shows as 00:00.
func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
