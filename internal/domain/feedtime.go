package domain

import (
	"fmt"
	"strings"
	"time"
)

// Layouts tried in order. Offset-bearing forms come first, with either
// separator and with or without a colon in the offset; the rest are the
// offset-less forms POTA actually sends.
var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05.999999999Z0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	}
)

// FeedTime is a timestamp as parsed from the feed, which may or may not have
// carried a UTC offset. It deliberately has no comparison methods: call
// Normalize to obtain a time.Time that can be compared against "now".
type FeedTime struct {
	wall      time.Time
	hasOffset bool
}

// ParseFeedTime parses a feed timestamp, remembering whether an offset was
// present in the source text.
func ParseFeedTime(s string) (FeedTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FeedTime{wall: t, hasOffset: true}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FeedTime{wall: t}, nil
		}
	}
	return FeedTime{}, fmt.Errorf("%w: unrecognised spot time %q", ErrInvalidSpot, s)
}

// HasOffset reports whether the source text carried an explicit offset.
func (ft FeedTime) HasOffset() bool { return ft.hasOffset }

// Normalize returns the instant with an explicit offset. A missing offset
// means UTC+0; an existing offset is kept unchanged.
func (ft FeedTime) Normalize() time.Time {
	if ft.hasOffset {
		return ft.wall
	}
	w := ft.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
}
