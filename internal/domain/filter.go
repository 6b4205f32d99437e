package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Criteria decides which spots are interesting. It is built once per run and
// never modified.
type Criteria struct {
	regions map[Region]struct{}
	modes   map[Mode]struct{}
	window  time.Duration
}

// NewCriteria validates and builds Criteria. Every region and mode must be a
// declared constant and the window must be positive.
func NewCriteria(regions []Region, modes []Mode, window time.Duration) (Criteria, error) {
	if len(regions) == 0 {
		return Criteria{}, errors.New("criteria: at least one region is required")
	}
	if len(modes) == 0 {
		return Criteria{}, errors.New("criteria: at least one mode is required")
	}
	if window <= 0 {
		return Criteria{}, fmt.Errorf("criteria: recency window must be positive, got %s", window)
	}

	c := Criteria{
		regions: make(map[Region]struct{}, len(regions)),
		modes:   make(map[Mode]struct{}, len(modes)),
		window:  window,
	}
	for _, r := range regions {
		if !r.Known() {
			return Criteria{}, fmt.Errorf("criteria: unknown region %q", r)
		}
		c.regions[r] = struct{}{}
	}
	for _, m := range modes {
		if !m.Known() {
			return Criteria{}, fmt.Errorf("criteria: unknown mode %q", m)
		}
		c.modes[m] = struct{}{}
	}
	return c, nil
}

// Regions returns the wanted regions in sorted order.
func (c Criteria) Regions() []Region {
	out := make([]Region, 0, len(c.regions))
	for r := range c.regions {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Modes returns the wanted modes in sorted order.
func (c Criteria) Modes() []Mode {
	out := make([]Mode, 0, len(c.modes))
	for m := range c.modes {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Window returns the recency window.
func (c Criteria) Window() time.Duration { return c.window }

// Cutoff returns the oldest spot time still considered recent at now.
func (c Criteria) Cutoff(now time.Time) time.Time { return now.Add(-c.window) }

// WantsRegion reports whether r is a known region in the criteria.
func (c Criteria) WantsRegion(r Region) bool {
	if !r.Known() {
		return false
	}
	_, ok := c.regions[r]
	return ok
}

// WantsMode reports whether m is a known mode in the criteria.
func (c Criteria) WantsMode(m Mode) bool {
	if !m.Known() {
		return false
	}
	_, ok := c.modes[m]
	return ok
}

// SelectSpots keeps the spots whose region and mode are wanted and whose time
// is at or after the cutoff, newest first. Spots with equal times keep their
// feed order.
func SelectSpots(spots []Spot, c Criteria, now time.Time) []Spot {
	cutoff := c.Cutoff(now)
	selected := make([]Spot, 0, len(spots))
	for _, s := range spots {
		if c.WantsRegion(s.Location) && c.WantsMode(s.Mode) && !s.SpotTime.Before(cutoff) {
			selected = append(selected, s)
		}
	}
	slices.SortStableFunc(selected, func(a, b Spot) int {
		return b.SpotTime.Compare(a.SpotTime)
	})
	return selected
}
