// Package schedule holds the slot timeline composer and overlay scheduling.
package schedule

import "time"

// OverlaySpec is an overlay to be scheduled inside a slot window.
// RepeatInterval <= 0 means no repeat; RepeatCount caps the number of
// additional occurrences after the first, 0 means unbounded.
type OverlaySpec struct {
	MediaPath      string
	StartAt        time.Time
	RepeatInterval time.Duration
	RepeatCount    int
}

// Schedule returns the ordered playback timestamps for an overlay. The start
// time is always the first PTS. Repeats are emitted while the next timestamp
// is still before windowEnd; a zero or negative interval never repeats.
func Schedule(startAt time.Time, repeatInterval time.Duration, repeatCount int, windowEnd time.Time) []time.Time {
	pts := []time.Time{startAt}
	if repeatInterval <= 0 {
		return pts
	}
	last := startAt
	for repeatCount == 0 || len(pts)-1 < repeatCount {
		next := last.Add(repeatInterval)
		if !next.Before(windowEnd) {
			break
		}
		pts = append(pts, next)
		last = next
	}
	return pts
}
