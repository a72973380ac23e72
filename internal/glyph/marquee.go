package glyph

import "time"

// Default marquee tuning.
const (
	DefaultSpeed = 40.0 // px per second
	DefaultPause = 1000 * time.Millisecond
)

// ScrollState is the shared marquee clock. The epoch is captured on first
// use and never reset, so every overflowing cell scrolls in the same phase.
type ScrollState struct {
	Epoch time.Time
}

// Elapsed returns the time since the epoch, capturing it on first call.
func (s *ScrollState) Elapsed(now time.Time) time.Duration {
	if s.Epoch.IsZero() {
		s.Epoch = now
	}
	return now.Sub(s.Epoch)
}

// Timing is the per-cycle schedule of one overflowing text: travel from
// alignLeft to alignRight, pause, travel back, pause.
type Timing struct {
	TravelPx float64
	TravelMs float64
	PauseMs  float64
	CycleMs  float64
}

// NewTiming derives the cycle for travelPx pixels of overflow.
func NewTiming(travelPx, speedPxPerSec float64, pause time.Duration) Timing {
	if speedPxPerSec <= 0 {
		speedPxPerSec = DefaultSpeed
	}
	if travelPx < 0 {
		travelPx = 0
	}
	t := Timing{
		TravelPx: travelPx,
		TravelMs: travelPx / (speedPxPerSec / 1000),
		PauseMs:  float64(pause) / float64(time.Millisecond),
	}
	t.CycleMs = 2 * (t.TravelMs + t.PauseMs)
	return t
}

// Position maps elapsed milliseconds to the text's x position. alignLeft is
// the resting position with the text's left edge on the cell's left edge,
// alignRight the one with its right edge on the cell's right edge
// (alignRight < alignLeft). The result is clamped to [alignRight, alignLeft].
func (t Timing) Position(alignLeft, alignRight, elapsedMs float64) float64 {
	if t.CycleMs <= 0 {
		return alignLeft
	}
	phase := elapsedMs - t.CycleMs*float64(int64(elapsedMs/t.CycleMs))
	if phase < 0 {
		phase += t.CycleMs
	}

	var x float64
	switch {
	case phase < t.TravelMs:
		x = alignLeft - phase/t.TravelMs*t.TravelPx
	case phase < t.TravelMs+t.PauseMs:
		x = alignRight
	case phase < 2*t.TravelMs+t.PauseMs:
		x = alignRight + (phase-t.TravelMs-t.PauseMs)/t.TravelMs*t.TravelPx
	default:
		x = alignLeft
	}

	if x < alignRight {
		x = alignRight
	}
	if x > alignLeft {
		x = alignLeft
	}
	return x
}
