package motion

import (
	"image"
	"math"
	"time"
)

// DefaultDuration is the length of a view-mode transition.
const DefaultDuration = 250 * time.Millisecond

// EaseOutCubic maps linear progress p in [0,1] to 1-(1-p)³: fast start,
// slow finish.
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	q := 1 - p
	return 1 - q*q*q
}

// Interpolate blends left, top, width and height of two rectangles by t.
func Interpolate(from, to image.Rectangle, t float64) image.Rectangle {
	lerp := func(a, b int) int {
		return int(math.Round(float64(a) + float64(b-a)*t))
	}
	x := lerp(from.Min.X, to.Min.X)
	y := lerp(from.Min.Y, to.Min.Y)
	w := lerp(from.Dx(), to.Dx())
	h := lerp(from.Dy(), to.Dy())
	return image.Rect(x, y, x+w, y+h)
}

// Animator moves the window between two rectangles. It is Idle until Start
// and returns to Idle once the duration has elapsed.
type Animator struct {
	Duration time.Duration

	active bool
	start  image.Rectangle
	target image.Rectangle
	begin  time.Time
}

func NewAnimator(d time.Duration) *Animator {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Animator{Duration: d}
}

// Start begins a transition from the current rectangle, replacing any
// transition in progress.
func (a *Animator) Start(from, to image.Rectangle, now time.Time) {
	a.active = true
	a.start = from
	a.target = to
	a.begin = now
}

func (a *Animator) Animating() bool {
	return a.active
}

// Target is the rectangle the running (or last) transition ends at.
func (a *Animator) Target() image.Rectangle {
	return a.target
}

// Step returns the window rectangle for now. When the duration has
// elapsed it returns the exact target, done=true, and the animator is Idle.
func (a *Animator) Step(now time.Time) (rect image.Rectangle, done bool) {
	if !a.active {
		return a.target, true
	}
	elapsed := now.Sub(a.begin)
	if elapsed >= a.Duration {
		a.active = false
		return a.target, true
	}
	if elapsed < 0 {
		elapsed = 0
	}
	p := float64(elapsed) / float64(a.Duration)
	return Interpolate(a.start, a.target, EaseOutCubic(p)), false
}
