package widget

import (
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"timetable/internal/backdrop"
	"timetable/internal/glyph"
	appLog "timetable/internal/log"
	"timetable/internal/model"
	"timetable/internal/motion"
	"timetable/internal/render"
	"timetable/internal/schedule"
)

// Window is the host window as the engine sees it. Its rectangle is in
// screen coordinates and equals the client area (the window is borderless).
type Window interface {
	Rect() image.Rectangle
	SetRect(r image.Rectangle) error
}

// Presenter replaces the window's visual content with a frame.
type Presenter interface {
	Present(f render.Frame) error
}

// Options are the fixed inputs of the engine.
type Options struct {
	Geometry motion.Geometry

	Background color.RGBA
	Text       color.Color
	Grid       color.Color
	Alpha      uint8
	BlurAlpha  uint8
	BlurRadius int

	// CornerRadius is in device-independent pixels.
	CornerRadius int
	DPI          int

	Speed       float64
	Pause       time.Duration
	Duration    time.Duration
	SnapDist    int
	Placeholder string

	// Location decides which day is "today".
	Location *time.Location
}

// Engine is the widget's render and animation context: it owns every piece
// of state that lives across ticks (surface, scroll clock, animation, snap
// edge, backdrop buffers). It is not safe for concurrent use; the host
// calls it from a single loop.
type Engine struct {
	opts      Options
	win       Window
	presenter Presenter
	face      font.Face
	week      *schedule.Week
	capturer  *backdrop.Capturer

	mode     model.ViewMode
	blur     bool
	edge     model.SnapEdge
	overflow bool

	surfaces render.SurfaceManager
	dc       *gg.Context
	dcSurf   *render.Surface
	scroll   glyph.ScrollState
	anim     *motion.Animator
}

func New(opts Options, win Window, p Presenter, face font.Face, week *schedule.Week) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Text == nil {
		opts.Text = color.White
	}
	if opts.Grid == nil {
		opts.Grid = color.Gray{Y: 140}
	}
	e := &Engine{
		opts:      opts,
		win:       win,
		presenter: p,
		face:      face,
		week:      week,
		anim:      motion.NewAnimator(opts.Duration),
	}
	e.edge = motion.DetectEdge(win.Rect(), opts.Geometry.Screen, opts.SnapDist, opts.Geometry.Margin)
	return e
}

// SetCapturer enables backdrop capture. Nil disables it.
func (e *Engine) SetCapturer(c *backdrop.Capturer) {
	e.capturer = c
}

// SetSchedule swaps the schedule shown from the next frame on.
func (e *Engine) SetSchedule(w *schedule.Week) {
	e.week = w
}

func (e *Engine) SetBlur(on bool) {
	e.blur = on
}

func (e *Engine) Blur() bool {
	return e.blur
}

// SetMode switches view without animation, e.g. at startup.
func (e *Engine) SetMode(m model.ViewMode) {
	e.mode = m
}

func (e *Engine) Mode() model.ViewMode {
	return e.mode
}

func (e *Engine) Edge() model.SnapEdge {
	return e.edge
}

func (e *Engine) Animating() bool {
	return e.anim.Animating()
}

// Overflowing is the overflow flag of the last rendered frame.
func (e *Engine) Overflowing() bool {
	return e.overflow
}

// Toggle flips the view mode and starts moving the window to the new
// view's rectangle.
func (e *Engine) Toggle(now time.Time) {
	cur := e.win.Rect()
	e.mode = e.mode.Toggle()
	target := motion.TargetRect(cur, e.mode, e.edge, e.opts.Geometry)
	e.anim.Start(cur, target, now)
	appLog.Debug("view toggle", "mode", e.mode, "from", cur, "to", target, "edge", e.edge)
}

// Step advances a running transition and moves the window. It returns
// true while the transition is still running.
func (e *Engine) Step(now time.Time) bool {
	if !e.anim.Animating() {
		return false
	}
	r, done := e.anim.Step(now)
	if err := e.win.SetRect(r); err != nil {
		appLog.Warn("window move failed", "rect", r, "err", err)
	}
	if done {
		e.edge = motion.DetectEdge(r, e.opts.Geometry.Screen, e.opts.SnapDist, e.opts.Geometry.Margin)
	}
	return !done
}

// DragEnd docks the window to nearby screen edges after the user drops it.
func (e *Engine) DragEnd() {
	r, edge := motion.Snap(e.win.Rect(), e.opts.Geometry.Screen, e.opts.SnapDist, e.opts.Geometry.Margin)
	if err := e.win.SetRect(r); err != nil {
		appLog.Warn("window snap failed", "rect", r, "err", err)
		return
	}
	e.edge = edge
}

// Render composites one frame for the window's current rectangle and
// presents it. It reports whether any text is scrolling. On error nothing
// is presented and the previous frame stays on screen.
func (e *Engine) Render(now time.Time) (bool, error) {
	rect := e.win.Rect()
	surf, err := e.surfaces.Ensure(rect.Dx(), rect.Dy())
	if err != nil {
		return false, err
	}

	bg := render.Background{
		Color:         e.opts.Background,
		Alpha:         e.opts.Alpha,
		BackdropAlpha: e.opts.BlurAlpha,
	}
	if e.blur && e.capturer != nil {
		snap, cerr := e.capturer.CaptureBlurred(rect, e.opts.BlurRadius)
		if cerr != nil {
			appLog.Debug("backdrop unavailable, using flat fill", "err", cerr)
		} else {
			bg.Backdrop = snap
		}
	}
	bg = render.Fill(surf, bg)

	layout := glyph.Layout{
		DC:     e.context(surf),
		Face:   e.face,
		Color:  e.opts.Text,
		Scroll: &e.scroll,
		Speed:  e.opts.Speed,
		Pause:  e.opts.Pause,
		Now:    now,
	}
	view := render.View{
		Mode:  e.mode,
		Week:  e.week,
		Today: schedule.Today(now.In(e.opts.Location)),
		Now:   now,
	}
	theme := render.Theme{Grid: e.opts.Grid, Placeholder: e.opts.Placeholder, DPI: e.opts.DPI}
	overflow := render.DrawSchedule(&layout, surf.Width, surf.Height, view, theme)

	render.Finalize(surf, bg, render.CornerRadius(e.opts.CornerRadius, e.opts.DPI))

	if err := e.presenter.Present(render.FrameOf(surf, rect)); err != nil {
		return overflow, err
	}
	e.overflow = overflow
	return overflow, nil
}

// context returns a drawing context over surf, rebuilt only when the
// surface was reallocated.
func (e *Engine) context(surf *render.Surface) *gg.Context {
	if e.dc == nil || e.dcSurf != surf {
		e.dc = gg.NewContextForRGBA(surf.RGBA())
		e.dcSurf = surf
	}
	return e.dc
}
