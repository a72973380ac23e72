package widget

import (
	"errors"
	"image"
	"image/color"
	"runtime"
	"testing"
	"time"

	"timetable/internal/backdrop"
	"timetable/internal/glyph"
	"timetable/internal/model"
	"timetable/internal/motion"
	"timetable/internal/present"
	"timetable/internal/render"
	"timetable/internal/schedule"
)

type fakeWindow struct {
	rect    image.Rectangle
	moves   []image.Rectangle
	visible []bool
}

func (w *fakeWindow) Rect() image.Rectangle { return w.rect }

func (w *fakeWindow) SetRect(r image.Rectangle) error {
	w.rect = r
	w.moves = append(w.moves, r)
	return nil
}

func (w *fakeWindow) SetCompositorVisible(v bool) error {
	w.visible = append(w.visible, v)
	return nil
}

type failingGrabber struct{}

func (failingGrabber) Grab(image.Rectangle) (*image.RGBA, error) {
	return nil, errors.New("no screen")
}

var (
	screen  = image.Rect(0, 0, 1920, 1080)
	weekPos = image.Rect(1510, 10, 1910, 310)
	dayPos  = image.Rect(1777, 10, 1910, 310)
	monday  = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
)

func testOptions() Options {
	return Options{
		Geometry:     motion.Geometry{Expanded: image.Pt(400, 300), Screen: screen, Margin: 10},
		Background:   color.RGBA{60, 60, 60, 255},
		Alpha:        180,
		BlurAlpha:    220,
		BlurRadius:   4,
		CornerRadius: 16,
		DPI:          96,
		Speed:        glyph.DefaultSpeed,
		Pause:        glyph.DefaultPause,
		Duration:     250 * time.Millisecond,
		SnapDist:     20,
		Placeholder:  "No classes today",
		Location:     time.UTC,
	}
}

func newTestEngine(t *testing.T, rect image.Rectangle, week *schedule.Week) (*Engine, *fakeWindow, *present.Memory) {
	t.Helper()
	face, err := glyph.LoadFace("", 18)
	if err != nil {
		t.Fatalf("LoadFace: %v", err)
	}
	win := &fakeWindow{rect: rect}
	mem := &present.Memory{}
	if week == nil {
		week = schedule.NewWeek(8)
	}
	return New(testOptions(), win, mem, face, week), win, mem
}

func alphaAt(f render.Frame, x, y int) uint8 {
	return f.Pix[y*f.Stride+x*4+3]
}

func TestRenderFlat(t *testing.T) {
	e, _, mem := newTestEngine(t, weekPos, nil)
	e.SetMode(model.ViewWeek)

	overflow, err := e.Render(monday)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if overflow {
		t.Error("empty schedule should not overflow")
	}

	f, n := mem.Last()
	if n != 1 {
		t.Fatalf("frames = %d, want 1", n)
	}
	if f.Width != 400 || f.Height != 300 || f.Dest != weekPos {
		t.Errorf("frame = %dx%d at %v", f.Width, f.Height, f.Dest)
	}
	if a := alphaAt(f, 0, 0); a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	if a := alphaAt(f, 5, 150); a != 180 {
		t.Errorf("background alpha = %d, want 180", a)
	}
}

func TestRenderBlurredBackdrop(t *testing.T) {
	e, win, mem := newTestEngine(t, weekPos, nil)
	desk := image.NewRGBA(screen)
	for i := 0; i < len(desk.Pix); i += 4 {
		desk.Pix[i], desk.Pix[i+1], desk.Pix[i+2], desk.Pix[i+3] = 20, 100, 200, 255
	}
	c := backdrop.NewCapturer(win, backdrop.NewDesktopGrabber(desk))
	c.SetFrameDelay(0)
	e.SetCapturer(c)
	e.SetBlur(true)

	if _, err := e.Render(monday); err != nil {
		t.Fatalf("Render: %v", err)
	}
	f, _ := mem.Last()
	if a := alphaAt(f, 5, 150); a != 220 {
		t.Errorf("blurred background alpha = %d, want 220", a)
	}
	if len(win.visible) != 2 || win.visible[0] || !win.visible[1] {
		t.Errorf("visibility = %v, want hide then show", win.visible)
	}
}

func TestRenderBlurFallsBackToFlat(t *testing.T) {
	e, win, mem := newTestEngine(t, weekPos, nil)
	c := backdrop.NewCapturer(win, failingGrabber{})
	c.SetFrameDelay(0)
	e.SetCapturer(c)
	e.SetBlur(true)

	if _, err := e.Render(monday); err != nil {
		t.Fatalf("Render should fall back, got %v", err)
	}
	f, _ := mem.Last()
	if a := alphaAt(f, 5, 150); a != 180 {
		t.Errorf("fallback alpha = %d, want 180", a)
	}
	if n := len(win.visible); n == 0 || !win.visible[n-1] {
		t.Error("window left hidden after failed capture")
	}
}

func TestRenderDegenerateWindow(t *testing.T) {
	e, _, mem := newTestEngine(t, image.Rect(100, 100, 100, 300), nil)
	if _, err := e.Render(monday); !errors.Is(err, render.ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
	if _, n := mem.Last(); n != 0 {
		t.Error("frame presented for invalid size")
	}
}

func TestRenderReportsOverflow(t *testing.T) {
	week := schedule.NewWeek(8)
	if err := week.Set(schedule.Today(monday), 0, model.Slot{Name: "Introduction to Computational Linear Algebra"}); err != nil {
		t.Fatal(err)
	}
	e, _, _ := newTestEngine(t, dayPos, week)

	overflow, err := e.Render(monday)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !overflow || !e.Overflowing() {
		t.Error("long name in the compact view should overflow")
	}
}

func TestToggleAnimatesToDayView(t *testing.T) {
	e, win, _ := newTestEngine(t, weekPos, nil)
	e.SetMode(model.ViewWeek)
	if e.Edge() != model.SnapRight {
		t.Fatalf("initial edge = %v, want right", e.Edge())
	}

	e.Toggle(monday)
	if e.Mode() != model.ViewDay || !e.Animating() {
		t.Fatalf("after toggle mode=%v animating=%v", e.Mode(), e.Animating())
	}
	if !e.Step(monday) || win.rect != weekPos {
		t.Errorf("first step rect = %v, want %v", win.rect, weekPos)
	}
	if !e.Step(monday.Add(100 * time.Millisecond)) {
		t.Error("transition ended early")
	}
	if win.rect.Max.X != 1910 {
		t.Errorf("right edge moved during transition: %v", win.rect)
	}
	if e.Step(monday.Add(250 * time.Millisecond)) {
		t.Error("transition still running after duration")
	}
	if win.rect != dayPos || e.Edge() != model.SnapRight {
		t.Errorf("final rect = %v edge %v, want %v right", win.rect, e.Edge(), dayPos)
	}
	if e.Step(monday.Add(time.Second)) {
		t.Error("idle step reported running")
	}
}

func TestDragEndSnaps(t *testing.T) {
	e, win, _ := newTestEngine(t, image.Rect(600, 400, 1000, 700), nil)
	if e.Edge() != model.SnapNone {
		t.Fatalf("floating edge = %v", e.Edge())
	}
	win.rect = image.Rect(5, 12, 405, 312)
	e.DragEnd()
	if win.rect != image.Rect(10, 10, 410, 310) || e.Edge() != model.SnapLeft {
		t.Errorf("snapped to %v edge %v", win.rect, e.Edge())
	}
}

func TestSurfaceReusedAcrossTicks(t *testing.T) {
	e, _, _ := newTestEngine(t, dayPos, nil)
	for i := 0; i < 3; i++ {
		if _, err := e.Render(monday.Add(time.Duration(i) * 40 * time.Millisecond)); err != nil {
			t.Fatal(err)
		}
	}
	if n := e.surfaces.Allocations(); n != 1 {
		t.Errorf("allocations = %d, want 1", n)
	}
}

// fullWeek fills every slot with text wider than a week-view cell.
func fullWeek() *schedule.Week {
	week := schedule.NewWeek(8)
	for d := 0; d < model.Days; d++ {
		for i := 0; i < 8; i++ {
			_ = week.Set(d, i, model.Slot{Name: "Linear Algebra and Geometry", Location: "Building B 204"})
		}
	}
	return week
}

func TestRenderFullWeekAllocations(t *testing.T) {
	e, _, _ := newTestEngine(t, weekPos, fullWeek())
	e.SetMode(model.ViewWeek)

	// Warm up: surface, presenter copy and rasterizer buffers.
	overflow, err := e.Render(monday)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !overflow {
		t.Fatal("full week of long names should overflow")
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	if _, err := e.Render(monday.Add(40 * time.Millisecond)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	runtime.ReadMemStats(&after)

	surface := uint64(weekPos.Dx() * weekPos.Dy() * 4)
	if got := after.TotalAlloc - before.TotalAlloc; got > 2*surface {
		t.Errorf("frame allocated %d bytes, want at most %d (two surfaces)", got, 2*surface)
	}
}

func BenchmarkRenderFullWeek(b *testing.B) {
	face, err := glyph.LoadFace("", 18)
	if err != nil {
		b.Fatal(err)
	}
	e := New(testOptions(), &fakeWindow{rect: weekPos}, &present.Memory{}, face, fullWeek())
	e.SetMode(model.ViewWeek)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Render(monday.Add(time.Duration(i) * 40 * time.Millisecond)); err != nil {
			b.Fatal(err)
		}
	}
}
