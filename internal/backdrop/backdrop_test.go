package backdrop

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// naiveBoxBlur is the O(r²) reference with edge clamping.
func naiveBoxBlur(src *image.RGBA, r int) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewRGBA(src.Rect)
	clamp := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	size := (2*r + 1) * (2*r + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]int
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					o := src.PixOffset(clamp(x+dx, w), clamp(y+dy, h))
					for c := 0; c < 4; c++ {
						sum[c] += int(src.Pix[o+c])
					}
				}
			}
			o := out.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[o+c] = uint8((sum[c] + size/2) / size)
			}
		}
	}
	return out
}

func TestBoxBlurMatchesNaive(t *testing.T) {
	src := filled(17, 11, color.RGBA{0, 0, 0, 255})
	// A few bright features, including on the edges.
	for _, p := range [][2]int{{0, 0}, {8, 5}, {16, 10}, {3, 9}} {
		o := src.PixOffset(p[0], p[1])
		src.Pix[o], src.Pix[o+1], src.Pix[o+2] = 255, 120, 30
	}

	for _, r := range []int{1, 2, 4, 20} {
		got := image.NewRGBA(src.Rect)
		copy(got.Pix, src.Pix)
		BoxBlur(got, r)
		want := naiveBoxBlur(src, r)

		for i := range got.Pix {
			d := int(got.Pix[i]) - int(want.Pix[i])
			if d < -1 || d > 1 {
				t.Fatalf("r=%d: byte %d = %d, want %d±1", r, i, got.Pix[i], want.Pix[i])
			}
		}
	}
}

func TestBoxBlurUniformAndZeroRadius(t *testing.T) {
	c := color.RGBA{60, 90, 120, 255}
	img := filled(9, 7, c)
	BoxBlur(img, 3)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 60 || img.Pix[i+1] != 90 || img.Pix[i+2] != 120 || img.Pix[i+3] != 255 {
			t.Fatalf("uniform image changed at %d: %v", i/4, img.Pix[i:i+4])
		}
	}

	img.Pix[0] = 0
	BoxBlur(img, 0)
	if img.Pix[0] != 0 {
		t.Error("radius 0 should not modify the image")
	}
}

func TestBlurReusesScratch(t *testing.T) {
	var b Blur
	b.Apply(filled(10, 10, color.RGBA{A: 255}), 2)
	first := &b.scratch[0]
	b.Apply(filled(8, 8, color.RGBA{A: 255}), 2)
	if &b.scratch[0] != first {
		t.Error("smaller image reallocated scratch")
	}
}

type fakeWindow struct {
	calls      []bool
	hideErr    error
	restoreErr error
}

func (w *fakeWindow) SetCompositorVisible(v bool) error {
	w.calls = append(w.calls, v)
	if v {
		return w.restoreErr
	}
	return w.hideErr
}

type flushingWindow struct {
	fakeWindow
	flushes int
}

func (w *flushingWindow) FlushFrame() error {
	w.flushes++
	return nil
}

type fakeGrabber struct {
	img *image.RGBA
	err error
}

func (g *fakeGrabber) Grab(region image.Rectangle) (*image.RGBA, error) {
	return g.img, g.err
}

func TestCaptureForcesOpaqueAndRestores(t *testing.T) {
	win := &fakeWindow{}
	src := filled(4, 3, color.RGBA{10, 20, 30, 0})
	c := NewCapturer(win, &fakeGrabber{img: src})
	c.SetFrameDelay(0)

	snap, err := c.Capture(image.Rect(100, 100, 104, 103))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(win.calls) != 2 || win.calls[0] || !win.calls[1] {
		t.Errorf("visibility calls = %v, want [false true]", win.calls)
	}
	for i := 0; i < len(snap.Pix); i += 4 {
		if snap.Pix[i+3] != 255 || snap.Pix[i] != 10 {
			t.Fatalf("pixel %d = %v, want opaque copy", i/4, snap.Pix[i:i+4])
		}
	}
	if snap.Rect.Min != (image.Point{}) {
		t.Errorf("snapshot origin = %v, want (0,0)", snap.Rect.Min)
	}

	again, _ := c.Capture(image.Rect(0, 0, 4, 3))
	if again != snap {
		t.Error("same-size capture should reuse the snapshot buffer")
	}
}

func TestCaptureFailureStillRestores(t *testing.T) {
	win := &fakeWindow{}
	c := NewCapturer(win, &fakeGrabber{err: errors.New("blit failed")})
	c.SetFrameDelay(0)

	if _, err := c.Capture(image.Rect(0, 0, 4, 4)); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("err = %v, want ErrCaptureFailed", err)
	}
	if len(win.calls) != 2 || !win.calls[1] {
		t.Errorf("visibility calls = %v, window left hidden", win.calls)
	}
}

func TestCaptureHideFailureStillRestores(t *testing.T) {
	win := &fakeWindow{hideErr: errors.New("layered attributes rejected")}
	g := &fakeGrabber{img: filled(2, 2, color.RGBA{})}
	c := NewCapturer(win, g)
	c.SetFrameDelay(0)

	snap, err := c.Capture(image.Rect(0, 0, 2, 2))
	if !errors.Is(err, ErrCaptureFailed) || snap != nil {
		t.Fatalf("Capture = %v, %v; want nil, ErrCaptureFailed", snap, err)
	}
	if n := len(win.calls); n != 2 || !win.calls[n-1] {
		t.Errorf("visibility calls = %v, want [false true]", win.calls)
	}
}

func TestCaptureErrors(t *testing.T) {
	tests := []struct {
		name   string
		win    *fakeWindow
		grab   Grabber
		region image.Rectangle
	}{
		{"empty region", &fakeWindow{}, &fakeGrabber{img: filled(1, 1, color.RGBA{})}, image.Rectangle{}},
		{"no grabber", &fakeWindow{}, nil, image.Rect(0, 0, 2, 2)},
		{"size mismatch", &fakeWindow{}, &fakeGrabber{img: filled(3, 3, color.RGBA{})}, image.Rect(0, 0, 2, 2)},
		{"restore fails", &fakeWindow{restoreErr: errors.New("gone")}, &fakeGrabber{img: filled(2, 2, color.RGBA{})}, image.Rect(0, 0, 2, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCapturer(tt.win, tt.grab)
			c.SetFrameDelay(0)
			snap, err := c.Capture(tt.region)
			if !errors.Is(err, ErrCaptureFailed) {
				t.Errorf("err = %v, want ErrCaptureFailed", err)
			}
			if snap != nil {
				t.Error("snapshot returned with error")
			}
		})
	}
}

func TestCaptureUsesFrameFlush(t *testing.T) {
	win := &flushingWindow{}
	c := NewCapturer(win, &fakeGrabber{img: filled(2, 2, color.RGBA{})})
	if _, err := c.Capture(image.Rect(0, 0, 2, 2)); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if win.flushes != 1 {
		t.Errorf("flushes = %d, want 1", win.flushes)
	}
}

func TestCaptureBlurred(t *testing.T) {
	src := filled(6, 6, color.RGBA{A: 255})
	o := src.PixOffset(3, 3)
	src.Pix[o] = 255
	c := NewCapturer(&fakeWindow{}, &fakeGrabber{img: src})
	c.SetFrameDelay(0)

	snap, err := c.CaptureBlurred(image.Rect(0, 0, 6, 6), 1)
	if err != nil {
		t.Fatalf("CaptureBlurred: %v", err)
	}
	if got := snap.Pix[o]; got != 28 {
		t.Errorf("blurred peak = %d, want 28 (255/9)", got)
	}
}

func TestDesktopGrabber(t *testing.T) {
	desk := filled(20, 10, color.RGBA{200, 0, 0, 255})
	g := NewDesktopGrabber(desk)

	img, err := g.Grab(image.Rect(15, 5, 25, 10))
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if img.Rect.Dx() != 10 || img.Rect.Dy() != 5 {
		t.Fatalf("size = %v", img.Rect.Size())
	}
	if c := img.RGBAAt(16, 6); c.R != 200 {
		t.Errorf("on-desktop pixel = %v", c)
	}
	if c := img.RGBAAt(22, 6); c != (color.RGBA{}) {
		t.Errorf("off-desktop pixel = %v, want black", c)
	}

	if _, err := g.Grab(image.Rect(100, 100, 110, 110)); err == nil {
		t.Error("expected error for region off the desktop")
	}
	if _, err := NewDesktopGrabber(nil).Grab(image.Rect(0, 0, 1, 1)); err == nil {
		t.Error("expected error without desktop")
	}
}

func TestLoadWallpaperScales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, filled(8, 4, color.RGBA{0, 0, 255, 255})); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := LoadWallpaper(path, 32, 16)
	if err != nil {
		t.Fatalf("LoadWallpaper: %v", err)
	}
	if img.Rect.Dx() != 32 || img.Rect.Dy() != 16 {
		t.Errorf("size = %v, want 32x16", img.Rect.Size())
	}
	if c := img.RGBAAt(16, 8); c.B != 255 {
		t.Errorf("scaled pixel = %v", c)
	}
}
