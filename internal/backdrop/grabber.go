package backdrop

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// DesktopGrabber grabs from an in-memory desktop image. It stands in for a
// real screen on hosts without one; the desktop can be swapped from another
// goroutine while frames are being captured.
type DesktopGrabber struct {
	desktop atomic.Pointer[image.RGBA]
}

// NewDesktopGrabber returns a grabber over desktop (may be nil until Set).
func NewDesktopGrabber(desktop *image.RGBA) *DesktopGrabber {
	g := &DesktopGrabber{}
	if desktop != nil {
		g.desktop.Store(desktop)
	}
	return g
}

func (g *DesktopGrabber) Set(desktop *image.RGBA) {
	g.desktop.Store(desktop)
}

// Grab copies region out of the desktop. Parts of the region that fall off
// the desktop come back black, like an off-screen area would.
func (g *DesktopGrabber) Grab(region image.Rectangle) (*image.RGBA, error) {
	desk := g.desktop.Load()
	if desk == nil {
		return nil, errors.New("backdrop: no desktop image")
	}
	if !region.Overlaps(desk.Rect) {
		return nil, fmt.Errorf("backdrop: region %v is off the desktop %v", region, desk.Rect)
	}
	out := image.NewRGBA(region)
	draw.Draw(out, region, desk, region.Min, draw.Src)
	return out, nil
}

// LoadWallpaper decodes a PNG or JPEG and scales it to the screen size.
func LoadWallpaper(path string, screenW, screenH int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backdrop: open wallpaper: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("backdrop: decode wallpaper %s: %w", path, err)
	}
	return ScaleToScreen(src, screenW, screenH), nil
}

// ScaleToScreen resamples src to exactly screenW×screenH.
func ScaleToScreen(src image.Image, screenW, screenH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, screenW, screenH))
	if src.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Rect, src, src.Bounds(), xdraw.Src, nil)
	return dst
}
