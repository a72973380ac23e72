package backdrop

import (
	"errors"
	"fmt"
	"image"
	"time"

	appLog "timetable/internal/log"
)

// DefaultFrameDelay is how long Capture waits for the compositor to drop
// the hidden window when no frame flush is available.
const DefaultFrameDelay = 10 * time.Millisecond

var ErrCaptureFailed = errors.New("backdrop: capture failed")

// Window is the part of the host window the capture sequence needs.
type Window interface {
	// SetCompositorVisible hides the window from screen capture (by
	// transparency or hiding) when false and restores it when true.
	SetCompositorVisible(visible bool) error
}

// FrameFlusher is an optional capability of a Window or Grabber: block
// until the compositor has presented the next frame.
type FrameFlusher interface {
	FlushFrame() error
}

// Grabber copies screen pixels.
type Grabber interface {
	Grab(region image.Rectangle) (*image.RGBA, error)
}

// Capturer grabs and blurs the screen area behind the widget. Its buffers
// are reused across frames.
type Capturer struct {
	win   Window
	grab  Grabber
	flush func() error
	delay time.Duration

	snap *image.RGBA
	blur Blur
}

// NewCapturer binds a window and a grabber. The frame flush capability is
// looked up once here.
func NewCapturer(win Window, grab Grabber) *Capturer {
	c := &Capturer{win: win, grab: grab, delay: DefaultFrameDelay}
	if f, ok := win.(FrameFlusher); ok {
		c.flush = f.FlushFrame
	} else if f, ok := grab.(FrameFlusher); ok {
		c.flush = f.FlushFrame
	}
	return c
}

// SetFrameDelay overrides the fallback wait used without a frame flush.
func (c *Capturer) SetFrameDelay(d time.Duration) {
	c.delay = d
}

// Capture returns an opaque copy of the screen pixels under region, taken
// while the window is invisible to the compositor. The window is always
// made visible again, even when the grab fails. The returned image is owned
// by the Capturer and overwritten by the next call.
func (c *Capturer) Capture(region image.Rectangle) (snap *image.RGBA, err error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: empty region %v", ErrCaptureFailed, region)
	}
	if c.grab == nil {
		return nil, fmt.Errorf("%w: no grabber", ErrCaptureFailed)
	}

	if c.win != nil {
		// Restore is armed before hiding: a hide that fails may still have
		// taken effect.
		defer func() {
			if rerr := c.win.SetCompositorVisible(true); rerr != nil {
				appLog.Warn("backdrop: window restore failed", "err", rerr)
				snap = nil
				err = fmt.Errorf("%w: restore window: %v", ErrCaptureFailed, rerr)
			}
		}()
		if herr := c.win.SetCompositorVisible(false); herr != nil {
			return nil, fmt.Errorf("%w: hide window: %v", ErrCaptureFailed, herr)
		}
	}

	c.waitFrame()

	src, gerr := c.grab.Grab(region)
	if gerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, gerr)
	}
	if src.Rect.Dx() != region.Dx() || src.Rect.Dy() != region.Dy() {
		return nil, fmt.Errorf("%w: grabbed %v, want %v", ErrCaptureFailed, src.Rect.Size(), region.Size())
	}

	c.snap = copyOpaque(c.snap, src)
	return c.snap, nil
}

// CaptureBlurred captures region and box-blurs it by radius pixels.
func (c *Capturer) CaptureBlurred(region image.Rectangle, radius int) (*image.RGBA, error) {
	snap, err := c.Capture(region)
	if err != nil {
		return nil, err
	}
	c.blur.Apply(snap, radius)
	return snap, nil
}

func (c *Capturer) waitFrame() {
	if c.flush != nil {
		if err := c.flush(); err == nil {
			return
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
}

// copyOpaque copies src into dst (reallocated only on size change) with
// origin (0,0), forcing alpha to 255: captured pixels carry no alpha of
// their own.
func copyOpaque(dst, src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if dst == nil || dst.Rect.Dx() != w || dst.Rect.Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		do := y * dst.Stride
		copy(dst.Pix[do:do+w*4], src.Pix[so:so+w*4])
		for x := 0; x < w; x++ {
			dst.Pix[do+x*4+3] = 255
		}
	}
	return dst
}
