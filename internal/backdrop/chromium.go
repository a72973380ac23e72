package backdrop

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/chromedp/chromedp"

	appLog "timetable/internal/log"
)

const DefaultChromiumTimeout = 30 * time.Second

// ChromiumOptions defines how the stand-in desktop is rendered.
type ChromiumOptions struct {
	// URL of the page that plays the desktop, e.g. a wallpaper page.
	URL string

	// Width and Height are the emulated screen size in pixels.
	Width  int
	Height int

	// Timeout bounds one render. Zero means DefaultChromiumTimeout.
	Timeout time.Duration
}

// ChromiumDesktop renders a web page in headless Chromium and serves it as
// the desktop behind the widget. Refresh is slow and runs off the render
// path; Grab only crops the last rendered screenshot.
type ChromiumDesktop struct {
	*DesktopGrabber
	opts ChromiumOptions
}

func NewChromiumDesktop(opts ChromiumOptions) *ChromiumDesktop {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChromiumTimeout
	}
	return &ChromiumDesktop{DesktopGrabber: NewDesktopGrabber(nil), opts: opts}
}

// Refresh takes a new screenshot of the desktop page.
func (d *ChromiumDesktop) Refresh(parentCtx context.Context) error {
	if d.opts.URL == "" {
		return fmt.Errorf("backdrop: chromium URL is required")
	}
	if d.opts.Width <= 0 || d.opts.Height <= 0 {
		return fmt.Errorf("backdrop: invalid screen size %dx%d", d.opts.Width, d.opts.Height)
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer timeoutCancel()

	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(d.opts.Width), int64(d.opts.Height)),
		chromedp.Navigate(d.opts.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.CaptureScreenshot(&buf),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("backdrop: chromedp run failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("backdrop: decode screenshot: %w", err)
	}
	d.Set(ScaleToScreen(img, d.opts.Width, d.opts.Height))

	appLog.Info("backdrop desktop refreshed", "width", d.opts.Width, "height", d.opts.Height)
	return nil
}

// Ready reports whether at least one screenshot is available.
func (d *ChromiumDesktop) Ready() bool {
	return d.desktop.Load() != nil
}
