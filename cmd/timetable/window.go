package main

import (
	"image"

	appLog "timetable/internal/log"
)

// hostWindow is the headless stand-in for a layered desktop window. It
// tracks the window rectangle and hides itself from captures on request.
type hostWindow struct {
	rect    image.Rectangle
	visible bool
}

func (w *hostWindow) Rect() image.Rectangle {
	return w.rect
}

func (w *hostWindow) SetRect(r image.Rectangle) error {
	w.rect = r
	return nil
}

// SetCompositorVisible is a no-op beyond bookkeeping: the headless desktop
// never contains the widget itself.
func (w *hostWindow) SetCompositorVisible(v bool) error {
	w.visible = v
	appLog.Debug("window visibility", "visible", v, "rect", w.rect)
	return nil
}
