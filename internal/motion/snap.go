package motion

import (
	"image"

	"timetable/internal/model"
)

// Geometry is the fixed sizing input for view transitions.
type Geometry struct {
	// Expanded is the stored week-view client size.
	Expanded image.Point
	// Screen is the work area the window lives in.
	Screen image.Rectangle
	// Margin keeps the window this far from the screen edges.
	Margin int
}

// CompactSize is the day-view size: a third of the expanded width, same
// height.
func (g Geometry) CompactSize() image.Point {
	return image.Pt(g.Expanded.X/3, g.Expanded.Y)
}

// TargetRect computes where the window goes when switching to mode. The
// edge the window is snapped to stays put; an undocked window resizes
// around its center but never past the screen margins.
func TargetRect(cur image.Rectangle, mode model.ViewMode, edge model.SnapEdge, g Geometry) image.Rectangle {
	size := g.Expanded
	if mode == model.ViewDay {
		size = g.CompactSize()
	}

	var x int
	switch edge {
	case model.SnapLeft:
		x = cur.Min.X
	case model.SnapRight:
		x = cur.Max.X - size.X
	default:
		x = cur.Min.X + (cur.Dx()-size.X)/2
		lo := g.Screen.Min.X + g.Margin
		hi := g.Screen.Max.X - g.Margin - size.X
		if x > hi {
			x = hi
		}
		if x < lo {
			x = lo
		}
	}
	return image.Rect(x, cur.Min.Y, x+size.X, cur.Min.Y+size.Y)
}

// Snap docks a window that was dropped near a screen edge: every edge
// closer than dist to the matching screen edge is moved to margin from it.
// It returns the new rectangle and the resulting horizontal edge.
func Snap(r, screen image.Rectangle, dist, margin int) (image.Rectangle, model.SnapEdge) {
	w, h := r.Dx(), r.Dy()
	x, y := r.Min.X, r.Min.Y

	if abs(r.Min.X-screen.Min.X) < dist {
		x = screen.Min.X + margin
	}
	if abs(screen.Max.X-r.Max.X) < dist {
		x = screen.Max.X - w - margin
		if x < screen.Min.X {
			x = screen.Min.X
		}
	}
	if abs(r.Min.Y-screen.Min.Y) < dist {
		y = screen.Min.Y + margin
	}
	if abs(screen.Max.Y-r.Max.Y) < dist {
		y = screen.Max.Y - h - margin
		if y < screen.Min.Y {
			y = screen.Min.Y
		}
	}

	out := image.Rect(x, y, x+w, y+h)
	return out, DetectEdge(out, screen, dist, margin)
}

// DetectEdge reports which horizontal screen edge r rests against: within
// dist of it, or exactly margin away as Snap leaves it. When both edges
// qualify the nearer one wins.
func DetectEdge(r, screen image.Rectangle, dist, margin int) model.SnapEdge {
	dl := r.Min.X - screen.Min.X
	dr := screen.Max.X - r.Max.X
	left := abs(dl) < dist || dl == margin
	right := abs(dr) < dist || dr == margin

	switch {
	case left && right:
		if abs(dr) < abs(dl) {
			return model.SnapRight
		}
		return model.SnapLeft
	case left:
		return model.SnapLeft
	case right:
		return model.SnapRight
	}
	return model.SnapNone
}

// InitialRect places a new window at the top-right corner, margin from
// both edges.
func InitialRect(size image.Point, screen image.Rectangle, margin int) image.Rectangle {
	x := screen.Max.X - size.X - margin
	if x < screen.Min.X {
		x = screen.Min.X
	}
	y := screen.Min.Y + margin
	return image.Rect(x, y, x+size.X, y+size.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
