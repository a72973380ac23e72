package render

// MinCornerRadius is the smallest corner radius in device pixels.
const MinCornerRadius = 4

// ScaleDIP converts a length in device-independent units (1/96 inch) to
// device pixels, rounding like MulDiv. A non-positive dpi means 96.
func ScaleDIP(dip, dpi int) int {
	if dpi <= 0 {
		dpi = 96
	}
	return (dip*dpi + 48) / 96
}

// CornerRadius scales a radius in device-independent units to device pixels
// for the given DPI, never going below MinCornerRadius.
func CornerRadius(dip, dpi int) int {
	r := ScaleDIP(dip, dpi)
	if r < MinCornerRadius {
		return MinCornerRadius
	}
	return r
}

// Coverage returns how much of pixel (x, y) lies inside a width×height
// rectangle with corners rounded to radius. Pixels whose centers are outside
// every corner square are fully covered.
func Coverage(x, y, width, height int, radius float64) float64 {
	cx := float64(x) + 0.5
	cy := float64(y) + 0.5
	w := float64(width)
	h := float64(height)

	left := cx < radius
	right := cx > w-radius
	top := cy < radius
	bottom := cy > h-radius
	if !(left || right) || !(top || bottom) {
		return 1
	}

	// Arc centers sit radius away from both edges, so the four corners are
	// mirror images of each other.
	centerX := w - radius
	if left {
		centerX = radius
	}
	centerY := h - radius
	if top {
		centerY = radius
	}
	dx := cx - centerX
	dy := cy - centerY
	return ArcCoverage(dx*dx+dy*dy, radius)
}

// ArcCoverage maps a squared distance from a corner's arc center to
// coverage. The ramp is linear in squared-distance space between
// (radius-0.5)² and (radius+0.5)², about one pixel wide, with no sqrt.
func ArcCoverage(dist2, radius float64) float64 {
	inner := radius - 0.5
	outer := radius + 0.5
	inner2 := inner * inner
	outer2 := outer * outer

	switch {
	case dist2 <= inner2:
		return 1
	case dist2 >= outer2:
		return 0
	}
	m := (outer2 - dist2) / (outer2 - inner2)
	if m < 0 {
		return 0
	}
	if m > 1 {
		return 1
	}
	return m
}
