package glyph

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Rect is a cell in surface coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	out := Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Layout draws single-line text into cells, scrolling text that does not
// fit. One Layout is used per frame; Scroll carries the shared clock across
// frames.
//
// Text goes straight into the RGBA image behind DC, restricted to the cell
// by drawing into a sub-image: no clip mask is built, so a frame costs what
// its glyphs cover rather than the surface area per string.
type Layout struct {
	DC     *gg.Context
	Face   font.Face
	Color  color.Color
	Scroll *ScrollState
	Speed  float64
	Pause  time.Duration
	// Now is the frame timestamp. All cells of a frame share it.
	Now time.Time
}

// Measure returns the advance width of text in the layout's face.
func (l *Layout) Measure(text string) float64 {
	return float64(font.MeasureString(l.Face, text)) / 64
}

// Cell draws text in cell with its vertical center at cell.Y+vOffset.
// Text that fits is centered; wider text scrolls between its two resting
// positions and Cell reports true. Drawing is clipped to the cell.
func (l *Layout) Cell(cell Rect, text string, vOffset float64) bool {
	if text == "" || cell.W <= 0 || cell.H <= 0 {
		return false
	}

	textW := l.Measure(text)
	if textW <= cell.W {
		l.draw(cell, text, cell.X+(cell.W-textW)/2, cell.Y+vOffset)
		return false
	}

	alignLeft := cell.X
	alignRight := cell.X + cell.W - textW
	timing := NewTiming(alignLeft-alignRight, l.Speed, l.Pause)

	var elapsed time.Duration
	if l.Scroll != nil {
		elapsed = l.Scroll.Elapsed(l.Now)
	}
	x := timing.Position(alignLeft, alignRight, float64(elapsed)/float64(time.Millisecond))

	l.draw(cell, text, x, cell.Y+vOffset)
	return true
}

// Centered draws text centered in cell without scrolling. Overflow is
// clipped and never reported.
func (l *Layout) Centered(cell Rect, text string, vOffset float64) {
	if text == "" || cell.W <= 0 || cell.H <= 0 {
		return
	}
	textW := l.Measure(text)
	l.draw(cell, text, cell.X+(cell.W-textW)/2, cell.Y+vOffset)
}

func (l *Layout) draw(clip Rect, text string, x, cy float64) {
	dst, ok := l.DC.Image().(*image.RGBA)
	if !ok {
		return
	}
	// Rounded edges keep neighbouring cells from sharing a column.
	r := image.Rect(
		int(math.Round(clip.X)), int(math.Round(clip.Y)),
		int(math.Round(clip.X+clip.W)), int(math.Round(clip.Y+clip.H)),
	)
	cell, ok := dst.SubImage(r).(*image.RGBA)
	if !ok || cell.Rect.Empty() {
		return
	}

	// Vertically centered on cy: the baseline sits half a line height below.
	baseline := cy + float64(l.Face.Metrics().Height)/128
	d := font.Drawer{
		Dst:  cell,
		Src:  image.NewUniform(l.Color),
		Face: l.Face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(baseline * 64))},
	}
	d.DrawString(text)
}
