package render

import (
	"image/color"
	"time"

	"timetable/internal/glyph"
	"timetable/internal/model"
	"timetable/internal/schedule"
)

// cellPadding keeps text off the grid lines, in device-independent units.
const cellPadding = 4

// View is what one frame shows.
type View struct {
	Mode  model.ViewMode
	Week  *schedule.Week
	Today int
	Now   time.Time
}

// Theme holds the non-background colors, the placeholder text and the DPI
// that device-independent spacing is scaled by.
type Theme struct {
	Grid        color.Color
	Placeholder string
	DPI         int
}

func (th Theme) padding() float64 {
	return float64(ScaleDIP(cellPadding, th.DPI))
}

// DrawSchedule draws grid lines and every non-empty slot of the active view
// into the layout's context, covering a width×height area. It returns true
// if any slot text overflowed its cell and is scrolling.
func DrawSchedule(l *glyph.Layout, width, height int, v View, th Theme) bool {
	area := glyph.Rect{W: float64(width), H: float64(height)}
	if v.Week == nil || area.W <= 0 || area.H <= 0 {
		return false
	}

	if v.Mode == model.ViewWeek {
		return drawWeek(l, area, v, th)
	}
	return drawDay(l, area, v, th)
}

func drawDay(l *glyph.Layout, area glyph.Rect, v View, th Theme) bool {
	if v.Week.Scheduled(v.Today) == 0 {
		pad := th.padding()
		l.Centered(area.Inset(pad), th.Placeholder, area.H/2-pad)
		return false
	}

	rows := v.Week.Rows(v.Today)
	cellH := area.H / float64(rows)

	l.DC.SetColor(th.Grid)
	l.DC.SetLineWidth(1)
	for i := 1; i < rows; i++ {
		y := snapLine(area.Y + float64(i)*cellH)
		l.DC.DrawLine(area.X, y, area.X+area.W, y)
	}
	l.DC.Stroke()

	overflow := false
	for i := 0; i < rows; i++ {
		slot, err := v.Week.Slot(v.Today, i)
		if err != nil || slot.Empty() {
			continue
		}
		cell := glyph.Rect{X: area.X, Y: area.Y + float64(i)*cellH, W: area.W, H: cellH}
		if drawSlot(l, cell, slot, th.padding()) {
			overflow = true
		}
	}
	return overflow
}

func drawWeek(l *glyph.Layout, area glyph.Rect, v View, th Theme) bool {
	rows := v.Week.Rows()
	if rows == 0 {
		pad := th.padding()
		l.Centered(area.Inset(pad), th.Placeholder, area.H/2-pad)
		return false
	}

	cellW := area.W / float64(model.Days)
	cellH := area.H / float64(rows)

	l.DC.SetColor(th.Grid)
	l.DC.SetLineWidth(1)
	for i := 1; i < rows; i++ {
		y := snapLine(area.Y + float64(i)*cellH)
		l.DC.DrawLine(area.X, y, area.X+area.W, y)
	}
	for d := 1; d < model.Days; d++ {
		x := snapLine(area.X + float64(d)*cellW)
		l.DC.DrawLine(x, area.Y, x, area.Y+area.H)
	}
	l.DC.Stroke()

	overflow := false
	for d := 0; d < model.Days; d++ {
		for i := 0; i < rows; i++ {
			slot, err := v.Week.Slot(d, i)
			if err != nil || slot.Empty() {
				continue
			}
			cell := glyph.Rect{
				X: area.X + float64(d)*cellW,
				Y: area.Y + float64(i)*cellH,
				W: cellW,
				H: cellH,
			}
			if drawSlot(l, cell, slot, th.padding()) {
				overflow = true
			}
		}
	}
	return overflow
}

// drawSlot draws a slot's name and location in their sub-bands. A slot with
// only one of them centers it in the whole cell.
func drawSlot(l *glyph.Layout, cell glyph.Rect, slot model.Slot, pad float64) bool {
	inner := glyph.Rect{X: cell.X + pad, Y: cell.Y + 1, W: cell.W - 2*pad, H: cell.H - 2}
	if inner.W <= 0 || inner.H <= 0 {
		return false
	}

	if slot.Name == "" || slot.Location == "" {
		text := slot.Name
		if text == "" {
			text = slot.Location
		}
		return l.Cell(inner, text, inner.H/2)
	}

	// Name in the upper half, location in the lower half; both share the
	// cell's clip so tall glyphs are not cut at the band boundary.
	quarter := inner.H / 4
	a := l.Cell(inner, slot.Name, quarter)
	b := l.Cell(inner, slot.Location, 3*quarter)
	return a || b
}

// snapLine centers a 1px line on a pixel row/column so it is not smeared
// over two.
func snapLine(v float64) float64 {
	return float64(int(v)) + 0.5
}
