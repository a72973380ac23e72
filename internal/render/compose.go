package render

import (
	"image"
	"image/color"
)

// Background is what the frame is filled with before anything is drawn:
// a flat color shown at Alpha, or a captured and blurred backdrop of the
// same size as the surface shown at BackdropAlpha.
type Background struct {
	Color         color.RGBA
	Alpha         uint8
	Backdrop      *image.RGBA
	BackdropAlpha uint8
}

// Blurred reports whether a usable backdrop is attached.
func (b Background) Blurred() bool {
	return b.Backdrop != nil
}

// straight returns the unpremultiplied background color at byte offset i of
// a tightly packed surface.
func (b Background) straight(i int) (r, g, bb uint8) {
	if b.Backdrop != nil {
		p := b.Backdrop.Pix[i : i+3 : i+3]
		return p[0], p[1], p[2]
	}
	return b.Color.R, b.Color.G, b.Color.B
}

// opacity is the base alpha of whichever fill is in use.
func (b Background) opacity() uint8 {
	if b.Backdrop != nil {
		return b.BackdropAlpha
	}
	return b.Alpha
}

func premul(c, a uint8) uint8 {
	return uint8(int(c) * int(a) / 255)
}

// usable reports whether the backdrop matches the surface geometry.
func (b Background) usable(s *Surface) bool {
	if b.Backdrop == nil {
		return true
	}
	r := b.Backdrop.Rect
	return r.Min == (image.Point{}) && r.Dx() == s.Width && r.Dy() == s.Height && b.Backdrop.Stride == s.Stride
}

// Fill writes the premultiplied background into every pixel, in RGBA order.
// A backdrop whose size does not match the surface is ignored and the flat
// color is used at the flat Alpha. The returned Background is the one
// actually written and must be passed to Finalize.
func Fill(s *Surface, bg Background) Background {
	if !bg.usable(s) {
		bg.Backdrop = nil
	}
	a := bg.opacity()
	pix := s.Pix
	for y := 0; y < s.Height; y++ {
		off := y * s.Stride
		for x := 0; x < s.Width; x++ {
			r, g, b := bg.straight(off)
			pix[off+0] = premul(r, a)
			pix[off+1] = premul(g, a)
			pix[off+2] = premul(b, a)
			pix[off+3] = a
			off += 4
		}
	}
	return bg
}

// Finalize applies the rounded-corner mask and converts the surface to
// premultiplied BGRA in place.
//
// A pixel whose color still equals its background fill is background: its
// alpha becomes the base opacity×coverage and its color is re-premultiplied. Any other
// pixel was drawn over (grid, glyph, placeholder) and is treated as opaque,
// so only the corner arc can make it translucent.
func Finalize(s *Surface, bg Background, radius int) {
	rf := float64(radius)
	base := bg.opacity()
	pix := s.Pix
	for y := 0; y < s.Height; y++ {
		off := y * s.Stride
		for x := 0; x < s.Width; x++ {
			cov := Coverage(x, y, s.Width, s.Height, rf)
			r, g, b := pix[off+0], pix[off+1], pix[off+2]
			br, bgc, bb := bg.straight(off)

			var a uint8
			if r == premul(br, base) && g == premul(bgc, base) && b == premul(bb, base) {
				a = uint8(float64(base)*cov + 0.5)
				r, g, b = premul(br, a), premul(bgc, a), premul(bb, a)
			} else {
				a = uint8(255*cov + 0.5)
				r, g, b = premul(r, a), premul(g, a), premul(b, a)
			}

			pix[off+0] = b
			pix[off+1] = g
			pix[off+2] = r
			pix[off+3] = a
			off += 4
		}
	}
}

// Frame is a composited BGRA buffer and where on screen it goes.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	// Dest is the window's screen rectangle at submission time.
	Dest image.Rectangle
}

// FrameOf wraps a finalized surface for submission.
func FrameOf(s *Surface, dest image.Rectangle) Frame {
	return Frame{
		Pix:    s.Pix,
		Width:  s.Width,
		Height: s.Height,
		Stride: s.Stride,
		Dest:   image.Rectangle{Min: dest.Min, Max: dest.Min.Add(image.Pt(s.Width, s.Height))},
	}
}
