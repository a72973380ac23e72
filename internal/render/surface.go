package render

import (
	"errors"
	"fmt"
	"image"
)

// maxPixels bounds a single surface allocation (64 MiB of BGRA).
const maxPixels = 1 << 24

var ErrInvalidSize = errors.New("render: invalid surface size")

// Surface is a top-down 32bpp pixel buffer. While a frame is being drawn
// the bytes are in RGBA order so image/draw and gg can paint into it;
// Finalize rewrites them as premultiplied BGRA for presentation.
type Surface struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// RGBA returns an image view sharing the surface's pixel storage.
func (s *Surface) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    s.Pix,
		Stride: s.Stride,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// SurfaceManager owns the reusable frame buffer. It reallocates only when
// the requested dimensions change and never clears existing content.
type SurfaceManager struct {
	cur    *Surface
	allocs int
}

// Ensure returns a surface of exactly width×height.
func (m *SurfaceManager) Ensure(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if m.cur != nil && m.cur.Width == width && m.cur.Height == height {
		return m.cur, nil
	}
	if width > maxPixels/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidSize, width, height, maxPixels)
	}

	m.cur = &Surface{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pix:    make([]byte, width*height*4),
	}
	m.allocs++
	return m.cur, nil
}

// Allocations reports how many buffers have been allocated so far.
func (m *SurfaceManager) Allocations() int {
	return m.allocs
}
