package glyph

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// PixelSize converts a font size given at 96 DPI to device pixels.
func PixelSize(size float64, dpi int) float64 {
	if dpi <= 0 {
		dpi = 96
	}
	return size * float64(dpi) / 96
}

// LoadFace opens a TrueType/OpenType face at sizePx device pixels. An empty
// path selects the embedded Go Regular font.
func LoadFace(path string, sizePx float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("glyph: read font: %w", err)
		}
		data = b
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font %q: %w", path, err)
	}
	// At 72 DPI one point is one pixel.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("glyph: new face: %w", err)
	}
	return face, nil
}
