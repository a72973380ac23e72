package convert

import (
	"fmt"
	"image"
)

// BGRAToNRGBA converts a premultiplied, top-down BGRA buffer into a
// straight-alpha NRGBA image, e.g. for PNG encoding.
//
// Fully transparent pixels become transparent black. Color channels are
// un-premultiplied with rounding and clamped to 255, so a buffer that
// violates channel <= alpha still converts.
func BGRAToNRGBA(pix []byte, width, height, stride int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("convert: invalid size %dx%d", width, height)
	}
	if stride < width*4 {
		return nil, fmt.Errorf("convert: stride %d too small for width %d", stride, width)
	}
	if len(pix) < (height-1)*stride+width*4 {
		return nil, fmt.Errorf("convert: buffer of %d bytes too small for %dx%d", len(pix), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	// Walk both buffers by stride; avoids per-pixel Set/At calls.
	for y := 0; y < height; y++ {
		src := pix[y*stride : y*stride+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			b, g, r, a := src[x], src[x+1], src[x+2], src[x+3]
			if a == 0 {
				continue
			}
			dst[x+0] = unpremul(r, a)
			dst[x+1] = unpremul(g, a)
			dst[x+2] = unpremul(b, a)
			dst[x+3] = a
		}
	}
	return img, nil
}

func unpremul(c, a uint8) uint8 {
	if a == 255 {
		return c
	}
	v := (int(c)*255 + int(a)/2) / int(a)
	if v > 255 {
		return 255
	}
	return uint8(v)
}
