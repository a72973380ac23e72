package backdrop

import "image"

// Blur is a separable box blur. A horizontal pass writes into a scratch
// buffer and an identical vertical pass writes back into the image. Each
// pass keeps a running window sum, so the cost per pixel does not depend on
// the radius. The scratch buffer is kept between calls.
type Blur struct {
	scratch []byte
}

// BoxBlur blurs img in place with a (2*radius+1)² box.
func BoxBlur(img *image.RGBA, radius int) {
	var b Blur
	b.Apply(img, radius)
}

// Apply blurs img in place. Radius <= 0 leaves it untouched.
func (b *Blur) Apply(img *image.RGBA, radius int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if radius <= 0 || w == 0 || h == 0 {
		return
	}

	n := w * h * 4
	if cap(b.scratch) < n {
		b.scratch = make([]byte, n)
	}
	tmp := b.scratch[:n]
	base := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)

	// Rows: img -> tmp.
	for y := 0; y < h; y++ {
		boxPass(tmp, y*w*4, 4, img.Pix, base+y*img.Stride, 4, w, radius)
	}
	// Columns: tmp -> img.
	for x := 0; x < w; x++ {
		boxPass(img.Pix, base+x*4, img.Stride, tmp, x*4, w*4, h, radius)
	}
}

// boxPass averages n RGBA pixels along one line. src and dst are addressed
// by a start offset and a step between consecutive pixels; samples beyond
// either end are clamped to the edge pixel.
func boxPass(dst []byte, dOff, dStep int, src []byte, sOff, sStep, n, radius int) {
	size := 2*radius + 1
	half := size / 2

	at := func(i int) int {
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		return sOff + i*sStep
	}

	var sum [4]int
	for k := -radius; k <= radius; k++ {
		p := at(k)
		sum[0] += int(src[p])
		sum[1] += int(src[p+1])
		sum[2] += int(src[p+2])
		sum[3] += int(src[p+3])
	}

	for i := 0; i < n; i++ {
		d := dOff + i*dStep
		dst[d] = uint8((sum[0] + half) / size)
		dst[d+1] = uint8((sum[1] + half) / size)
		dst[d+2] = uint8((sum[2] + half) / size)
		dst[d+3] = uint8((sum[3] + half) / size)

		out := at(i - radius)
		in := at(i + radius + 1)
		sum[0] += int(src[in]) - int(src[out])
		sum[1] += int(src[in+1]) - int(src[out+1])
		sum[2] += int(src[in+2]) - int(src[out+2])
		sum[3] += int(src[in+3]) - int(src[out+3])
	}
}
