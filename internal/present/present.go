package present

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"timetable/internal/convert"
	appLog "timetable/internal/log"
	"timetable/internal/render"
)

// PNG presents frames by writing them to a PNG file. The file is replaced
// atomically, so a reader never sees a partially written frame.
type PNG struct {
	Path string

	frames int
}

func NewPNG(path string) *PNG {
	return &PNG{Path: path}
}

func (p *PNG) Present(f render.Frame) error {
	if p.Path == "" {
		return errors.New("present: output path is empty")
	}
	img, err := convert.BGRAToNRGBA(f.Pix, f.Width, f.Height, f.Stride)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".timetable-frame-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("present: encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		return err
	}

	p.frames++
	appLog.Debug("frame presented", "path", p.Path, "dest", f.Dest, "frame", p.frames)
	return nil
}

// Memory keeps a private copy of the last presented frame.
type Memory struct {
	mu     sync.Mutex
	last   render.Frame
	frames int
}

func (m *Memory) Present(f render.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cap(m.last.Pix) < len(f.Pix) {
		m.last.Pix = make([]byte, len(f.Pix))
	}
	pix := m.last.Pix[:len(f.Pix)]
	copy(pix, f.Pix)
	m.last = f
	m.last.Pix = pix
	m.frames++
	return nil
}

// Last returns the last frame and how many frames were presented. The
// frame's pixels are owned by m.
func (m *Memory) Last() (render.Frame, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.frames
}

// Image converts the last frame for inspection.
func (m *Memory) Image() (*image.NRGBA, error) {
	f, n := m.Last()
	if n == 0 {
		return nil, errors.New("present: no frame yet")
	}
	return convert.BGRAToNRGBA(f.Pix, f.Width, f.Height, f.Stride)
}
