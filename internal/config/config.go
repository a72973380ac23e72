package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WindowConfig describes the widget window and its translucent background.
type WindowConfig struct {
	// Width and Height are the expanded (week view) client size in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Alpha is the base opacity of the flat background (1..255).
	Alpha int `yaml:"alpha" json:"alpha"`
	// BlurAlpha is the base opacity used when a blurred backdrop is shown.
	BlurAlpha int `yaml:"blur_alpha" json:"blur_alpha"`

	// CornerRadius is in device-independent pixels; scaled by DPI/96.
	CornerRadius int `yaml:"corner_radius" json:"corner_radius"`
	DPI          int `yaml:"dpi" json:"dpi"`

	Background string `yaml:"background" json:"background"`
	TextColor  string `yaml:"text_color" json:"text_color"`
	GridColor  string `yaml:"grid_color" json:"grid_color"`

	// StartView is "day" (compact) or "week" (expanded).
	StartView string `yaml:"start_view" json:"start_view"`
}

// BlurConfig controls the live backdrop blur.
type BlurConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Radius  int  `yaml:"radius" json:"radius"`

	// Source selects the screen grabber:
	//   - "none": no capture, blur always falls back to flat fill
	//   - "file": Wallpaper image stands in for the desktop
	//   - "chromium": DesktopURL rendered by headless Chromium
	Source     string `yaml:"source" json:"source"`
	Wallpaper  string `yaml:"wallpaper" json:"wallpaper"`
	DesktopURL string `yaml:"desktop_url" json:"desktop_url"`

	ScreenWidth  int `yaml:"screen_width" json:"screen_width"`
	ScreenHeight int `yaml:"screen_height" json:"screen_height"`
}

type FontConfig struct {
	// Path to a TTF/OTF file. Empty uses the embedded Go Regular face.
	Path string  `yaml:"path" json:"path"`
	Size float64 `yaml:"size" json:"size"`
}

type MarqueeConfig struct {
	SpeedPxPerSec float64 `yaml:"speed_px_per_sec" json:"speed_px_per_sec"`
	PauseMs       int     `yaml:"pause_ms" json:"pause_ms"`
	FPS           int     `yaml:"fps" json:"fps"`
}

type MotionConfig struct {
	DurationMs   int `yaml:"duration_ms" json:"duration_ms"`
	FPS          int `yaml:"fps" json:"fps"`
	SnapDistance int `yaml:"snap_distance" json:"snap_distance"`
	SnapMargin   int `yaml:"snap_margin" json:"snap_margin"`
}

type ScheduleConfig struct {
	// Path is the YAML grid file.
	Path string `yaml:"path" json:"path"`
	// ICS is an optional .ics file path or http(s) URL; when set it is
	// imported instead of Path.
	ICS         string `yaml:"ics" json:"ics"`
	Slots       int    `yaml:"slots" json:"slots"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
}

// Config is the top-level application configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window" json:"window"`
	Blur     BlurConfig     `yaml:"blur" json:"blur"`
	Font     FontConfig     `yaml:"font" json:"font"`
	Marquee  MarqueeConfig  `yaml:"marquee" json:"marquee"`
	Motion   MotionConfig   `yaml:"motion" json:"motion"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Refresh is a cron-style schedule for the full re-render that picks up
	// day changes. Default is every minute.
	Refresh string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// Output is where the PNG presenter writes frames.
	Output string `yaml:"output" json:"output"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:        400,
			Height:       300,
			Alpha:        180,
			BlurAlpha:    220,
			CornerRadius: 16,
			DPI:          96,
			Background:   "#3c3c3c",
			TextColor:    "#ffffff",
			GridColor:    "#8c8c8c",
			StartView:    "day",
		},
		Blur: BlurConfig{
			Enabled:      false,
			Radius:       12,
			Source:       "none",
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
		Font: FontConfig{Size: 18},
		Marquee: MarqueeConfig{
			SpeedPxPerSec: 40,
			PauseMs:       1000,
			FPS:           25,
		},
		Motion: MotionConfig{
			DurationMs:   250,
			FPS:          60,
			SnapDistance: 20,
			SnapMargin:   10,
		},
		Schedule: ScheduleConfig{
			Path:        "schedule.yaml",
			Slots:       8,
			Timezone:    "Local",
			Placeholder: "No classes today",
		},
		Refresh:  "* * * * *",
		LogLevel: "info",
		Output:   "preview.png",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	w := &c.Window
	if w.Width <= 0 {
		w.Width = def.Window.Width
	}
	if w.Height <= 0 {
		w.Height = def.Window.Height
	}
	if w.Alpha <= 0 || w.Alpha > 255 {
		w.Alpha = def.Window.Alpha
	}
	if w.BlurAlpha <= 0 || w.BlurAlpha > 255 {
		w.BlurAlpha = def.Window.BlurAlpha
	}
	if w.CornerRadius <= 0 {
		w.CornerRadius = def.Window.CornerRadius
	}
	if w.DPI <= 0 {
		w.DPI = def.Window.DPI
	}
	if _, err := ParseHexColor(w.Background); err != nil {
		w.Background = def.Window.Background
	}
	if _, err := ParseHexColor(w.TextColor); err != nil {
		w.TextColor = def.Window.TextColor
	}
	if _, err := ParseHexColor(w.GridColor); err != nil {
		w.GridColor = def.Window.GridColor
	}
	switch w.StartView {
	case "day", "week":
		// ok
	default:
		w.StartView = def.Window.StartView
	}

	b := &c.Blur
	if b.Radius < 0 {
		b.Radius = 0
	}
	switch b.Source {
	case "none", "file", "chromium":
		// ok
	default:
		b.Source = def.Blur.Source
	}
	if b.ScreenWidth <= 0 {
		b.ScreenWidth = def.Blur.ScreenWidth
	}
	if b.ScreenHeight <= 0 {
		b.ScreenHeight = def.Blur.ScreenHeight
	}

	if c.Font.Size <= 0 {
		c.Font.Size = def.Font.Size
	}

	m := &c.Marquee
	if m.SpeedPxPerSec <= 0 {
		m.SpeedPxPerSec = def.Marquee.SpeedPxPerSec
	}
	if m.PauseMs < 0 {
		m.PauseMs = def.Marquee.PauseMs
	}
	if m.FPS <= 0 {
		m.FPS = def.Marquee.FPS
	}

	mo := &c.Motion
	if mo.DurationMs <= 0 {
		mo.DurationMs = def.Motion.DurationMs
	}
	if mo.FPS <= 0 {
		mo.FPS = def.Motion.FPS
	}
	if mo.SnapDistance < 0 {
		mo.SnapDistance = def.Motion.SnapDistance
	}
	if mo.SnapMargin < 0 {
		mo.SnapMargin = def.Motion.SnapMargin
	}

	s := &c.Schedule
	if s.Slots <= 0 {
		s.Slots = def.Schedule.Slots
	}
	if s.Timezone == "" {
		s.Timezone = def.Schedule.Timezone
	}
	if s.Placeholder == "" {
		s.Placeholder = def.Schedule.Placeholder
	}

	if c.Refresh == "" {
		c.Refresh = def.Refresh
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Output == "" {
		c.Output = def.Output
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timetable-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor converts "#RRGGBB" (leading '#' optional) to RGB.
func ParseHexColor(hex string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("config: invalid color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("config: invalid color %q: %w", hex, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
