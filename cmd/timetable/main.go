package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"timetable/internal/backdrop"
	"timetable/internal/config"
	"timetable/internal/glyph"
	appLog "timetable/internal/log"
	"timetable/internal/model"
	"timetable/internal/motion"
	"timetable/internal/present"
	"timetable/internal/schedule"
	"timetable/internal/widget"
)

type flagConfig struct {
	configPath string
	output     string
	logLevel   string
	once       bool
	toggle     bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.output != "" {
		conf.Output = flags.output
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("timetable starting",
		"config_path", flags.configPath,
		"start_view", conf.Window.StartView,
		"blur", conf.Blur.Enabled,
		"blur_source", conf.Blur.Source,
		"schedule", conf.Schedule.Path,
		"ics", conf.Schedule.ICS != "",
		"output", conf.Output,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("timetable failed", err)
		os.Exit(1)
	}
	appLog.Info("timetable exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.output, "output", "", "PNG frame output path (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.once, "once", false, "Render one frame and exit")
	flag.BoolVar(&cfg.toggle, "toggle", false, "Toggle the view at startup")

	flag.Parse()

	return cfg
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	loc, err := loadLocation(conf.Schedule.Timezone)
	if err != nil {
		return err
	}

	week, err := loadSchedule(ctx, conf, loc, time.Now())
	if err != nil {
		appLog.Warn("schedule unavailable, starting empty", "err", err)
		week = schedule.NewWeek(conf.Schedule.Slots)
	}

	face, err := glyph.LoadFace(conf.Font.Path, glyph.PixelSize(conf.Font.Size, conf.Window.DPI))
	if err != nil {
		return err
	}
	defer face.Close()

	opts, err := engineOptions(conf, loc)
	if err != nil {
		return err
	}

	mode := model.ParseViewMode(conf.Window.StartView)
	size := opts.Geometry.Expanded
	if mode == model.ViewDay {
		size = opts.Geometry.CompactSize()
	}
	win := &hostWindow{rect: motion.InitialRect(size, opts.Geometry.Screen, opts.Geometry.Margin)}

	eng := widget.New(opts, win, present.NewPNG(conf.Output), face, week)
	eng.SetMode(mode)
	eng.SetBlur(conf.Blur.Enabled)

	desk, err := setupBackdrop(ctx, conf, eng, win)
	if err != nil {
		appLog.Warn("backdrop disabled", "source", conf.Blur.Source, "err", err)
	}

	if flags.toggle {
		eng.Toggle(time.Now())
	}

	if flags.once {
		return renderOnce(eng, opts.Duration)
	}
	return loop(ctx, conf, eng, desk, loc)
}

// renderOnce finishes any startup transition on a synthetic clock, then
// presents a single frame.
func renderOnce(eng *widget.Engine, d time.Duration) error {
	now := time.Now()
	if eng.Animating() {
		now = now.Add(d)
		eng.Step(now)
	}
	_, err := eng.Render(now)
	return err
}

// loop drives the widget: a fast motion ticker while a transition runs, a
// marquee ticker while any text overflows, and a cron-driven full refresh.
// SIGUSR1 toggles the view, SIGUSR2 toggles the blur.
func loop(ctx context.Context, conf *config.Config, eng *widget.Engine, desk *backdrop.ChromiumDesktop, loc *time.Location) error {
	refreshCh := make(chan *schedule.Week, 1)

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(conf.Refresh, func() {
		if desk != nil {
			if err := desk.Refresh(ctx); err != nil {
				appLog.Warn("desktop refresh failed", "err", err)
			}
		}
		week, err := loadSchedule(ctx, conf, loc, time.Now())
		if err != nil {
			appLog.Warn("schedule reload failed, keeping previous", "err", err)
			week = nil
		}
		select {
		case refreshCh <- week:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.Refresh, err)
	}
	c.Start()
	defer c.Stop()

	userCh := make(chan os.Signal, 1)
	signal.Notify(userCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(userCh)

	motionTick := time.NewTicker(time.Second / time.Duration(conf.Motion.FPS))
	defer motionTick.Stop()
	marqueeTick := time.NewTicker(time.Second / time.Duration(conf.Marquee.FPS))
	defer marqueeTick.Stop()

	render := func(now time.Time) {
		if _, err := eng.Render(now); err != nil {
			appLog.Warn("frame dropped", "err", err)
		}
	}
	render(time.Now())

	for {
		// Nil channels disable the idle cadences.
		var motionC, marqueeC <-chan time.Time
		if eng.Animating() {
			motionC = motionTick.C
		}
		if eng.Overflowing() {
			marqueeC = marqueeTick.C
		}

		select {
		case <-ctx.Done():
			return nil
		case now := <-motionC:
			eng.Step(now)
			render(now)
		case now := <-marqueeC:
			if !eng.Animating() {
				render(now)
			}
		case week := <-refreshCh:
			if week != nil {
				eng.SetSchedule(week)
			}
			render(time.Now())
		case sig := <-userCh:
			now := time.Now()
			switch sig {
			case syscall.SIGUSR1:
				eng.Toggle(now)
			case syscall.SIGUSR2:
				eng.SetBlur(!eng.Blur())
				appLog.Info("blur toggled", "enabled", eng.Blur())
			}
			render(now)
		}
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// loadSchedule imports the ICS source when one is configured, otherwise
// reads the YAML grid.
func loadSchedule(ctx context.Context, conf *config.Config, loc *time.Location, now time.Time) (*schedule.Week, error) {
	sc := conf.Schedule
	if sc.ICS == "" {
		return schedule.LoadYAML(sc.Path, sc.Slots)
	}

	body, err := schedule.ReadSource(ctx, sc.ICS)
	if err != nil {
		return nil, err
	}
	week, err := schedule.ImportICS(body, schedule.ImportOptions{Slots: sc.Slots, Location: loc, Now: now})
	if err != nil {
		return nil, err
	}
	appLog.Debug("ics imported", "slots", week.Slots(), "rows", week.Rows())
	return week, nil
}

func engineOptions(conf *config.Config, loc *time.Location) (widget.Options, error) {
	w := conf.Window
	bg, err := config.ParseHexColor(w.Background)
	if err != nil {
		return widget.Options{}, err
	}
	fg, err := config.ParseHexColor(w.TextColor)
	if err != nil {
		return widget.Options{}, err
	}
	grid, err := config.ParseHexColor(w.GridColor)
	if err != nil {
		return widget.Options{}, err
	}

	return widget.Options{
		Geometry: motion.Geometry{
			Expanded: image.Pt(w.Width, w.Height),
			Screen:   image.Rect(0, 0, conf.Blur.ScreenWidth, conf.Blur.ScreenHeight),
			Margin:   conf.Motion.SnapMargin,
		},
		Background:   color.RGBA{bg.R, bg.G, bg.B, 255},
		Text:         color.RGBA{fg.R, fg.G, fg.B, 255},
		Grid:         color.RGBA{grid.R, grid.G, grid.B, 255},
		Alpha:        uint8(w.Alpha),
		BlurAlpha:    uint8(w.BlurAlpha),
		BlurRadius:   conf.Blur.Radius,
		CornerRadius: w.CornerRadius,
		DPI:          w.DPI,
		Speed:        conf.Marquee.SpeedPxPerSec,
		Pause:        time.Duration(conf.Marquee.PauseMs) * time.Millisecond,
		Duration:     time.Duration(conf.Motion.DurationMs) * time.Millisecond,
		SnapDist:     conf.Motion.SnapDistance,
		Placeholder:  conf.Schedule.Placeholder,
		Location:     loc,
	}, nil
}

// setupBackdrop wires the configured screen grabber into the engine. The
// chromium desktop is returned so the refresh job can re-render it.
func setupBackdrop(ctx context.Context, conf *config.Config, eng *widget.Engine, win *hostWindow) (*backdrop.ChromiumDesktop, error) {
	b := conf.Blur
	switch b.Source {
	case "file":
		img, err := backdrop.LoadWallpaper(b.Wallpaper, b.ScreenWidth, b.ScreenHeight)
		if err != nil {
			return nil, err
		}
		eng.SetCapturer(backdrop.NewCapturer(win, backdrop.NewDesktopGrabber(img)))
		return nil, nil
	case "chromium":
		desk := backdrop.NewChromiumDesktop(backdrop.ChromiumOptions{
			URL:    b.DesktopURL,
			Width:  b.ScreenWidth,
			Height: b.ScreenHeight,
		})
		// A failed first render leaves the grabber empty; captures fall back
		// to the flat fill until the next refresh succeeds.
		if err := desk.Refresh(ctx); err != nil {
			appLog.Warn("initial desktop render failed", "url", b.DesktopURL, "err", err)
		}
		eng.SetCapturer(backdrop.NewCapturer(win, desk))
		return desk, nil
	}
	return nil, nil
}
