package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/d093w1z/gio/app"
	"github.com/d093w1z/gio/io/event"
	"github.com/d093w1z/gio/io/key"
	"github.com/d093w1z/gio/io/system"
	"github.com/d093w1z/gio/layout"
	"github.com/d093w1z/gio/op"
	"github.com/d093w1z/gio/unit"
	"github.com/d093w1z/gio/widget"
	"github.com/d093w1z/gio/widget/material"
	"github.com/spf13/pflag"
	"golang.org/x/exp/shiny/materialdesign/icons"

	countdown "github.com/d093w1z/countdown/api"
	"github.com/d093w1z/countdown/api/clock"
	"github.com/d093w1z/countdown/config"
	"github.com/d093w1z/countdown/gui/countdown/polybar"
	"github.com/d093w1z/countdown/gui/countdown/widgets"
	"github.com/d093w1z/countdown/sound"
)

type C = layout.Context
type D = layout.Dimensions

var (
	btnToggle   = new(widget.Clickable)
	btnStop     = new(widget.Clickable)
	btnIncrease = new(widget.Clickable)
	btnDecrease = new(widget.Clickable)
)

type AppManager struct {
	timers  *countdown.TimerManager
	logger  *slog.Logger
	window  *app.Window
	// updates is the window's subscription; closing it ends watch.
	updates <-chan countdown.Snapshot
	mu      sync.Mutex
}

// Start creates the window and launches the event loop
func (m *AppManager) Start() {
	m.mu.Lock()
	if m.window != nil {
		m.mu.Unlock()
		return
	}

	m.window = new(app.Window)
	m.window.Option(app.Decorated(false), app.Transparent(true), app.Size(300, 300), app.Title("Countdown"))
	window := m.window
	updates := m.timers.Subscribe()
	m.updates = updates
	m.mu.Unlock()

	go m.watch(window, updates)
	go func() {
		if err := m.loop(window); err != nil {
			m.logger.Error("window loop", "error", err)
			os.Exit(1)
		}
	}()
}

// Stop closes the window safely
func (m *AppManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.window != nil {
		m.window.Invalidate()
		m.window.Perform(system.ActionClose)
		m.window = nil
	}
	m.releaseLocked()
}

// releaseLocked drops the window's subscription. Must be called with mu
// held.
func (m *AppManager) releaseLocked() {
	if m.updates != nil {
		m.timers.Unsubscribe(m.updates)
		m.updates = nil
	}
}

// ToggleState opens the window when it is closed and closes it otherwise.
func (m *AppManager) ToggleState() {
	m.mu.Lock()
	windowRunning := m.window != nil
	m.mu.Unlock()

	if !windowRunning {
		go m.Start()
	} else {
		go m.Stop()
	}
}

// watch redraws the window on every published snapshot.
func (m *AppManager) watch(window *app.Window, updates <-chan countdown.Snapshot) {
	for range updates {
		window.Invalidate()
	}
}

// ---------------- GUI LOOP ----------------
func (m *AppManager) loop(window *app.Window) error {
	var ops op.Ops
	th := material.NewTheme()

	for {
		e := window.Event()
		switch e := e.(type) {
		case app.DestroyEvent:
			m.mu.Lock()
			if m.window == window {
				m.window = nil
				m.releaseLocked()
			}
			m.mu.Unlock()
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			// Key input handling
			event.Op(gtx.Ops, window)
			key.InputHintOp{Tag: window, Hint: key.HintAny}.Add(gtx.Ops)
			for {
				ev, ok := gtx.Source.Event(key.Filter{Focus: nil})
				if !ok {
					break
				}
				keyEv, ok := ev.(key.Event)
				if !ok || keyEv.State != key.Press {
					continue
				}
				switch keyEv.Name {
				case key.NameEscape:
					m.Stop()
				case key.NameSpace:
					m.timers.Toggle()
				}
			}

			widgets.Background(gtx)
			m.timerPage(th, gtx, m.timers.Current())

			e.Frame(gtx.Ops)
		}
	}
}

// ---------------- TIMER PAGE ----------------
func (m *AppManager) timerPage(th *material.Theme, gtx C, s countdown.Snapshot) D {
	toggleIcon := icons.AVPlayArrow
	if s.Running {
		toggleIcon = icons.AVPause
	}
	idle := !s.Running && s.Remaining == s.Total

	return layout.Center.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(layout.Spacer{Height: unit.Dp(20)}.Layout),
			widgets.Timer(th, s),
			layout.Rigid(layout.Spacer{Height: unit.Dp(20)}.Layout),
			layout.Rigid(func(gtx C) D {
				inset := layout.UniformInset(unit.Dp(8))
				return inset.Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
						widgets.Button(th, 5, "DECREASE", icons.ContentRemove, btnDecrease, idle, func() {
							m.timers.Dec()
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
						widgets.Button(th, 10, "PLAY/PAUSE", toggleIcon, btnToggle, true, func() {
							m.timers.Toggle()
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
						widgets.Button(th, 10, "STOP", icons.AVStop, btnStop, !idle, func() {
							m.timers.Stop()
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
						widgets.Button(th, 5, "INCREASE", icons.ContentAdd, btnIncrease, idle, func() {
							m.timers.Inc()
						}),
					)
				})
			}),
		)
	})
}

// ---------------- MAIN ----------------
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	app.Main()
}

func run() error {
	var configPath, formatFlag string
	var durationFlag time.Duration
	var polybarFlag, verbose bool

	flagSet := pflag.NewFlagSet("countdown", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $"+config.EnvConfig+")")
	flagSet.DurationVar(&durationFlag, "duration", 0, "countdown length, overrides the config file")
	flagSet.StringVar(&formatFlag, "format", "", "display format: hh:mm:ss or mm:ss")
	flagSet.BoolVar(&polybarFlag, "polybar", false, "print a polybar status line instead of opening a window")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("duration") {
		cfg.Duration = config.Duration(durationFlag)
	}
	if flagSet.Changed("format") {
		cfg.Format = formatFlag
	}
	if polybarFlag {
		cfg.Polybar.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	timers, err := countdown.NewTimerManager(cfg.Duration.Seconds(), cfg.TimerFormat(), clock.Real())
	if err != nil {
		return err
	}
	timers.SetStep(cfg.Step.Seconds())

	if cfg.Sound.Enabled {
		chime := sound.NewChime(cfg.Sound.Frequency, time.Duration(cfg.Sound.Length))
		if err := chime.Initialize(); err != nil {
			logger.Warn("sound disabled", "error", err)
		} else {
			timers.OnComplete(chime.Play)
		}
	}
	timers.OnComplete(func() { logger.Info("countdown complete") })

	manager := &AppManager{timers: timers, logger: logger}

	if cfg.Polybar.Enabled {
		polybar.SetLogger(logger)
		if _, err := polybar.Init(cfg.Polybar.Pipe); err != nil {
			return err
		}
		polybar.SetTimerManager(timers)
		polybar.AddHandler(manager.ToggleState)
		go polybar.Main()
	} else {
		manager.Start()
	}
	return nil
}
