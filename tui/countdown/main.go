package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	countdown "github.com/d093w1z/countdown/api"
	"github.com/d093w1z/countdown/api/clock"
	"github.com/d093w1z/countdown/config"
	"github.com/d093w1z/countdown/sound"
	"github.com/d093w1z/countdown/tui/countdown/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, formatFlag, logFile string
	var durationFlag time.Duration
	var verbose bool

	flagSet := pflag.NewFlagSet("countdown-tui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $"+config.EnvConfig+")")
	flagSet.DurationVar(&durationFlag, "duration", 0, "countdown length, overrides the config file")
	flagSet.StringVar(&formatFlag, "format", "", "display format: hh:mm:ss or mm:ss")
	flagSet.StringVar(&logFile, "log-file", "", "write logs to this file (default: discard)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	// The alt screen owns stdout and stderr while the program runs.
	var logOutput io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))

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
	if err := cfg.Validate(); err != nil {
		return err
	}

	timers, err := countdown.NewTimerManager(cfg.Duration.Seconds(), cfg.TimerFormat(), clock.Real())
	if err != nil {
		return err
	}
	defer timers.Close()
	timers.SetStep(cfg.Step.Seconds())

	if cfg.Sound.Enabled {
		chime := sound.NewChime(cfg.Sound.Frequency, time.Duration(cfg.Sound.Length))
		if err := chime.Initialize(); err != nil {
			logger.Warn("sound disabled", "error", err)
		} else {
			defer chime.Close()
			timers.OnComplete(chime.Play)
		}
	}

	program := tea.NewProgram(view.NewModel(timers, timers.Subscribe()), tea.WithAltScreen())
	timers.OnComplete(func() {
		logger.Info("countdown complete")
		program.Send(view.CompletedMsg{})
	})

	logger.Debug("starting", "duration", time.Duration(cfg.Duration), "format", cfg.Format)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
