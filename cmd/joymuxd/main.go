// Package main is the entry point for the joymux headless daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dhalweg/joymux/internal/profile"
	"github.com/dhalweg/joymux/internal/runtime"
	"github.com/dhalweg/joymux/internal/settings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// shutdownTimeout bounds how long deactivation may take on exit.
const shutdownTimeout = 5 * time.Second

type options struct {
	profilePath string
	configPath  string
	startMode   string
	watch       bool
	verbose     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	log, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		return 1
	}
	defer log.Sync()

	store := settings.NewStoreWithDefaults()
	if opts.configPath != "" {
		if err := store.Load(opts.configPath); err != nil {
			log.Error("failed to load configuration", zap.String("path", opts.configPath), zap.Error(err))
			return 1
		}
	}

	prof, err := profile.Load(opts.profilePath)
	if err != nil {
		log.Error("failed to load profile", zap.String("path", opts.profilePath), zap.Error(err))
		return 1
	}
	if opts.startMode != "" {
		if !prof.Modes.Has(opts.startMode) {
			log.Error("start mode not defined in profile", zap.String("mode", opts.startMode))
			return 1
		}
		prof.StartMode = opts.startMode
	}

	rt := runtime.New(runtime.Options{
		VJoy:     newLogVJoy(log),
		Keyboard: newLogKeyboard(log),
		Mouse:    newLogMouse(log),
		Speech:   newLogSpeech(log),
		Settings: store,
		Log:      log,
	})
	subscribeNotifications(rt, log)

	if err := rt.Activate(prof); err != nil {
		log.Error("failed to activate profile", zap.Error(err))
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.Deactivate(ctx); err != nil {
			log.Warn("deactivation did not finish cleanly", zap.Error(err))
		}
	}()

	if opts.watch {
		w, err := runtime.WatchProfile(opts.profilePath, func() {
			reloadProfile(rt, opts, log)
		}, log)
		if err != nil {
			log.Error("failed to watch profile", zap.Error(err))
			return 1
		}
		defer w.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := newStdinSource(os.Stdin, log)
	if err := rt.Run(ctx, src); err != nil && err != context.Canceled {
		log.Error("event loop failed", zap.Error(err))
		return 1
	}

	log.Info("shutting down")
	return 0
}

// reloadProfile swaps the active profile for the on-disk version, keeping
// the old one when the new file does not load or activate.
func reloadProfile(rt *runtime.Runtime, opts options, log *zap.Logger) {
	next, err := profile.Load(opts.profilePath)
	if err != nil {
		log.Error("reload failed, keeping active profile", zap.Error(err))
		return
	}
	if opts.startMode != "" && next.Modes.Has(opts.startMode) {
		next.StartMode = opts.startMode
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.Deactivate(ctx); err != nil {
		log.Warn("deactivation during reload did not finish cleanly", zap.Error(err))
	}
	if err := rt.Activate(next); err != nil {
		log.Error("reloaded profile failed to activate", zap.Error(err))
		return
	}
	log.Info("profile reloaded", zap.String("path", opts.profilePath))
}

// subscribeNotifications logs the runtime's bus traffic.
func subscribeNotifications(rt *runtime.Runtime, log *zap.Logger) {
	bus := rt.Bus()
	bus.Subscribe(runtime.TopicPaused, func(any) {
		log.Warn("dispatch paused")
	})
	bus.Subscribe(runtime.TopicResumed, func(any) {
		log.Info("dispatch resumed")
	})
	bus.Subscribe(runtime.TopicModeChanged, func(payload any) {
		if mc, ok := payload.(runtime.ModeChange); ok {
			log.Info("mode switched", zap.String("from", mc.From), zap.String("to", mc.To))
		}
	})
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.profilePath, "profile", "", "Path to the profile XML file")
	flag.StringVar(&opts.configPath, "config", "", "Path to the settings TOML file")
	flag.StringVar(&opts.startMode, "mode", "", "Mode to activate instead of the profile's start mode")
	flag.BoolVar(&opts.watch, "watch", false, "Reload the profile when it changes on disk")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "joymuxd - headless input remapping daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: joymuxd -profile <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEvents are read from stdin, one per line:\n")
		fmt.Fprintf(os.Stderr, "  button <device-guid> <id> <0|1>\n")
		fmt.Fprintf(os.Stderr, "  axis <device-guid> <id> <-1.0..1.0>\n")
		fmt.Fprintf(os.Stderr, "  hat <device-guid> <id> <direction>\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("joymuxd %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if opts.profilePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	return opts
}
