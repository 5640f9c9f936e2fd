package main

import (
	// stdlib
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// internal
	"github.com/Robogera/pitchtrack/pkg/config"
	"github.com/Robogera/pitchtrack/pkg/rpath"

	// external
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

const (
	default_cfg_path string = "../cfg/config.default.toml"
	stats_buffer     int    = 64
)

var cfg_path string
var exe_dir rpath.Base

func init() {
	var err error

	exe_dir, err = rpath.ExecutableDir()
	if err != nil {
		slog.Error("Can't find the executable's location", "error", err)
		return
	}

	flag.StringVar(
		&cfg_path, "config",
		default_cfg_path,
		"Path to config file, relative paths start at the executable")
}

func main() {

	// Configuration init

	flag.Parse()

	cfg, err := config.Unmarshal(exe_dir.Resolve(cfg_path))
	if err != nil {
		slog.Error("Config file not loaded. Shutting down...", "provided path", cfg_path, "error", err)
		os.Exit(1)
	}

	var log_level slog.Level

	switch cfg.Logging.Level {
	case config.LoggingLevelDebug:
		log_level = slog.LevelDebug
	case config.LoggingLevelInfo:
		log_level = slog.LevelInfo
	case config.LoggingLevelWarn:
		log_level = slog.LevelWarn
	case config.LoggingLevelError:
		log_level = slog.LevelError
	default:
		slog.Warn(
			"No valid logging level provided. Defaulting to LevelError",
			"provided value", cfg.Logging.Level)
		log_level = slog.LevelError
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      log_level,
		TimeFormat: time.RFC3339,
		AddSource:  log_level == slog.LevelDebug,
	}))

	if log_level != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting...")

	ctx := context.Background()
	eg, child_ctx := errgroup.WithContext(ctx)

	stats_chan := make(chan Statistics, stats_buffer)

	app := NewApp(cfg, logger, exe_dir, stats_chan)
	if err := os.MkdirAll(app.scratch_dir, 0o755); err != nil {
		logger.Error("Can't create scratch directory", "path", app.scratch_dir, "error", err)
		os.Exit(1)
	}
	logger.Info("Services",
		"roboflow", app.detector.Enabled(),
		"gemini", app.narrator.Enabled(),
		"supabase", app.storage.Enabled())

	if publisher := mqttclient(child_ctx, logger, cfg); publisher != nil {
		app.publisher = publisher
		defer publisher.Close()
	}

	eg.Go(func() error {
		return webserver(child_ctx, logger, cfg, app)
	})

	eg.Go(func() error {
		return stat(
			child_ctx, logger, stats_chan,
			cfg.Logging.StatPeriodSec)
	})

	eg.Go(func() error {
		return control(child_ctx, logger)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, ERR_INTERRUPTED_BY_USER) && !errors.Is(err, context.Canceled) {
		logger.Error("Stopped", "error", err)
		return
	}

	logger.Info("Stopped")
}

func control(ctx context.Context, logger *slog.Logger) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGINT)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logger.Info("Control cancelled by context")
		return context.Canceled
	case <-interrupt:
		logger.Info("Cancelled by user")
		return ERR_INTERRUPTED_BY_USER
	}
}
