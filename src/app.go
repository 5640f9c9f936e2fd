package main

import (
	// stdlib
	"context"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/pitchtrack/pkg/bytetrack"
	"github.com/Robogera/pitchtrack/pkg/config"
	"github.com/Robogera/pitchtrack/pkg/gemini"
	"github.com/Robogera/pitchtrack/pkg/minimap"
	"github.com/Robogera/pitchtrack/pkg/person"
	"github.com/Robogera/pitchtrack/pkg/pipeline"
	"github.com/Robogera/pitchtrack/pkg/roboflow"
	"github.com/Robogera/pitchtrack/pkg/rpath"
	"github.com/Robogera/pitchtrack/pkg/storage"

	// external
	"github.com/hybridgroup/mjpeg"
)

type Detector interface {
	pipeline.Detector
	Enabled() bool
}

type Narrator interface {
	Analyze(ctx context.Context, video []byte, mime, text string) (string, error)
	Enabled() bool
}

type Uploader interface {
	Upload(ctx context.Context, local_path, target, content_type string) (string, error)
	Enabled() bool
}

// Everything a request handler needs. Tracking state is never kept
// here, every analysis builds its own session
type App struct {
	cfg         *config.ConfigFile
	logger      *slog.Logger
	scratch_dir string
	detector    Detector
	narrator    Narrator
	storage     Uploader
	live        *mjpeg.Stream
	publisher   pipeline.Publisher
	stats       chan<- Statistics
}

func seconds(s uint) time.Duration { return time.Duration(s) * time.Second }

func NewApp(cfg *config.ConfigFile, logger *slog.Logger, base rpath.Base, stats chan<- Statistics) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		scratch_dir: base.Resolve(cfg.Scratch.Dir),
		detector: roboflow.NewClient(roboflow.Config{
			BaseURL:    cfg.Detector.BaseURL,
			ApiKey:     cfg.Detector.ApiKey,
			Model:      cfg.Detector.Model,
			Version:    cfg.Detector.Version,
			Confidence: cfg.Detector.Confidence,
			Overlap:    cfg.Detector.Overlap,
			Timeout:    seconds(cfg.Detector.TimeoutSec),
		}, logger),
		narrator: gemini.NewClient(gemini.Config{
			BaseURL: cfg.Narrator.BaseURL,
			ApiKey:  cfg.Narrator.ApiKey,
			Model:   cfg.Narrator.Model,
			Timeout: seconds(cfg.Narrator.TimeoutSec),
		}, logger),
		storage: storage.NewClient(storage.Config{
			URL:    cfg.Storage.URL,
			Key:    cfg.Storage.Key,
			Bucket: cfg.Storage.Bucket,
		}, logger),
		live:  mjpeg.NewStream(),
		stats: stats,
	}
}

func (a *App) options() pipeline.Options {
	opts := pipeline.Options{
		Upstream: bytetrack.Config{
			ActivationThreshold: a.cfg.Upstream.ActivationThreshold,
			LostTrackBuffer:     a.cfg.Upstream.LostTrackBuffer,
			MatchingThreshold:   a.cfg.Upstream.MatchingThreshold,
		},
		Reid: person.Config{
			HistoryLength:   a.cfg.Reid.HistoryLength,
			FeatureBankSize: a.cfg.Reid.FeatureBankSize,
			InactiveTimeout: a.cfg.Reid.InactiveTimeout,
			PredictionCap:   a.cfg.Reid.PredictionCap,
		},
		MaxDistance:    a.cfg.Reid.MaxDistance,
		ClickThreshold: a.cfg.Reid.ClickThreshold,
		TrailLength:    a.cfg.Ball.TrailLength,
		Codecs:         a.cfg.Video.Codecs,
	}
	if a.cfg.Minimap.Enabled {
		opts.Minimap = &minimap.Projection{
			Width:  a.cfg.Minimap.Width,
			Height: a.cfg.Minimap.Height,
			Margin: a.cfg.Minimap.Margin,
		}
	}
	return opts
}

func (a *App) sinks() pipeline.Sinks {
	sinks := pipeline.Sinks{
		Live:        a.live,
		LiveQuality: a.cfg.Video.LiveQuality,
		StatPeriod:  seconds(a.cfg.Logging.StatPeriodSec),
	}
	if a.publisher != nil {
		sinks.Publisher = a.publisher
	}
	return sinks
}

// Non-blocking, stats are best effort
func (a *App) report(endpoint string, start time.Time, ok bool) {
	if a.stats == nil {
		return
	}
	select {
	case a.stats <- Statistics{endpoint: endpoint, took: time.Since(start), ok: ok}:
	default:
		a.logger.Debug("Stat channel full, dropping", "endpoint", endpoint)
	}
}
