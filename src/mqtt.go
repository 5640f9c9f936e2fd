package main

import (
	// stdlib
	"context"
	"log/slog"

	// internal
	"github.com/Robogera/pitchtrack/pkg/config"
	"github.com/Robogera/pitchtrack/pkg/synapse"
)

// Connects the tracking record publisher when enabled. A broker that is
// down only disables publishing
func mqttclient(ctx context.Context, parent_logger *slog.Logger, cfg *config.ConfigFile) *synapse.Publisher {
	logger := parent_logger.With("coroutine", "mqttclient")
	if !cfg.Mqtt.Enabled {
		logger.Debug("Disabled")
		return nil
	}
	publisher, err := synapse.Dial(ctx, logger, synapse.PublisherConfig{
		Address:        cfg.Mqtt.Address,
		ClientId:       cfg.Mqtt.ClientId,
		Topic:          cfg.Mqtt.Topic,
		ConnectTimeout: seconds(cfg.Mqtt.ConnectTimeoutSec),
	})
	if err != nil {
		logger.Error("Can't connect, tracking records won't be published", "err", err)
		return nil
	}
	return publisher
}
