package main

import (
	// stdlib
	"context"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/pitchtrack/pkg/gsma"
)

type Statistics struct {
	endpoint string
	took     time.Duration
	ok       bool
}

const statWindow = 20

// Periodically logs request counts and the moving average of
// request time per endpoint
func stat(ctx context.Context, parent_logger *slog.Logger, stats <-chan Statistics, stat_period_sec uint) error {
	logger := parent_logger.With("coroutine", "stat")
	if stat_period_sec == 0 {
		stat_period_sec = 1
	}

	type counters struct {
		requests, failures uint
		took               *gsma.SMA[time.Duration]
	}
	per_endpoint := make(map[string]*counters)
	var since_last_tick uint = 0

	ticker := time.NewTicker(time.Second * time.Duration(stat_period_sec))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stat cancelled by context")
			return context.Canceled
		case s := <-stats:
			c, ok := per_endpoint[s.endpoint]
			if !ok {
				took, err := gsma.NewSMA[time.Duration](statWindow)
				if err != nil {
					return err
				}
				c = &counters{took: took}
				per_endpoint[s.endpoint] = c
			}
			c.requests++
			if !s.ok {
				c.failures++
			}
			c.took.Recalc(s.took)
			since_last_tick++
		case <-ticker.C:
			if since_last_tick == 0 {
				continue
			}
			for endpoint, c := range per_endpoint {
				logger.Info("Stats",
					"endpoint", endpoint,
					"requests", c.requests,
					"failures", c.failures,
					"average time", time.Duration(c.took.Show()))
			}
			since_last_tick = 0
		}
	}
}
