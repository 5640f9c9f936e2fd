package main

import (
	// stdlib
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	// internal
	"github.com/Robogera/pitchtrack/pkg/config"

	// external
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func corsPolicy() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"X-Request-Id"},
		MaxAge:          12 * time.Hour,
	})
}

func limitBody(max_bytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max_bytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max_bytes)
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		request_id := uuid.NewString()
		c.Header("X-Request-Id", request_id)
		c.Next()
		logger.Info("Request",
			"id", request_id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

func router(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(app.logger), corsPolicy(),
		limitBody(app.cfg.Webserver.MaxUploadMB<<20))

	r.GET("/health", app.health)
	r.GET("/live", gin.WrapH(app.live))
	r.POST("/analyze_frame", app.analyzeFrame)
	r.POST("/analyze_video", app.analyzeVideo)
	r.POST("/analyze_with_gemini", app.analyzeWithGemini)
	return r
}

func webserver(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	app *App,
) error {
	logger := parent_logger.With("coroutine", "webserver")

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Webserver.Port),
		Handler:      router(app),
		ReadTimeout:  seconds(cfg.Webserver.ReadTimeoutSec),
		WriteTimeout: seconds(cfg.Webserver.WriteTimeoutSec),
	}

	err_chan := make(chan error, 1)
	go func() {
		err_chan <- server.ListenAndServe()
	}()
	defer func() {
		shutdown_context, cancel := context.WithTimeout(
			context.Background(), seconds(cfg.Webserver.ShutdownTimeoutSec))
		defer cancel()
		shutdown_initiated_timestamp := time.Now()
		err := server.Shutdown(shutdown_context)
		logger.Info(
			"Shut down",
			"shutdown time (sec)", time.Since(shutdown_initiated_timestamp).Seconds(),
			"error", err)
	}()

	logger.Info("Started", "port", cfg.Webserver.Port)

	select {
	case <-ctx.Done():
		logger.Info("Cancelled by context", "timeout (sec)", cfg.Webserver.ShutdownTimeoutSec)
		return context.Canceled
	case err := <-err_chan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Error", "port", cfg.Webserver.Port, "error", err)
		return err
	}
}
