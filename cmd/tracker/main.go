package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
	"github.com/Brownie44l1/tinyhttpd/internal/server"
	"github.com/Brownie44l1/tinyhttpd/internal/tracker"
)

const envPrefix = "TRACKER"

func main() {
	cfg, err := server.ConfigFromEnv(envPrefix)
	if err != nil {
		fail(server.NewDefaultLogger(), "load config", err)
	}
	logger := server.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	trackerCfg, err := tracker.ConfigFromEnv(envPrefix)
	if err != nil {
		fail(logger, "load tracker config", err)
	}

	store := trackerCfg.OpenStore()
	defer store.Close()
	if rs, ok := store.(*tracker.RedisStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), trackerCfg.RequestTimeout)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			fail(logger, "connect redis", err)
		}
	}

	r := router.New()
	r.Use(server.RecoveryMiddleware(logger))
	r.Use(server.LoggingMiddleware(logger))
	tracker.NewService(trackerCfg, store, logger).Routes(r)

	srv := server.New(cfg, r)
	srv.Logger = logger

	r.GET("/stats", func(_ *headers.Headers, _ string) (*router.Result, error) {
		return router.JSON(200, srv.Stats())
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
			fail(logger, "serve", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", server.Field{Key: "error", Value: err})
	}

	stats := srv.Stats()
	logger.Info("tracker stopped",
		server.Field{Key: "requests", Value: stats.RequestsTotal},
		server.Field{Key: "errors", Value: stats.ErrorsTotal},
	)
}

func fail(logger server.Logger, msg string, err error) {
	logger.Error(msg, server.Field{Key: "error", Value: err})
	os.Exit(1)
}
