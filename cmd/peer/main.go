package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Brownie44l1/tinyhttpd/internal/peer"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
	"github.com/Brownie44l1/tinyhttpd/internal/server"
)

const envPrefix = "PEER"

type peerConfig struct {
	Username string `envconfig:"USERNAME" required:"true"`
}

func main() {
	cfg, err := server.ConfigFromEnv(envPrefix)
	if err != nil {
		fail(server.NewDefaultLogger(), "load config", err)
	}
	logger := server.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	var pc peerConfig
	if err := envconfig.Process(envPrefix, &pc); err != nil {
		fail(logger, "load peer config", err)
	}

	node := peer.NewNode(pc.Username, logger)

	r := router.New()
	r.Use(server.LoggingMiddleware(logger))
	node.Routes(r)

	srv := server.New(cfg, r)
	srv.Logger = logger

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
			fail(logger, "serve", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", server.Field{Key: "error", Value: err})
	}

	logger.Info("peer stopped",
		server.Field{Key: "username", Value: node.Username()},
		server.Field{Key: "messages", Value: len(node.Messages())},
		server.Field{Key: "connected", Value: len(node.Connected())},
	)
}

func fail(logger server.Logger, msg string, err error) {
	logger.Error(msg, server.Field{Key: "error", Value: err})
	os.Exit(1)
}
