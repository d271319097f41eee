package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pubsub/core/api"
	"github.com/dmitrymomot/pubsub/core/broker"
	"github.com/dmitrymomot/pubsub/core/config"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/server"
	"github.com/dmitrymomot/pubsub/core/ws"
	"github.com/dmitrymomot/pubsub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg)

	var log = logger.New(logger.WithProduction(cfg.AppName))
	if cfg.Debug {
		log = logger.New(logger.WithDevelopment(cfg.AppName))
	}

	registry := broker.NewTopicRegistry()
	engine := broker.NewDeliveryEngine(registry,
		broker.WithLogger(log.With(logger.Component("engine"))))
	dispatcher := protocol.NewDispatcher(engine,
		protocol.WithLogger(log.With(logger.Component("dispatcher"))))

	mux := http.NewServeMux()
	api.NewHandler(registry,
		api.WithLogger(log.With(logger.Component("api"))),
	).Register(mux)
	mux.Handle("GET /ws", ws.NewHandlerFromConfig(cfg.WS, dispatcher,
		ws.WithLogger(log.With(logger.Component("ws"))),
		ws.WithAllowAnyOrigin(),
	))

	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(log.With(logger.Component("server"))))
	if err != nil {
		log.Error("failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(s.Run(ctx, mux))

	if err := eg.Wait(); err != nil {
		log.Error("failed to run server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("application stopped")
}
