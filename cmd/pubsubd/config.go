package main

import (
	"github.com/dmitrymomot/pubsub/core/server"
	"github.com/dmitrymomot/pubsub/core/ws"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"pubsubd"`
	Debug   bool   `env:"DEBUG" envDefault:"false"`

	Server server.Config
	WS     ws.Config
}
