// Package config provides type-safe environment variable loading with
// per-type caching. Each configuration struct type is loaded once and the
// cached value is returned on subsequent calls.
//
// The package automatically loads a .env file (when present) on first use
// and parses environment variables into struct fields via caarlos0/env.
//
// Basic usage:
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// Different struct types are cached independently; loading the same type
// twice returns identical values.
package config
