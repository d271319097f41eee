// Package server wraps http.Server with graceful shutdown, sane timeout
// defaults, and environment-driven configuration.
//
// The zero-friction path is NewFromConfig plus Run for errgroup-based
// lifecycles:
//
//	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil { ... }
//	eg.Go(s.Run(ctx, mux))
//
// Run starts the server, watches the context, and performs a bounded
// graceful shutdown when it is canceled.
package server
