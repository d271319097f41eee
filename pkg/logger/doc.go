// Package logger provides a small factory and attribute helpers on top of
// the standard slog package.
//
// Attribute helpers use the empty-Attr pattern for nil safety, so calls
// like log.Info("msg", logger.Error(err)) need no explicit nil checks.
//
//	log := logger.New(
//		logger.WithDevelopment("pubsubd"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//	log.Info("server starting", logger.Component("server"))
package logger
