// Package logging provides structured logging configuration for mockbird.
//
// It wraps log/slog so every component logs the same way. Components accept
// a *slog.Logger in their constructor or via a setter; when none is supplied
// they fall back to logging.Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//	logger.Info("server started", "port", 3001)
package logging
