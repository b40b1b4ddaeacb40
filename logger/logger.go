package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Log is a no-op logger until Init replaces it, so packages can log from tests.
var Log = zap.NewNop().Sugar()

// Init installs a production logger at the given level ("debug", "info", "warn", "error").
// An unknown level leaves Log untouched.
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	Log = logger.Sugar()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
