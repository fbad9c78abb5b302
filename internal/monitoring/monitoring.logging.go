package monitoring

import (
	"fmt"

	nuts "github.com/vaudience/go-nuts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigureLogging replaces nuts.L with a logger at the given level
// (debug, info, warn, error). An empty level keeps the current logger.
func ConfigureLogging(level string) error {
	if level == "" {
		return nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}
	nuts.L = logger.Sugar()
	return nil
}
