// Package observability builds the structured loggers shared by the battle
// tools and the fields every battle log line carries.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/deckbattle/internal/config"
)

// NewLogger creates the root logger of a command, named after it.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error";
// cfg.Format must be "json" or "console".
// Postcondition: Returns a logger named cmd, or a non-nil error.
func NewLogger(cfg config.LoggingConfig, cmd string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Battle event lines repeat within a second; every one of them is kept.
	zc.Sampling = nil
	zc.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named(cmd), nil
}

// BattleFields identifies one battle in its log lines. A zero seed means the
// battle drew from crypto randomness and cannot be replayed, so it is omitted.
func BattleFields(id uuid.UUID, encounter string, seed int64) []zap.Field {
	fields := []zap.Field{
		zap.String("battle", id.String()),
		zap.String("encounter", encounter),
	}
	if seed != 0 {
		fields = append(fields, zap.Int64("seed", seed))
	}
	return fields
}
