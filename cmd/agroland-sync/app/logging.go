package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agroland/agroland-sync/internal/config"
	"github.com/agroland/agroland-sync/internal/logging"
)

// LogLevel reads AGROLAND_SYNC_LOG_LEVEL, falling back to LOG_LEVEL.
// debug forces slog.LevelDebug. Unset or invalid values yield Info.
func LogLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}

	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
	}
	return level
}

func configureStderrLogging(level slog.Level) {
	slog.SetDefault(slog.New(logging.WithTraceContext(logging.NewHandler(os.Stderr, level))))
}

// configureLogging installs the handler for cfg's sinks as the default logger.
// The closer must be closed on exit.
func configureLogging(cfg *config.Config, debug bool) (io.Closer, error) {
	handler, closer, err := logging.Setup(&cfg.Logging, LogLevel(debug))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(logging.WithTraceContext(handler)))
	return closer, nil
}
