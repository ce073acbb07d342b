// Package logging builds the service's slog handler: JSON records on stderr
// and, when enabled, in one log file per day with age-based retention.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"k8s.io/utils/clock"

	"github.com/agroland/agroland-sync/internal/config"
)

// ParseLevel maps a textual level onto slog. The boolean is false for
// unrecognized input, which yields Info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewHandler returns a JSON handler writing to w
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup returns the handler for the configured sinks. The returned closer
// releases the log file and is a no-op when file logging is off.
func Setup(cfg *config.LoggingConfig, level slog.Leveler) (slog.Handler, io.Closer, error) {
	return setup(cfg, level, os.Stderr, clock.RealClock{})
}

func setup(
	cfg *config.LoggingConfig,
	level slog.Leveler,
	stderr io.Writer,
	clk clock.PassiveClock,
) (slog.Handler, io.Closer, error) {
	if cfg == nil || !cfg.FileEnabled() {
		return NewHandler(stderr, level), nopCloser{}, nil
	}

	dir, err := cfg.GetDirectory()
	if err != nil {
		return nil, nil, err
	}

	file, err := openDailyFile(dir, cfg.GetRetentionDays(), clk)
	if err != nil {
		return nil, nil, err
	}

	return NewHandler(io.MultiWriter(stderr, file), level), file, nil
}

// FilePattern is the strftime pattern of the daily log files
const FilePattern = "agroland-sync-%Y%m%d.log"

// openDailyFile returns a writer that switches to a new file at the first
// write after local midnight. Every switch deletes files of the same pattern
// last modified more than retentionDays ago.
func openDailyFile(dir string, retentionDays int, clk clock.PassiveClock) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := rotatelogs.New(filepath.Join(dir, FilePattern),
		rotatelogs.WithClock(clk),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(time.Duration(retentionDays)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file in %s: %w", dir, err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
