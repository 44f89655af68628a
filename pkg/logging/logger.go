// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Async routes log lines through an AsyncWriter so workers never wait
	// on the output device, only on the bounded queue.
	Async bool

	// BufferSize is the AsyncWriter queue capacity (default: DefaultBufferSize).
	BufferSize int
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Pretty:     false,
		Output:     os.Stderr,
		Async:      false,
		BufferSize: DefaultBufferSize,
	}
}

// Setup configures the global zerolog logger.
// The returned closer flushes the async queue; it is a no-op otherwise.
func Setup(cfg Config) (zerolog.Logger, io.Closer) {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	var closer io.Closer = nopCloser{}
	if cfg.Async {
		async := NewAsyncWriter(output, cfg.BufferSize)
		output = async
		closer = async
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger, closer
}

// ParseLevel converts a level name from config or flags.
// Unknown names map to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Per-record flow (resolved endpoint, fetched stars)
//   - Request flow (conditional requests, 304 served from cache)
//   - Worker start/stop
//
// Info: Normal operation events
//   - Quota refreshes
//   - Pipeline start and summary
//   - Per-record results when verbose is set
//
// Warn: Warning conditions that don't prevent operation
//   - Quota exhausted, worker waiting for reset
//   - Quota refresh fell back to the default state
//   - Failed fetches (recorded on the record, run continues)
//   - Cache errors (fallback to plain request)
//
// Error: Error conditions requiring attention
//   - Configuration errors
//   - Unreadable project lists
//
// Context Fields:
//   - component: emitting package
//   - run_id: pipeline invocation id
//   - url: project URL
//   - endpoint: GitHub API URL
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, malformed
//   - stars: fetched star count
//   - limit, used, reset_at, wait: quota state
//   - worker_id: stage worker index
