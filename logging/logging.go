package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// File, when set, receives a copy of every record.
	File string
	// Output defaults to stderr. Stdout is reserved for the report.
	Output io.Writer
}

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logFile       *os.File
	mu            sync.Mutex
)

// New constructs a slog logger. The returned closer releases the log file,
// if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		out = io.MultiWriter(out, file)
		closer = file
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), closer, nil
}

// SetupLogger builds a logger from opts and installs it as the package
// default used by the helpers below.
func SetupLogger(opts Options) (*slog.Logger, error) {
	logger, closer, err := New(opts)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if f, ok := closer.(*os.File); ok {
		logFile = f
	}
	defaultLogger = logger
	defaultLogger.Debug("log started", "at", time.Now().Format(time.RFC3339))
	return logger, nil
}

// CloseLogger closes the log file opened by SetupLogger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		defaultLogger.Debug("log closed", "at", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
}

// Default returns the logger installed by SetupLogger, or a stderr text
// logger at info level.
func Default() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// Or returns logger when non-nil and the package default otherwise.
func Or(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Default()
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	Default().Info(fmt.Sprintf(format, args...))
}

// DebugLog logs a message at debug level
func DebugLog(format string, args ...interface{}) {
	Default().Debug(fmt.Sprintf(format, args...))
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	Default().Error(fmt.Sprintf(format, args...))
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	Default().Warn(fmt.Sprintf(format, args...))
}

// LogImageProcessed logs when a page has been hashed, or why it failed.
func LogImageProcessed(logger *slog.Logger, path string, err error, attrs ...any) {
	logger = Or(logger)
	if err != nil {
		logger.Error("page failed", append([]any{"path", path, "error", err}, attrs...)...)
		return
	}
	logger.Debug("page hashed", append([]any{"path", path}, attrs...)...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
