package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	// DefaultMaxSizeMB is the size a log file reaches before it is rotated.
	DefaultMaxSizeMB = 10

	// DefaultMaxBackups is the number of rotated log files kept.
	DefaultMaxBackups = 3
)

// ErrUnknownFormat is returned for a format other than FormatText or FormatJSON.
var ErrUnknownFormat = errors.New("unknown log format")

// Options configures New.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool

	// Format is FormatText or FormatJSON. Empty means FormatText.
	Format string

	// File, when set, sends logs to a size-rotated file instead of the writer.
	File string

	// MaxSizeMB and MaxBackups control rotation of File.
	// Zero values use DefaultMaxSizeMB and DefaultMaxBackups.
	MaxSizeMB  int
	MaxBackups int
}

// New creates a secure logger writing to w, or to opts.File when set.
// The returned closer releases the log file and must be called when logging
// is finished. It is a no-op when logging to w.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, DefaultMaxBackups),
			LocalTime:  true,
		}
		w = rotating
		closer = rotating
	}

	switch opts.Format {
	case "", FormatText:
		return NewSecureLogger(w, opts.Verbose), closer, nil
	case FormatJSON:
		return NewSecureJSONLogger(w, opts.Verbose), closer, nil
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// NewSecureLogger creates a text logger that sanitizes sensitive values.
// Verbose sets the level to Debug; otherwise it is Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON logger that sanitizes sensitive values.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
