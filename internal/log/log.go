// Package log provides structured logging for bitstark-wallet.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide base logger. Library packages receive a
// component logger through their constructors instead of reading it.
var Logger zerolog.Logger

// Component loggers.
var (
	Wallet    zerolog.Logger
	Store     zerolog.Logger
	Chain     zerolog.Logger
	Core      zerolog.Logger
	TxBuilder zerolog.Logger
)

// Options configures Init.
type Options struct {
	Level string
	JSON  bool
	// File, when set, receives a JSON copy of every log line.
	File string
	// Out is the console sink; defaults to os.Stderr so command output on
	// stdout stays machine-readable.
	Out io.Writer
}

func init() {
	Logger = NewConsoleLogger(os.Stderr, "warn")
	initComponentLoggers()
}

// Init configures the base and component loggers. The returned closer
// releases the log file, if any.
func Init(opts Options) (io.Closer, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if opts.File == "" {
		if opts.JSON {
			Logger = NewJSONLogger(out, opts.Level)
		} else {
			Logger = NewConsoleLogger(out, opts.Level)
		}
		initComponentLoggers()
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	var console io.Writer = out
	if !opts.JSON {
		console = consoleWriter(out)
	}
	Logger = newLogger(zerolog.MultiLevelWriter(console, f), opts.Level)
	initComponentLoggers()
	return f, nil
}

// NewConsoleLogger creates a human-readable console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether ParseLevel knows level by name.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "off", "disabled":
		return true
	}
	return false
}

func initComponentLoggers() {
	Wallet = WithComponent("wallet")
	Store = WithComponent("store")
	Chain = WithComponent("chain")
	Core = WithComponent("core")
	TxBuilder = WithComponent("txbuilder")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Benchmark logs the duration of an operation at debug level when the
// returned func is called.
func Benchmark(l zerolog.Logger, name string) func() {
	start := time.Now()
	return func() {
		l.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
