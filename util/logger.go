// Package util provides low-level helpers shared by all other packages.
package util

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
	LogTrace   LogLevel = 4
)

// Logger writes levelled messages to stderr through a zerolog console
// writer.  The level prefixes are zerolog's short forms (INF, WRN, DBG,
// TRC, ERR).
type Logger struct {
	mu         sync.Mutex
	zl         zerolog.Logger
	level      LogLevel
	output     io.Writer
	timestamps bool // if true, prepend HH:MM:SS.mmm timestamps
	fields     []field
}

type field struct{ key, value string }

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug, 4 = trace).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= int(LogDebug), // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that tags every line with key=value.
func (l *Logger) With(key, value string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &Logger{
		level:      l.level,
		output:     l.output,
		timestamps: l.timestamps,
		fields:     append(append([]field(nil), l.fields...), field{key, value}),
	}
	child.rebuild()
	return child
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.zl.Info().Msgf(format, args...)
	}
}

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.zl.Warn().Msgf(format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.zl.Debug().Msgf(format, args...)
	}
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.zl.Debug().Msgf(format, args...)
	}
}

// Trace prints when verbosity ≥ 4.  Used for wire dumps.
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogTrace {
		l.zl.Trace().Msgf(format, args...)
	}
}

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// rebuild recreates the zerolog logger after a setting changed.  Level
// gating happens in the methods above, so zerolog itself lets everything
// through.
func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:        l.output,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}
	if !l.timestamps {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(cw).Level(zerolog.TraceLevel).With()
	if l.timestamps {
		ctx = ctx.Timestamp()
	}
	for _, f := range l.fields {
		ctx = ctx.Str(f.key, f.value)
	}
	l.zl = ctx.Logger()
}
