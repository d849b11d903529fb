package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Format string

const (
	ConsoleFormat Format = "console"
	JSONFormat    Format = "json"
)

var (
	mu   sync.RWMutex
	root zerolog.Logger
)

func init() {
	Init(os.Getenv("LOG_LEVEL"), ConsoleFormat, os.Stderr)
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a zerolog level. Unknown or empty
// values fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init replaces the process logger.
func Init(level string, format Format, out io.Writer) {
	var w io.Writer = out
	if format != JSONFormat {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()

	mu.Lock()
	root = l
	mu.Unlock()
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := root
	return &l
}

func Debug(format string, args ...interface{}) {
	get().Debug().Msgf(format, args...)
}

func Info(format string, args ...interface{}) {
	get().Info().Msgf(format, args...)
}

func Warn(format string, args ...interface{}) {
	get().Warn().Msgf(format, args...)
}

func Error(format string, args ...interface{}) {
	get().Error().Msgf(format, args...)
}
