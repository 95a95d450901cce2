package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

var (
	isDevelopment = false // if running in debug mode

	logFile *os.File = nil

	level = zerolog.InfoLevel

	AdHocLogger zerolog.Logger

	once sync.Once

	globalLogger zerolog.Logger
)

func init() {
	// Create a general logger that can be easily accessed for
	// when you do not want to create a new logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	AdHocLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "ad-hoc-logger").Caller().Logger()
}

// GetLogger returns the process wide logger. The first call fixes its
// output; later calls return the same logger whatever the service name.
func GetLogger(serviceName string) zerolog.Logger {
	once.Do(func() {
		globalLogger = New(serviceName)
	})
	return globalLogger
}

// New builds a logger from the current settings: JSON to stderr, or a human
// readable console in development mode. Both also write to the log file
// when one is set.
func New(serviceName string) zerolog.Logger {
	var out io.Writer = os.Stderr

	if isDevelopment {
		// Set up zerolog for development mode (human-readable logs)
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339,
			FormatLevel: func(i any) string {
				return strings.ToUpper(fmt.Sprintf("[%5s]", i))
			},
			FormatMessage: func(i any) string {
				return fmt.Sprintf("| %s |", i)
			},
			FormatCaller: func(i any) string {
				return filepath.Base(fmt.Sprintf("%s", i))
			},
			PartsExclude: []string{
				zerolog.TimestampFieldName,
			}}
	}
	if logFile != nil {
		out = zerolog.MultiLevelWriter(out, logFile)
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp().Str("service", serviceName)
	if isDevelopment {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func SetDevelopment(value bool) {
	isDevelopment = value
}

func SetLogFile(file *os.File) {
	logFile = file
}

// SetLevel parses one of trace, debug, info, warn or error. The empty string
// keeps the current level.
func SetLevel(s string) error {
	if s == "" {
		return nil
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	level = l
	return nil
}

// OpenLogFile opens path for appending and makes it the log file.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "log file directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	SetLogFile(f)
	return f, nil
}
