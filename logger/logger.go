package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var log zerolog.Logger

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	SetOutput(os.Stderr)
}

// GetLogger returns the shared logger. The pointer stays stable across
// SetOutput and SetLogLevel calls, so packages may hold on to it.
func GetLogger() *zerolog.Logger {
	return &log
}

// SetOutput redirects log output to w using the console format.
func SetOutput(w io.Writer) {
	var output io.Writer = zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	log = zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// SetLogLevel maps the -v count to a global zerolog level.
func SetLogLevel(verboseCount int) {
	var level zerolog.Level
	switch {
	case verboseCount == 1:
		level = zerolog.WarnLevel
	case verboseCount == 2:
		level = zerolog.InfoLevel
	case verboseCount == 3:
		level = zerolog.DebugLevel
	case verboseCount >= 4:
		level = zerolog.TraceLevel
	default:
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Disable silences all logging, used while a TUI owns the terminal.
func Disable() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}
