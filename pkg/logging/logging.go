package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps the 0-9 verbosity scale to a zerolog level.
//
//	0    error
//	1-2  warn
//	3-4  info
//	5-9  debug
func LevelFor(level int) zerolog.Level {
	switch {
	case level >= 5:
		return zerolog.DebugLevel
	case level >= 3:
		return zerolog.InfoLevel
	case level >= 1:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Initialize configures the global logger. Output goes to w, or stderr when w is nil;
// stdout is reserved for the token.
func Initialize(level int, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(LevelFor(level))
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
}
