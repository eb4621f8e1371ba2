// Package logger configures the global zerolog logger used by the
// simulation and its commands.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Init sets the global level and output. An empty or invalid level falls
// back to info; a nil out writes a console log to stderr.
func Init(level string, out io.Writer) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 24
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if out == nil {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: milliTimeFormat,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()

	log.Debug().Str("level", lvl.String()).Msg("logger initialized")
}

// ForTick returns a logger stamped with the simulation tick.
func ForTick(tick uint64) zerolog.Logger {
	return log.Logger.With().Uint64("tick", tick).Logger()
}
