// If you are AI: This file configures the process-wide zerolog logger.
// Console output is the default; JSON output is selected by configuration.

package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the application logger, installs it as the global
// logger and sets the global level. Unknown levels fall back to info.
func InitLogger(app, level string, jsonOutput bool) zerolog.Logger {
	return initLogger(os.Stdout, app, level, jsonOutput)
}

// initLogger is InitLogger with an explicit writer.
func initLogger(out io.Writer, app, level string, jsonOutput bool) zerolog.Logger {
	var w io.Writer = out
	if !jsonOutput {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(w).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
