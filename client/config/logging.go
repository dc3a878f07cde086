package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// SetupLogger creates a configured zerolog logger. Console output goes to
// stderr so stdout stays free for command output; the optional file always
// receives JSON.
func SetupLogger(cfg *LogConfig, component string) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), errors.New(ErrLogLevelInvalid, "invalid log level", err).
				AddContext("level", cfg.Level)
		}
		level = parsed
	}

	var writers []io.Writer
	if useConsole(cfg.Format, os.Stderr) {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return zerolog.Nop(), errors.New(ErrLogFileOpenFailed, "failed to create log directory", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), errors.New(ErrLogFileOpenFailed, "failed to open log file", err).
				AddContext("path", cfg.FilePath)
		}
		writers = append(writers, file)
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger(), nil
}

func useConsole(format string, f *os.File) bool {
	switch strings.ToLower(format) {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	default:
		return term.IsTerminal(int(f.Fd()))
	}
}
