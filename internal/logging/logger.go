package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // raw JSON instead of console format
}

var root zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	root = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
}

// Setup configures the process-wide root logger. Called once from main
// before any component loggers are created.
func Setup(cfg Config) {
	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			out = f
		}
	}

	if !cfg.JSONFormat {
		out = consoleWriter(out)
	}

	level := parseLevel(cfg.Level)
	root = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a logger tagged with a component name, e.g. "feed",
// "executor". All packages log through these.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
