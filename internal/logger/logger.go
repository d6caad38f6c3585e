// Package logger owns the process-wide structured logger. Build output goes
// to stderr with colors when stderr is a terminal and as logfmt lines with
// timestamps otherwise, so logs captured by CI stay machine-readable.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

// Logger is the global logger instance.
var Logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})

type Options struct {
	// One of "debug", "info", "warn", "error" or "silent". Empty means "info".
	Level string

	// Defaults to stderr.
	Out *os.File
}

// Setup replaces the global logger according to the options and the kind of
// file the logs are written to.
func Setup(options Options) *log.Logger {
	out := options.Out
	if out == nil {
		out = os.Stderr
	}
	Logger = New(out, ParseLevel(options.Level), GetTerminalInfo(out))
	return Logger
}

func New(out io.Writer, level log.Level, terminal TerminalInfo) *log.Logger {
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: !terminal.IsTTY,
		Prefix:          "rolldown",
	})
	if !terminal.IsTTY {
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger
}

// Discard returns a logger that drops everything, for use in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func ParseLevel(text string) log.Level {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "debug", "verbose":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "silent":
		// Nothing below fatal is ever printed
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func hasNoColorEnvironmentVariable() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}
