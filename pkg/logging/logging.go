// Package logging builds the zerolog loggers shared by the CLI and the simulator
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogKey names the structured fields every component logger carries
var LogKey = struct {
	Module string
	Store  string
}{
	Module: "module",
	Store:  "store",
}

// ParseLevel maps a config level name to a zerolog level. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return level, nil
}

// New creates a root logger writing JSON lines to w
func New(w io.Writer, level zerolog.Level) *zerolog.Logger {
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &logger
}

// NewConsole creates a root logger with human readable output on stderr
func NewConsole(level zerolog.Level) *zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}, level)
}

// OpenFile creates a root logger appending to path. The caller closes the
// returned file when done.
func OpenFile(path string, level zerolog.Level) (*zerolog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, level), f, nil
}

// For derives a component logger tagged with its module name
func For(root *zerolog.Logger, module string) *zerolog.Logger {
	if root == nil {
		nop := zerolog.Nop()
		root = &nop
	}
	logger := root.With().Str(LogKey.Module, module).Logger()
	return &logger
}
