// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package logging provides the structured, component-prefixed logging used
// across the tax engine, replacing the teacher CLI's gated log.Printf calls
// with leveled output built on github.com/charmbracelet/log.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charmbracelet/log with a Component helper used to prefix
// per-package trace output (priceoracle, taxengine, cointracker, ...).
type Logger struct {
	*log.Logger
}

// Config controls the verbosity and destination of a Logger.
type Config struct {
	Level  string // debug, info, warn, error
	Output io.Writer
}

// DefaultConfig returns the engine's default logging configuration: info
// level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Output: os.Stderr}
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	l := log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	l.SetLevel(parseLevel(cfg.Level))
	return &Logger{Logger: l}
}

var defaultLogger = New(DefaultConfig())

// Default returns the package-wide default Logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the package-wide default Logger, used by the CLI to
// apply the -v flag before any package logs.
func SetDefault(l *Logger) { defaultLogger = l }

// Component returns a Logger prefixed with name, so log lines can be
// attributed to the stage that emitted them (e.g. "taxengine", "cointracker").
func (l *Logger) Component(name string) *Logger {
	child := l.Logger.With()
	child.SetPrefix(name)
	return &Logger{Logger: child}
}

// With returns a Logger carrying the given structured key/value pairs on
// every subsequent log line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
