// Package logging sets up the engine's structured logger and, when a
// log file pattern is configured, names the rotated file the same way
// src/tq.go and src/xmit.go timestamp their transmit queue entries:
// by running the pattern through strftime.Format at open time.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Levels as the rest of the repo uses them:
//   - Debug: demodulate failures, malformed frames, ARQ wait timeouts
//   - Info:  received retransmit requests, halted transmissions
//   - Warn:  ring overflows, PTT failures, failed transmits (including
//     PayloadTooLarge)
//   - Error: fatal startup failures in cmd/freetvd (e.g. device errors)
//
// Mode switches and tx_id rollover are not logged.
var levelNames = map[string]log.Level{
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
}

// ParseLevel maps a config string to a charmbracelet/log level,
// defaulting to Info for anything unrecognized.
func ParseLevel(name string) log.Level {
	if lvl, ok := levelNames[name]; ok {
		return lvl
	}
	return log.InfoLevel
}

// New builds the root logger. If filePattern is non-empty it's run
// through strftime at call time to produce the log file path, and the
// logger writes to both that file and stderr; an empty pattern logs to
// stderr alone.
func New(filePattern string, level log.Level) (*log.Logger, io.Closer, error) {
	if filePattern == "" {
		logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: true})
		return logger, nopCloser{}, nil
	}

	path, err := strftime.Format(filePattern, time.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("logging: formatting log file pattern %q: %w", filePattern, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: opening log file %s: %w", path, err)
	}

	logger := log.NewWithOptions(io.MultiWriter(os.Stderr, f), log.Options{Level: level, ReportTimestamp: true})
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
