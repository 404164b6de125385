// Package diag is the engine's diagnostic sink: a single write-line logger
// handle threaded explicitly through every component (§9 Design Notes:
// "Global mutable state... should be passed as an explicit logger handle to
// every component"), invoked for every dropped frame, unsupported link
// type, per-file error, ESP trailer failure, and per-file WiFi/NetEvent
// detection (§6).
package diag

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the narrow interface every component depends on. It matches
// the three severities the engine actually emits: Infof for routine
// per-file/per-format notices, Warnf for contained per-frame/per-file
// faults, Dropf for a frame that was dropped outright.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Dropf(format string, args ...interface{})
}

// zerologSink is the production Logger, backed by github.com/rs/zerolog.
type zerologSink struct {
	log zerolog.Logger
}

// NewZerolog builds a Logger writing structured lines to os.Stderr.
func NewZerolog() Logger {
	return &zerologSink{log: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (z *zerologSink) Infof(format string, args ...interface{}) {
	z.log.Info().Msgf(format, args...)
}

func (z *zerologSink) Warnf(format string, args ...interface{}) {
	z.log.Warn().Msgf(format, args...)
}

func (z *zerologSink) Dropf(format string, args ...interface{}) {
	z.log.Debug().Str("event", "frame-dropped").Msgf(format, args...)
}

// Nop is a Logger that discards everything; useful as a default when a
// caller doesn't care about diagnostics.
var Nop Logger = nopSink{}

type nopSink struct{}

func (nopSink) Infof(string, ...interface{}) {}
func (nopSink) Warnf(string, ...interface{}) {}
func (nopSink) Dropf(string, ...interface{}) {}
