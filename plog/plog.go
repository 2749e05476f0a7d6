// Package plog provides the structured-logging wrapper used by the
// driver loop for optional parse tracing. It replaces the reference
// pika implementation's global debug flag (see driver.Options) with a
// per-parse *zap.Logger, held in a struct field and chosen by
// constructor (New or Development).
package plog

import (
	"go.uber.org/zap"
)

// Logger wraps a *zap.Logger scoped to a single parse invocation.
type Logger struct {
	z *zap.Logger
}

// New wraps an existing *zap.Logger. Passing nil is valid and yields a
// Logger whose methods are no-ops.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// Development returns a Logger backed by zap's development config
// (human-readable, synchronous), suitable for tracing a single parse
// from a test or a CLI invocation.
func Development() *Logger {
	z, err := zap.NewDevelopment()
	if err != nil {
		return New(nil)
	}
	return New(z)
}

// Enabled reports whether this Logger will actually emit events. Sweep,
// Step and Sync check it themselves, so a nil *Logger or one wrapping a
// nil *zap.Logger is a no-op; the driver loop separately skips these
// calls when its Options carry no Logger.
func (l *Logger) Enabled() bool {
	return l != nil && l.z != nil
}

// Sweep logs the start of processing for one input position.
func (l *Logger) Sweep(pos int) {
	if !l.Enabled() {
		return
	}
	l.z.Debug("sweep", zap.Int("pos", pos))
}

// Step logs one dequeue-and-match attempt.
func (l *Logger) Step(clauseID, pos int, matched, improved bool) {
	if !l.Enabled() {
		return
	}
	l.z.Debug("step",
		zap.Int("clause", clauseID),
		zap.Int("pos", pos),
		zap.Bool("matched", matched),
		zap.Bool("improved", improved),
	)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if !l.Enabled() {
		return nil
	}
	return l.z.Sync()
}
