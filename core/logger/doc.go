// Package logger provides structured logging built on zap.
//
// New constructs the application logger from the Log configuration section.
// The debug level switches to zap's development config for readable
// timestamps; the console format enables colored level output for CLI use.
//
// WithRayID decorates a logger with the per-request ray_id stored in the
// Fiber context by the rayid middleware, so every log line of a request can
// be correlated.
package logger
