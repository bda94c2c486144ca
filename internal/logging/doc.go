// Package logging assembles structured slog loggers and formatting helpers used
// across ytserve.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers tag log
// lines with correlation and video IDs. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
