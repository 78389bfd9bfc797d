// Package log configures the global zerolog logger and provides helpers
// for component-scoped child loggers. Console (human) output is the
// default; JSON output is available for machine consumption.
package log
