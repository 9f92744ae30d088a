// Package logging configures the shared slog logger for campack.
//
// Two output formats are supported: a compact console format intended
// for operators watching a packaging run, and JSON for log collectors.
// Component loggers carry a standardized "component" attribute so a
// single run log can be filtered per pipeline stage.
package logging
