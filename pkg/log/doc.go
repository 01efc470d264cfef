// Package log configures [log/slog] handlers for gumshoe.
//
// Three formats are supported: `text` (human readable, via
// [github.com/charmbracelet/log]), `logfmt`, and `json`. Loggers can be
// carried in a [context.Context] with [NewContext]; [WithContext] falls back
// to the default logger, tagged with the active trace ID when there is one.
package log
