// Package logging provides the structured logger every other package in
// this module pulls diagnostics through (§2's ambient logging stack). CLI
// progress reporting stays on plain log/fmt.Fprintf (internal/progressbar);
// this package covers the library surface behind it — parse warnings,
// off-grid tile misses, batch progress — where a structured, leveled
// logger is the better fit, grounded on the zerolog usage
// tomtom215-cartographus declares for the same role.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors the handful of zerolog levels this module's callers use.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Logger()

// SetLevel adjusts the global minimum level for every logger returned by
// New; callers that want per-component control should filter at the call
// site instead, since zerolog's level check is cheap enough to not warrant
// a second axis of configuration here.
func SetLevel(level Level) {
	zerolog.SetGlobalLevel(level)
}

// New returns a logger tagged with component, used as e.g.
// logging.New("cog").Warn().Str("tag", tagName).Msg("unknown TIFF tag, skipping").
func New(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
