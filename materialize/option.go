package materialize

import (
	"log/slog"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/feature"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithNullEscalation enables or disables the escalation of missing
// required values to the enclosing element. Enabled by default.
func WithNullEscalation(enabled bool) Option {
	return func(b *Builder) {
		b.escalate = enabled
	}
}

// WithWarningHook sets a function called for every schema violation found
// while building features.
func WithWarningHook(fn func(*sqlfs.SchemaViolationWarning)) Option {
	return func(b *Builder) {
		b.warn = fn
	}
}

// WithCache looks features up in c before building them, and stores built
// features in it.
func WithCache(c sqlfs.Cache[*feature.Feature]) Option {
	return func(b *Builder) {
		b.cache = c
	}
}
