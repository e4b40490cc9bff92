package eventlog

import "context"

// Option configures a Logger.
type Option func(*Logger)

// Context extractors populate events from the request context. An empty
// result leaves the field unset.

func WithUserIDExtractor(fn func(context.Context) (int64, bool)) Option {
	return func(l *Logger) {
		l.userIDExtractor = fn
	}
}

func WithSessionIDExtractor(fn func(context.Context) string) Option {
	return func(l *Logger) {
		l.sessionIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn func(context.Context) string) Option {
	return func(l *Logger) {
		l.requestIDExtractor = fn
	}
}

func WithIPExtractor(fn func(context.Context) string) Option {
	return func(l *Logger) {
		l.ipExtractor = fn
	}
}
