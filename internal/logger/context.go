package logger

import (
	"context"
	"sync/atomic"
)

type ctxKey struct{}

var defaultLogger atomic.Pointer[Logger]

// SetDefault makes l the logger FromContext returns for contexts that carry
// none. Commands call it once their configured logger exists.
func SetDefault(l Logger) {
	defaultLogger.Store(&l)
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx. Without one it returns the
// default set by SetDefault, or a warn-level stderr logger before that.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return *l
	}
	return stderrFallback()
}

var fallback atomic.Pointer[Logger]

func stderrFallback() Logger {
	if l := fallback.Load(); l != nil {
		return *l
	}
	l, err := New(Config{Level: "warn"})
	if err != nil {
		l = NewNop()
	}
	fallback.CompareAndSwap(nil, &l)
	return *fallback.Load()
}
