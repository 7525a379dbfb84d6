// Package logger owns the process logger and the request-scoped loggers
// derived from it.
//
// main calls Init once. HTTP middleware attaches a child logger carrying the
// request id (and later the user id) to the request context, and services
// log through FromContext so every entry of one request can be correlated.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every request-scoped entry.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum level: trace, debug, info, warn, error. Unknown
	// values fall back to info.
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every entry.
	Service string
}

var (
	mu   sync.RWMutex
	root *zerolog.Logger
)

// Init builds the process logger. Later calls return the first logger.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		return *root
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	l := zerolog.New(writer(opts)).Level(lvl).With().Timestamp().Caller().Logger()
	if opts.Service != "" {
		l = l.With().Str(FieldService, opts.Service).Logger()
	}
	root = &l
	return l
}

func writer(opts Options) io.Writer {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

// Get returns the process logger. It panics if Init has not run.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		panic("logger: Get() called before Init()")
	}
	return *root
}

// Reset drops the process logger so tests can call Init again.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

type ctxKey struct{}

// FromContext returns the request-scoped logger stored in ctx, or fallback
// when the context carries none (background jobs, unit tests).
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return fallback
}

// WithRequestID derives a logger tagged with requestID from base and stores
// it in the returned context.
func WithRequestID(ctx context.Context, base zerolog.Logger, requestID string) context.Context {
	l := base.With().Str(FieldRequestID, requestID).Logger()
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithUserID adds the authenticated user to the logger already in ctx. A
// context without a request logger is returned unchanged.
func WithUserID(ctx context.Context, userID string) context.Context {
	l, ok := ctx.Value(ctxKey{}).(zerolog.Logger)
	if !ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, l.With().Str(FieldUserID, userID).Logger())
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
