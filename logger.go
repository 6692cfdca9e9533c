package surfacepool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for surfacepool and every package that
// registered itself through RegisterLoggerSink (halsurface, rescache).
// By default, surfacepool produces no log output.
//
// SetLogger is safe for concurrent use. Concurrent calls are serialized so
// every registered package ends up with the same logger.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by surfacepool:
//   - [slog.LevelDebug]: routine pool events (exact match, dropped surfaces)
//   - [slog.LevelInfo]: lifecycle events (pool closed, device opened)
//   - [slog.LevelWarn]: non-fatal issues (failed replacement allocations)
//
// Example:
//
//	surfacepool.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}

	sinksMu.Lock()
	defer sinksMu.Unlock()
	loggerPtr.Store(l)
	for _, set := range sinks {
		set(l)
	}
}

// Logger returns the current logger used by surfacepool.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

var (
	sinksMu sync.Mutex
	sinks   []func(*slog.Logger)
)

// RegisterLoggerSink adds a setter that receives every logger passed to
// SetLogger. The setter is called immediately with the current logger.
// Sub-packages call this from init to share the logger configuration
// without introducing import cycles. The setter must not call SetLogger.
func RegisterLoggerSink(set func(*slog.Logger)) {
	if set == nil {
		return
	}
	sinksMu.Lock()
	defer sinksMu.Unlock()
	sinks = append(sinks, set)
	set(loggerPtr.Load())
}
