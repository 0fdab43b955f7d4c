package logger

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey int

const (
	loggerKey contextKey = iota
	logAttrsKey
)

// logAttrs collects attributes added by handlers while a request is in flight.
// They are written once, on the final request log line.
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextWithLogger returns a copy of ctx carrying l
func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// ContextRequestLogger returns the request logger stored in ctx, or the default logger.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ContextWithLogAttrs adds attributes to the request completion log line.
// It is a no-op outside a request handled by RequestLogging.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	holder, ok := ctx.Value(logAttrsKey).(*logAttrs)
	if !ok {
		return
	}
	holder.mu.Lock()
	holder.attrs = append(holder.attrs, attrs...)
	holder.mu.Unlock()
}

// RequestLogging stores a request scoped logger in the request context and logs one line per request when it completes.
// It must run after chi's RequestID middleware.
func RequestLogging(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := base.With(
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			holder := &logAttrs{}
			ctx := ContextWithLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, logAttrsKey, holder)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			}
			holder.mu.Lock()
			for _, a := range holder.attrs {
				attrs = append(attrs, a)
			}
			holder.mu.Unlock()

			switch {
			case status >= 500:
				reqLogger.Error("request completed", attrs...)
			case status >= 400:
				reqLogger.Warn("request completed", attrs...)
			default:
				reqLogger.Info("request completed", attrs...)
			}
		})
	}
}
