package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/diewo77/fakti/auth"
	"github.com/diewo77/fakti/httpx"
	"github.com/diewo77/fakti/i18n"
	"github.com/diewo77/fakti/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestID reuses the incoming X-Request-Id or generates one, echoes it in
// the response and attaches a request-scoped logger to the context.
func RequestID(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx, _ := logger.WithRequestID(r.Context(), log, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger logs each request with method, path, status, duration and the
// authenticated user when there is one.
func Logger(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			var uid uint
			next.ServeHTTP(sw, r.WithContext(withUserSlot(r.Context(), &uid)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", logger.GetRequestID(r.Context())),
			}
			if uid != 0 {
				fields = append(fields, zap.Uint("user_id", uid))
			}
			switch {
			case sw.status >= 500:
				log.Error("http request", fields...)
			case sw.status >= 400:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
		})
	}
}

// Recovery turns a panic into a 500 JSON response and logs the stack.
func Recovery(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", logger.GetRequestID(r.Context())),
					)
					lang := i18n.LangFromContext(r.Context())
					httpx.JSONErrorMessage(w, http.StatusInternalServerError, "internal_error", i18n.T(lang, "internal_error"), nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Identity records the authenticated user for the request logger. It must
// run after auth.Middleware.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			if slot, ok := r.Context().Value(userSlotKey{}).(*uint); ok {
				*slot = uid
			}
		}
		next.ServeHTTP(w, r)
	})
}

// userSlotKey lets Identity report the user id back to Logger.
type userSlotKey struct{}

func withUserSlot(ctx context.Context, uid *uint) context.Context {
	return context.WithValue(ctx, userSlotKey{}, uid)
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
