package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/contentflow-backend/pkg/ctxutil"
)

// healthCheckPaths are hit by orchestrator health checks every few seconds.
var healthCheckPaths = map[string]bool{"/live": true, "/ready": true, "/health": true}

// Logger emits one "http.request" line per request. Level follows the status
// class: 5xx at error, 4xx at warn, health checks at debug, everything else at info.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int64("bytes", sw.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			}
			if actor, ok := ctxutil.ActorFromCtx(r.Context()); ok {
				attrs = append(attrs, slog.String("actor", actor))
			}

			logger.LogAttrs(r.Context(), requestLevel(r.URL.Path, sw.status), "http.request", attrs...)
		})
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case healthCheckPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// statusWriter records the status code and body size written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
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
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
