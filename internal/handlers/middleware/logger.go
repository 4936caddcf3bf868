package middleware

import (
	"net/http"
	"time"

	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type responseStats struct {
	status int
	size   int
}

type statsWriter struct {
	http.ResponseWriter
	stats responseStats
}

func (w *statsWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.stats.size += size
	return size, err
}

func (w *statsWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.stats.status = statusCode
}

// LoggerMiddleware logs every request once served
// Requests of authenticated users are logged with user id and role; 5xx goes to error level
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(userctx.Track(r.Context()))
			sw := &statsWriter{ResponseWriter: w, stats: responseStats{status: http.StatusOK}}

			next.ServeHTTP(sw, r)

			args := []any{
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", sw.stats.status,
				"size", sw.stats.size,
			}
			if user, ok := userctx.FromContext(r.Context()); ok {
				args = append(args, "user_id", user.ID, "role", user.Role)
			}

			if sw.stats.status >= http.StatusInternalServerError {
				l.Error("HTTP request failed", args...)
				return
			}
			l.Info("HTTP request served", args...)
		})
	}
}
