package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"humandetector/internal/logger"
)

// statusRecorder captures the status and size written by a handler. It
// keeps Hijack available for the websocket upgrade.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware writes one structured access log entry per request.
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			fields := logger.Fields{
				"component":     "http",
				"request_id":    RequestIDFrom(r.Context()),
				"session":       SessionFrom(r.Context()),
				"method":        r.Method,
				"path":          r.URL.Path,
				"status":        rec.status,
				"latency_ms":    time.Since(start).Milliseconds(),
				"ip":            clientIP(r),
				"response_size": rec.size,
			}

			switch {
			case rec.status >= 500:
				log.ErrorFields(fields, "Server error")
			case rec.status >= 400:
				log.WarningFields(fields, "Client error")
			default:
				log.InfoFields(fields, "Success")
			}
		})
	}
}
