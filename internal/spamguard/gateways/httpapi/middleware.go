package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

func wrap(w http.ResponseWriter, r *http.Request) middleware.WrapResponseWriter {
	protoMajor := r.ProtoMajor
	if protoMajor < 1 {
		protoMajor = 1
	}
	return middleware.NewWrapResponseWriter(w, protoMajor)
}

// recoverer turns a panic anywhere below it into the generic 500 body.
// If headers already went out the response is left as is.
func recoverer(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrap(w, r)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error(map[string]any{
					"panic":      rec,
					"stacktrace": string(debug.Stack()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": middleware.GetReqID(r.Context()),
				}, "Panic recovered")

				if ww.Status() != 0 {
					logger.Warn(map[string]any{
						"status": ww.Status(),
						"path":   r.URL.Path,
					}, "Panic after headers were written")
					return
				}
				writeJSON(w, logger, http.StatusInternalServerError, errorResponse{
					Error:   errInternal,
					Message: internalMessage,
				})
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func requestLogger(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w, r)

			next.ServeHTTP(ww, r)

			logger.Info(map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"remote_ip":  r.RemoteAddr,
				"user_agent": r.UserAgent(),
				"latency":    time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}, "HTTP request")
		})
	}
}

func notFound(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		})
	}
}

func methodNotAllowed(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusMethodNotAllowed, errorResponse{
			Error:   "method_not_allowed",
			Message: "The requested method is not allowed for this resource",
		})
	}
}
