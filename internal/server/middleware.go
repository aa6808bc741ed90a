package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"wattsup/internal/editor"
)

type loggerKey struct{}

func (s *Server) requestLogger(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return s.logger
}

// logRequests tags every request with an ID, recovers panics and logs one
// line per response at a level matching its status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger := s.logger.With("req", id)
		r = r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("caught panic", "panic", rec, "stack", string(debug.Stack()))
				if ww.Status() == 0 {
					writeJSON(logger, ww, http.StatusInternalServerError, map[string]string{
						"error": http.StatusText(http.StatusInternalServerError),
					})
				}
			}

			dur := time.Since(start)
			status := ww.Status()
			if status == 0 {
				logger.Warn("no response written", "method", r.Method, "url", r.URL.String(), "dur", dur)
				return
			}
			kv := []any{"method", r.Method, "url", r.URL.String(), "status", status, "bytes", ww.BytesWritten(), "dur", dur}
			switch {
			case status >= 500:
				logger.Error("request", kv...)
			case status >= 400:
				logger.Warn("request", kv...)
			default:
				logger.Info("request", kv...)
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// requirePro answers 403 on every route when the canvas is locked.
func (s *Server) requirePro(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.pro {
			writeJSON(s.requestLogger(r), w, http.StatusForbidden, map[string]string{
				"error": editor.ErrLocked.Error(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
