package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// httpError carries the status code and response message for an error
// returned from a handlerFunc.
type httpError struct {
	Code int
	Resp string
	Err  error
}

func (e httpError) Error() string {
	return fmt.Sprintf("http error with code %d and resp %q: %v", e.Code, e.Resp, e.Err)
}

func (e httpError) Unwrap() error { return e.Err }

// errorWrap attaches code to err. An empty resp uses the status text.
func errorWrap(code int, resp string, err error) error {
	if resp == "" {
		resp = http.StatusText(code)
	}
	return httpError{Code: code, Resp: resp, Err: err}
}

func errorf(code int, format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	return httpError{Code: code, Resp: err.Error(), Err: err}
}

// handlerFunc is an http.HandlerFunc that returns an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts h for the router. Errors are logged at a level matching the
// status code and written as {"error": resp}. Errors not created with
// errorWrap or errorf become a 500.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var herr httpError
		if !errors.As(err, &herr) {
			herr = httpError{Code: http.StatusInternalServerError, Resp: http.StatusText(http.StatusInternalServerError), Err: err}
		}
		logger := s.requestLogger(r)
		if herr.Code >= 500 {
			logger.Error("request failed", "err", err)
		} else {
			logger.Warn("request rejected", "status", herr.Code, "err", err)
		}
		if ww, ok := w.(middleware.WrapResponseWriter); ok && ww.Status() != 0 {
			// the response is already on its way
			return
		}
		writeJSON(s.logger, w, herr.Code, map[string]string{"error": herr.Resp})
	}
}

func writeJSON(logger *log.Logger, w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("json marshal", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
