// Package server exposes saved canvases over HTTP: snapshots, takeoff
// lists, rendered exports and the NEC quick reference.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"wattsup/internal/diagram"
	"wattsup/internal/editor"
	"wattsup/internal/reference"
	"wattsup/internal/render"
	"wattsup/internal/store"
)

const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Store    store.Store
	Exporter *render.Exporter
	// Reference may be nil when no API key is configured.
	Reference *reference.Client
	Pro       bool
	GridSize  int
	Timeout   time.Duration
	Logger    *log.Logger
}

type Server struct {
	store     store.Store
	exporter  *render.Exporter
	reference *reference.Client
	pro       bool
	gridSize  int
	timeout   time.Duration
	logger    *log.Logger
}

func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		exporter:  opts.Exporter,
		reference: opts.Reference,
		pro:       opts.Pro,
		gridSize:  opts.GridSize,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.exporter == nil {
		s.exporter = render.NewExporter(render.ExportConfig{}, nil, s.logger)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", s.handle(s.health))
	r.Route("/api", func(r chi.Router) {
		r.Route("/canvases/{userID}", func(r chi.Router) {
			r.Use(s.requirePro)
			r.Get("/", s.handle(s.getCanvas))
			r.Put("/", s.handle(s.putCanvas))
			r.Get("/takeoff", s.handle(s.getTakeoff))
			r.Get("/export.{format}", s.handle(s.getExport))
		})
		r.Post("/reference", s.handle(s.postReference))
	})
	return http.MaxBytesHandler(r, maxBodyBytes)
}

// NewHTTPServer wraps Handler with conservative limits.
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Handler:        s.Handler(),
		MaxHeaderBytes: 1 << 18,
		ReadTimeout:    time.Minute,
		WriteTimeout:   time.Minute,
		IdleTimeout:    time.Hour,
	}
}

// Serve serves on l until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener, shutdownTimeout time.Duration) error {
	hs := s.NewHTTPServer()
	hs.BaseContext = func(net.Listener) context.Context { return ctx }

	done := make(chan error, 1)
	go func() {
		done <- hs.Serve(l)
	}()
	s.logger.Info("listening", "addr", l.Addr().String())

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-done; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

// storeError maps persistence errors to status codes.
func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorWrap(http.StatusNotFound, "no saved canvas", err)
	case errors.Is(err, store.ErrInvalidUser):
		return errorWrap(http.StatusBadRequest, "invalid user id", err)
	case errors.Is(err, context.DeadlineExceeded):
		return errorWrap(http.StatusGatewayTimeout, "", err)
	default:
		return err
	}
}

// loadCanvas builds a fresh editing session from the user's latest
// snapshot. Nothing is shared between requests.
func (s *Server) loadCanvas(r *http.Request) (*editor.Editor, error) {
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()
	snap, err := s.store.Latest(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		return nil, storeError(err)
	}
	return s.restore(snap)
}

func (s *Server) restore(snap *diagram.Snapshot) (*editor.Editor, error) {
	ed, err := editor.New(editor.Config{ProEnabled: s.pro, GridSize: s.gridSize, Logger: s.logger})
	if errors.Is(err, editor.ErrLocked) {
		return nil, errorWrap(http.StatusForbidden, err.Error(), err)
	}
	if err != nil {
		return nil, err
	}
	if err := ed.Load(snap); err != nil {
		ed.Close()
		return nil, errorWrap(http.StatusUnprocessableEntity, err.Error(), err)
	}
	return ed, nil
}

func (s *Server) getCanvas(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()
	snap, err := s.store.Latest(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		return storeError(err)
	}
	writeJSON(s.logger, w, http.StatusOK, snap)
	return nil
}

// putCanvas replaces the user's canvas with the request body. The body goes
// through a canvas first so positions are snapped and element types checked.
func (s *Server) putCanvas(w http.ResponseWriter, r *http.Request) error {
	var in diagram.Snapshot
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return errorf(http.StatusBadRequest, "decode snapshot: %v", err)
	}
	ed, err := s.restore(&in)
	if err != nil {
		return err
	}
	defer ed.Close()

	snap := ed.Snapshot()
	snap.UserID = chi.URLParam(r, "userID")
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()
	if err := s.store.Save(ctx, snap); err != nil {
		return storeError(err)
	}
	writeJSON(s.logger, w, http.StatusOK, snap)
	return nil
}

type takeoffResponse struct {
	UserID string                 `json:"userId"`
	Items  []diagram.TakeoffEntry `json:"items"`
}

func (s *Server) getTakeoff(w http.ResponseWriter, r *http.Request) error {
	ed, err := s.loadCanvas(r)
	if err != nil {
		return err
	}
	defer ed.Close()
	writeJSON(s.logger, w, http.StatusOK, takeoffResponse{
		UserID: chi.URLParam(r, "userID"),
		Items:  ed.Takeoff(),
	})
	return nil
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) error {
	f, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		return errorWrap(http.StatusNotFound, "unknown export format", err)
	}
	ed, err := s.loadCanvas(r)
	if err != nil {
		return err
	}
	defer ed.Close()

	var buf bytes.Buffer
	if err := s.exporter.Encode(&buf, ed, f); err != nil {
		if errors.Is(err, render.ErrEmptyCanvas) {
			return errorWrap(http.StatusUnprocessableEntity, "canvas is empty", err)
		}
		return err
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.exporter.FileName(f)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	return nil
}

type referenceRequest struct {
	Scenario string `json:"scenario"`
}

func (s *Server) postReference(w http.ResponseWriter, r *http.Request) error {
	if s.reference == nil {
		return errorWrap(http.StatusServiceUnavailable, reference.ErrNotConfigured.Error(), reference.ErrNotConfigured)
	}
	var req referenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errorf(http.StatusBadRequest, "decode request: %v", err)
	}
	guide, err := s.reference.QuickGuide(r.Context(), req.Scenario)
	if errors.Is(err, reference.ErrEmptyScenario) {
		return errorWrap(http.StatusBadRequest, err.Error(), err)
	}
	if err != nil {
		return errorWrap(http.StatusBadGateway, "reference lookup failed", err)
	}
	writeJSON(s.logger, w, http.StatusOK, guide)
	return nil
}
