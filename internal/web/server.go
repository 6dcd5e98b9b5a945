package web

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/portals"
	"git.sr.ht/~jakintosh/portal/internal/workspace"
)

type Server struct {
	workspace    *workspace.Workspace
	portals      *portals.Store
	router       chi.Router
	presentation *Presentation
	logger       *zap.Logger
}

func NewServer(ws *workspace.Workspace, ps *portals.Store, logger *zap.Logger) (*Server, error) {
	pres, err := NewPresentation()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		workspace:    ws,
		portals:      ps,
		router:       chi.NewRouter(),
		presentation: pres,
		logger:       logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Page Routes
	r.Get("/", s.handleIndex)
	r.Get("/search", s.handleSearch)
	r.Get("/state", s.handleState)

	// Categories
	r.Post("/categories", s.handleCreateCategory)
	r.Post("/categories/move", s.handleMoveCategory)
	r.Route("/categories/{id}", func(r chi.Router) {
		r.Post("/", s.handleRenameCategory)
		r.Patch("/", s.handleRenameCategory)
		r.Delete("/", s.handleDeleteCategory)
		r.Post("/delete", s.handleDeleteCategory)
		r.Post("/toggle", s.handleToggleCategory)

		// Links
		r.Post("/links", s.handleCreateLink)
		r.Post("/links/bulk", s.handleBulkLinks)
		r.Post("/links/{linkID}", s.handleUpdateLink)
		r.Delete("/links/{linkID}", s.handleDeleteLink)
		r.Post("/links/{linkID}/delete", s.handleDeleteLink)
	})
	r.Post("/links/move", s.handleMoveLink)

	// Persistence
	r.Get("/export", s.handleExport)
	r.Post("/import", s.handleImport)
	r.Post("/save", s.handleSave)

	// Portals
	r.Post("/portals", s.handleAddPortal)
	r.Post("/portals/{name}/open", s.handleOpenPortal)
}

// requestLogger logs one line per request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// statusFor maps a domain failure to the response status shown to the user.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrPortalNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, portals.ErrPortalExists):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// fail reports err to the user. HTMX requests get the bare message; full
// page requests get the page re-rendered with the message flashed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.Warn("Request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	if parseRequestContext(r).Fragment() {
		http.Error(w, err.Error(), status)
		return
	}
	view, lerr := s.pageView()
	if lerr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	view.Error = err.Error()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.presentation.RenderIndex(w, view); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
	}
}

// done finishes a mutation: full page requests go back to the page, HTMX
// requests get the refresh header so the whole list is redrawn.
func (s *Server) done(w http.ResponseWriter, r *http.Request) {
	if !parseRequestContext(r).Fragment() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) pageView() (PageView, error) {
	list, err := s.portals.List()
	if err != nil {
		return PageView{}, err
	}
	return NewPageView(s.workspace.Snapshot(), list), nil
}
