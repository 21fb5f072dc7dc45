// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the interactive article form and a JSON API over the
// same session actions.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/glossary-engine/internal/archive"
	"github.com/pdiddy/glossary-engine/internal/render"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const (
	cookieName           = "glossary_session"
	defaultActionTimeout = 3 * time.Minute
	maxFormBytes         = 1 << 20
)

// Server is the HTTP server for the glossary form and API.
type Server struct {
	router   chi.Router
	pipeline *session.Pipeline
	archive  *archive.Store
	sessions *sessionStore
	cfg      types.ServerConfig
	features features
	log      *slog.Logger
}

// features reports which optional integrations are configured.
type features struct {
	SearchConsole bool
	Archive       bool
}

// NewServer creates and configures the HTTP server. arch may be nil when the
// archive is disabled; consoleEnabled controls the Top Queries button.
func NewServer(p *session.Pipeline, arch *archive.Store, consoleEnabled bool, cfg types.ServerConfig, log *slog.Logger) *Server {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		pipeline: p,
		archive:  arch,
		sessions: newSessionStore(),
		cfg:      cfg,
		features: features{SearchConsole: consoleEnabled, Archive: arch != nil},
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Get("/", s.handlePage)
	r.Post("/new", s.handleNewSession)
	r.Post("/actions/{action}", s.handleFormAction)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/article", s.handleGetArticle)
			r.Post("/actions/{action}", s.handleAPIAction)
		})
		r.Get("/archive", s.handleListArchive)
		r.Get("/archive/{articleID}", s.handleGetArchived)
		r.Delete("/archive/{articleID}", s.handleDeleteArchived)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.len()})
}

// run applies action under the session lock with the per-action timeout.
func (s *Server) run(ctx context.Context, e *entry, action string, in actionInput) (actionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.begin()
	res, err := s.apply(ctx, e.sess, action, in)
	e.publish(err == nil && res.show)
	return res, err
}

// --- form UI ---

// browserEntry returns the session bound to the request cookie, creating
// one (and setting the cookie) when there is none.
func (s *Server) browserEntry(w http.ResponseWriter, r *http.Request) *entry {
	if c, err := r.Cookie(cookieName); err == nil {
		if e := s.sessions.get(c.Value); e != nil {
			return e
		}
	}
	e := s.sessions.add(s.pipeline.NewSession(""))
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    e.snapshot().ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	e := s.browserEntry(w, r)

	snap, busy, show, flash, flashErr := e.pageState()
	data := pageData{
		Session:     snap,
		Busy:        busy,
		Flash:       flash,
		FlashErr:    flashErr,
		Features:    s.features,
		MaxSections: s.pipeline.MaxSections(),
	}

	if show {
		md := data.Session.Markdown()
		html, err := render.HTML(md)
		if err != nil {
			data.Flash, data.FlashErr = userMessage(err), true
		} else {
			data.ArticleHTML = safeHTML(html)
			data.Headings = render.Headings(md)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("rendering page", "error", err)
	}
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.sessions.remove(c.Value)
	}
	r.Header.Del("Cookie")
	s.browserEntry(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFormAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	e := s.browserEntry(w, r)
	in := actionInput{
		Keyword:      r.PostFormValue("keyword"),
		Outline:      r.PostFormValue("outline"),
		Section:      r.PostFormValue("section"),
		Instructions: r.PostFormValue("instructions"),
	}

	action := chi.URLParam(r, "action")
	res, err := s.run(r.Context(), e, action, in)

	if err != nil {
		e.setFlash(userMessage(err), true)
	} else {
		e.setFlash(res.Message, false)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- JSON API ---

func (s *Server) apiEntry(w http.ResponseWriter, r *http.Request) *entry {
	e := s.sessions.get(chi.URLParam(r, "sessionID"))
	if e == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return e
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	e := s.sessions.add(s.pipeline.NewSession(req.Keyword))
	writeJSON(w, http.StatusCreated, e.snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e := s.apiEntry(w, r)
	if e == nil {
		return
	}
	writeJSON(w, http.StatusOK, e.snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetArticle returns the entire article as Markdown, or as HTML with
// ?format=html.
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	e := s.apiEntry(w, r)
	if e == nil {
		return
	}
	md := e.snapshot().Markdown()

	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		html, err := render.HTML(md)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func (s *Server) handleAPIAction(w http.ResponseWriter, r *http.Request) {
	e := s.apiEntry(w, r)
	if e == nil {
		return
	}
	var in actionInput
	if err := decodeBody(w, r, &in); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.run(r.Context(), e, chi.URLParam(r, "action"), in)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{
			"error": userMessage(err),
			"kind":  string(types.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": res, "session": e.snapshot()})
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "archive is not configured", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	entries, err := s.archive.List(r.Context(), archive.Filter{Query: q.Get("q"), Keyword: q.Get("keyword")})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": entries})
}

func (s *Server) handleGetArchived(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "archive is not configured", http.StatusNotFound)
		return
	}
	ent, err := s.archive.Get(r.Context(), chi.URLParam(r, "articleID"))
	if errors.Is(err, archive.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

func (s *Server) handleDeleteArchived(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "archive is not configured", http.StatusNotFound)
		return
	}
	err := s.archive.Delete(r.Context(), chi.URLParam(r, "articleID"))
	if errors.Is(err, archive.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
