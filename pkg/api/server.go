package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/facts"
)

type Options struct {
	Signer        *auth.Signer
	Source        facts.Source
	PopulateCount int
	CORSOrigins   []string
	StaticDir     string
	Now           func() time.Time
}

type Server struct {
	signer        *auth.Signer
	source        facts.Source
	populateCount int
	staticDir     string
	now           func() time.Time
	router        chi.Router
}

func New(opts Options) *Server {
	s := &Server{
		signer:        opts.Signer,
		source:        opts.Source,
		populateCount: opts.PopulateCount,
		staticDir:     opts.StaticDir,
		now:           opts.Now,
	}
	if s.signer == nil {
		s.signer = auth.NewSigner("", "", false)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.populateCount <= 0 {
		s.populateCount = 234
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging)
	r.Use(recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/facts", func(r chi.Router) {
		r.Get("/", s.handleRandomFacts)
		r.Get("/count", s.handleCount)
		r.Get("/daily", s.handleDaily)
		r.Post("/populate-from-api", s.handlePopulate)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", s.handleAdminList)
			r.Post("/", s.handleAdminCreate)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Put("/{id}", s.handleAdminUpdate)
			r.Delete("/{id}", s.handleAdminDelete)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/encounter", s.handleEncounter)
			r.Get("/user", s.handleUserFacts)
		})
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)
	})

	r.Get("/api/leaderboard", s.handleLeaderboard)
	r.With(s.requireUser).Post("/api/leaderboard", s.handleSubmitScore)
	r.Get("/api/cats/{category}", s.handleCats)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.NotFound(s.handleStatic)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleStatic serves the single page app. Unknown paths get index.html so
// client-side routes survive a reload.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.staticDir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := filepath.Join(s.staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}
	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, index)
}
