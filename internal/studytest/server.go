// Package studytest is an in-process stand-in for the study service. It
// accepts uploads, chunks their text and answers study requests with
// placeholder output, which is enough to drive the client end to end in
// tests and demos.
package studytest

import (
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/studybuddy/internal/chunker"
)

// HealthMessage is the body message of GET /health.
const HealthMessage = "yes server is operating correctly"

// Server is the fake study service.
type Server struct {
	router         chi.Router
	store          *Store
	chunks         chunker.Config
	maxUploadBytes int64
	log            *slog.Logger
}

// NewServer creates and configures the fake service.
func NewServer(log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:          NewStore(),
		chunks:         chunker.DefaultConfig(),
		maxUploadBytes: 32 << 20,
		log:            log,
	}
	s.setupRoutes()
	return s
}

// Start serves a new fake service on a loopback port. Callers close the
// returned server.
func Start(log *slog.Logger) *httptest.Server {
	return httptest.NewServer(NewServer(log))
}

// Store exposes the document store.
func (s *Server) Store() *Store { return s.store }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/docs/{docID}", s.handleDocument)
	r.Delete("/docs/{docID}", s.handleDeleteDocument)
	r.Post("/study/", s.handleStudy)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": HealthMessage})
}
