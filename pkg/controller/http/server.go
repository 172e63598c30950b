package http

import (
	"net/http"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/open", s.openSessionHandler)
			r.Get("/transcript", s.transcriptHandler)
			r.Post("/messages", s.messageHandler)
			r.Get("/suggestions", s.suggestionsHandler)
			r.Get("/media", s.mediaHandler)
			r.Post("/operations", s.operationHandler)
			r.Post("/status", s.statusHandler)
			r.Delete("/", s.closeSessionHandler)
		})

		r.Get("/events/{eventID}", s.getEventHandler)
		r.Get("/events/{eventID}/posts", s.listPostsHandler)
		r.Get("/processes/{processID}", s.getProcessHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
