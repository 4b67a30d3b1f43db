package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Options struct {
	RateLimitWindow time.Duration
	RateLimitMax    int
	// TrustProxy rewrites the client address from forwarding headers
	// before rate limiting. Only enable it behind a proxy that sets them.
	TrustProxy bool
	Logger     zerolog.Logger
}

type Server struct{ mux *chi.Mux }

func New(opts Options) *Server {
	m := chi.NewRouter()

	limiter := NewRateLimiter(opts.RateLimitWindow, opts.RateLimitMax)

	// all middlewares go before any route
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	if opts.TrustProxy {
		m.Use(chimw.RealIP, limiter.Middleware)
	} else {
		// limit on the socket peer; headers are client controlled here
		m.Use(limiter.Middleware, chimw.RealIP)
	}
	m.Use(SecureHeaders)
	m.Use(chimw.Compress(5))
	m.Use(CORS)
	m.Use(Metrics)
	m.Use(Logger(opts.Logger))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found"})
	})

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
