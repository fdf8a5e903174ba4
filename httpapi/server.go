package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mrpasztoradam/goadssim"
)

// Server represents the HTTP inspection server
type Server struct {
	config     *goadssim.Config
	handler    *Handler
	logger     goadssim.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new HTTP server exposing the given simulator.
func NewServer(config *goadssim.Config, sim *goadssim.Server, logger goadssim.Logger) *Server {
	if logger == nil {
		logger = goadssim.DefaultLogger
	}

	s := &Server{
		config:  config,
		handler: NewHandler(sim, logger),
		logger:  logger,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         config.HTTPAddress(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// CORS
	if s.config.HTTP.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.HTTP.CORS.AllowedOrigins,
			AllowedMethods:   s.config.HTTP.CORS.AllowedMethods,
			AllowedHeaders:   s.config.HTTP.CORS.AllowedHeaders,
			AllowCredentials: s.config.HTTP.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handler.HandleHealth)
		r.Get("/info", s.handler.HandleInfo)

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.handler.HandleGetRequests)
			r.Delete("/", s.handler.HandleClearRequests)
		})

		r.Get("/symbols", s.handler.HandleGetSymbols)
	})

	// WebSocket endpoint
	r.Get("/ws/requests", s.handler.HandleWebSocket)

	// Root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name":"goadssim inspection API","version":%q,"websocket":"/ws/requests"}`, goadssim.Version())
	})

	s.router = r
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("inspection API listening", "addr", s.config.HTTPAddress())
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Router returns the chi router (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
