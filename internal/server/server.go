// Package server implements the streaming proxy in front of the language
// model backend. Clients POST a {model, contents, config} body and receive
// SSE frames of the form `data: {"text": ...}`, closed by `data: [DONE]`.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/ronpa/internal/llm"
)

// MaxRequestSize bounds the request body, currently 1MiB.
const MaxRequestSize = 1 << 20

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8787".
	Addr string

	// Backend serves generation requests.
	Backend llm.Provider

	// APIKey, when set, must be sent by clients in the x-api-key header.
	APIKey string

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string

	Logger *slog.Logger
}

// Server is the HTTP proxy.
type Server struct {
	chi.Router

	backend llm.Provider
	apiKey  string
	addr    string
	log     *slog.Logger
	server  *http.Server
}

// New builds the router. It does not start listening.
func New(o Options) (*Server, error) {
	if o.Backend == nil {
		return nil, errors.New("server: backend provider is required")
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		Router:  chi.NewMux(),
		backend: o.Backend,
		apiKey:  o.APIKey,
		addr:    o.Addr,
		log:     logger.With("caller", "server"),
	}

	corsOpts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", llm.APIKeyHeader},
		MaxAge:         300,
	}
	if len(o.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = o.AllowedOrigins
	} else {
		corsOpts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}

	s.Use(middleware.RequestID)
	s.Use(middleware.RealIP)
	s.Use(s.requestLogger)
	s.Use(middleware.Recoverer)
	s.Use(cors.New(corsOpts).Handler)

	s.Get("/healthz", s.health)
	s.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post(llm.ProxyStreamPath, s.handleStream)
		r.Post(llm.ProxyGeneratePath, s.handleGenerate)
	})

	return s, nil
}

// Start listens on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", s.addr)
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("stopping server")
	return s.server.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"model": s.backend.ModelID(),
	})
}
