package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

const shutdownTimeout = 10 * time.Second

// Resolver resolves the documentation viewer link of one repository.
// *docviewer.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, ref repository.Ref) (docviewer.Link, bool, error)
}

// Server represents the API server.
type Server struct {
	Addr   string
	router *chi.Mux
	server *http.Server

	logger    *slog.Logger
	errors    *errors.HTTPErrorAdapter
	authToken string
	timeout   time.Duration

	resolvers       map[string]Resolver
	defaultResolver string

	metricsPath    string
	metricsHandler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs and errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResolver registers r under name, selectable with ?forge=name.
func WithResolver(name string, r Resolver) Option {
	return func(s *Server) { s.resolvers[name] = r }
}

// WithDefaultResolver names the resolver used when a request selects none.
func WithDefaultResolver(name string) Option {
	return func(s *Server) { s.defaultResolver = name }
}

// WithMetrics serves h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

// New creates the API server. Timeouts and the read token come from cfg.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		Addr:      cfg.Addr,
		router:    chi.NewRouter(),
		logger:    slog.Default(),
		authToken: cfg.AuthToken,
		timeout:   cfg.RequestTimeout,
		resolvers: make(map[string]Resolver),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errors = errors.NewHTTPErrorAdapter(s.logger)
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(panicRecovery(s.logger, s.errors))
	s.router.Use(middleware.Timeout(s.timeout))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/v1/repositories/*", s.handleRepository)

	if s.metricsHandler != nil && s.metricsPath != "" {
		s.router.Method(http.MethodGet, s.metricsPath, s.metricsHandler)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.errors.WriteErrorResponse(w, r, errors.NotFoundError("route not found").
			WithContext("path", r.URL.Path).
			Build())
	})
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(l) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return errors.NetworkError("failed to listen").
			WithCause(err).
			WithContext("addr", s.Addr).
			Build()
	}
	s.logger.InfoContext(ctx, "HTTP server listening", slog.String("addr", l.Addr().String()))
	return s.Serve(ctx, l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
