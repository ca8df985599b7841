package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pennywise-app/apiserver/config"
	"github.com/pennywise-app/apiserver/internal/db"
	"github.com/pennywise-app/apiserver/internal/events"
	"github.com/pennywise-app/apiserver/internal/handlers"
	"github.com/pennywise-app/apiserver/internal/metrics"
	"github.com/pennywise-app/apiserver/internal/services"
	"github.com/pennywise-app/apiserver/internal/storage"
	"github.com/pennywise-app/apiserver/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	defaultRequestTimeout = 15 * time.Second
	writeGrace            = 5 * time.Second
)

// Server wraps the HTTP server, router and every collaborator built at startup.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         io.Closer
	bus        *events.Bus
	log        zerolog.Logger
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	DB       handlers.Pinger
	Users    services.UserRepository
	Txs      services.TransactionRepository
	Events   services.EventPublisher
	Objects  storage.ObjectStorage
	Tokens   *services.TokenService
	Logger   zerolog.Logger
	Settings config.Config
}

// New opens the database and optional brokers described by cfg and
// constructs a Server.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := events.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init events: %w", err)
	}

	objects, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = bus.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	router := NewRouter(Dependencies{
		DB:       dbConn,
		Users:    store.NewUserRepository(dbConn),
		Txs:      store.NewTransactionRepository(dbConn),
		Events:   bus,
		Objects:  objects,
		Tokens:   services.NewTokenService(jwtSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Logger:   log,
		Settings: cfg,
	})

	httpServer := newHTTPServer(cfg, router)

	log.Info().
		Str("events_backend", cfg.Events.Backend).
		Str("storage_backend", cfg.Storage.Backend).
		Msg("server initialized")

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		log:        log,
	}, nil
}

// newHTTPServer leaves writeGrace past the request timeout so the 504 from
// middleware.Timeout still reaches the client.
func newHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout(cfg) + writeGrace,
		IdleTimeout:  60 * time.Second,
	}
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return cfg.RequestTimeout
}

// NewRouter builds the chi router with middleware and every route mounted.
func NewRouter(deps Dependencies) *chi.Mux {
	opts := handlers.Options{
		Logger:      deps.Logger,
		DebugErrors: deps.Settings.DebugErrors,
	}

	userService := services.NewUserService(deps.Users, deps.Events, deps.Logger)
	transactionService := services.NewTransactionService(deps.Txs, deps.Events, deps.Logger)
	exportService := services.NewExportService(deps.Txs, deps.Objects)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(deps.Logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout(deps.Settings)),
		cors.Handler(cors.Options{
			AllowedOrigins:   deps.Settings.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		metrics.Middleware,
	)

	router.Get("/healthz", handlers.Healthz)
	router.Get("/readyz", handlers.Readyz(deps.DB))
	router.Handle("/metrics", promhttp.Handler())

	handlers.AuthRouter(router, userService, deps.Tokens, opts)
	router.Route("/transactions", func(r chi.Router) {
		handlers.TransactionRouter(r, transactionService, exportService, handlers.RequireAuth(deps.Tokens), opts)
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the event bus and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.bus != nil {
		if closeErr := s.bus.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("failed to close event bus")
		}
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("failed to close database")
		}
	}
	return err
}
