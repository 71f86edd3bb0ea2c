package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"rinha-ledger/internal/config"
	"rinha-ledger/internal/handler"
	"rinha-ledger/internal/metrics"
	"rinha-ledger/internal/repository"
	"rinha-ledger/internal/repository/memory"
	"rinha-ledger/internal/worker"
)

const requestIDHeader = "X-Request-ID"

// Server represents the HTTP server
type Server struct {
	router  *mux.Router
	server  *http.Server
	pool    *repository.Pool
	binder  *worker.Binder
	logger  *slog.Logger
	workers int
	port    string
	errCh   chan error
}

// NewServer wires the routes over an established pool. The server owns the pool from
// here on and closes it on Stop.
func NewServer(cfg *config.Config, pool *repository.Pool, logger *slog.Logger) *Server {
	m := metrics.New()
	m.SetPoolSize(pool.Size())

	transactionHandler := handler.NewTransactionHandler(logger)
	statementHandler := handler.NewStatementHandler(logger)

	router := mux.NewRouter()
	router.NotFoundHandler = emptyStatus(http.StatusNotFound)
	router.MethodNotAllowedHandler = emptyStatus(http.StatusMethodNotAllowed)
	router.Use(requestMiddleware(logger, m))

	router.HandleFunc("/clientes/{id:[0-9]+}/transacoes", transactionHandler.Create).Methods(http.MethodPost)
	router.HandleFunc("/clientes/{id:[0-9]+}/extrato", statementHandler.Get).Methods(http.MethodGet)

	router.HandleFunc("/health", healthHandler(logger)).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	return &Server{
		router:  router,
		pool:    pool,
		binder:  worker.NewBinder(pool, logger, m),
		logger:  logger,
		workers: cfg.Workers,
		errCh:   make(chan error, 1),
	}
}

// OpenPool establishes the configured number of storage connections, failing if any
// of them cannot be opened.
func OpenPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Pool, error) {
	var factory repository.Factory
	if cfg.UsesMemoryStore() {
		logger.Info("Using in-memory store")
		factory = memory.New(memory.DefaultAccounts...).Factory()
	} else {
		factory = repository.PostgresFactory(cfg.GetDBConnectionString(), logger)
	}

	pool, err := repository.NewPool(ctx, factory, cfg.Parallelism)
	if err != nil {
		return nil, err
	}

	logger.Info("Storage pool established", "connections", pool.Size())
	return pool, nil
}

func emptyStatus(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(status)
	})
}

// healthHandler pings the storage connection bound to the caller's worker.
func healthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		wk, ok := worker.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "no worker"})
			return
		}

		if err := wk.Ledger.Ping(r.Context()); err != nil {
			logger.Warn("Health check failed", "worker_id", wk.ID, "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "store unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// requestMiddleware tags the request with an id, logs its completion and records it.
func requestMiddleware(logger *slog.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			m.ObserveRequest(route, r.Method, ww.statusCode, elapsed)

			logger.Debug("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", elapsed,
				"request_id", requestID,
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start binds the port and serves in the background. At most cfg.Workers connections,
// and therefore workers, are live at once; further connections wait in the accept queue.
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:     s.router,
		ConnContext: s.binder.ConnContext,
		ConnState:   s.binder.ConnState,
	}

	s.logger.Info("Starting server", "port", s.port, "workers", s.workers)

	go func() {
		err := s.server.Serve(netutil.LimitListener(listener, s.workers))
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server stopped serving", "error", err)
			s.errCh <- err
		}
		close(s.errCh)
	}()

	return s.port, nil
}

// Err reports a serve failure after Start; it is closed when serving ends.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Stop drains in-flight requests, then closes the storage pool.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	if closeErr := s.pool.Close(); closeErr != nil {
		s.logger.Error("Failed to close storage pool", "error", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	return err
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// NewLogger builds the process logger. An ephemeral port means a test run, which logs
// nothing.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg.ServerPort == "0" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})), nil
}

// StartServer establishes the pool and starts serving with the given configuration.
// A nil logger is built from cfg.
func StartServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, string, error) {
	if logger == nil {
		var err error
		if logger, err = NewLogger(cfg); err != nil {
			return nil, "", err
		}
	}

	pool, err := OpenPool(ctx, cfg, logger)
	if err != nil {
		return nil, "", err
	}

	server := NewServer(cfg, pool, logger)

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		pool.Close()
		return nil, "", err
	}

	return server, port, nil
}
