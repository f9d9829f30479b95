package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"casperdash/internal/casper/chain"
	"casperdash/internal/nft"
	"casperdash/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ChainReader is the part of the chain query service exposed over HTTP
type ChainReader interface {
	StateRootHash(ctx context.Context) (string, error)
	LatestBlockHash(ctx context.Context) (string, error)
	CurrentEraID(ctx context.Context) (uint64, error)
	PutDeploy(ctx context.Context, deployJSON json.RawMessage) (string, error)
	DeploysStatus(ctx context.Context, hashes []string) []chain.DeployStatus
}

// Deps are the services behind the API. Collections and Repository are
// optional; their endpoints answer 503 when unset.
type Deps struct {
	Chain       ChainReader
	Collections *nft.Registry
	Repository  storage.Repository
}

// Server represents the HTTP API server
// Provides endpoints for Prometheus metrics, health checks, NFT queries and deploys
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	deps       Deps
	port       int
}

// NewServer creates a new API server instance
func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		deps:   deps,
		port:   port,
	}

	// Register all HTTP routes
	s.registerRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	// Core endpoints
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.handleMetrics())

	s.router.Get("/chain/state", s.handleChainState)

	// NFT endpoints
	s.router.Route("/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Get("/{hash}/info", s.handleCollectionInfo)
		r.Get("/{hash}/tokens/{tokenID}", s.handleToken)
		r.Get("/{hash}/owners/{publicKey}/tokens", s.handleCollectionOwnerTokens)
	})
	s.router.Get("/accounts/{publicKey}/nfts", s.handleAccountNFTs)

	// Deploy endpoints
	s.router.Route("/deploys", func(r chi.Router) {
		r.Get("/", s.handleListDeploys)
		r.Post("/", s.handlePutDeploy)
		r.Post("/status", s.handleDeploysStatus)
		r.Get("/{hash}", s.handleGetDeploy)
		r.Get("/{hash}/status", s.handleDeployStatus)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, "Endpoint not found", http.StatusNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

// Start starts the HTTP server in a goroutine
// Returns immediately after starting the server
func (s *Server) Start() error {
	go func() {
		slog.Info("API server starting",
			"port", s.port,
			"endpoints", []string{"/", "/health", "/metrics", "/collections", "/deploys"},
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
