// Package server exposes the websocket endpoint and the HTTP credit and
// purchase API used by the payment collaborator.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/xraph/debate"
	"github.com/xraph/debate/credit"
	"github.com/xraph/debate/entitlement"
	"github.com/xraph/debate/types"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second

	creditSecretHeader = "X-Credit-Secret"
)

// Engine is the part of *debate.Engine the HTTP API calls.
type Engine interface {
	Ping(ctx context.Context) error
	Balance(ctx context.Context, participantID string) (types.Credits, error)
	History(ctx context.Context, participantID string, limit int) ([]*credit.Entry, error)
	Credit(ctx context.Context, participantID string, amount types.Credits, reason credit.Reason) (*credit.Entry, error)
	Purchase(ctx context.Context, participantID, sessionID string, f entitlement.Feature) (*debate.PurchaseResult, error)
}

var _ Engine = (*debate.Engine)(nil)

// Hub is the live connection layer: it serves websocket upgrades and
// pushes balance changes to connected participants.
type Hub interface {
	Handler() http.Handler
	Notify(participantID string, balance types.Credits, message string) int
}

// Config defines the inputs for the HTTP boundary.
type Config struct {
	HTTPAddr          string
	AllowedOrigins    []string
	CreditSecret      string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the HTTP and websocket surface.
type Server struct {
	engine          Engine
	hub             Hub
	logger          *slog.Logger
	router          *mux.Router
	handler         http.Handler
	creditSecret    string
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// New builds a server. HTTPAddr may be empty when the server is only used
// through Handler.
func New(cfg Config, engine Engine, hub Hub, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if hub == nil {
		return nil, errors.New("server: hub is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		engine:          engine,
		hub:             hub,
		logger:          logger,
		router:          mux.NewRouter(),
		creditSecret:    strings.TrimSpace(cfg.CreditSecret),
		httpAddr:        strings.TrimSpace(cfg.HTTPAddr),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	s.setupRoutes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", creditSecretHeader},
		AllowCredentials: false,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:              s.httpAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/up", s.handleUp).Methods("GET")
	s.router.Handle("/ws", s.hub.Handler())

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/participants/{participantID}/credits", s.handleBalance).Methods("GET")
	api.HandleFunc("/participants/{participantID}/credits/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/participants/{participantID}/credits", s.handleCredit).Methods("POST")
	api.HandleFunc("/sessions/{sessionID}/purchases", s.handlePurchase).Methods("POST")
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.httpAddr == "" {
		return errors.New("server: http address is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Info("debate server listening", "addr", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("debate server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
