package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
	"github.com/vitos/bracket_trader/internal/usecase"
)

type Server struct {
	router       *http.ServeMux
	server       *http.Server
	ledger       *usecase.PositionLedger
	wallet       *usecase.Wallet
	positionRepo domain.PositionRepository
	markets      []string
	startedAt    time.Time
	logger       *zap.Logger
}

func NewServer(
	port int,
	ledger *usecase.PositionLedger,
	wallet *usecase.Wallet,
	positionRepo domain.PositionRepository,
	markets []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:       http.NewServeMux(),
		ledger:       ledger,
		wallet:       wallet,
		positionRepo: positionRepo,
		markets:      markets,
		startedAt:    time.Now(),
		logger:       logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Dashboard
	s.router.HandleFunc("GET /{$}", s.handleDashboard)

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Positions
	s.router.HandleFunc("GET /positions", s.handleOpenPositions)
	s.router.HandleFunc("GET /positions/closed", s.handleClosedPositions)

	// Wallet
	s.router.HandleFunc("GET /api/wallet", s.handleWallet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
