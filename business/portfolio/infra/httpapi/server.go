// Package httpapi exposes portfolio reports, strategy close-outs and precision
// deposit planning over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	liquidityApp "github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
	strategyDomain "github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

// Portfolio is the service the handlers call.
type Portfolio interface {
	Report(ctx context.Context, account string) (domain.Report, error)
	CloseOuts(ctx context.Context, account string) ([]strategyDomain.Position, error)
	PlanPrecisionAdd(ctx context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the portfolio HTTP API.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	portfolio  Portfolio
	logger     logger.LoggerInterface
}

// NewServer creates a new API server.
func NewServer(cfg Config, portfolio Portfolio, log logger.LoggerInterface) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		portfolio: portfolio,
		logger:    log,
	}

	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      otelhttp.NewHandler(s.router, "portfolio-api"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/portfolio/{account}", s.handleReport).Methods(http.MethodGet)
	v1.HandleFunc("/strategies/{account}/closeout", s.handleCloseOuts).Methods(http.MethodGet)
	v1.HandleFunc("/manifests/precision/add", s.handlePrecisionAdd).Methods(http.MethodPost)
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
