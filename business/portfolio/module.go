// Package portfolio implements the portfolio bounded context: the report
// assembler and its HTTP API.
package portfolio

import (
	"context"

	ledgerDI "github.com/fd1az/lp-portfolio/business/ledger/di"
	liquidityDI "github.com/fd1az/lp-portfolio/business/liquidity/di"
	"github.com/fd1az/lp-portfolio/business/portfolio/app"
	portfolioDI "github.com/fd1az/lp-portfolio/business/portfolio/di"
	"github.com/fd1az/lp-portfolio/business/portfolio/infra/httpapi"
	pricingDI "github.com/fd1az/lp-portfolio/business/pricing/di"
	strategyDI "github.com/fd1az/lp-portfolio/business/strategy/di"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/di"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/monolith"
)

// Module implements the portfolio bounded context.
type Module struct{}

// RegisterServices registers all portfolio services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, portfolioDI.PortfolioService, func(sr di.ServiceRegistry) *app.PortfolioService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		svc, err := app.NewPortfolioService(
			ledgerDI.GetLedgerService(sr),
			pricingDI.GetPricingService(sr),
			liquidityDI.GetDiscovery(sr),
			liquidityDI.GetResolver(sr),
			strategyDI.GetValuator(sr),
			registry,
			app.Config{
				DustFloor:    cfg.Portfolio.DustFloorDecimal(),
				StrictPrices: cfg.Portfolio.StrictPrices,
				Concurrency:  cfg.Portfolio.Concurrency,
			},
			log,
		)
		if err != nil {
			panic("failed to create portfolio service: " + err.Error())
		}
		return svc
	})

	di.RegisterToken(c, portfolioDI.HTTPServer, func(sr di.ServiceRegistry) *httpapi.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return httpapi.NewServer(httpapi.Config{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}, portfolioDI.GetPortfolioService(sr), log)
	})

	return nil
}

// Startup resolves the report assembler so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	_ = portfolioDI.GetPortfolioService(mono.Services())
	mono.Logger().Info(ctx, "portfolio module started",
		"dust_floor", mono.Config().Portfolio.DustFloorDecimal().String(),
		"strict_prices", mono.Config().Portfolio.StrictPrices,
	)
	return nil
}
