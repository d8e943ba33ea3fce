// Package strategy implements the strategy bounded context: leveraged
// lending+LP positions and their close-out manifests.
package strategy

import (
	"context"

	ledgerDI "github.com/fd1az/lp-portfolio/business/ledger/di"
	"github.com/fd1az/lp-portfolio/business/strategy/app"
	strategyDI "github.com/fd1az/lp-portfolio/business/strategy/di"
	"github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/business/strategy/infra/lending"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/di"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/monolith"
)

// Module implements the strategy bounded context.
type Module struct{}

// RegisterServices registers all strategy services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, strategyDI.Lending, func(sr di.ServiceRegistry) app.LendingAPI {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := lending.NewClient(lending.Config{
			BaseURL:           cfg.Lending.APIURL,
			Timeout:           cfg.Lending.Timeout,
			RequestsPerMinute: cfg.Lending.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create lending client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, strategyDI.Valuator, func(sr di.ServiceRegistry) *app.Valuator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ledger := ledgerDI.GetLedgerService(sr)

		v, err := app.NewValuator(
			ledger,
			strategyDI.GetLending(sr),
			ledger.Classifier(),
			definitions(cfg.Strategy.Definitions),
			cfg.Portfolio.Concurrency,
			log,
		)
		if err != nil {
			panic("failed to create strategy valuator: " + err.Error())
		}
		return v
	})

	return nil
}

func definitions(in []config.StrategyDefinition) []domain.Definition {
	out := make([]domain.Definition, 0, len(in))
	for _, d := range in {
		out = append(out, domain.Definition{
			Name:               d.Name,
			LendingComponent:   d.LendingComponent,
			CDPResource:        d.CDPResource,
			CollateralResource: d.CollateralResource,
			BorrowedResource:   d.BorrowedResource,
			WrapperComponent:   d.WrapperComponent,
			WrappedResource:    d.WrappedResource,
			LPPool:             d.LPPool,
			LPResource:         d.LPResource,
			SwapPool:           d.SwapPool,
		})
	}
	return out
}

// Startup logs the configured strategies.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	v := strategyDI.GetValuator(mono.Services())

	names := make([]string, 0, len(v.Definitions()))
	for _, d := range v.Definitions() {
		names = append(names, d.Name)
	}
	mono.Logger().Info(ctx, "strategy module started", "strategies", names)
	return nil
}
