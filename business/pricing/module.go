// Package pricing implements the pricing bounded context: the token price
// table every valuation reads.
package pricing

import (
	"context"

	"github.com/fd1az/lp-portfolio/business/pricing/app"
	pricingDI "github.com/fd1az/lp-portfolio/business/pricing/di"
	"github.com/fd1az/lp-portfolio/business/pricing/infra/astrolescent"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/di"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.PriceSource, func(sr di.ServiceRegistry) app.PriceSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := astrolescent.NewClient(astrolescent.Config{
			BaseURL: cfg.Pricing.AstrolescentURL,
			Timeout: cfg.Pricing.Timeout,
		}, log)
		if err != nil {
			panic("failed to create astrolescent client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		return app.NewPricingService(pricingDI.GetPriceSource(sr), registry, cfg.Pricing.ReferenceResource, log)
	})

	return nil
}

// Startup warms the asset registry with one price table load. Failure is
// logged; each portfolio request loads its own table anyway.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	table, err := pricingDI.GetPricingService(mono.Services()).Table(ctx)
	if err != nil {
		log.Warn(ctx, "initial price table load failed", "error", err)
		return nil
	}

	log.Info(ctx, "pricing module started", "resources", table.Len())
	return nil
}
