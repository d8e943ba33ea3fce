// Package liquidity implements the liquidity bounded context: LP position
// discovery, underlying-token resolution and precision deposit planning.
package liquidity

import (
	"context"

	"github.com/redis/go-redis/v9"

	ledgerDI "github.com/fd1az/lp-portfolio/business/ledger/di"
	"github.com/fd1az/lp-portfolio/business/liquidity/app"
	liquidityDI "github.com/fd1az/lp-portfolio/business/liquidity/di"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/business/liquidity/infra/defiplaza"
	"github.com/fd1az/lp-portfolio/business/liquidity/infra/ociswap"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/cache"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/di"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/monolith"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidityDI.Ociswap, func(sr di.ServiceRegistry) app.OciswapAPI {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := ociswap.NewClient(ociswap.Config{
			BaseURL:           cfg.Ociswap.APIURL,
			Timeout:           cfg.Ociswap.Timeout,
			RequestsPerMinute: cfg.Ociswap.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create ociswap client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, liquidityDI.DefiPlaza, func(sr di.ServiceRegistry) app.DefiPlazaAPI {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := defiplaza.NewClient(defiplaza.Config{
			BaseURL:           cfg.DefiPlaza.APIURL,
			Timeout:           cfg.DefiPlaza.Timeout,
			RequestsPerMinute: cfg.DefiPlaza.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create defiplaza client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, liquidityDI.PairCache, func(sr di.ServiceRegistry) cache.Store[domain.PairInfo] {
		cfg := sr.Get("config").(*config.Config)
		client, _ := sr.Get("redis").(redis.UniversalClient)
		return cache.NewStore[domain.PairInfo](client, cfg.Cache.Prefix, "pairs")
	})

	di.RegisterToken(c, liquidityDI.Discovery, func(sr di.ServiceRegistry) *app.Discovery {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		naming, err := app.CompileNaming(cfg.Liquidity.Naming.DefiPlaza, cfg.Liquidity.Naming.Ociswap, cfg.Liquidity.Naming.Precision)
		if err != nil {
			panic("failed to create discovery: " + err.Error())
		}

		return app.NewDiscovery(
			ledgerDI.GetLedgerService(sr),
			liquidityDI.GetDefiPlaza(sr),
			naming,
			liquidityDI.GetPairCache(sr),
			cfg.Liquidity.Concurrency,
			log,
		)
	})

	di.RegisterToken(c, liquidityDI.Resolver, func(sr di.ServiceRegistry) *app.Resolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		return app.NewResolver(
			ledgerDI.GetLedgerService(sr),
			liquidityDI.GetOciswap(sr),
			liquidityDI.GetDefiPlaza(sr),
			registry,
			cfg.Liquidity.Concurrency,
			log,
		)
	})

	return nil
}

// Startup resolves the services once so misconfiguration surfaces at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	liquidityDI.GetDiscovery(mono.Services())
	liquidityDI.GetResolver(mono.Services())

	mono.Logger().Info(ctx, "liquidity module started")
	return nil
}
