// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/cache"
	"github.com/fd1az/lp-portfolio/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Discovery = di.NewToken[*app.Discovery]("liquidity.Discovery")
	Resolver  = di.NewToken[*app.Resolver]("liquidity.Resolver")
)

// Private dependency tokens - internal to liquidity module
var (
	Ociswap   = di.NewToken[app.OciswapAPI]("liquidity:ociswap")
	DefiPlaza = di.NewToken[app.DefiPlazaAPI]("liquidity:defiplaza")
	PairCache = di.NewToken[cache.Store[domain.PairInfo]]("liquidity:pairCache")
)

// Helper functions for type-safe access
func GetDiscovery(c di.ServiceRegistry) *app.Discovery {
	return di.GetToken(c, Discovery)
}

func GetResolver(c di.ServiceRegistry) *app.Resolver {
	return di.GetToken(c, Resolver)
}

func GetOciswap(c di.ServiceRegistry) app.OciswapAPI {
	return di.GetToken(c, Ociswap)
}

func GetDefiPlaza(c di.ServiceRegistry) app.DefiPlazaAPI {
	return di.GetToken(c, DefiPlaza)
}

func GetPairCache(c di.ServiceRegistry) cache.Store[domain.PairInfo] {
	return di.GetToken(c, PairCache)
}
