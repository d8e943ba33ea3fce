// Package di contains dependency injection tokens for the portfolio context.
package di

import (
	"github.com/fd1az/lp-portfolio/business/portfolio/app"
	"github.com/fd1az/lp-portfolio/business/portfolio/infra/httpapi"
	"github.com/fd1az/lp-portfolio/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PortfolioService = di.NewToken[*app.PortfolioService]("portfolio.PortfolioService")
	HTTPServer       = di.NewToken[*httpapi.Server]("portfolio.HTTPServer")
)

func GetPortfolioService(c di.ServiceRegistry) *app.PortfolioService {
	return di.GetToken(c, PortfolioService)
}

func GetHTTPServer(c di.ServiceRegistry) *httpapi.Server {
	return di.GetToken(c, HTTPServer)
}
