// Package di contains dependency injection tokens for the strategy context.
package di

import (
	"github.com/fd1az/lp-portfolio/business/strategy/app"
	"github.com/fd1az/lp-portfolio/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Valuator = di.NewToken[*app.Valuator]("strategy.Valuator")
)

// Private dependency tokens - internal to strategy module
var (
	Lending = di.NewToken[app.LendingAPI]("strategy:lending")
)

// Helper functions for type-safe access
func GetValuator(c di.ServiceRegistry) *app.Valuator {
	return di.GetToken(c, Valuator)
}

func GetLending(c di.ServiceRegistry) app.LendingAPI {
	return di.GetToken(c, Lending)
}
