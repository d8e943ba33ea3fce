// Package di contains dependency injection tokens for the ledger context.
package di

import (
	"github.com/fd1az/lp-portfolio/business/ledger/app"
	"github.com/fd1az/lp-portfolio/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LedgerService = di.NewToken[*app.LedgerService]("ledger.LedgerService")
)

// Private dependency tokens - internal to ledger module
var (
	Gateway = di.NewToken[app.Gateway]("ledger:gateway")
)

// Helper functions for type-safe access
func GetLedgerService(c di.ServiceRegistry) *app.LedgerService {
	return di.GetToken(c, LedgerService)
}

func GetGateway(c di.ServiceRegistry) app.Gateway {
	return di.GetToken(c, Gateway)
}
