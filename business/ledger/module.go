// Package ledger implements the ledger bounded context: gateway access and
// classified transaction history.
package ledger

import (
	"context"
	"time"

	"github.com/fd1az/lp-portfolio/business/ledger/app"
	ledgerDI "github.com/fd1az/lp-portfolio/business/ledger/di"
	"github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/ledger/infra/gateway"
	"github.com/fd1az/lp-portfolio/internal/config"
	"github.com/fd1az/lp-portfolio/internal/di"
	"github.com/fd1az/lp-portfolio/internal/logger"
	"github.com/fd1az/lp-portfolio/internal/monolith"
)

// Module implements the ledger bounded context.
type Module struct{}

// RegisterServices registers all ledger services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, ledgerDI.Gateway, func(sr di.ServiceRegistry) app.Gateway {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := gateway.NewClient(gateway.Config{
			BaseURL:           cfg.Ledger.GatewayURL,
			Timeout:           cfg.Ledger.Timeout,
			RequestsPerMinute: cfg.Ledger.RequestsPerMinute,
			MaxResourcePages:  cfg.Ledger.MaxPages,
		}, log)
		if err != nil {
			panic("failed to create gateway client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, ledgerDI.LedgerService, func(sr di.ServiceRegistry) *app.LedgerService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		classifier := domain.NewClassifier(domain.ClassifierConfig{
			AirdropDistributor:     cfg.Classifier.AirdropDistributor,
			AirdropMethod:          cfg.Classifier.AirdropMethod,
			RoyaltyCollector:       cfg.Classifier.RoyaltyCollector,
			RoyaltyMethod:          cfg.Classifier.RoyaltyMethod,
			LegacyRoyaltyCollector: cfg.Classifier.LegacyRoyaltyCollector,
			LegacyRoyaltyMethod:    cfg.Classifier.LegacyRoyaltyMethod,
		})

		return app.NewLedgerService(ledgerDI.GetGateway(sr), classifier, app.Config{
			MaxPages: cfg.Ledger.MaxPages,
			PageSize: cfg.Ledger.PageSize,
		}, log)
	})

	return nil
}

// Startup checks the gateway is reachable. An unreachable gateway is logged,
// not fatal: every request retries it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	status, err := ledgerDI.GetLedgerService(mono.Services()).Status(checkCtx)
	if err != nil {
		log.Warn(ctx, "gateway not reachable at startup", "error", err)
	} else {
		log.Info(ctx, "ledger module started",
			"network", status.Network,
			"state_version", status.StateVersion,
			"epoch", status.Epoch)
	}
	return nil
}
