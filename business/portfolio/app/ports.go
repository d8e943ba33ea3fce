// Package app assembles an account's portfolio report from the ledger,
// pricing, liquidity and strategy contexts.
package app

import (
	"context"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	liquidityApp "github.com/fd1az/lp-portfolio/business/liquidity/app"
	liquidityDomain "github.com/fd1az/lp-portfolio/business/liquidity/domain"
	pricingDomain "github.com/fd1az/lp-portfolio/business/pricing/domain"
	strategyApp "github.com/fd1az/lp-portfolio/business/strategy/app"
	strategyDomain "github.com/fd1az/lp-portfolio/business/strategy/domain"
)

// History reads an account's classified transaction history.
type History interface {
	History(ctx context.Context, account string) ([]ledgerDomain.EnhancedTransaction, error)
}

// PriceSource returns the current price table.
type PriceSource interface {
	Table(ctx context.Context) (*pricingDomain.PriceTable, error)
}

// Discoverer finds an account's LP positions.
type Discoverer interface {
	Discover(ctx context.Context, account string) (map[string]liquidityDomain.PositionEntry, error)
}

// PositionResolver turns a position into its underlying tokens and plans
// precision pool deposits.
type PositionResolver interface {
	Resolve(ctx context.Context, entry liquidityDomain.PositionEntry) (liquidityDomain.Underlying, error)
	PlanAdd(ctx context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error)
}

// StrategyValuator values leveraged strategy positions.
type StrategyValuator interface {
	Value(ctx context.Context, account string, history []ledgerDomain.EnhancedTransaction, prices strategyApp.Prices) ([]strategyDomain.Position, error)
}
