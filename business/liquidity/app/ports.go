// Package app contains the liquidity use cases: finding an account's LP
// positions, resolving them to underlying tokens and planning precision
// deposits.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
)

// Ledger is the subset of the ledger service the liquidity context reads.
type Ledger interface {
	Balances(ctx context.Context, account string) (ledgerDomain.AccountBalances, error)
	NonFungibleIDs(ctx context.Context, account string, balance ledgerDomain.NonFungibleBalance) ([]string, error)
	NonFungibleData(ctx context.Context, resource string, ids []string) ([]ledgerDomain.NonFungibleRecord, error)
	ComponentState(ctx context.Context, address string) (ledgerDomain.EntityDetails, error)
}

// OciswapAPI previews withdrawals from Ociswap pools.
type OciswapAPI interface {
	// RemoveLiquidityPreview returns what amount of the pool's LP token
	// redeems for.
	RemoveLiquidityPreview(ctx context.Context, pool string, amount decimal.Decimal) (domain.AmmSharePool, error)

	// PrecisionRemovePreview returns what one precision position redeems for.
	PrecisionRemovePreview(ctx context.Context, pool string, position domain.LiquidityRange) (domain.AmmSharePool, error)
}

// DefiPlazaPair is one DefiPlaza pair and its two LP resources.
type DefiPlazaPair struct {
	Address         string
	BaseToken       string
	QuoteToken      string
	BaseLPResource  string
	QuoteLPResource string
}

// DefiPlazaAPI lists DefiPlaza pairs and previews LP redemptions.
type DefiPlazaAPI interface {
	Pairs(ctx context.Context) ([]DefiPlazaPair, error)
	Redeem(ctx context.Context, lpResource string, amount decimal.Decimal) (domain.StaticPool, error)
}
