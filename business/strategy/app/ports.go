// Package app values leveraged strategy positions.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/strategy/domain"
)

// Ledger is the subset of the ledger service the valuator reads.
type Ledger interface {
	NonFungibleData(ctx context.Context, resource string, ids []string) ([]ledgerDomain.NonFungibleRecord, error)
	Preview(ctx context.Context, manifest string) (ledgerDomain.PreviewResult, error)
}

// LendingAPI reads the lending pools' unit-to-asset ratios.
type LendingAPI interface {
	UnitRatios(ctx context.Context) (domain.UnitRatios, error)
}

// Prices is the price table the valuator reads. The reference resource has a
// reference price of one.
type Prices interface {
	FiatPrice(resource string) (decimal.Decimal, bool)
	RefPrice(resource string) (decimal.Decimal, bool)
	Reference() string
}
