// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/lp-portfolio/business/pricing/domain"
)

// PriceSource defines the interface for a price table provider.
type PriceSource interface {
	// Prices returns the current price of every listed resource.
	Prices(ctx context.Context) ([]domain.TokenPrice, error)
}
