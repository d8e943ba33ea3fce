// Package domain contains the liquidity-position model: position descriptors,
// underlying-token shapes and the concentrated-liquidity math.
package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// Protocol identifies which AMM owns a position.
type Protocol string

const (
	ProtocolDefiPlaza           Protocol = "defiplaza"
	ProtocolOciswapFungible     Protocol = "ociswap_fungible"
	ProtocolOciswapConcentrated Protocol = "ociswap_concentrated"
)

// Concentrated reports whether positions of p are non-fungible records.
func (p Protocol) Concentrated() bool {
	return p == ProtocolOciswapConcentrated
}

// LiquidityRange is one non-fungible precision position.
type LiquidityRange struct {
	ID         string          `json:"id"`
	Liquidity  decimal.Decimal `json:"liquidity"`
	LeftBound  int32           `json:"leftBound"`
	RightBound int32           `json:"rightBound"`
}

// Validate checks the bounds ordering and tick domain.
func (r LiquidityRange) Validate() error {
	if r.LeftBound < MinTick || r.RightBound > MaxTick {
		return apperror.Validation(apperror.CodeInvalidTick, r.ID)
	}
	if r.LeftBound > r.RightBound {
		return apperror.Validation(apperror.CodeInvalidRange, r.ID)
	}
	if r.Liquidity.IsNegative() {
		return apperror.Validation(apperror.CodeInvalidRange, r.ID)
	}
	return nil
}

// PairInfo is the memoized pool lookup for an LP resource.
type PairInfo struct {
	Protocol    Protocol `json:"protocol"`
	PoolAddress string   `json:"poolAddress"`
	XAddress    string   `json:"xAddress"`
	YAddress    string   `json:"yAddress"`
}

// PositionEntry identifies one LP holding of an account, keyed by resource.
// Fungible protocols carry Amount; the concentrated protocol carries Records.
// PairError is set when the pool pair lookup failed; such an entry cannot be
// valued.
type PositionEntry struct {
	ResourceAddress string           `json:"resourceAddress"`
	Protocol        Protocol         `json:"protocol"`
	Name            string           `json:"name"`
	IconURL         string           `json:"iconUrl,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	Records         []LiquidityRange `json:"records,omitempty"`
	Pair            PairInfo         `json:"pair"`
	PairError       string           `json:"pairError,omitempty"`
}

// Resolvable reports whether the pool pair of e is known.
func (e PositionEntry) Resolvable() bool {
	return e.PairError == ""
}

// Validate enforces the shape each protocol requires.
func (e PositionEntry) Validate() error {
	if e.ResourceAddress == "" {
		return apperror.Validation(apperror.CodeRequiredField, "resource address")
	}
	switch e.Protocol {
	case ProtocolDefiPlaza, ProtocolOciswapFungible:
		if !e.Amount.IsPositive() || len(e.Records) != 0 {
			return apperror.Validation(apperror.CodeInvalidInput, "fungible position needs a positive amount and no records")
		}
	case ProtocolOciswapConcentrated:
		if len(e.Records) == 0 {
			return apperror.Validation(apperror.CodeInvalidInput, "concentrated position needs at least one record")
		}
	default:
		return apperror.Validation(apperror.CodeInvalidInput, "unknown protocol "+string(e.Protocol))
	}
	return nil
}
