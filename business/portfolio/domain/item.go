// Package domain contains the portfolio report model: report rows, the cost
// basis calculation and dust filtering.
package domain

import (
	"github.com/shopspring/decimal"
)

// pctPlaces is the precision of the pnl/invested division.
const pctPlaces = 32

// Kind tells LP rows from strategy rows.
type Kind string

const (
	KindLP       Kind = "lp"
	KindStrategy Kind = "strategy"
)

// Pair is the display data of a row's two tokens.
type Pair struct {
	LeftAlias  string `json:"leftAlias"`
	RightAlias string `json:"rightAlias"`
	LeftIcon   string `json:"leftIcon,omitempty"`
	RightIcon  string `json:"rightIcon,omitempty"`
}

// Item is one report row. Invested, Current and PnL are fiat.
type Item struct {
	Kind            Kind   `json:"kind"`
	Name            string `json:"name"`
	Protocol        string `json:"protocol,omitempty"`
	ResourceAddress string `json:"resourceAddress,omitempty"`
	Pair
	Invested      decimal.Decimal `json:"invested"`
	Current       decimal.Decimal `json:"current"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercentage string          `json:"pnlPercentage"`
	CloseOut      string          `json:"closeOut,omitempty"`
	Unresolved    bool            `json:"unresolved,omitempty"`
	MissingPrices []string        `json:"missingPrices,omitempty"`
}

// NewItem builds a row with pnl = current - invested.
func NewItem(kind Kind, name string, pair Pair, invested, current decimal.Decimal) Item {
	pnl := current.Sub(invested)
	return Item{
		Kind:          kind,
		Name:          name,
		Pair:          pair,
		Invested:      invested,
		Current:       current,
		PnL:           pnl,
		PnLPercentage: PnLPercentage(invested, pnl),
	}
}

// PnLPercentage returns pnl / invested × 100 with two decimals, or "0" when
// nothing was invested.
func PnLPercentage(invested, pnl decimal.Decimal) string {
	if invested.IsZero() {
		return "0"
	}
	return pnl.Mul(decimal.NewFromInt(100)).DivRound(invested, pctPlaces).StringFixed(2)
}

// IsStrategy reports whether the row is a leveraged strategy.
func (i Item) IsStrategy() bool {
	return i.Kind == KindStrategy
}

// Keep reports whether the row belongs in the report. LP rows need a
// positive invested amount and a current value above dustFloor; strategy rows
// need either amount to be nonzero.
func (i Item) Keep(dustFloor decimal.Decimal) bool {
	if i.IsStrategy() {
		return !i.Invested.IsZero() || !i.Current.IsZero()
	}
	return i.Invested.IsPositive() && i.Current.GreaterThan(dustFloor)
}
