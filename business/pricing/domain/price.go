// Package domain contains the core domain types for the pricing context.
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TokenPrice is one row of the price table.
type TokenPrice struct {
	Resource     string
	Symbol       string
	Name         string
	IconURL      string
	Divisibility int32
	// FiatPrice is the USD price.
	FiatPrice decimal.Decimal
	// RefPrice is the price in the reference resource (XRD).
	RefPrice decimal.Decimal
}

// PriceTable maps resource address to prices. It is immutable once built.
type PriceTable struct {
	reference string
	prices    map[string]TokenPrice
	fetchedAt time.Time
}

// NewPriceTable builds a table. Later duplicates replace earlier ones.
func NewPriceTable(reference string, rows []TokenPrice, fetchedAt time.Time) *PriceTable {
	prices := make(map[string]TokenPrice, len(rows))
	for _, r := range rows {
		prices[r.Resource] = r
	}
	return &PriceTable{reference: reference, prices: prices, fetchedAt: fetchedAt}
}

// Get returns the row of resource.
func (t *PriceTable) Get(resource string) (TokenPrice, bool) {
	p, ok := t.prices[resource]
	return p, ok
}

// FiatPrice returns the USD price of resource.
func (t *PriceTable) FiatPrice(resource string) (decimal.Decimal, bool) {
	p, ok := t.prices[resource]
	if !ok {
		return decimal.Zero, false
	}
	return p.FiatPrice, true
}

// RefPrice returns the price of resource in the reference resource. The
// reference itself is always 1.
func (t *PriceTable) RefPrice(resource string) (decimal.Decimal, bool) {
	if resource == t.reference {
		return decimal.NewFromInt(1), true
	}
	p, ok := t.prices[resource]
	if !ok {
		return decimal.Zero, false
	}
	return p.RefPrice, true
}

// Reference returns the reference resource address.
func (t *PriceTable) Reference() string {
	return t.reference
}

// ReferenceFiat returns the USD price of the reference resource.
func (t *PriceTable) ReferenceFiat() (decimal.Decimal, bool) {
	return t.FiatPrice(t.reference)
}

// Len returns the number of priced resources.
func (t *PriceTable) Len() int {
	return len(t.prices)
}

// FetchedAt returns when the table was loaded.
func (t *PriceTable) FetchedAt() time.Time {
	return t.fetchedAt
}

// Resources returns the priced resource addresses, sorted.
func (t *PriceTable) Resources() []string {
	out := make([]string, 0, len(t.prices))
	for r := range t.prices {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
