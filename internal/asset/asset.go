// Package asset holds metadata of ledger resources: symbol, name, icon and
// divisibility, keyed by resource address.
package asset

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDivisibility is the ledger's maximum number of decimal places.
const MaxDivisibility = 18

// Asset represents the metadata of a fungible resource.
// The resource address is the identity; the symbol is display metadata.
type Asset struct {
	address      string
	symbol       string
	name         string
	iconURL      string
	divisibility int32
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(address, symbol string, divisibility int32) *Asset {
	if !strings.HasPrefix(address, "resource_") {
		panic("asset: not a resource address: " + address)
	}
	if divisibility < 0 || divisibility > MaxDivisibility {
		panic("asset: divisibility out of range")
	}

	return &Asset{
		address:      address,
		symbol:       symbol,
		divisibility: divisibility,
	}
}

// NewAssetWithName creates a new Asset with a human-readable name and icon.
func NewAssetWithName(address, symbol, name, iconURL string, divisibility int32) *Asset {
	a := NewAsset(address, symbol, divisibility)
	a.name = name
	a.iconURL = iconURL
	return a
}

// Address returns the resource address.
func (a *Asset) Address() string {
	return a.address
}

// Symbol returns the ticker symbol (e.g., "XRD", "xUSDC").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// IconURL returns the icon reference, possibly empty.
func (a *Asset) IconURL() string {
	return a.iconURL
}

// Divisibility returns the number of decimal places.
func (a *Asset) Divisibility() int32 {
	return a.divisibility
}

// Truncate rounds amount down to the asset's divisibility.
func (a *Asset) Truncate(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundFloor(a.divisibility)
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	if a.symbol == "" {
		return a.address
	}
	return a.symbol
}

// Equals compares two Assets by address.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.address == other.address
}
