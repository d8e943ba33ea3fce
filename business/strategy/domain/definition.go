// Package domain models leveraged lending+LP strategies: their definitions,
// collateralized debt positions, lifecycle and close-out manifests.
package domain

import (
	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// Definition names the components one leveraged strategy touches. Opening
// deposits reference currency as collateral into LendingComponent, borrows
// BorrowedResource against the CDP, wraps it through WrapperComponent and
// provides liquidity to LPPool. Closing runs the sequence backwards and swaps
// the leftover borrowed token on SwapPool.
type Definition struct {
	Name               string
	LendingComponent   string
	CDPResource        string
	CollateralResource string
	BorrowedResource   string
	WrapperComponent   string
	WrappedResource    string
	LPPool             string
	LPResource         string
	SwapPool           string
}

// Validate reports the first missing field.
func (d Definition) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"lending component", d.LendingComponent},
		{"cdp resource", d.CDPResource},
		{"collateral resource", d.CollateralResource},
		{"borrowed resource", d.BorrowedResource},
		{"wrapper component", d.WrapperComponent},
		{"wrapped resource", d.WrappedResource},
		{"lp pool", d.LPPool},
		{"lp resource", d.LPResource},
		{"swap pool", d.SwapPool},
	} {
		if f.value == "" {
			return apperror.Validation(apperror.CodeRequiredField, "strategy "+d.Name+": "+f.name)
		}
	}
	return nil
}
