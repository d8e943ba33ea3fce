package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// CDP data fields.
const (
	fieldCollaterals = "collaterals"
	fieldLoans       = "loans"
)

// CDP is a collateralized debt position. Amounts are lending-pool units
// keyed by the underlying resource.
type CDP struct {
	ID          string
	Collaterals map[string]decimal.Decimal
	Loans       map[string]decimal.Decimal
}

// ParseCDP reads the collateral and loan maps of a CDP record.
func ParseCDP(rec ledgerDomain.NonFungibleRecord) (CDP, error) {
	collaterals, err := rec.Data.DecimalMapField(fieldCollaterals)
	if err != nil {
		return CDP{}, err
	}
	loans, err := rec.Data.DecimalMapField(fieldLoans)
	if err != nil {
		return CDP{}, err
	}
	return CDP{ID: rec.ID, Collaterals: collaterals, Loans: loans}, nil
}

// UnitRatios maps a lending pool's underlying resource to its
// unit_to_asset_ratio: units = assets × ratio.
type UnitRatios map[string]decimal.Decimal

// ToAssets converts pool units of resource into underlying amounts.
func (r UnitRatios) ToAssets(resource string, units decimal.Decimal) (decimal.Decimal, error) {
	if units.IsZero() {
		return decimal.Zero, nil
	}
	ratio, ok := r[resource]
	if !ok || !ratio.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeProtocolUnavailable,
			apperror.WithContext(fmt.Sprintf("no unit ratio for %s", resource)))
	}
	return units.DivRound(ratio, 24).RoundFloor(18), nil
}

// RefPricer looks up prices in the reference currency.
type RefPricer interface {
	RefPrice(resource string) (decimal.Decimal, bool)
}

// Exposure is a CDP's collateral and debt for one strategy, in underlying
// amounts and in the reference currency.
type Exposure struct {
	Collateral    decimal.Decimal
	Loan          decimal.Decimal
	CollateralRef decimal.Decimal
	LoanRef       decimal.Decimal
}

// NetRef is collateral minus loan in the reference currency.
func (e Exposure) NetRef() decimal.Decimal {
	return e.CollateralRef.Sub(e.LoanRef)
}

// Exposure values the CDP's def collateral and loan.
func (c CDP) Exposure(def Definition, ratios UnitRatios, prices RefPricer) (Exposure, error) {
	collateral, err := ratios.ToAssets(def.CollateralResource, c.Collaterals[def.CollateralResource])
	if err != nil {
		return Exposure{}, err
	}
	loan, err := ratios.ToAssets(def.BorrowedResource, c.Loans[def.BorrowedResource])
	if err != nil {
		return Exposure{}, err
	}

	e := Exposure{Collateral: collateral, Loan: loan}
	if !collateral.IsZero() {
		p, ok := prices.RefPrice(def.CollateralResource)
		if !ok {
			return Exposure{}, apperror.New(apperror.CodePriceMissing, apperror.WithContext(def.CollateralResource))
		}
		e.CollateralRef = collateral.Mul(p)
	}
	if !loan.IsZero() {
		p, ok := prices.RefPrice(def.BorrowedResource)
		if !ok {
			return Exposure{}, apperror.New(apperror.CodePriceMissing, apperror.WithContext(def.BorrowedResource))
		}
		e.LoanRef = loan.Mul(p)
	}
	return e, nil
}
