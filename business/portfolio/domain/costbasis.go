package domain

import (
	"slices"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// FiatPricer looks up the fiat price of a resource.
type FiatPricer interface {
	FiatPrice(resource string) (decimal.Decimal, bool)
}

// CostBasis computes how much fiat an account put into a position.
type CostBasis struct {
	Prices FiatPricer
	// Strict turns a missing price into an error instead of a zero.
	Strict bool
}

// CostResult is the invested amount of one position.
type CostResult struct {
	Invested      decimal.Decimal
	Transactions  int
	MissingPrices []string
}

// Invested walks history and, for every transaction touching resource, adds
// what the account spent in other tokens and subtracts what it received.
// Unpriced tokens count as zero and are listed in MissingPrices.
func (c CostBasis) Invested(account, resource string, history []ledgerDomain.EnhancedTransaction) (CostResult, error) {
	res := CostResult{Invested: decimal.Zero}

	for _, tx := range history {
		if !tx.Touches(resource) {
			continue
		}
		res.Transactions++

		for _, change := range tx.FungibleChangesOf(account) {
			if change.ResourceAddress == resource || change.Amount.IsZero() {
				continue
			}
			price, ok := c.Prices.FiatPrice(change.ResourceAddress)
			if !ok {
				if c.Strict {
					return CostResult{}, apperror.New(apperror.CodePriceMissing,
						apperror.WithContext(change.ResourceAddress))
				}
				if !slices.Contains(res.MissingPrices, change.ResourceAddress) {
					res.MissingPrices = append(res.MissingPrices, change.ResourceAddress)
				}
				continue
			}
			// Spent amounts are negative changes.
			res.Invested = res.Invested.Sub(change.Amount.Mul(price))
		}
	}
	return res, nil
}
