package domain

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals sums the kept rows.
type Totals struct {
	Invested      decimal.Decimal `json:"invested"`
	Current       decimal.Decimal `json:"current"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercentage string          `json:"pnlPercentage"`
}

// Report is an account's portfolio.
type Report struct {
	Account       string    `json:"account"`
	GeneratedAt   time.Time `json:"generatedAt"`
	Items         []Item    `json:"items"`
	Totals        Totals    `json:"totals"`
	MissingPrices []string  `json:"missingPrices,omitempty"`
	Unresolved    []string  `json:"unresolved,omitempty"`
}

// NewReport filters rows through Keep and orders them: LP rows by current
// value, largest first, then strategy rows in the order given. Missing prices
// and unresolved rows are collected before filtering.
func NewReport(account string, rows []Item, dustFloor decimal.Decimal, at time.Time) Report {
	r := Report{Account: account, GeneratedAt: at, Items: []Item{}}

	var lp, strategies []Item
	for _, row := range rows {
		for _, m := range row.MissingPrices {
			if !slices.Contains(r.MissingPrices, m) {
				r.MissingPrices = append(r.MissingPrices, m)
			}
		}
		if row.Unresolved {
			r.Unresolved = append(r.Unresolved, row.Name)
		}
		if !row.Keep(dustFloor) {
			continue
		}
		if row.IsStrategy() {
			strategies = append(strategies, row)
		} else {
			lp = append(lp, row)
		}
	}

	sort.SliceStable(lp, func(i, j int) bool {
		return lp[i].Current.GreaterThan(lp[j].Current)
	})
	r.Items = append(r.Items, lp...)
	r.Items = append(r.Items, strategies...)
	sort.Strings(r.MissingPrices)

	invested, current := decimal.Zero, decimal.Zero
	for _, it := range r.Items {
		invested = invested.Add(it.Invested)
		current = current.Add(it.Current)
	}
	pnl := current.Sub(invested)
	r.Totals = Totals{
		Invested:      invested,
		Current:       current,
		PnL:           pnl,
		PnLPercentage: PnLPercentage(invested, pnl),
	}
	return r
}
