// Package components provides reusable TUI components.
package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
)

// Columns of the report table.
func Columns() []table.Column {
	return []table.Column{
		{Title: "Position", Width: 28},
		{Title: "Pair", Width: 18},
		{Title: "Invested", Width: 12},
		{Title: "Current", Width: 12},
		{Title: "PnL", Width: 12},
		{Title: "PnL %", Width: 9},
		{Title: "", Width: 3},
	}
}

// Rows converts report items into table rows. Fiat values use two decimals.
func Rows(items []domain.Item) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		flag := ""
		switch {
		case it.Unresolved:
			flag = "!"
		case len(it.MissingPrices) > 0:
			flag = "?"
		case it.IsStrategy():
			flag = "L"
		}
		rows = append(rows, table.Row{
			it.Name,
			it.LeftAlias + "/" + it.RightAlias,
			usd(it.Invested),
			usd(it.Current),
			usd(it.PnL),
			it.PnLPercentage + "%",
			flag,
		})
	}
	return rows
}

func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

var (
	positive = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negative = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	label    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Summary renders the report totals on one line.
func Summary(t domain.Totals) string {
	pnl := positive
	if t.PnL.IsNegative() {
		pnl = negative
	}
	return label.Render("invested ") + usd(t.Invested) +
		label.Render("   current ") + usd(t.Current) +
		label.Render("   pnl ") + pnl.Render(usd(t.PnL)+" ("+t.PnLPercentage+"%)")
}
