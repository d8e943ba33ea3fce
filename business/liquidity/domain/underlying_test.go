package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

type mapPricer map[string]decimal.Decimal

func (m mapPricer) FiatPrice(resource string) (decimal.Decimal, bool) {
	p, ok := m[resource]
	return p, ok
}

func TestValue(t *testing.T) {
	prices := mapPricer{"xrd": d("0.02"), "usdc": d("1")}

	tests := []struct {
		name    string
		u       Underlying
		want    string
		missing []string
	}{
		{
			name: "static pool",
			u:    StaticPool{BaseToken: "xrd", QuoteToken: "usdc", BaseAmount: d("1000"), QuoteAmount: d("5")},
			want: "25",
		},
		{
			name: "amm share with protocol fiat",
			u: AmmSharePool{
				XAddress: "xrd", YAddress: "usdc",
				XAmount: SideAmount{Token: d("1000"), Fiat: d("21")},
				YAmount: SideAmount{Token: d("5")},
			},
			want: "26",
		},
		{
			name: "concentrated list",
			u: ConcentratedPositionList{
				{NFTID: "#1#", AmmSharePool: AmmSharePool{XAddress: "xrd", YAddress: "usdc", XAmount: SideAmount{Token: d("100")}, YAmount: SideAmount{Token: d("1")}}},
				{NFTID: "#2#", AmmSharePool: AmmSharePool{XAddress: "xrd", YAddress: "usdc", XAmount: SideAmount{Token: d("50")}}},
			},
			want: "4",
		},
		{
			name:    "unpriced leg counts as zero",
			u:       StaticPool{BaseToken: "hug", QuoteToken: "usdc", BaseAmount: d("1000000"), QuoteAmount: d("3")},
			want:    "3",
			missing: []string{"hug"},
		},
		{
			name:    "zero amount needs no price",
			u:       StaticPool{BaseToken: "hug", QuoteToken: "usdc", BaseAmount: decimal.Zero, QuoteAmount: d("3")},
			want:    "3",
			missing: nil,
		},
		{
			name: "nil",
			u:    nil,
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Value(tt.u, prices)
			if !got.Value.Equal(d(tt.want)) {
				t.Errorf("Value = %s, want %s", got.Value, tt.want)
			}
			if len(got.MissingPrices) != len(tt.missing) {
				t.Fatalf("MissingPrices = %v, want %v", got.MissingPrices, tt.missing)
			}
			for i := range tt.missing {
				if got.MissingPrices[i] != tt.missing[i] {
					t.Errorf("MissingPrices[%d] = %s, want %s", i, got.MissingPrices[i], tt.missing[i])
				}
			}
		})
	}
}

func TestPairTokens(t *testing.T) {
	tests := []struct {
		name        string
		u           Underlying
		left, right string
	}{
		{"static", StaticPool{BaseToken: "a", QuoteToken: "b"}, "a", "b"},
		{"amm", AmmSharePool{XAddress: "x", YAddress: "y"}, "x", "y"},
		{"list", ConcentratedPositionList{{AmmSharePool: AmmSharePool{XAddress: "x", YAddress: "y"}}}, "x", "y"},
		{"empty list", ConcentratedPositionList{}, "", ""},
	}
	for _, tt := range tests {
		l, r := PairTokens(tt.u)
		if l != tt.left || r != tt.right {
			t.Errorf("%s: PairTokens = %s/%s, want %s/%s", tt.name, l, r, tt.left, tt.right)
		}
	}
}
