package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLiquidityRange_Validate(t *testing.T) {
	tests := []struct {
		name  string
		r     LiquidityRange
		valid bool
	}{
		{"ordered", LiquidityRange{Liquidity: decimal.NewFromInt(10), LeftBound: -100, RightBound: 100}, true},
		{"inverted", LiquidityRange{Liquidity: decimal.NewFromInt(10), LeftBound: 100, RightBound: -100}, false},
		{"below domain", LiquidityRange{LeftBound: MinTick - 1, RightBound: 0}, false},
		{"above domain", LiquidityRange{LeftBound: 0, RightBound: MaxTick + 1}, false},
		{"negative liquidity", LiquidityRange{Liquidity: decimal.NewFromInt(-1), LeftBound: 0, RightBound: 10}, false},
	}
	for _, tt := range tests {
		if err := tt.r.Validate(); (err == nil) != tt.valid {
			t.Errorf("%s: Validate() = %v, want valid=%v", tt.name, err, tt.valid)
		}
	}
}

func TestPositionEntry_Validate(t *testing.T) {
	record := LiquidityRange{ID: "#1#", Liquidity: decimal.NewFromInt(1), LeftBound: -10, RightBound: 10}

	tests := []struct {
		name  string
		e     PositionEntry
		valid bool
	}{
		{"fungible", PositionEntry{ResourceAddress: "r", Protocol: ProtocolOciswapFungible, Amount: decimal.NewFromInt(1)}, true},
		{"fungible zero", PositionEntry{ResourceAddress: "r", Protocol: ProtocolDefiPlaza}, false},
		{"fungible with records", PositionEntry{ResourceAddress: "r", Protocol: ProtocolDefiPlaza, Amount: decimal.NewFromInt(1), Records: []LiquidityRange{record}}, false},
		{"concentrated", PositionEntry{ResourceAddress: "r", Protocol: ProtocolOciswapConcentrated, Records: []LiquidityRange{record}}, true},
		{"concentrated empty", PositionEntry{ResourceAddress: "r", Protocol: ProtocolOciswapConcentrated}, false},
		{"unknown protocol", PositionEntry{ResourceAddress: "r", Protocol: "caviarnine", Amount: decimal.NewFromInt(1)}, false},
		{"no resource", PositionEntry{Protocol: ProtocolDefiPlaza, Amount: decimal.NewFromInt(1)}, false},
	}
	for _, tt := range tests {
		if err := tt.e.Validate(); (err == nil) != tt.valid {
			t.Errorf("%s: Validate() = %v, want valid=%v", tt.name, err, tt.valid)
		}
	}
}
