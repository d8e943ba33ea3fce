package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

const precisionNFTData = `{
  "kind": "Tuple",
  "type_name": "LiquidityPosition",
  "fields": [
    {"kind": "PreciseDecimal", "field_name": "liquidity", "value": "1234.5"},
    {"kind": "I32", "field_name": "left_bound", "value": "-6932"},
    {"kind": "I32", "field_name": "right_bound", "value": "6931"},
    {"kind": "Reference", "field_name": "pool", "value": "component_rdx1pool"}
  ]
}`

const cdpNFTData = `{
  "kind": "Tuple",
  "fields": [
    {"kind": "Map", "field_name": "collaterals", "entries": [
      {"key": {"kind": "Reference", "value": "resource_rdx1xrd"}, "value": {"kind": "Decimal", "value": "1500"}}
    ]},
    {"kind": "Map", "field_name": "loans", "entries": [
      {"key": {"kind": "Reference", "value": "resource_rdx1usdc"},
       "value": {"kind": "Tuple", "fields": [{"kind": "Decimal", "value": "25.5"}]}}
    ]},
    {"kind": "String", "field_name": "name", "value": "CDP"}
  ]
}`

func decode(t *testing.T, raw string) ProgrammaticValue {
	t.Helper()
	var v ProgrammaticValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestProgrammaticValue_PrecisionPosition(t *testing.T) {
	v := decode(t, precisionNFTData)

	liq, err := v.DecimalField("liquidity")
	if err != nil {
		t.Fatalf("liquidity: %v", err)
	}
	if !liq.Equal(decimal.RequireFromString("1234.5")) {
		t.Errorf("liquidity = %s", liq)
	}

	left, err := v.Int32Field("left_bound")
	if err != nil || left != -6932 {
		t.Errorf("left_bound = %d, %v", left, err)
	}
	right, err := v.Int32Field("right_bound")
	if err != nil || right != 6931 {
		t.Errorf("right_bound = %d, %v", right, err)
	}

	pool, err := v.StringField("pool")
	if err != nil || pool != "component_rdx1pool" {
		t.Errorf("pool = %q, %v", pool, err)
	}
}

func TestProgrammaticValue_CDPMaps(t *testing.T) {
	v := decode(t, cdpNFTData)

	collaterals, err := v.DecimalMapField("collaterals")
	if err != nil {
		t.Fatalf("collaterals: %v", err)
	}
	if got := collaterals["resource_rdx1xrd"]; !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("collateral = %s, want 1500", got)
	}

	loans, err := v.DecimalMapField("loans")
	if err != nil {
		t.Fatalf("loans: %v", err)
	}
	if got := loans["resource_rdx1usdc"]; !got.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("loan = %s, want 25.5", got)
	}
}

func TestProgrammaticValue_Malformed(t *testing.T) {
	v := decode(t, cdpNFTData)

	tests := []struct {
		name string
		call func() error
	}{
		{"missing field", func() error { _, err := v.DecimalField("liquidity"); return err }},
		{"not a map", func() error { _, err := v.DecimalMapField("name"); return err }},
		{"not a decimal", func() error { _, err := v.DecimalField("name"); return err }},
		{"not an int", func() error { _, err := v.Int32Field("name"); return err }},
		{"no scalar", func() error { _, err := v.StringField("loans"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected error")
			}
			if apperror.GetCode(err) != apperror.CodeMalformedNFTData {
				t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeMalformedNFTData)
			}
		})
	}
}

func TestProgrammaticValue_ScalarNumbers(t *testing.T) {
	v := ProgrammaticValue{Kind: "U64", Value: json.RawMessage(`42`)}
	s, ok := v.Scalar()
	if !ok || s != "42" {
		t.Errorf("Scalar = %q, %v", s, ok)
	}
	if _, ok := (ProgrammaticValue{Kind: "Tuple"}).Scalar(); ok {
		t.Error("tuple has no scalar")
	}
}
