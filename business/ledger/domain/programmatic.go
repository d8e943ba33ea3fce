package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// ProgrammaticValue is the gateway's programmatic JSON encoding of on-ledger
// data. Scalars carry Value; tuples carry Fields; arrays Elements; maps
// Entries.
type ProgrammaticValue struct {
	Kind      string              `json:"kind"`
	TypeName  string              `json:"type_name,omitempty"`
	FieldName string              `json:"field_name,omitempty"`
	Value     json.RawMessage     `json:"value,omitempty"`
	VariantID string              `json:"variant_id,omitempty"`
	Fields    []ProgrammaticValue `json:"fields,omitempty"`
	Elements  []ProgrammaticValue `json:"elements,omitempty"`
	Entries   []ProgrammaticEntry `json:"entries,omitempty"`
}

// ProgrammaticEntry is one map entry.
type ProgrammaticEntry struct {
	Key   ProgrammaticValue `json:"key"`
	Value ProgrammaticValue `json:"value"`
}

// Field returns the named tuple field.
func (v ProgrammaticValue) Field(name string) (ProgrammaticValue, bool) {
	for _, f := range v.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return ProgrammaticValue{}, false
}

// Scalar returns Value as a string. Numbers and booleans are returned in
// their JSON text form.
func (v ProgrammaticValue) Scalar() (string, bool) {
	if len(v.Value) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s, true
	}
	return string(v.Value), true
}

// DecimalField parses a Decimal/PreciseDecimal field.
func (v ProgrammaticValue) DecimalField(name string) (decimal.Decimal, error) {
	s, err := v.scalarField(name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, malformed(name, err)
	}
	return d, nil
}

// Int32Field parses an I32 field.
func (v ProgrammaticValue) Int32Field(name string) (int32, error) {
	s, err := v.scalarField(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, malformed(name, err)
	}
	return int32(n), nil
}

// StringField returns a String/Reference/address field.
func (v ProgrammaticValue) StringField(name string) (string, error) {
	return v.scalarField(name)
}

// DecimalMapField reads a map of address to Decimal.
func (v ProgrammaticValue) DecimalMapField(name string) (map[string]decimal.Decimal, error) {
	f, ok := v.Field(name)
	if !ok {
		return nil, malformed(name, fmt.Errorf("missing field"))
	}
	if f.Kind != "Map" {
		return nil, malformed(name, fmt.Errorf("kind %s, want Map", f.Kind))
	}

	out := make(map[string]decimal.Decimal, len(f.Entries))
	for _, e := range f.Entries {
		key, ok := e.Key.Scalar()
		if !ok {
			return nil, malformed(name, fmt.Errorf("entry without key"))
		}
		raw, ok := e.Value.Scalar()
		if !ok {
			// Entries may wrap the amount in a tuple; take its first decimal.
			raw, ok = firstDecimal(e.Value)
			if !ok {
				return nil, malformed(name, fmt.Errorf("entry %s without amount", key))
			}
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, malformed(name, err)
		}
		out[key] = amount
	}
	return out, nil
}

func (v ProgrammaticValue) scalarField(name string) (string, error) {
	f, ok := v.Field(name)
	if !ok {
		return "", malformed(name, fmt.Errorf("missing field"))
	}
	s, ok := f.Scalar()
	if !ok {
		return "", malformed(name, fmt.Errorf("kind %s has no scalar value", f.Kind))
	}
	return s, nil
}

func firstDecimal(v ProgrammaticValue) (string, bool) {
	for _, f := range v.Fields {
		if f.Kind == "Decimal" || f.Kind == "PreciseDecimal" {
			return f.Scalar()
		}
	}
	return "", false
}

func malformed(field string, cause error) error {
	return apperror.New(apperror.CodeMalformedNFTData,
		apperror.WithContext(field),
		apperror.WithCause(cause),
	)
}
