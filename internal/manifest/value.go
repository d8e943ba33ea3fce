package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type kind int

const (
	kindAddress kind = iota
	kindDecimal
	kindBucket
	kindProof
	kindNonFungibleLocalID
	kindExpression
	kindI32
	kindBool
	kindString
	kindArray
	kindTuple
	kindEnum
)

var kindNames = map[kind]string{
	kindAddress:            "Address",
	kindDecimal:            "Decimal",
	kindBucket:             "Bucket",
	kindProof:              "Proof",
	kindNonFungibleLocalID: "NonFungibleLocalId",
	kindExpression:         "Expression",
	kindI32:                "I32",
	kindBool:               "Bool",
	kindString:             "String",
	kindArray:              "Array",
	kindTuple:              "Tuple",
	kindEnum:               "Enum",
}

var (
	addressPattern = regexp.MustCompile(`^[a-z]+_[a-z0-9_]+$`)
	nftIDPattern   = regexp.MustCompile(`^(#[0-9]+#|<[A-Za-z0-9_]{1,64}>|\[[0-9a-fA-F]{2,128}\]|\{[0-9a-fA-F]{16}(-[0-9a-fA-F]{16}){3}\})$`)
	namePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Value is one typed manifest argument. Construction errors are carried and
// reported by Builder.Build.
type Value struct {
	kind     kind
	text     string
	elemKind kind
	items    []Value
	err      error
}

// Address is a global or internal entity address.
func Address(addr string) Value {
	v := Value{kind: kindAddress, text: addr}
	if !addressPattern.MatchString(addr) {
		v.err = fmt.Errorf("invalid address %q", addr)
	}
	return v
}

// Decimal is a Decimal argument.
func Decimal(d decimal.Decimal) Value {
	return Value{kind: kindDecimal, text: d.String()}
}

// Bucket references a named bucket. Passing it to a call consumes it.
func Bucket(name string) Value {
	return named(kindBucket, name)
}

// Proof references a named proof. Passing it to a call consumes it.
func Proof(name string) Value {
	return named(kindProof, name)
}

func named(k kind, name string) Value {
	v := Value{kind: k, text: name}
	if !namePattern.MatchString(name) {
		v.err = fmt.Errorf("invalid %s name %q", kindNames[k], name)
	}
	return v
}

// NonFungibleLocalID is a non-fungible id such as #1# or <name>.
func NonFungibleLocalID(id string) Value {
	v := Value{kind: kindNonFungibleLocalID, text: id}
	if !nftIDPattern.MatchString(id) {
		v.err = fmt.Errorf("invalid non-fungible local id %q", id)
	}
	return v
}

// Worktop and auth zone expressions.
const (
	EntireWorktop  = "ENTIRE_WORKTOP"
	EntireAuthZone = "ENTIRE_AUTH_ZONE"
)

// Expression is ENTIRE_WORKTOP or ENTIRE_AUTH_ZONE.
func Expression(expr string) Value {
	v := Value{kind: kindExpression, text: expr}
	if expr != EntireWorktop && expr != EntireAuthZone {
		v.err = fmt.Errorf("unknown expression %q", expr)
	}
	return v
}

// I32 is a signed 32-bit integer, rendered with its i32 suffix.
func I32(n int32) Value {
	return Value{kind: kindI32, text: strconv.FormatInt(int64(n), 10) + "i32"}
}

// Bool is a boolean.
func Bool(b bool) Value {
	return Value{kind: kindBool, text: strconv.FormatBool(b)}
}

// String is a string literal.
func String(s string) Value {
	return Value{kind: kindString, text: strconv.Quote(s)}
}

// Array is a homogeneous array. elem names the element kind, e.g. "Tuple".
func Array(elem string, items ...Value) Value {
	v := Value{kind: kindArray, items: items}
	k, ok := kindByName(elem)
	if !ok {
		v.err = fmt.Errorf("unknown array element kind %q", elem)
		return v
	}
	v.elemKind = k
	for _, item := range items {
		if item.kind != k {
			v.err = fmt.Errorf("array of %s holds %s", elem, kindNames[item.kind])
			return v
		}
	}
	return v
}

// Tuple groups heterogeneous values.
func Tuple(items ...Value) Value {
	return Value{kind: kindTuple, items: items}
}

// Enum is a variant with its fields.
func Enum(variant uint8, fields ...Value) Value {
	return Value{kind: kindEnum, text: strconv.Itoa(int(variant)), items: fields}
}

func kindByName(name string) (kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

func (v Value) validate() error {
	if v.err != nil {
		return v.err
	}
	for _, item := range v.items {
		if err := item.validate(); err != nil {
			return err
		}
	}
	return nil
}

// walk visits v and every nested value.
func (v Value) walk(fn func(Value)) {
	fn(v)
	for _, item := range v.items {
		item.walk(fn)
	}
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case kindI32, kindBool, kindString:
		sb.WriteString(v.text)
	case kindArray:
		sb.WriteString("Array<")
		sb.WriteString(kindNames[v.elemKind])
		sb.WriteString(">(")
		renderList(sb, v.items)
		sb.WriteString(")")
	case kindTuple:
		sb.WriteString("Tuple(")
		renderList(sb, v.items)
		sb.WriteString(")")
	case kindEnum:
		sb.WriteString("Enum<")
		sb.WriteString(v.text)
		sb.WriteString("u8>(")
		renderList(sb, v.items)
		sb.WriteString(")")
	default:
		sb.WriteString(kindNames[v.kind])
		sb.WriteString(`("`)
		sb.WriteString(v.text)
		sb.WriteString(`")`)
	}
}

func renderList(sb *strings.Builder, items []Value) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		item.render(sb)
	}
}

// String renders v as it appears in a manifest.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}
