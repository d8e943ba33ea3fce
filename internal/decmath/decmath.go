// Package decmath holds arbitrary-precision helpers on top of
// shopspring/decimal. Nothing here goes through float64 except the initial
// guess of Sqrt.
package decmath

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
	// hundred is used by Percent.
	hundred = decimal.NewFromInt(100)
)

// ErrDomain is returned for inputs outside a function's domain.
var ErrDomain = errors.New("decmath: argument out of domain")

// Sqrt returns the square root of d rounded to places decimal places.
func Sqrt(d decimal.Decimal, places int32) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, ErrDomain
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	guess := initialSqrtGuess(d)
	prec := places + 6
	tolerance := decimal.New(1, -(places + 2))

	for i := 0; i < 256; i++ {
		next := guess.Add(d.DivRound(guess, prec)).DivRound(two, prec)
		done := next.Sub(guess).Abs().LessThanOrEqual(tolerance)
		guess = next
		if done {
			break
		}
	}
	return guess.Round(places), nil
}

func initialSqrtGuess(d decimal.Decimal) decimal.Decimal {
	f := d.InexactFloat64()
	if f > 0 && !math.IsInf(f, 0) {
		if s := math.Sqrt(f); s > 0 && !math.IsInf(s, 0) {
			return decimal.NewFromFloat(s)
		}
	}
	// Outside float64 range: 10^(magnitude/2).
	magnitude := int32(d.NumDigits()) + d.Exponent()
	return decimal.New(1, magnitude/2)
}

// PowInt raises base to an integer power by square-and-multiply, rounding
// every intermediate product to places. Intended for bases >= 1, where the
// fixed-place rounding keeps relative error negligible; negative exponents
// are computed as 1/base^|exp|.
func PowInt(base decimal.Decimal, exp int64, places int32) decimal.Decimal {
	if exp == 0 {
		return one
	}

	negative := exp < 0
	if negative {
		exp = -exp
	}

	result := one
	b := base
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(b).Round(places)
		}
		exp >>= 1
		if exp > 0 {
			b = b.Mul(b).Round(places)
		}
	}

	if negative {
		return one.DivRound(result, places)
	}
	return result
}

// Ln returns the natural logarithm of d to places decimal places.
func Ln(d decimal.Decimal, places int32) (decimal.Decimal, error) {
	if !d.IsPositive() {
		return decimal.Zero, ErrDomain
	}
	return d.Ln(places)
}

// FloorDiv is integer division rounding toward negative infinity.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Percent returns part/whole*100 computed at places decimal places.
// A zero whole yields zero.
func Percent(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.DivRound(whole, places).Mul(hundred)
}

// AtomicUnit returns 10^-divisibility, the smallest amount of a token.
func AtomicUnit(divisibility int32) decimal.Decimal {
	return decimal.New(1, -divisibility)
}
