package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/decmath"
)

// Tick domain of precision pools.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

const (
	// pricePlaces bounds 1.0001^tick; at MinTick the price is ~2.9e-39 so
	// 80 places keeps ~40 significant digits.
	pricePlaces int32 = 80
	// mathPlaces is the working precision of liquidity divisions.
	mathPlaces int32 = 40
	lnPlaces   int32 = 40
)

var (
	tickBase   = decimal.RequireFromString("1.0001")
	lnTickBase = mustLn(tickBase)

	// removalEpsilon is one atomic unit at 18 decimals, subtracted from the
	// X side of a removal so boundary rounding never reports dust the pool
	// cannot pay.
	removalEpsilon = decimal.New(1, -18)
)

func mustLn(d decimal.Decimal) decimal.Decimal {
	v, err := decmath.Ln(d, lnPlaces)
	if err != nil {
		panic(err)
	}
	return v
}

// TickToPrice returns 1.0001^tick.
func TickToPrice(tick int32) (decimal.Decimal, error) {
	if tick < MinTick || tick > MaxTick {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidTick, fmt.Sprintf("tick %d", tick))
	}
	return decmath.PowInt(tickBase, int64(tick), pricePlaces), nil
}

// TickToPriceSqrt returns sqrt(1.0001^tick), the bound representation the
// removal and addition formulas work with.
func TickToPriceSqrt(tick int32) (decimal.Decimal, error) {
	price, err := TickToPrice(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return decmath.Sqrt(price, mathPlaces)
}

// PriceToTick returns floor(ln(price) / ln(1.0001)).
func PriceToTick(price decimal.Decimal) (int32, error) {
	if !price.IsPositive() {
		return 0, apperror.Validation(apperror.CodeInvalidPrice, price.String())
	}

	ln, err := decmath.Ln(price, lnPlaces)
	if err != nil {
		return 0, apperror.Validation(apperror.CodeInvalidPrice, price.String())
	}

	// Prices at the domain edges may floor one tick outside it.
	tick := ln.DivRound(lnTickBase, 30).Floor()
	if tick.LessThan(decimal.NewFromInt32(MinTick-1)) || tick.GreaterThan(decimal.NewFromInt32(MaxTick+1)) {
		return 0, apperror.Validation(apperror.CodeInvalidTick, fmt.Sprintf("price %s maps outside the tick domain", price))
	}
	return min(max(int32(tick.IntPart()), MinTick), MaxTick), nil
}

// AlignTickToSpacing rounds tick down to a multiple of spacing.
func AlignTickToSpacing(tick, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	return int32(decmath.FloorDiv(int64(tick), int64(spacing)) * int64(spacing))
}

// RemovableAmounts returns the token amounts a position of the given
// liquidity can withdraw at priceSqrt, rounded down to each token's
// divisibility.
func RemovableAmounts(liquidity, priceSqrt, leftSqrt, rightSqrt decimal.Decimal, xDivisibility, yDivisibility int32) (x, y decimal.Decimal, err error) {
	if err := validateRange(priceSqrt, leftSqrt, rightSqrt); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if liquidity.IsNegative() {
		return decimal.Zero, decimal.Zero, apperror.Validation(apperror.CodeInvalidRange, "negative liquidity")
	}

	lOverRight := liquidity.DivRound(rightSqrt, mathPlaces)

	switch {
	case priceSqrt.LessThanOrEqual(leftSqrt):
		x = liquidity.DivRound(leftSqrt, mathPlaces).Sub(lOverRight).Sub(removalEpsilon)
		y = decimal.Zero
	case priceSqrt.GreaterThanOrEqual(rightSqrt):
		x = decimal.Zero
		y = liquidity.Mul(rightSqrt.Sub(leftSqrt))
	default:
		x = liquidity.DivRound(priceSqrt, mathPlaces).Sub(lOverRight).Sub(removalEpsilon)
		y = liquidity.Mul(priceSqrt.Sub(leftSqrt))
	}

	x = decimal.Max(x, decimal.Zero).RoundFloor(xDivisibility)
	y = decimal.Max(y, decimal.Zero).RoundFloor(yDivisibility)
	return x, y, nil
}

// AddResult is the matched deposit for a precision position.
type AddResult struct {
	X         decimal.Decimal
	Y         decimal.Decimal
	Liquidity decimal.Decimal
}

// AddableAmounts returns the largest pair of amounts, bounded by the given
// ones, that matches the pool ratio at priceSqrt for the range, together with
// the liquidity it mints.
func AddableAmounts(xAmount decimal.Decimal, xDivisibility int32, yAmount decimal.Decimal, yDivisibility int32, priceSqrt, leftSqrt, rightSqrt decimal.Decimal) (AddResult, error) {
	if err := validateRange(priceSqrt, leftSqrt, rightSqrt); err != nil {
		return AddResult{}, err
	}
	if xAmount.IsNegative() || yAmount.IsNegative() {
		return AddResult{}, apperror.Validation(apperror.CodeInvalidInput, "negative amount")
	}

	width := rightSqrt.Sub(leftSqrt)

	switch {
	case priceSqrt.LessThanOrEqual(leftSqrt):
		l := xAmount.Mul(leftSqrt).Mul(rightSqrt).DivRound(width, mathPlaces)
		return AddResult{X: xAmount, Y: decimal.Zero, Liquidity: l}, nil
	case priceSqrt.GreaterThanOrEqual(rightSqrt):
		l := yAmount.DivRound(width, mathPlaces)
		return AddResult{X: decimal.Zero, Y: yAmount, Liquidity: l}, nil
	}

	lx := xAmount.Mul(priceSqrt).Mul(rightSqrt).DivRound(rightSqrt.Sub(priceSqrt), mathPlaces)
	ly := yAmount.DivRound(priceSqrt.Sub(leftSqrt), mathPlaces)
	l := decimal.Min(lx, ly)

	xNeeded := l.DivRound(priceSqrt, mathPlaces).Sub(l.DivRound(rightSqrt, mathPlaces))
	yNeeded := l.Mul(priceSqrt.Sub(leftSqrt))

	return AddResult{
		X:         settleAmount(xNeeded, xAmount, xDivisibility),
		Y:         settleAmount(yNeeded, yAmount, yDivisibility),
		Liquidity: l,
	}, nil
}

// settleAmount rounds needed to the token's divisibility and snaps it to the
// requested amount when the two differ by at most two atomic units.
func settleAmount(needed, requested decimal.Decimal, divisibility int32) decimal.Decimal {
	needed = needed.RoundCeil(divisibility)
	margin := decmath.AtomicUnit(divisibility).Mul(decimal.NewFromInt(2))
	if needed.Sub(requested).Abs().LessThanOrEqual(margin) || needed.GreaterThan(requested) {
		return requested
	}
	return needed
}

func validateRange(priceSqrt, leftSqrt, rightSqrt decimal.Decimal) error {
	if !priceSqrt.IsPositive() || !leftSqrt.IsPositive() || !rightSqrt.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidPrice, "square-root prices must be positive")
	}
	if leftSqrt.GreaterThanOrEqual(rightSqrt) {
		return apperror.Validation(apperror.CodeInvalidRange, fmt.Sprintf("left %s >= right %s", leftSqrt, rightSqrt))
	}
	return nil
}
