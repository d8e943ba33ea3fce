package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/manifest"
)

// AddRequest asks for a precision deposit of up to XAmount and YAmount
// between two prices of Y in X.
type AddRequest struct {
	Account    string          `json:"account"`
	Pool       string          `json:"pool"`
	XAmount    decimal.Decimal `json:"xAmount"`
	YAmount    decimal.Decimal `json:"yAmount"`
	LowerPrice decimal.Decimal `json:"lowerPrice"`
	UpperPrice decimal.Decimal `json:"upperPrice"`
}

// AddPlan is a matched precision deposit and the manifest that makes it.
type AddPlan struct {
	Pool       string          `json:"pool"`
	XAddress   string          `json:"xAddress"`
	YAddress   string          `json:"yAddress"`
	LeftBound  int32           `json:"leftBound"`
	RightBound int32           `json:"rightBound"`
	X          decimal.Decimal `json:"x"`
	Y          decimal.Decimal `json:"y"`
	Liquidity  decimal.Decimal `json:"liquidity"`
	Manifest   string          `json:"manifest"`
}

// PlanAdd matches req to the pool's current price and tick spacing.
func (r *Resolver) PlanAdd(ctx context.Context, req AddRequest) (AddPlan, error) {
	ctx, span := r.tracer.Start(ctx, "liquidity.plan_add",
		trace.WithAttributes(attribute.String("pool", req.Pool)),
	)
	defer span.End()

	plan, err := r.planAdd(ctx, req)
	if err != nil {
		span.RecordError(err)
		return AddPlan{}, err
	}
	return plan, nil
}

func (r *Resolver) planAdd(ctx context.Context, req AddRequest) (AddPlan, error) {
	if req.Account == "" || req.Pool == "" {
		return AddPlan{}, apperror.Validation(apperror.CodeRequiredField, "account and pool")
	}
	if !req.LowerPrice.IsPositive() || !req.UpperPrice.GreaterThan(req.LowerPrice) {
		return AddPlan{}, apperror.Validation(apperror.CodeInvalidPrice,
			fmt.Sprintf("need 0 < lower < upper, got %s..%s", req.LowerPrice, req.UpperPrice))
	}

	details, err := r.ledger.ComponentState(ctx, req.Pool)
	if err != nil {
		return AddPlan{}, err
	}
	state := details.State
	x, err := state.StringField(stateXAddress)
	if err != nil {
		return AddPlan{}, err
	}
	y, err := state.StringField(stateYAddress)
	if err != nil {
		return AddPlan{}, err
	}
	priceSqrt, err := state.DecimalField(statePriceSqrt)
	if err != nil {
		return AddPlan{}, err
	}
	spacing, err := state.Int32Field(stateTickSpacing)
	if err != nil {
		return AddPlan{}, err
	}

	left, right, err := alignedRange(req.LowerPrice, req.UpperPrice, spacing)
	if err != nil {
		return AddPlan{}, err
	}
	leftSqrt, err := domain.TickToPriceSqrt(left)
	if err != nil {
		return AddPlan{}, err
	}
	rightSqrt, err := domain.TickToPriceSqrt(right)
	if err != nil {
		return AddPlan{}, err
	}

	amounts, err := domain.AddableAmounts(
		req.XAmount, r.registry.Divisibility(x),
		req.YAmount, r.registry.Divisibility(y),
		priceSqrt, leftSqrt, rightSqrt,
	)
	if err != nil {
		return AddPlan{}, err
	}

	m, err := manifest.New().
		CallMethod(req.Account, "withdraw", manifest.Address(x), manifest.Decimal(amounts.X)).
		CallMethod(req.Account, "withdraw", manifest.Address(y), manifest.Decimal(amounts.Y)).
		TakeFromWorktop(x, amounts.X, "x").
		TakeFromWorktop(y, amounts.Y, "y").
		CallMethod(req.Pool, "add_liquidity",
			manifest.I32(left), manifest.I32(right),
			manifest.Bucket("x"), manifest.Bucket("y")).
		DepositBatch(req.Account).
		Build()
	if err != nil {
		return AddPlan{}, err
	}

	return AddPlan{
		Pool:       req.Pool,
		XAddress:   x,
		YAddress:   y,
		LeftBound:  left,
		RightBound: right,
		X:          amounts.X,
		Y:          amounts.Y,
		Liquidity:  amounts.Liquidity,
		Manifest:   m.String(),
	}, nil
}

// alignedRange converts prices to ticks snapped to spacing. The upper tick is
// pushed up one spacing when both prices snap to the same tick.
func alignedRange(lower, upper decimal.Decimal, spacing int32) (int32, int32, error) {
	if spacing <= 0 {
		return 0, 0, apperror.Validation(apperror.CodeInvalidTick, fmt.Sprintf("tick spacing %d", spacing))
	}
	lt, err := domain.PriceToTick(lower)
	if err != nil {
		return 0, 0, err
	}
	ut, err := domain.PriceToTick(upper)
	if err != nil {
		return 0, 0, err
	}
	left := domain.AlignTickToSpacing(lt, spacing)
	right := domain.AlignTickToSpacing(ut, spacing)
	if right <= left {
		right = left + spacing
	}
	if left < domain.MinTick || right > domain.MaxTick {
		return 0, 0, apperror.Validation(apperror.CodeInvalidTick, fmt.Sprintf("range %d..%d", left, right))
	}
	return left, right, nil
}
