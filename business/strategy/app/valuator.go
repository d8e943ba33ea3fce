package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "github.com/fd1az/lp-portfolio/business/strategy/app"
	meterName  = "github.com/fd1az/lp-portfolio/business/strategy/app"
)

// Valuator reconstructs leveraged strategy positions from history and values
// the open ones against live CDP and pool state.
type Valuator struct {
	ledger      Ledger
	lending     LendingAPI
	classifier  *ledgerDomain.Classifier
	definitions []domain.Definition
	concurrency int
	logger      logger.LoggerInterface
	tracer      trace.Tracer
	unresolved  metric.Int64Counter
}

// NewValuator creates a new Valuator.
func NewValuator(ledger Ledger, lending LendingAPI, classifier *ledgerDomain.Classifier, definitions []domain.Definition, concurrency int, log logger.LoggerInterface) (*Valuator, error) {
	for _, d := range definitions {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	unresolved, err := otel.Meter(meterName).Int64Counter("strategy_unresolved_total",
		metric.WithDescription("Open strategy positions that could not be valued"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &Valuator{
		ledger:      ledger,
		lending:     lending,
		classifier:  classifier,
		definitions: definitions,
		concurrency: concurrency,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
		unresolved:  unresolved,
	}, nil
}

// Definitions returns the configured strategies.
func (v *Valuator) Definitions() []domain.Definition {
	return v.definitions
}

// Value returns every strategy position account opened, in ledger order.
// Closed positions carry zero invested and current value. An open position
// that cannot be valued is returned with zero current value and Unresolved
// set.
func (v *Valuator) Value(ctx context.Context, account string, history []ledgerDomain.EnhancedTransaction, prices Prices) ([]domain.Position, error) {
	ctx, span := v.tracer.Start(ctx, "strategy.value",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	start := time.Now()
	positions := domain.Track(account, prices.Reference(), history, v.definitions, v.classifier.IsStrategyOpen)

	refFiat, ok := prices.FiatPrice(prices.Reference())
	if !ok {
		v.logger.Warn(ctx, "no fiat price for the reference currency; strategy rows valued at zero",
			"reference", prices.Reference())
	}

	ratios := sync.OnceValues(func() (domain.UnitRatios, error) {
		return v.lending.UnitRatios(ctx)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i := range positions {
		p := &positions[i]
		if !p.Active() {
			continue
		}
		g.Go(func() error {
			if err := v.valueOpen(gctx, account, p, prices, ratios); err != nil {
				v.unresolved.Add(gctx, 1, metric.WithAttributes(attribute.String("strategy", p.Strategy)))
				v.logger.Warn(gctx, "strategy position unresolved",
					"strategy", p.Strategy,
					"cdp", p.CDPID,
					"error", err)
				p.Unresolved = true
				p.CurrentRef = decimal.Zero
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i := range positions {
		positions[i].Invested = positions[i].InvestedRef.Mul(refFiat)
		positions[i].Current = positions[i].CurrentRef.Mul(refFiat)
	}

	span.SetAttributes(attribute.Int("positions", len(positions)))
	v.logger.Debug(ctx, "strategies valued",
		"account", account,
		"positions", len(positions),
		"took", time.Since(start))

	return positions, nil
}

// valueOpen fills the exposure, swap output, current value and close-out
// manifest of an open position.
func (v *Valuator) valueOpen(ctx context.Context, account string, p *domain.Position, prices Prices, ratios func() (domain.UnitRatios, error)) error {
	def := p.Definition

	records, err := v.ledger.NonFungibleData(ctx, def.CDPResource, []string{p.CDPID})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperror.NotFound(apperror.CodeNotFound, "cdp "+p.CDPID)
	}
	cdp, err := domain.ParseCDP(records[0])
	if err != nil {
		return err
	}

	r, err := ratios()
	if err != nil {
		return err
	}
	exposure, err := cdp.Exposure(def, r, prices)
	if err != nil {
		return err
	}

	swapOut := decimal.Zero
	if p.LPAmount.IsPositive() {
		m, err := domain.RemovalPreviewManifest(account, def, p.LPAmount)
		if err != nil {
			return err
		}
		res, err := v.ledger.Preview(ctx, m.String())
		if err != nil {
			return err
		}
		swapOut = res.NetChange(account, prices.Reference())
	}

	closeOut, err := domain.CloseOutManifest(account, def, p.CDPID, p.LPAmount, exposure.Collateral)
	if err != nil {
		return err
	}

	p.Exposure = exposure
	p.SwapOutputRef = swapOut
	p.CurrentRef = exposure.NetRef().Add(swapOut)
	p.CloseOut = closeOut.String()
	return nil
}
