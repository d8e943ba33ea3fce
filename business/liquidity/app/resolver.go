package app

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

// Resolver turns positions into the underlying tokens they redeem for.
type Resolver struct {
	ledger      Ledger
	ociswap     OciswapAPI
	defiplaza   DefiPlazaAPI
	registry    *asset.Registry
	concurrency int
	logger      logger.LoggerInterface
	tracer      trace.Tracer
}

// NewResolver creates a new Resolver. registry supplies token divisibility
// for locally computed precision amounts.
func NewResolver(ledger Ledger, ociswap OciswapAPI, defiplaza DefiPlazaAPI, registry *asset.Registry, concurrency int, log logger.LoggerInterface) *Resolver {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Resolver{
		ledger:      ledger,
		ociswap:     ociswap,
		defiplaza:   defiplaza,
		registry:    registry,
		concurrency: concurrency,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}
}

// Resolve asks the owning protocol what entry currently redeems for.
func (r *Resolver) Resolve(ctx context.Context, entry domain.PositionEntry) (domain.Underlying, error) {
	ctx, span := r.tracer.Start(ctx, "liquidity.resolve",
		trace.WithAttributes(
			attribute.String("resource", entry.ResourceAddress),
			attribute.String("protocol", string(entry.Protocol)),
		),
	)
	defer span.End()

	if !entry.Resolvable() {
		err := apperror.New(apperror.CodePositionUnresolved,
			apperror.WithContext(entry.ResourceAddress),
			apperror.WithMessage("pool pair unknown: "+entry.PairError))
		span.RecordError(err)
		return nil, err
	}

	var (
		u   domain.Underlying
		err error
	)
	switch entry.Protocol {
	case domain.ProtocolDefiPlaza:
		u, err = r.resolveDefiPlaza(ctx, entry)
	case domain.ProtocolOciswapFungible:
		u, err = r.resolveOciswap(ctx, entry)
	case domain.ProtocolOciswapConcentrated:
		u, err = r.resolvePrecision(ctx, entry)
	default:
		err = apperror.Validation(apperror.CodeInvalidInput, "unknown protocol "+string(entry.Protocol))
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return u, nil
}

func (r *Resolver) resolveDefiPlaza(ctx context.Context, entry domain.PositionEntry) (domain.Underlying, error) {
	pool, err := r.defiplaza.Redeem(ctx, entry.ResourceAddress, entry.Amount)
	if err != nil {
		return nil, err
	}
	if pool.BaseToken == "" {
		pool.BaseToken = entry.Pair.XAddress
	}
	if pool.QuoteToken == "" {
		pool.QuoteToken = entry.Pair.YAddress
	}
	return pool, nil
}

func (r *Resolver) resolveOciswap(ctx context.Context, entry domain.PositionEntry) (domain.Underlying, error) {
	pool, err := r.ociswap.RemoveLiquidityPreview(ctx, entry.Pair.PoolAddress, entry.Amount)
	if err != nil {
		return nil, err
	}
	return withPair(pool, entry.Pair), nil
}

// resolvePrecision previews every record concurrently. A record the API
// cannot preview is computed locally from the pool's current price; one that
// fails both ways is dropped.
func (r *Resolver) resolvePrecision(ctx context.Context, entry domain.PositionEntry) (domain.Underlying, error) {
	results := make([]*domain.ConcentratedPosition, len(entry.Records))

	priceSqrt := sync.OnceValues(func() (decimal.Decimal, error) {
		details, err := r.ledger.ComponentState(ctx, entry.Pair.PoolAddress)
		if err != nil {
			return decimal.Zero, err
		}
		return details.State.DecimalField(statePriceSqrt)
	})

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, rec := range entry.Records {
		g.Go(func() error {
			pool, err := r.ociswap.PrecisionRemovePreview(ctx, entry.Pair.PoolAddress, rec)
			if err != nil {
				r.logger.Warn(ctx, "precision preview failed, computing locally",
					"resource", entry.ResourceAddress,
					"id", rec.ID,
					"error", err)

				pool, err = r.localPrecision(entry.Pair, rec, priceSqrt)
				if err != nil {
					r.logger.Warn(ctx, "dropping precision position",
						"resource", entry.ResourceAddress,
						"id", rec.ID,
						"error", err)
					return nil
				}
			}
			results[i] = &domain.ConcentratedPosition{NFTID: rec.ID, AmmSharePool: withPair(pool, entry.Pair)}
			return nil
		})
	}
	_ = g.Wait()

	list := make(domain.ConcentratedPositionList, 0, len(results))
	for _, p := range results {
		if p != nil {
			list = append(list, *p)
		}
	}
	if len(list) == 0 {
		return nil, apperror.New(apperror.CodePositionUnresolved, apperror.WithContext(entry.ResourceAddress))
	}
	return list, nil
}

func (r *Resolver) localPrecision(pair domain.PairInfo, rec domain.LiquidityRange, priceSqrt func() (decimal.Decimal, error)) (domain.AmmSharePool, error) {
	current, err := priceSqrt()
	if err != nil {
		return domain.AmmSharePool{}, err
	}
	left, err := domain.TickToPriceSqrt(rec.LeftBound)
	if err != nil {
		return domain.AmmSharePool{}, err
	}
	right, err := domain.TickToPriceSqrt(rec.RightBound)
	if err != nil {
		return domain.AmmSharePool{}, err
	}

	x, y, err := domain.RemovableAmounts(rec.Liquidity, current, left, right,
		r.registry.Divisibility(pair.XAddress), r.registry.Divisibility(pair.YAddress))
	if err != nil {
		return domain.AmmSharePool{}, err
	}
	return domain.AmmSharePool{
		XAddress: pair.XAddress,
		YAddress: pair.YAddress,
		XAmount:  domain.SideAmount{Token: x},
		YAmount:  domain.SideAmount{Token: y},
	}, nil
}

// withPair fills token addresses the protocol left out.
func withPair(pool domain.AmmSharePool, pair domain.PairInfo) domain.AmmSharePool {
	if pool.XAddress == "" {
		pool.XAddress = pair.XAddress
	}
	if pool.YAddress == "" {
		pool.YAddress = pair.YAddress
	}
	return pool
}
