package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/pricing/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const tracerName = "github.com/fd1az/lp-portfolio/business/pricing/app"

// PricingService loads the price table and keeps the asset registry in sync
// with it.
type PricingService struct {
	source    PriceSource
	registry  *asset.Registry
	reference string
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	now       func() time.Time
}

// NewPricingService creates a new PricingService.
func NewPricingService(source PriceSource, registry *asset.Registry, reference string, log logger.LoggerInterface) *PricingService {
	return &PricingService{
		source:    source,
		registry:  registry,
		reference: reference,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Table fetches a fresh price table. Every failure is PRICE_TABLE_UNAVAILABLE:
// nothing downstream can be valued without it.
func (s *PricingService) Table(ctx context.Context) (*domain.PriceTable, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.table")
	defer span.End()

	rows, err := s.source.Prices(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodePriceTableUnavailable, apperror.WithCause(err))
	}
	if len(rows) == 0 {
		return nil, apperror.New(apperror.CodePriceTableUnavailable, apperror.WithContext("empty price table"))
	}

	for _, r := range rows {
		s.register(r)
	}

	table := domain.NewPriceTable(s.reference, rows, s.now())
	if _, ok := table.ReferenceFiat(); !ok {
		s.logger.Warn(ctx, "price table has no reference price", "reference", s.reference)
	}

	span.SetAttributes(attribute.Int("resources", table.Len()))
	return table, nil
}

func (s *PricingService) register(r domain.TokenPrice) {
	if s.registry == nil {
		return
	}
	div := r.Divisibility
	if div < 0 || div > asset.MaxDivisibility {
		div = asset.MaxDivisibility
	}
	s.registry.Put(asset.NewAssetWithName(r.Resource, r.Symbol, r.Name, r.IconURL, div))
}

// Registry returns the asset registry populated by Table.
func (s *PricingService) Registry() *asset.Registry {
	return s.registry
}
