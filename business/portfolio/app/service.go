package app

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	liquidityApp "github.com/fd1az/lp-portfolio/business/liquidity/app"
	liquidityDomain "github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
	pricingDomain "github.com/fd1az/lp-portfolio/business/pricing/domain"
	strategyDomain "github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "github.com/fd1az/lp-portfolio/business/portfolio/app"
	meterName  = "github.com/fd1az/lp-portfolio/business/portfolio/app"
)

// Config holds report assembly settings.
type Config struct {
	DustFloor    decimal.Decimal
	StrictPrices bool
	Concurrency  int
}

// PortfolioService builds portfolio reports.
type PortfolioService struct {
	history    History
	prices     PriceSource
	discovery  Discoverer
	resolver   PositionResolver
	strategies StrategyValuator
	registry   *asset.Registry
	cfg        Config
	logger     logger.LoggerInterface
	tracer     trace.Tracer

	reports    metric.Int64Counter
	duration   metric.Float64Histogram
	unresolved metric.Int64Counter
	now        func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(
	history History,
	prices PriceSource,
	discovery Discoverer,
	resolver PositionResolver,
	strategies StrategyValuator,
	registry *asset.Registry,
	cfg Config,
	log logger.LoggerInterface,
) (*PortfolioService, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}

	meter := otel.Meter(meterName)
	reports, err := meter.Int64Counter("portfolio_reports_total",
		metric.WithDescription("Portfolio reports built"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	duration, err := meter.Float64Histogram("portfolio_report_duration_seconds",
		metric.WithDescription("Time to build a portfolio report"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	unresolved, err := meter.Int64Counter("portfolio_positions_unresolved_total",
		metric.WithDescription("LP positions that could not be resolved"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &PortfolioService{
		history:    history,
		prices:     prices,
		discovery:  discovery,
		resolver:   resolver,
		strategies: strategies,
		registry:   registry,
		cfg:        cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		reports:    reports,
		duration:   duration,
		unresolved: unresolved,
		now:        time.Now,
	}, nil
}

// snapshot is the account state every row is built from.
type snapshot struct {
	history   []ledgerDomain.EnhancedTransaction
	positions map[string]liquidityDomain.PositionEntry
	table     *pricingDomain.PriceTable
}

// load fetches history, positions and prices concurrently. Any failure is
// fatal to the report.
func (s *PortfolioService) load(ctx context.Context, account string) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h, err := s.history.History(gctx, account)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		snap.history = h
		return nil
	})
	g.Go(func() error {
		p, err := s.discovery.Discover(gctx, account)
		if err != nil {
			return fmt.Errorf("discovery: %w", err)
		}
		snap.positions = p
		return nil
	})
	g.Go(func() error {
		t, err := s.prices.Table(gctx)
		if err != nil {
			return fmt.Errorf("prices: %w", err)
		}
		snap.table = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// Report builds the portfolio report of account. A position that fails to
// resolve is reported as unresolved and does not fail the report.
func (s *PortfolioService) Report(ctx context.Context, account string) (domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio.report",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	start := s.now()
	status := "ok"
	defer func() {
		s.reports.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
		s.duration.Record(ctx, time.Since(start).Seconds())
	}()

	if account == "" {
		status = "invalid"
		return domain.Report{}, apperror.Validation(apperror.CodeRequiredField, "account")
	}

	snap, err := s.load(ctx, account)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return domain.Report{}, err
	}

	lpRows, err := s.lpRows(ctx, account, snap)
	if err != nil {
		status = "error"
		return domain.Report{}, err
	}

	positions, err := s.strategies.Value(ctx, account, snap.history, snap.table)
	if err != nil {
		status = "error"
		return domain.Report{}, err
	}

	rows := append(lpRows, s.strategyRows(positions)...)
	report := domain.NewReport(account, rows, s.cfg.DustFloor, s.now().UTC())

	span.SetAttributes(
		attribute.Int("positions", len(snap.positions)),
		attribute.Int("items", len(report.Items)),
	)
	s.logger.Info(ctx, "portfolio report built",
		"account", account,
		"items", len(report.Items),
		"unresolved", len(report.Unresolved),
		"missing_prices", len(report.MissingPrices),
	)
	return report, nil
}

// lpRows values every LP position concurrently. Rows come back sorted by
// resource address so the report does not depend on completion order.
func (s *PortfolioService) lpRows(ctx context.Context, account string, snap snapshot) ([]domain.Item, error) {
	keys := make([]string, 0, len(snap.positions))
	for k := range snap.positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]domain.Item, len(keys))
	cost := domain.CostBasis{Prices: snap.table, Strict: s.cfg.StrictPrices}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			row, err := s.lpRow(gctx, account, snap.positions[key], snap, cost)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// lpRow builds one LP row. Only a strict-mode missing price is returned as an
// error; a resolution failure produces an unresolved row.
func (s *PortfolioService) lpRow(ctx context.Context, account string, entry liquidityDomain.PositionEntry, snap snapshot, cost domain.CostBasis) (domain.Item, error) {
	basis, err := cost.Invested(account, entry.ResourceAddress, snap.history)
	if err != nil {
		return domain.Item{}, err
	}

	pair := s.pair(entry.Pair.XAddress, entry.Pair.YAddress)

	u, err := s.resolver.Resolve(ctx, entry)
	if err != nil {
		s.logger.Warn(ctx, "position unresolved",
			"account", account,
			"resource", entry.ResourceAddress,
			"protocol", string(entry.Protocol),
			"error", err,
		)
		s.unresolved.Add(ctx, 1, metric.WithAttributes(attribute.String("protocol", string(entry.Protocol))))

		item := domain.NewItem(domain.KindLP, rowName(entry, pair), pair, basis.Invested, decimal.Zero)
		item.Protocol = string(entry.Protocol)
		item.ResourceAddress = entry.ResourceAddress
		item.Unresolved = true
		item.MissingPrices = basis.MissingPrices
		return item, nil
	}

	if left, right := liquidityDomain.PairTokens(u); left != "" {
		pair = s.pair(left, right)
	}

	val := liquidityDomain.Value(u, snap.table)
	if s.cfg.StrictPrices && len(val.MissingPrices) > 0 {
		return domain.Item{}, apperror.New(apperror.CodePriceMissing,
			apperror.WithContext(val.MissingPrices[0]))
	}

	item := domain.NewItem(domain.KindLP, rowName(entry, pair), pair, basis.Invested, val.Value)
	item.Protocol = string(entry.Protocol)
	item.ResourceAddress = entry.ResourceAddress
	item.MissingPrices = mergeMissing(basis.MissingPrices, val.MissingPrices)
	return item, nil
}

func (s *PortfolioService) strategyRows(positions []strategyDomain.Position) []domain.Item {
	rows := make([]domain.Item, 0, len(positions))
	for _, p := range positions {
		pair := s.pair(p.Definition.CollateralResource, p.Definition.BorrowedResource)
		item := domain.NewItem(domain.KindStrategy, p.Strategy, pair, p.Invested, p.Current)
		item.ResourceAddress = p.Definition.CDPResource
		item.CloseOut = p.CloseOut
		item.Unresolved = p.Unresolved
		rows = append(rows, item)
	}
	return rows
}

// CloseOuts returns the open strategy positions of account with their
// close-out manifests.
func (s *PortfolioService) CloseOuts(ctx context.Context, account string) ([]strategyDomain.Position, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio.closeouts",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	if account == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "account")
	}

	var (
		history []ledgerDomain.EnhancedTransaction
		table   *pricingDomain.PriceTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = s.history.History(gctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		table, err = s.prices.Table(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	positions, err := s.strategies.Value(ctx, account, history, table)
	if err != nil {
		return nil, err
	}

	open := make([]strategyDomain.Position, 0, len(positions))
	for _, p := range positions {
		if p.Active() {
			open = append(open, p)
		}
	}
	return open, nil
}

// PlanPrecisionAdd builds the deposit manifest of a precision pool position.
func (s *PortfolioService) PlanPrecisionAdd(ctx context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error) {
	return s.resolver.PlanAdd(ctx, req)
}

// pair looks up display symbols and icons of two tokens.
func (s *PortfolioService) pair(left, right string) domain.Pair {
	p := domain.Pair{LeftAlias: shortAddress(left), RightAlias: shortAddress(right)}
	if a, ok := s.registry.Get(left); ok {
		p.LeftAlias, p.LeftIcon = a.Symbol(), a.IconURL()
	}
	if a, ok := s.registry.Get(right); ok {
		p.RightAlias, p.RightIcon = a.Symbol(), a.IconURL()
	}
	return p
}

func rowName(entry liquidityDomain.PositionEntry, pair domain.Pair) string {
	if entry.Name != "" {
		return entry.Name
	}
	return pair.LeftAlias + "/" + pair.RightAlias
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func mergeMissing(a, b []string) []string {
	out := slices.Clone(a)
	for _, m := range b {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
