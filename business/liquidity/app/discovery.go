package app

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/cache"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const tracerName = "github.com/fd1az/lp-portfolio/business/liquidity/app"

// Pool component state fields.
const (
	stateXAddress    = "x_address"
	stateYAddress    = "y_address"
	statePriceSqrt   = "price_sqrt"
	stateTickSpacing = "tick_spacing"
)

// Precision NFT data fields.
const (
	nftLiquidity  = "liquidity"
	nftLeftBound  = "left_bound"
	nftRightBound = "right_bound"
)

// Naming holds the display-name conventions that mark LP resources.
type Naming struct {
	DefiPlaza *regexp.Regexp
	Ociswap   *regexp.Regexp
	Precision *regexp.Regexp
}

// CompileNaming compiles the three naming patterns.
func CompileNaming(defiplaza, ociswap, precision string) (Naming, error) {
	var n Naming
	for _, p := range []struct {
		dst     **regexp.Regexp
		pattern string
	}{
		{&n.DefiPlaza, defiplaza},
		{&n.Ociswap, ociswap},
		{&n.Precision, precision},
	} {
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			return Naming{}, fmt.Errorf("compile naming pattern %q: %w", p.pattern, err)
		}
		*p.dst = re
	}
	return n, nil
}

// fungibleProtocol returns the protocol a fungible resource name belongs to.
func (n Naming) fungibleProtocol(name string) (domain.Protocol, bool) {
	switch {
	case n.DefiPlaza.MatchString(name):
		return domain.ProtocolDefiPlaza, true
	case n.Ociswap.MatchString(name):
		return domain.ProtocolOciswapFungible, true
	}
	return "", false
}

// Discovery finds the LP positions an account holds.
type Discovery struct {
	ledger      Ledger
	defiplaza   DefiPlazaAPI
	naming      Naming
	pairs       cache.Store[domain.PairInfo]
	concurrency int
	logger      logger.LoggerInterface
	tracer      trace.Tracer
}

// NewDiscovery creates a new Discovery. pairs memoizes pool token pairs by
// LP resource address.
func NewDiscovery(ledger Ledger, defiplaza DefiPlazaAPI, naming Naming, pairs cache.Store[domain.PairInfo], concurrency int, log logger.LoggerInterface) *Discovery {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Discovery{
		ledger:      ledger,
		defiplaza:   defiplaza,
		naming:      naming,
		pairs:       pairs,
		concurrency: concurrency,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}
}

// Discover returns the account's LP positions keyed by resource address. A
// failed balance listing is returned as an error. A position whose pool pair
// cannot be looked up is kept with PairError set; one whose records cannot be
// read is skipped with a warning.
func (d *Discovery) Discover(ctx context.Context, account string) (map[string]domain.PositionEntry, error) {
	ctx, span := d.tracer.Start(ctx, "liquidity.discover",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	start := time.Now()
	balances, err := d.ledger.Balances(ctx, account)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		mu      sync.Mutex
		entries = make(map[string]domain.PositionEntry)
	)
	keep := func(e domain.PositionEntry) {
		mu.Lock()
		entries[e.ResourceAddress] = e
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, fb := range balances.Fungibles {
		protocol, ok := d.naming.fungibleProtocol(fb.Name())
		if !ok || !fb.Amount.IsPositive() {
			continue
		}
		g.Go(func() error {
			entry, err := d.fungibleEntry(gctx, protocol, fb)
			if err != nil {
				d.logger.Warn(gctx, "skipping LP position",
					"resource", fb.ResourceAddress,
					"protocol", string(protocol),
					"error", err)
				return nil
			}
			keep(entry)
			return nil
		})
	}

	for _, nb := range balances.NonFungibles {
		if !d.naming.Precision.MatchString(nb.Name()) || len(nb.Vaults) == 0 {
			continue
		}
		g.Go(func() error {
			entry, ok, err := d.concentratedEntry(gctx, account, nb)
			if err != nil {
				d.logger.Warn(gctx, "skipping precision position",
					"resource", nb.ResourceAddress,
					"error", err)
				return nil
			}
			if ok {
				keep(entry)
			}
			return nil
		})
	}

	// Workers only report through the logger.
	_ = g.Wait()

	span.SetAttributes(attribute.Int("positions", len(entries)))
	d.logger.Debug(ctx, "positions discovered",
		"account", account,
		"positions", len(entries),
		"took", time.Since(start))

	return entries, nil
}

func (d *Discovery) fungibleEntry(ctx context.Context, protocol domain.Protocol, fb ledgerDomain.FungibleBalance) (domain.PositionEntry, error) {
	entry := domain.PositionEntry{
		ResourceAddress: fb.ResourceAddress,
		Protocol:        protocol,
		Name:            fb.Name(),
		IconURL:         fb.Metadata[ledgerDomain.MetadataIconURL],
		Amount:          fb.Amount,
	}

	pair, err := cache.GetOrLoad(ctx, d.pairs, fb.ResourceAddress, func(ctx context.Context) (domain.PairInfo, error) {
		if protocol == domain.ProtocolDefiPlaza {
			return d.defiPlazaPair(ctx, fb.ResourceAddress)
		}
		return d.poolPair(ctx, protocol, fb.Metadata[ledgerDomain.MetadataPool])
	})
	if err != nil {
		d.pairFailed(ctx, &entry, err)
		return entry, entry.Validate()
	}
	entry.Pair = pair
	return entry, entry.Validate()
}

// pairFailed keeps an entry whose pool pair lookup failed so it still
// surfaces as unresolved.
func (d *Discovery) pairFailed(ctx context.Context, entry *domain.PositionEntry, err error) {
	d.logger.Warn(ctx, "pool pair lookup failed",
		"resource", entry.ResourceAddress,
		"protocol", string(entry.Protocol),
		"error", err)
	entry.PairError = err.Error()
}

// concentratedEntry reads every record of a precision resource. Malformed
// records are skipped; ok is false when none is left.
func (d *Discovery) concentratedEntry(ctx context.Context, account string, nb ledgerDomain.NonFungibleBalance) (domain.PositionEntry, bool, error) {
	ids, err := d.ledger.NonFungibleIDs(ctx, account, nb)
	if err != nil {
		return domain.PositionEntry{}, false, err
	}
	if len(ids) == 0 {
		return domain.PositionEntry{}, false, nil
	}

	pair, pairErr := cache.GetOrLoad(ctx, d.pairs, nb.ResourceAddress, func(ctx context.Context) (domain.PairInfo, error) {
		return d.poolPair(ctx, domain.ProtocolOciswapConcentrated, nb.Metadata[ledgerDomain.MetadataPool])
	})

	data, err := d.ledger.NonFungibleData(ctx, nb.ResourceAddress, ids)
	if err != nil {
		return domain.PositionEntry{}, false, err
	}

	records := make([]domain.LiquidityRange, 0, len(data))
	for _, rec := range data {
		r, err := parseLiquidityRange(rec)
		if err != nil {
			d.logger.Warn(ctx, "skipping malformed precision record",
				"resource", nb.ResourceAddress,
				"id", rec.ID,
				"error", err)
			continue
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return domain.PositionEntry{}, false, nil
	}

	entry := domain.PositionEntry{
		ResourceAddress: nb.ResourceAddress,
		Protocol:        domain.ProtocolOciswapConcentrated,
		Name:            nb.Name(),
		IconURL:         nb.Metadata[ledgerDomain.MetadataIconURL],
		Records:         records,
		Pair:            pair,
	}
	if pairErr != nil {
		d.pairFailed(ctx, &entry, pairErr)
	}
	return entry, true, entry.Validate()
}

func parseLiquidityRange(rec ledgerDomain.NonFungibleRecord) (domain.LiquidityRange, error) {
	liquidity, err := rec.Data.DecimalField(nftLiquidity)
	if err != nil {
		return domain.LiquidityRange{}, err
	}
	left, err := rec.Data.Int32Field(nftLeftBound)
	if err != nil {
		return domain.LiquidityRange{}, err
	}
	right, err := rec.Data.Int32Field(nftRightBound)
	if err != nil {
		return domain.LiquidityRange{}, err
	}
	r := domain.LiquidityRange{ID: rec.ID, Liquidity: liquidity, LeftBound: left, RightBound: right}
	if err := r.Validate(); err != nil {
		return domain.LiquidityRange{}, apperror.New(apperror.CodeMalformedNFTData,
			apperror.WithCause(err), apperror.WithContext(rec.ID))
	}
	return r, nil
}

// poolPair reads the token pair from the pool component's state.
func (d *Discovery) poolPair(ctx context.Context, protocol domain.Protocol, pool string) (domain.PairInfo, error) {
	if pool == "" {
		return domain.PairInfo{}, apperror.Validation(apperror.CodeRequiredField, "pool metadata")
	}
	details, err := d.ledger.ComponentState(ctx, pool)
	if err != nil {
		return domain.PairInfo{}, err
	}
	x, err := details.State.StringField(stateXAddress)
	if err != nil {
		return domain.PairInfo{}, err
	}
	y, err := details.State.StringField(stateYAddress)
	if err != nil {
		return domain.PairInfo{}, err
	}
	return domain.PairInfo{Protocol: protocol, PoolAddress: pool, XAddress: x, YAddress: y}, nil
}

func (d *Discovery) defiPlazaPair(ctx context.Context, lpResource string) (domain.PairInfo, error) {
	pairs, err := d.defiplaza.Pairs(ctx)
	if err != nil {
		return domain.PairInfo{}, err
	}
	for _, p := range pairs {
		if p.BaseLPResource == lpResource || p.QuoteLPResource == lpResource {
			return domain.PairInfo{
				Protocol:    domain.ProtocolDefiPlaza,
				PoolAddress: p.Address,
				XAddress:    p.BaseToken,
				YAddress:    p.QuoteToken,
			}, nil
		}
	}
	return domain.PairInfo{}, apperror.NotFound(apperror.CodeNotFound, "defiplaza pair for "+lpResource)
}
