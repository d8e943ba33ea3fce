// Package gateway implements the ledger Gateway port over the public
// gateway REST API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/ledger/app"
	"github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/circuitbreaker"
	"github.com/fd1az/lp-portfolio/internal/httpclient"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "gateway"
	meterName  = "gateway"

	MainnetURL = "https://mainnet.radixdlt.com"

	streamEndpoint           = "/stream/transactions"
	detailsEndpoint          = "/state/entity/details"
	fungiblesPageEndpoint    = "/state/entity/page/fungibles/"
	nonFungiblesPageEndpoint = "/state/entity/page/non-fungibles/"
	vaultIDsEndpoint         = "/state/entity/page/non-fungible-vault/ids"
	nonFungibleDataEndpoint  = "/state/non-fungible/data"
	previewEndpoint          = "/transaction/preview"
	statusEndpoint           = "/status/gateway-status"
)

// Metadata keys requested with every balance and detail lookup.
var explicitMetadata = []string{
	domain.MetadataName,
	domain.MetadataSymbol,
	domain.MetadataIconURL,
	domain.MetadataPool,
}

// Ensure Client implements Gateway.
var _ app.Gateway = (*Client)(nil)

// Config holds configuration for the gateway client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	// MaxResourcePages bounds fungible/non-fungible resource paging.
	MaxResourcePages int
}

type clientMetrics struct {
	callsTotal  metric.Int64Counter
	callLatency metric.Float64Histogram
	callErrors  metric.Int64Counter
}

// Client talks to the gateway.
type Client struct {
	http     httpclient.Client
	config   Config
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[[]byte]
	tracer   trace.Tracer
	metrics  *clientMetrics
	maxPages int
}

// NewClient creates a new gateway client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MainnetURL
	}
	maxPages := cfg.MaxResourcePages
	if maxPages <= 0 {
		maxPages = 100
	}

	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithUpstream(httpclient.Upstream{
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}.Merge(httpclient.GatewayProfile), tracer),
		httpclient.WithHeaders(map[string]string{
			"Content-Type": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &Client{
		http:     hc,
		config:   cfg,
		logger:   log,
		cb:       circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("gateway")),
		tracer:   tracer,
		maxPages: maxPages,
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.callsTotal, err = meter.Int64Counter(
		"gateway_calls_total",
		metric.WithDescription("Total gateway calls"),
	)
	if err != nil {
		return err
	}

	c.metrics.callLatency, err = meter.Float64Histogram(
		"gateway_call_latency_ms",
		metric.WithDescription("Gateway call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	c.metrics.callErrors, err = meter.Int64Counter(
		"gateway_call_errors_total",
		metric.WithDescription("Total gateway call errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// post sends body to endpoint through the breaker and decodes into out.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	c.metrics.callsTotal.Add(ctx, 1, attrs)
	defer func() {
		c.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}()

	raw, err := c.cb.Execute(func() ([]byte, error) {
		resp, err := c.http.NewRequestWithOptions(
			httpclient.WithEndpoint(endpoint),
			httpclient.WithResponseErrorHandler(gatewayErrorHandler),
		).
			SetBody(body).
			Post(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		c.metrics.callErrors.Add(ctx, 1, attrs)
		if apperror.GetCode(err) == apperror.CodeCircuitOpen {
			return err
		}
		return apperror.Unavailable(apperror.CodeLedgerUnavailable, endpoint, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.metrics.callErrors.Add(ctx, 1, attrs)
		return apperror.External(apperror.CodeLedgerUnavailable, "decode "+endpoint, err)
	}
	return nil
}

// StreamTransactions implements app.Gateway. Failed transactions are dropped.
func (c *Client) StreamTransactions(ctx context.Context, q app.StreamQuery) (app.TransactionPage, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.stream_transactions",
		trace.WithAttributes(
			attribute.String("account", q.Account),
			attribute.Bool("first_page", q.Cursor == ""),
		),
	)
	defer span.End()

	req := streamRequest{
		AffectedGlobalEntitiesFilter: []string{q.Account},
		Cursor:                       q.Cursor,
		LimitPerPage:                 q.PageSize,
		Order:                        "Asc",
		KindFilter:                   "User",
		OptIns: streamOptIns{
			AffectedGlobalEntities: true,
			ManifestInstructions:   true,
			BalanceChanges:         true,
		},
	}
	if q.FromStateVersion > 0 {
		req.FromLedgerState = &ledgerStateSelector{StateVersion: q.FromStateVersion}
	}

	var res streamResponse
	if err := c.post(ctx, streamEndpoint, req, &res); err != nil {
		span.RecordError(err)
		return app.TransactionPage{}, err
	}

	page := app.TransactionPage{NextCursor: res.NextCursor}
	for _, item := range res.Items {
		if item.TransactionStatus != "CommittedSuccess" {
			continue
		}
		page.Items = append(page.Items, item.toDomain())
	}

	span.SetAttributes(attribute.Int("items", len(page.Items)))
	return page, nil
}

// AccountBalances implements app.Gateway. Resource lists beyond the first
// page are followed at the same ledger state version.
func (c *Client) AccountBalances(ctx context.Context, account string) (domain.AccountBalances, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.account_balances",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	var res detailsResponse
	err := c.post(ctx, detailsEndpoint, detailsRequest{
		Addresses:        []string{account},
		AggregationLevel: "Vault",
		OptIns: detailsOptIns{
			ExplicitMetadata:      explicitMetadata,
			NonFungibleIncludeIDs: true,
		},
	}, &res)
	if err != nil {
		span.RecordError(err)
		return domain.AccountBalances{}, err
	}
	if len(res.Items) == 0 {
		return domain.AccountBalances{}, apperror.NotFound(apperror.CodeInvalidAccount, account)
	}

	item := res.Items[0]
	balances := domain.AccountBalances{
		Address:      account,
		StateVersion: res.LedgerState.StateVersion,
	}
	at := &ledgerStateSelector{StateVersion: res.LedgerState.StateVersion}

	if item.FungibleResources != nil {
		all, err := collectPages(ctx, c, fungiblesPageEndpoint, account, at, *item.FungibleResources)
		if err != nil {
			span.RecordError(err)
			return domain.AccountBalances{}, err
		}
		for _, f := range all {
			balances.Fungibles = append(balances.Fungibles, f.toDomain())
		}
	}
	if item.NonFungibleResources != nil {
		all, err := collectPages(ctx, c, nonFungiblesPageEndpoint, account, at, *item.NonFungibleResources)
		if err != nil {
			span.RecordError(err)
			return domain.AccountBalances{}, err
		}
		for _, n := range all {
			balances.NonFungibles = append(balances.NonFungibles, n.toDomain())
		}
	}

	span.SetAttributes(
		attribute.Int("fungibles", len(balances.Fungibles)),
		attribute.Int("non_fungibles", len(balances.NonFungibles)),
	)
	return balances, nil
}

func collectPages[T any](ctx context.Context, c *Client, endpoint, account string, at *ledgerStateSelector, first resourcePage[T]) ([]T, error) {
	items := first.Items
	cursor := first.NextCursor
	for page := 0; cursor != ""; page++ {
		if page >= c.maxPages {
			return nil, apperror.New(apperror.CodeLedgerPaginationLimit,
				apperror.WithContext(fmt.Sprintf("%s exceeded %d pages", endpoint, c.maxPages)))
		}
		var next resourcePage[T]
		err := c.post(ctx, endpoint, resourcePageRequest{
			Address:          account,
			Cursor:           cursor,
			AggregationLevel: "Vault",
			AtLedgerState:    at,
			OptIns: detailsOptIns{
				ExplicitMetadata:      explicitMetadata,
				NonFungibleIncludeIDs: true,
			},
		}, &next)
		if err != nil {
			return nil, err
		}
		items = append(items, next.Items...)
		cursor = next.NextCursor
	}
	return items, nil
}

// NonFungibleIDs implements app.Gateway.
func (c *Client) NonFungibleIDs(ctx context.Context, account, resource, vault, cursor string) (app.IDPage, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.non_fungible_ids",
		trace.WithAttributes(attribute.String("resource", resource)),
	)
	defer span.End()

	var res vaultIDsResponse
	err := c.post(ctx, vaultIDsEndpoint, vaultIDsRequest{
		Address:         account,
		ResourceAddress: resource,
		VaultAddress:    vault,
		Cursor:          cursor,
	}, &res)
	if err != nil {
		span.RecordError(err)
		return app.IDPage{}, err
	}
	return app.IDPage{IDs: res.Items, NextCursor: res.NextCursor}, nil
}

// NonFungibleData implements app.Gateway.
func (c *Client) NonFungibleData(ctx context.Context, resource string, ids []string) ([]domain.NonFungibleRecord, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.non_fungible_data",
		trace.WithAttributes(
			attribute.String("resource", resource),
			attribute.Int("ids", len(ids)),
		),
	)
	defer span.End()

	if len(ids) > app.MaxNonFungibleBatch {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("%d ids exceeds batch limit %d", len(ids), app.MaxNonFungibleBatch))
	}

	var res nonFungibleDataResponse
	err := c.post(ctx, nonFungibleDataEndpoint, nonFungibleDataRequest{
		ResourceAddress: resource,
		NonFungibleIDs:  ids,
	}, &res)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]domain.NonFungibleRecord, 0, len(res.NonFungibleIDs))
	for _, item := range res.NonFungibleIDs {
		r := domain.NonFungibleRecord{ID: item.NonFungibleID, Burned: item.IsBurned}
		if item.Data != nil {
			r.Data = item.Data.ProgrammaticJSON
		}
		records = append(records, r)
	}
	return records, nil
}

// EntityDetails implements app.Gateway.
func (c *Client) EntityDetails(ctx context.Context, addresses []string) ([]domain.EntityDetails, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.entity_details",
		trace.WithAttributes(attribute.StringSlice("addresses", addresses)),
	)
	defer span.End()

	var res detailsResponse
	err := c.post(ctx, detailsEndpoint, detailsRequest{
		Addresses:        addresses,
		AggregationLevel: "Vault",
		OptIns:           detailsOptIns{ExplicitMetadata: explicitMetadata},
	}, &res)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]domain.EntityDetails, 0, len(res.Items))
	for _, item := range res.Items {
		d := domain.EntityDetails{
			Address:  item.Address,
			Metadata: item.ExplicitMetadata.toMap(),
		}
		if item.Details != nil && item.Details.State != nil {
			d.State = *item.Details.State
		}
		out = append(out, d)
	}
	return out, nil
}

// Preview implements app.Gateway. Signatures and epoch are not checked, and
// the fee is paid from free credit.
func (c *Client) Preview(ctx context.Context, manifest string) (domain.PreviewResult, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.preview")
	defer span.End()

	status, err := c.Status(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.PreviewResult{}, err
	}

	var res previewResponse
	err = c.post(ctx, previewEndpoint, previewRequest{
		Manifest:            manifest,
		StartEpochInclusive: status.Epoch,
		EndEpochExclusive:   status.Epoch + 2,
		Nonce:               rand.Uint32(),
		SignerPublicKeys:    []any{},
		Flags: previewFlags{
			UseFreeCredit:            true,
			AssumeAllSignatureProofs: true,
			SkipEpochCheck:           true,
		},
	}, &res)
	if err != nil {
		span.RecordError(err)
		return domain.PreviewResult{}, apperror.New(apperror.CodeLedgerPreviewFailed, apperror.WithCause(err))
	}

	result := res.toDomain()
	span.SetAttributes(
		attribute.Bool("succeeded", result.Succeeded),
		attribute.Int("resource_changes", len(result.ResourceChanges)),
	)
	if !result.Succeeded {
		c.logger.Debug(ctx, "preview rejected", "error", result.ErrorMessage)
	}
	return result, nil
}

// Status implements app.Gateway.
func (c *Client) Status(ctx context.Context) (domain.LedgerStatus, error) {
	var res statusResponse
	if err := c.post(ctx, statusEndpoint, struct{}{}, &res); err != nil {
		return domain.LedgerStatus{}, err
	}
	return domain.LedgerStatus{
		Network:      res.LedgerState.Network,
		StateVersion: res.LedgerState.StateVersion,
		Epoch:        res.LedgerState.Epoch,
	}, nil
}

// gatewayErrorHandler turns gateway error bodies into errors.
func gatewayErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return fmt.Errorf("gateway %d: %s", statusCode, e.Message)
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
