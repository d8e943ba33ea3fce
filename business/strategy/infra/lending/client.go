// Package lending implements the LendingAPI port over the lending protocol's
// stats API.
package lending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/strategy/app"
	"github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/circuitbreaker"
	"github.com/fd1az/lp-portfolio/internal/httpclient"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "lending"

	poolsEndpoint = "/pools"
)

// Ensure Client implements LendingAPI.
var _ app.LendingAPI = (*Client)(nil)

// Config holds configuration for the lending client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client reads lending pool state.
type Client struct {
	http   httpclient.Client
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewClient creates a new lending client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("lending base URL is required")
	}

	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithUpstream(httpclient.Upstream{
			Name:              "lending",
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}.Merge(httpclient.ProtocolProfile), tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		http:   hc,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("lending")),
		tracer: tracer,
	}, nil
}

type poolEntry struct {
	ResourceAddress  string          `json:"resource_address"`
	UnitToAssetRatio decimal.Decimal `json:"unit_to_asset_ratio"`
}

// UnitRatios implements app.LendingAPI. Pools with a non-positive ratio are
// left out.
func (c *Client) UnitRatios(ctx context.Context) (domain.UnitRatios, error) {
	ctx, span := c.tracer.Start(ctx, "lending.unit_ratios")
	defer span.End()

	raw, err := c.cb.Execute(func() ([]byte, error) {
		resp, err := c.http.NewRequestWithOptions(
			httpclient.WithEndpoint("pools"),
			httpclient.WithResponseErrorHandler(httpclient.StatusErrors("lending")),
		).Get(ctx, poolsEndpoint)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		span.RecordError(err)
		if apperror.GetCode(err) == apperror.CodeCircuitOpen {
			return nil, err
		}
		return nil, apperror.External(apperror.CodeProtocolUnavailable, "lending pools", err)
	}

	var pools []poolEntry
	if err := json.Unmarshal(raw, &pools); err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeProtocolUnavailable, "decode lending pools", err)
	}

	ratios := make(domain.UnitRatios, len(pools))
	for _, p := range pools {
		if !p.UnitToAssetRatio.IsPositive() {
			c.logger.Warn(ctx, "skipping lending pool without ratio", "resource", p.ResourceAddress)
			continue
		}
		ratios[p.ResourceAddress] = p.UnitToAssetRatio
	}

	span.SetAttributes(attribute.Int("pools", len(ratios)))
	return ratios, nil
}
