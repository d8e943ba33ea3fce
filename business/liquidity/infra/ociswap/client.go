// Package ociswap implements the OciswapAPI port over the Ociswap REST API.
package ociswap

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/circuitbreaker"
	"github.com/fd1az/lp-portfolio/internal/httpclient"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "ociswap"
	meterName  = "ociswap"

	removeLiquidityEndpoint = "/preview/remove-liquidity"
	precisionRemoveEndpoint = "/preview/precision/remove-liquidity"
)

// Ensure Client implements OciswapAPI.
var _ app.OciswapAPI = (*Client)(nil)

// Config holds configuration for the Ociswap client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client previews Ociswap withdrawals.
type Client struct {
	http   httpclient.Client
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
	calls  metric.Int64Counter
	errors metric.Int64Counter
}

// NewClient creates a new Ociswap client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ociswap base URL is required")
	}

	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithUpstream(httpclient.Upstream{
			Name:              "ociswap",
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}.Merge(httpclient.ProtocolProfile), tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	meter := otel.Meter(meterName)
	calls, err := meter.Int64Counter("ociswap_calls_total",
		metric.WithDescription("Total Ociswap API calls"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	errs, err := meter.Int64Counter("ociswap_call_errors_total",
		metric.WithDescription("Total failed Ociswap API calls"))
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &Client{
		http:   hc,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("ociswap")),
		tracer: tracer,
		calls:  calls,
		errors: errs,
	}, nil
}

// sideAmount is one leg of a preview, valued by Ociswap.
type sideAmount struct {
	Token decimal.Decimal `json:"token"`
	USD   decimal.Decimal `json:"usd"`
	XRD   decimal.Decimal `json:"xrd"`
}

func (s sideAmount) toDomain() domain.SideAmount {
	return domain.SideAmount{Token: s.Token, Fiat: s.USD, Ref: s.XRD}
}

type previewResponse struct {
	XAddress string     `json:"x_address"`
	YAddress string     `json:"y_address"`
	XAmount  sideAmount `json:"x_amount"`
	YAmount  sideAmount `json:"y_amount"`
}

func (p previewResponse) toDomain() domain.AmmSharePool {
	return domain.AmmSharePool{
		XAddress: p.XAddress,
		YAddress: p.YAddress,
		XAmount:  p.XAmount.toDomain(),
		YAmount:  p.YAmount.toDomain(),
	}
}

// RemoveLiquidityPreview implements app.OciswapAPI.
func (c *Client) RemoveLiquidityPreview(ctx context.Context, pool string, amount decimal.Decimal) (domain.AmmSharePool, error) {
	ctx, span := c.tracer.Start(ctx, "ociswap.remove_liquidity_preview",
		trace.WithAttributes(attribute.String("pool", pool)),
	)
	defer span.End()

	res, err := c.preview(ctx, removeLiquidityEndpoint, map[string]string{
		"pool_address":     pool,
		"liquidity_amount": amount.String(),
	})
	if err != nil {
		span.RecordError(err)
		return domain.AmmSharePool{}, err
	}
	return res.toDomain(), nil
}

// PrecisionRemovePreview implements app.OciswapAPI.
func (c *Client) PrecisionRemovePreview(ctx context.Context, pool string, position domain.LiquidityRange) (domain.AmmSharePool, error) {
	ctx, span := c.tracer.Start(ctx, "ociswap.precision_remove_preview",
		trace.WithAttributes(
			attribute.String("pool", pool),
			attribute.String("nft_id", position.ID),
		),
	)
	defer span.End()

	res, err := c.preview(ctx, precisionRemoveEndpoint, map[string]string{
		"pool_address": pool,
		"liquidity":    position.Liquidity.String(),
		"left_bound":   strconv.FormatInt(int64(position.LeftBound), 10),
		"right_bound":  strconv.FormatInt(int64(position.RightBound), 10),
	})
	if err != nil {
		span.RecordError(err)
		return domain.AmmSharePool{}, err
	}
	return res.toDomain(), nil
}

func (c *Client) preview(ctx context.Context, endpoint string, params map[string]string) (previewResponse, error) {
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	c.calls.Add(ctx, 1, attrs)

	raw, err := c.cb.Execute(func() ([]byte, error) {
		req := c.http.NewRequestWithOptions(
			httpclient.WithEndpoint(endpoint),
			httpclient.WithResponseErrorHandler(httpclient.StatusErrors("ociswap")),
		)
		for k, v := range params {
			req = req.SetQueryParam(k, v)
		}
		resp, err := req.Get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		c.errors.Add(ctx, 1, attrs)
		if apperror.GetCode(err) == apperror.CodeCircuitOpen {
			return previewResponse{}, err
		}
		return previewResponse{}, apperror.External(apperror.CodeProtocolUnavailable, "ociswap "+endpoint, err)
	}

	var res previewResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		c.errors.Add(ctx, 1, attrs)
		return previewResponse{}, apperror.External(apperror.CodeProtocolUnavailable, "decode ociswap "+endpoint, err)
	}
	return res, nil
}
