// Package defiplaza implements the DefiPlazaAPI port over the DefiPlaza REST
// API.
package defiplaza

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/circuitbreaker"
	"github.com/fd1az/lp-portfolio/internal/httpclient"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "defiplaza"

	pairsEndpoint  = "/pairs"
	redeemEndpoint = "/lp/redeem"
)

// Ensure Client implements DefiPlazaAPI.
var _ app.DefiPlazaAPI = (*Client)(nil)

// Config holds configuration for the DefiPlaza client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client reads DefiPlaza pairs and redemption previews.
type Client struct {
	http   httpclient.Client
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewClient creates a new DefiPlaza client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("defiplaza base URL is required")
	}

	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithUpstream(httpclient.Upstream{
			Name:              "defiplaza",
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
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("defiplaza")),
		tracer: tracer,
	}, nil
}

type pairsResponse struct {
	Data []struct {
		Address         string `json:"address"`
		BaseToken       string `json:"baseToken"`
		QuoteToken      string `json:"quoteToken"`
		BaseLPResource  string `json:"baseLpResource"`
		QuoteLPResource string `json:"quoteLpResource"`
	} `json:"data"`
}

type redeemResponse struct {
	BaseToken   string          `json:"baseToken"`
	QuoteToken  string          `json:"quoteToken"`
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	QuoteAmount decimal.Decimal `json:"quoteAmount"`
}

// Pairs implements app.DefiPlazaAPI.
func (c *Client) Pairs(ctx context.Context) ([]app.DefiPlazaPair, error) {
	ctx, span := c.tracer.Start(ctx, "defiplaza.pairs")
	defer span.End()

	var res pairsResponse
	if err := c.get(ctx, pairsEndpoint, nil, &res); err != nil {
		span.RecordError(err)
		return nil, err
	}

	pairs := make([]app.DefiPlazaPair, 0, len(res.Data))
	for _, p := range res.Data {
		pairs = append(pairs, app.DefiPlazaPair{
			Address:         p.Address,
			BaseToken:       p.BaseToken,
			QuoteToken:      p.QuoteToken,
			BaseLPResource:  p.BaseLPResource,
			QuoteLPResource: p.QuoteLPResource,
		})
	}
	span.SetAttributes(attribute.Int("pairs", len(pairs)))
	return pairs, nil
}

// Redeem implements app.DefiPlazaAPI.
func (c *Client) Redeem(ctx context.Context, lpResource string, amount decimal.Decimal) (domain.StaticPool, error) {
	ctx, span := c.tracer.Start(ctx, "defiplaza.redeem",
		trace.WithAttributes(attribute.String("lp_resource", lpResource)),
	)
	defer span.End()

	var res redeemResponse
	err := c.get(ctx, redeemEndpoint, map[string]string{
		"lp_resource": lpResource,
		"amount":      amount.String(),
	}, &res)
	if err != nil {
		span.RecordError(err)
		return domain.StaticPool{}, err
	}

	if res.BaseAmount.IsNegative() || res.QuoteAmount.IsNegative() {
		return domain.StaticPool{}, apperror.External(apperror.CodeProtocolUnavailable,
			"defiplaza redeem returned a negative amount", nil)
	}
	return domain.StaticPool{
		BaseToken:   res.BaseToken,
		QuoteToken:  res.QuoteToken,
		BaseAmount:  res.BaseAmount,
		QuoteAmount: res.QuoteAmount,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	raw, err := c.cb.Execute(func() ([]byte, error) {
		req := c.http.NewRequestWithOptions(
			httpclient.WithEndpoint(endpoint),
			httpclient.WithResponseErrorHandler(httpclient.StatusErrors("defiplaza")),
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
		if apperror.GetCode(err) == apperror.CodeCircuitOpen {
			return err
		}
		return apperror.External(apperror.CodeProtocolUnavailable, "defiplaza "+endpoint, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.External(apperror.CodeProtocolUnavailable, "decode defiplaza "+endpoint, err)
	}
	return nil
}
