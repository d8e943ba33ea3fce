// Package astrolescent implements the PriceSource port over the Astrolescent
// price API.
package astrolescent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/pricing/app"
	"github.com/fd1az/lp-portfolio/business/pricing/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/circuitbreaker"
	"github.com/fd1az/lp-portfolio/internal/httpclient"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const (
	tracerName = "astrolescent"

	pricesEndpoint = "/prices"
)

// Ensure Client implements PriceSource.
var _ app.PriceSource = (*Client)(nil)

// Config holds configuration for the Astrolescent client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches the price table.
type Client struct {
	http   httpclient.Client
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewClient creates a new Astrolescent client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("astrolescent base URL is required")
	}

	tracer := otel.Tracer(tracerName)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithUpstream(httpclient.Upstream{
			Name:    "astrolescent",
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}.Merge(httpclient.ProtocolProfile), tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		http:   hc,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("astrolescent")),
		tracer: tracer,
	}, nil
}

// tokenEntry is one value of the /prices map.
type tokenEntry struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	IconURL       string          `json:"iconUrl"`
	Divisibility  int32           `json:"divisibility"`
	TokenPriceUSD decimal.Decimal `json:"tokenPriceUSD"`
	TokenPriceXRD decimal.Decimal `json:"tokenPriceXRD"`
}

// Prices implements app.PriceSource.
func (c *Client) Prices(ctx context.Context) ([]domain.TokenPrice, error) {
	ctx, span := c.tracer.Start(ctx, "astrolescent.prices")
	defer span.End()

	raw, err := c.cb.Execute(func() ([]byte, error) {
		resp, err := c.http.NewRequestWithOptions(
			httpclient.WithEndpoint("prices"),
			httpclient.WithResponseErrorHandler(httpclient.StatusErrors("astrolescent")),
		).Get(ctx, pricesEndpoint)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeProtocolUnavailable, "astrolescent prices", err)
	}

	var entries map[string]tokenEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeProtocolUnavailable, "decode astrolescent prices", err)
	}

	rows := make([]domain.TokenPrice, 0, len(entries))
	for resource, e := range entries {
		rows = append(rows, domain.TokenPrice{
			Resource:     resource,
			Symbol:       e.Symbol,
			Name:         e.Name,
			IconURL:      e.IconURL,
			Divisibility: e.Divisibility,
			FiatPrice:    e.TokenPriceUSD,
			RefPrice:     e.TokenPriceXRD,
		})
	}

	span.SetAttributes(attribute.Int("tokens", len(rows)))
	c.logger.Debug(ctx, "fetched price table", "tokens", len(rows))
	return rows, nil
}
