package astrolescent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL}, logger.New(io.Discard, logger.LevelError, "test", nil))
	require.NoError(t, err)
	return c
}

func TestPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, pricesEndpoint, r.URL.Path)
		io.WriteString(w, `{
		  "resource_rdx1xrd": {"symbol": "XRD", "name": "Radix", "iconUrl": "https://xrd", "divisibility": 18, "tokenPriceUSD": 0.0213, "tokenPriceXRD": 1},
		  "resource_rdx1usdc": {"symbol": "xUSDC", "name": "USDC", "divisibility": 6, "tokenPriceUSD": "1.0001", "tokenPriceXRD": "46.95"}
		}`)
	})

	rows, err := c.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	sort.Slice(rows, func(i, j int) bool { return rows[i].Resource < rows[j].Resource })
	assert.Equal(t, "xUSDC", rows[0].Symbol)
	assert.Equal(t, int32(6), rows[0].Divisibility)
	assert.True(t, rows[0].RefPrice.Equal(decimal.RequireFromString("46.95")))
	assert.True(t, rows[1].FiatPrice.Equal(decimal.RequireFromString("0.0213")))
	assert.Equal(t, "https://xrd", rows[1].IconURL)
}

func TestPrices_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := c.Prices(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeProtocolUnavailable, apperror.GetCode(err))
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, logger.New(io.Discard, logger.LevelError, "test", nil))
	assert.Error(t, err)
}
