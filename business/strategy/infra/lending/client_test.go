package lending

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
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

func TestUnitRatios(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, poolsEndpoint, r.URL.Path)
		io.WriteString(w, `[
		  {"resource_address": "resource_rdx1xrd", "unit_to_asset_ratio": "0.9871"},
		  {"resource_address": "resource_rdx1xusdc", "unit_to_asset_ratio": 0.95},
		  {"resource_address": "resource_rdx1dead", "unit_to_asset_ratio": "0"}
		]`)
	})

	ratios, err := c.UnitRatios(context.Background())
	require.NoError(t, err)
	require.Len(t, ratios, 2)
	assert.True(t, ratios["resource_rdx1xrd"].Equal(decimal.RequireFromString("0.9871")))
	assert.True(t, ratios["resource_rdx1xusdc"].Equal(decimal.RequireFromString("0.95")))
}

func TestUnitRatios_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.UnitRatios(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeProtocolUnavailable, apperror.GetCode(err))
}
