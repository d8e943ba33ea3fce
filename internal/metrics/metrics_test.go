package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFromName(t *testing.T) {
	p, ok := ProviderFromName("prometheus", "", nil, false)
	require.True(t, ok)
	assert.Equal(t, PrometheusProvider, p.Provider)

	p, ok = ProviderFromName("otlp", "http://collector:4317", nil, true)
	require.True(t, ok)
	assert.Equal(t, "http://collector:4317", p.Endpoint)
	assert.True(t, p.Insecure)

	_, ok = ProviderFromName("statsd", "", nil, false)
	assert.False(t, ok)
}

func TestNewMetricProvider_Prometheus(t *testing.T) {
	mp, err := NewMetricProvider(context.Background(),
		WithServiceName("lp-portfolio-test"),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := mp.Meter("test").Int64Counter("portfolio_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	srv := NewPrometheusServer(WithPort("0"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_test_total")
	assert.Equal(t, ":0", srv.Addr())
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), WithProviderConfig(ProviderCfg{Provider: "statsd"}))
	assert.Error(t, err)
}
