package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/lp-portfolio/business/pricing/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/asset"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

type stubSource struct {
	rows []domain.TokenPrice
	err  error
}

func (s stubSource) Prices(context.Context) ([]domain.TokenPrice, error) {
	return s.rows, s.err
}

func newService(src PriceSource, reg *asset.Registry) *PricingService {
	return NewPricingService(src, reg, asset.AddrXRD, logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestTable_PopulatesRegistry(t *testing.T) {
	reg := asset.DefaultRegistry()
	src := stubSource{rows: []domain.TokenPrice{
		{Resource: asset.AddrXRD, Symbol: "XRD", Divisibility: 18, FiatPrice: decimal.RequireFromString("0.021")},
		{Resource: "resource_rdx1hug", Symbol: "HUG", Name: "HUG", IconURL: "https://hug", Divisibility: 18, FiatPrice: decimal.RequireFromString("0.00001")},
		{Resource: "resource_rdx1odd", Symbol: "ODD", Divisibility: 99},
	}}

	table, err := newService(src, reg).Table(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	fiat, ok := table.ReferenceFiat()
	require.True(t, ok)
	assert.True(t, fiat.Equal(decimal.RequireFromString("0.021")))

	hug, ok := reg.Get("resource_rdx1hug")
	require.True(t, ok)
	assert.Equal(t, "https://hug", hug.IconURL())
	assert.Equal(t, int32(asset.MaxDivisibility), reg.Divisibility("resource_rdx1odd"))
}

func TestTable_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  stubSource
	}{
		{"source error", stubSource{err: errors.New("connection refused")}},
		{"empty table", stubSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(tt.src, nil).Table(context.Background())
			require.Error(t, err)
			assert.Equal(t, apperror.CodePriceTableUnavailable, apperror.GetCode(err))
		})
	}
}
