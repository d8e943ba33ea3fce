package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/asset"
)

func newTestResolver(ledger *fakeLedger, oci *fakeOciswap, dfp *fakeDefiPlaza) *Resolver {
	return NewResolver(ledger, oci, dfp, asset.NewRegistry(), 4, testLogger())
}

func TestResolver_DefiPlazaFillsTokens(t *testing.T) {
	dfp := &fakeDefiPlaza{redeem: map[string]domain.StaticPool{
		dfpLP: {BaseAmount: decimal.NewFromInt(100), QuoteAmount: decimal.NewFromInt(2)},
	}}
	r := newTestResolver(&fakeLedger{}, &fakeOciswap{}, dfp)

	u, err := r.Resolve(context.Background(), domain.PositionEntry{
		ResourceAddress: dfpLP,
		Protocol:        domain.ProtocolDefiPlaza,
		Amount:          decimal.NewFromInt(10),
		Pair:            domain.PairInfo{XAddress: xrd, YAddress: usdc},
	})
	require.NoError(t, err)

	pool, ok := u.(domain.StaticPool)
	require.True(t, ok)
	assert.Equal(t, xrd, pool.BaseToken)
	assert.Equal(t, usdc, pool.QuoteToken)
	assert.True(t, pool.BaseAmount.Equal(decimal.NewFromInt(100)))
}

func TestResolver_UnknownPairIsUnresolved(t *testing.T) {
	dfp := &fakeDefiPlaza{redeem: map[string]domain.StaticPool{
		dfpLP: {BaseAmount: decimal.NewFromInt(100), QuoteAmount: decimal.NewFromInt(2)},
	}}
	r := newTestResolver(&fakeLedger{}, &fakeOciswap{}, dfp)

	_, err := r.Resolve(context.Background(), domain.PositionEntry{
		ResourceAddress: dfpLP,
		Protocol:        domain.ProtocolDefiPlaza,
		Amount:          decimal.NewFromInt(10),
		PairError:       "pairs endpoint down",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodePositionUnresolved, apperror.GetCode(err))
}

func TestResolver_OciswapFungible(t *testing.T) {
	oci := &fakeOciswap{fungible: map[string]domain.AmmSharePool{
		ociPool: {
			XAmount: domain.SideAmount{Token: decimal.NewFromInt(50), Fiat: decimal.NewFromInt(1)},
			YAmount: domain.SideAmount{Token: decimal.NewFromInt(1), Fiat: decimal.NewFromInt(1)},
		},
	}}
	r := newTestResolver(&fakeLedger{}, oci, &fakeDefiPlaza{})

	u, err := r.Resolve(context.Background(), domain.PositionEntry{
		ResourceAddress: ociLP,
		Protocol:        domain.ProtocolOciswapFungible,
		Amount:          decimal.NewFromInt(5),
		Pair:            domain.PairInfo{PoolAddress: ociPool, XAddress: xrd, YAddress: usdc},
	})
	require.NoError(t, err)

	pool, ok := u.(domain.AmmSharePool)
	require.True(t, ok)
	assert.Equal(t, xrd, pool.XAddress)
	assert.Equal(t, usdc, pool.YAddress)
}

func TestResolver_OciswapFailureIsReturned(t *testing.T) {
	r := newTestResolver(&fakeLedger{}, &fakeOciswap{}, &fakeDefiPlaza{})

	_, err := r.Resolve(context.Background(), domain.PositionEntry{
		ResourceAddress: ociLP,
		Protocol:        domain.ProtocolOciswapFungible,
		Amount:          decimal.NewFromInt(5),
		Pair:            domain.PairInfo{PoolAddress: ociPool},
	})
	assert.ErrorIs(t, err, errUpstream)
}

func precisionEntry(records ...domain.LiquidityRange) domain.PositionEntry {
	return domain.PositionEntry{
		ResourceAddress: precisionNFT,
		Protocol:        domain.ProtocolOciswapConcentrated,
		Records:         records,
		Pair:            domain.PairInfo{PoolAddress: precisionPool, XAddress: xrd, YAddress: usdc},
	}
}

func TestResolver_PrecisionFallsBackAndDrops(t *testing.T) {
	ledger := &fakeLedger{states: map[string]ledgerDomain.ProgrammaticValue{
		precisionPool: tuple(map[string]string{statePriceSqrt: "1"}),
	}}
	oci := &fakeOciswap{precision: map[string]domain.AmmSharePool{
		"#1#": {XAmount: domain.SideAmount{Token: decimal.NewFromInt(7)}, YAmount: domain.SideAmount{Token: decimal.NewFromInt(3)}},
	}}
	r := newTestResolver(ledger, oci, &fakeDefiPlaza{})

	local := domain.LiquidityRange{ID: "#2#", Liquidity: decimal.NewFromInt(1000), LeftBound: -1000, RightBound: 1000}
	broken := domain.LiquidityRange{ID: "#3#", Liquidity: decimal.NewFromInt(1000), LeftBound: 100, RightBound: 100}

	u, err := r.Resolve(context.Background(), precisionEntry(
		domain.LiquidityRange{ID: "#1#", Liquidity: decimal.NewFromInt(1), LeftBound: -10, RightBound: 10},
		local,
		broken,
	))
	require.NoError(t, err)

	list, ok := u.(domain.ConcentratedPositionList)
	require.True(t, ok)
	require.Len(t, list, 2)

	assert.Equal(t, "#1#", list[0].NFTID)
	assert.Equal(t, xrd, list[0].XAddress)
	assert.True(t, list[0].XAmount.Token.Equal(decimal.NewFromInt(7)))

	assert.Equal(t, "#2#", list[1].NFTID)
	left, err := domain.TickToPriceSqrt(local.LeftBound)
	require.NoError(t, err)
	right, err := domain.TickToPriceSqrt(local.RightBound)
	require.NoError(t, err)
	wantX, wantY, err := domain.RemovableAmounts(local.Liquidity, decimal.NewFromInt(1), left, right, asset.MaxDivisibility, asset.MaxDivisibility)
	require.NoError(t, err)
	assert.True(t, list[1].XAmount.Token.Equal(wantX), "x = %s, want %s", list[1].XAmount.Token, wantX)
	assert.True(t, list[1].YAmount.Token.Equal(wantY), "y = %s, want %s", list[1].YAmount.Token, wantY)
	assert.True(t, wantX.IsPositive() && wantY.IsPositive())

	assert.Equal(t, int32(1), ledger.stateCalls.Load(), "pool state is read once per position")
}

func TestResolver_PrecisionAllDroppedIsUnresolved(t *testing.T) {
	r := newTestResolver(&fakeLedger{}, &fakeOciswap{}, &fakeDefiPlaza{})

	_, err := r.Resolve(context.Background(), precisionEntry(
		domain.LiquidityRange{ID: "#1#", Liquidity: decimal.NewFromInt(1), LeftBound: -10, RightBound: 10},
	))
	require.Error(t, err)
	assert.Equal(t, apperror.CodePositionUnresolved, apperror.GetCode(err))
}
