package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/business/liquidity/domain"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

var errUpstream = errors.New("upstream down")

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// tuple builds a programmatic tuple of string scalars.
func tuple(fields map[string]string) ledgerDomain.ProgrammaticValue {
	v := ledgerDomain.ProgrammaticValue{Kind: "Tuple"}
	for name, value := range fields {
		v.Fields = append(v.Fields, ledgerDomain.ProgrammaticValue{
			Kind:      "String",
			FieldName: name,
			Value:     json.RawMessage(strconv.Quote(value)),
		})
	}
	return v
}

type fakeLedger struct {
	balances    ledgerDomain.AccountBalances
	balancesErr error
	ids         map[string][]string
	records     map[string][]ledgerDomain.NonFungibleRecord
	states      map[string]ledgerDomain.ProgrammaticValue

	stateCalls  atomic.Int32
	mu          sync.Mutex
	stateByAddr map[string]int
}

func (f *fakeLedger) Balances(_ context.Context, _ string) (ledgerDomain.AccountBalances, error) {
	return f.balances, f.balancesErr
}

func (f *fakeLedger) NonFungibleIDs(_ context.Context, _ string, b ledgerDomain.NonFungibleBalance) ([]string, error) {
	return f.ids[b.ResourceAddress], nil
}

func (f *fakeLedger) NonFungibleData(_ context.Context, resource string, _ []string) ([]ledgerDomain.NonFungibleRecord, error) {
	return f.records[resource], nil
}

func (f *fakeLedger) ComponentState(_ context.Context, address string) (ledgerDomain.EntityDetails, error) {
	f.stateCalls.Add(1)
	f.mu.Lock()
	if f.stateByAddr == nil {
		f.stateByAddr = map[string]int{}
	}
	f.stateByAddr[address]++
	f.mu.Unlock()

	state, ok := f.states[address]
	if !ok {
		return ledgerDomain.EntityDetails{}, errUpstream
	}
	return ledgerDomain.EntityDetails{Address: address, State: state}, nil
}

type fakeOciswap struct {
	fungible  map[string]domain.AmmSharePool
	precision map[string]domain.AmmSharePool // keyed by record id
}

func (f *fakeOciswap) RemoveLiquidityPreview(_ context.Context, pool string, _ decimal.Decimal) (domain.AmmSharePool, error) {
	p, ok := f.fungible[pool]
	if !ok {
		return domain.AmmSharePool{}, errUpstream
	}
	return p, nil
}

func (f *fakeOciswap) PrecisionRemovePreview(_ context.Context, _ string, r domain.LiquidityRange) (domain.AmmSharePool, error) {
	p, ok := f.precision[r.ID]
	if !ok {
		return domain.AmmSharePool{}, errUpstream
	}
	return p, nil
}

type fakeDefiPlaza struct {
	pairs     []DefiPlazaPair
	pairsErr  error
	pairCalls atomic.Int32
	redeem    map[string]domain.StaticPool
}

func (f *fakeDefiPlaza) Pairs(context.Context) ([]DefiPlazaPair, error) {
	f.pairCalls.Add(1)
	return f.pairs, f.pairsErr
}

func (f *fakeDefiPlaza) Redeem(_ context.Context, lp string, _ decimal.Decimal) (domain.StaticPool, error) {
	p, ok := f.redeem[lp]
	if !ok {
		return domain.StaticPool{}, errUpstream
	}
	return p, nil
}
