package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
)

const (
	account = "account_rdx1strategyowner"
	xrd     = "resource_rdx1xrd"
	xusdc   = "resource_rdx1xusdc"
)

var testDef = Definition{
	Name:               "xrd-lsu-leverage",
	LendingComponent:   "component_rdx1lending",
	CDPResource:        "resource_rdx1cdp",
	CollateralResource: xrd,
	BorrowedResource:   xusdc,
	WrapperComponent:   "component_rdx1wrapper",
	WrappedResource:    "resource_rdx1wrapped",
	LPPool:             "component_rdx1lppool",
	LPResource:         "resource_rdx1lp",
	SwapPool:           "component_rdx1swap",
}

type refPrices map[string]decimal.Decimal

func (p refPrices) RefPrice(r string) (decimal.Decimal, bool) {
	v, ok := p[r]
	return v, ok
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func scalar(kind, v string) ledgerDomain.ProgrammaticValue {
	return ledgerDomain.ProgrammaticValue{Kind: kind, Value: json.RawMessage(strconv.Quote(v))}
}

func decimalMap(name string, entries map[string]string) ledgerDomain.ProgrammaticValue {
	m := ledgerDomain.ProgrammaticValue{Kind: "Map", FieldName: name}
	for k, v := range entries {
		m.Entries = append(m.Entries, ledgerDomain.ProgrammaticEntry{
			Key:   scalar("Reference", k),
			Value: scalar("Decimal", v),
		})
	}
	return m
}

func cdpRecord(id string, collaterals, loans map[string]string) ledgerDomain.NonFungibleRecord {
	return ledgerDomain.NonFungibleRecord{
		ID: id,
		Data: ledgerDomain.ProgrammaticValue{Kind: "Tuple", Fields: []ledgerDomain.ProgrammaticValue{
			decimalMap(fieldCollaterals, collaterals),
			decimalMap(fieldLoans, loans),
		}},
	}
}

func TestDefinition_Validate(t *testing.T) {
	require.NoError(t, testDef.Validate())

	broken := testDef
	broken.SwapPool = ""
	err := broken.Validate()
	require.Error(t, err)
	assert.Equal(t, apperror.CodeRequiredField, apperror.GetCode(err))
}

func TestCDP_Exposure(t *testing.T) {
	cdp, err := ParseCDP(cdpRecord("#42#",
		map[string]string{xrd: "1500"},
		map[string]string{xusdc: "25.5"},
	))
	require.NoError(t, err)
	assert.Equal(t, "#42#", cdp.ID)

	ratios := UnitRatios{xrd: dec("0.5"), xusdc: dec("0.85")}
	prices := refPrices{xrd: decimal.NewFromInt(1), xusdc: dec("40")}

	e, err := cdp.Exposure(testDef, ratios, prices)
	require.NoError(t, err)
	assert.True(t, e.Collateral.Equal(dec("3000")), "collateral = %s", e.Collateral)
	assert.True(t, e.Loan.Equal(dec("30")), "loan = %s", e.Loan)
	assert.True(t, e.CollateralRef.Equal(dec("3000")))
	assert.True(t, e.LoanRef.Equal(dec("1200")))
	assert.True(t, e.NetRef().Equal(dec("1800")))
}

func TestCDP_ExposureErrors(t *testing.T) {
	cdp := CDP{ID: "#1#",
		Collaterals: map[string]decimal.Decimal{xrd: dec("10")},
		Loans:       map[string]decimal.Decimal{xusdc: dec("1")},
	}

	_, err := cdp.Exposure(testDef, UnitRatios{xrd: dec("1")}, refPrices{xrd: dec("1")})
	assert.Equal(t, apperror.CodeProtocolUnavailable, apperror.GetCode(err), "missing loan ratio")

	_, err = cdp.Exposure(testDef, UnitRatios{xrd: dec("1"), xusdc: dec("1")}, refPrices{xrd: dec("1")})
	assert.Equal(t, apperror.CodePriceMissing, apperror.GetCode(err), "missing borrowed price")
}

func TestParseCDP_Malformed(t *testing.T) {
	rec := ledgerDomain.NonFungibleRecord{ID: "#1#", Data: ledgerDomain.ProgrammaticValue{Kind: "Tuple"}}
	_, err := ParseCDP(rec)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeMalformedNFTData, apperror.GetCode(err))
}

const openManifest = `CALL_METHOD Address("component_rdx1royalty") "charge_strategy_royalty";
CALL_METHOD Address("account_rdx1strategyowner") "withdraw";
CALL_METHOD Address("component_rdx1lending") "contribute";
CALL_METHOD Address("component_rdx1lending") "create_cdp";
CALL_METHOD Address("component_rdx1lending") "borrow";
CALL_METHOD Address("component_rdx1wrapper") "wrap";
CALL_METHOD Address("component_rdx1lppool") "add_liquidity";`

func isOpen(m string) bool {
	return strings.Contains(m, "create_cdp") && strings.Contains(m, "add_liquidity")
}

func openTx(hash, cdpID string) ledgerDomain.EnhancedTransaction {
	return ledgerDomain.EnhancedTransaction{
		Tag: ledgerDomain.TagStrategy,
		RawTransaction: ledgerDomain.RawTransaction{
			IntentHash: hash,
			Manifest:   openManifest,
			FungibleChanges: []ledgerDomain.FungibleChange{
				{EntityAddress: account, ResourceAddress: xrd, Amount: dec("-1000")},
				{EntityAddress: account, ResourceAddress: testDef.LPResource, Amount: dec("12.5")},
			},
			NonFungibleChanges: []ledgerDomain.NonFungibleChange{
				{EntityAddress: account, ResourceAddress: testDef.CDPResource, Added: []string{cdpID}},
			},
		},
	}
}

func closeTx(hash, cdpID string) ledgerDomain.EnhancedTransaction {
	m, err := CloseOutManifest(account, testDef, cdpID, dec("12.5"), dec("1000"))
	if err != nil {
		panic(err)
	}
	return ledgerDomain.EnhancedTransaction{
		Tag:            ledgerDomain.TagStrategy,
		RawTransaction: ledgerDomain.RawTransaction{IntentHash: hash, Manifest: m.String()},
	}
}

func TestTrack(t *testing.T) {
	history := []ledgerDomain.EnhancedTransaction{
		openTx("txid_open_1", "#1#"),
		openTx("txid_open_2", "#2#"),
		closeTx("txid_close_1", "#1#"),
	}

	positions := Track(account, xrd, history, []Definition{testDef}, isOpen)
	require.Len(t, positions, 2)

	closed := positions[0]
	assert.Equal(t, "#1#", closed.CDPID)
	assert.Equal(t, StateClosed, closed.State)
	assert.Equal(t, "txid_close_1", closed.ClosedTx)
	assert.True(t, closed.InvestedRef.IsZero())
	assert.False(t, closed.Active())

	open := positions[1]
	assert.Equal(t, "#2#", open.CDPID)
	assert.Equal(t, StateOpen, open.State)
	assert.True(t, open.InvestedRef.Equal(dec("1000")))
	assert.True(t, open.LPAmount.Equal(dec("12.5")))
	assert.Equal(t, testDef.Name, open.Strategy)
}

func TestTrack_CloseBeforeOpenDoesNotCount(t *testing.T) {
	history := []ledgerDomain.EnhancedTransaction{
		closeTx("txid_close_1", "#1#"),
		openTx("txid_open_1", "#1#"),
	}

	positions := Track(account, xrd, history, []Definition{testDef}, isOpen)
	require.Len(t, positions, 1)
	assert.Equal(t, StateOpen, positions[0].State)
}

func TestTrack_IgnoresOtherStrategies(t *testing.T) {
	other := testDef
	other.Name = "other"
	other.LPResource = "resource_rdx1otherlp"

	positions := Track(account, xrd, []ledgerDomain.EnhancedTransaction{openTx("txid_open_1", "#1#")}, []Definition{other}, isOpen)
	assert.Empty(t, positions)
}

func TestCloseOutManifest(t *testing.T) {
	m, err := CloseOutManifest(account, testDef, "#42#", dec("12.5"), dec("2999.99"))
	require.NoError(t, err)
	text := m.String()

	assert.True(t, ledgerDomain.IsStrategyClose(text))

	last := -1
	for _, method := range ledgerDomain.StrategyCloseMethods {
		idx := strings.Index(text, `"`+method+`"`)
		require.GreaterOrEqual(t, idx, 0, method)
		assert.Greater(t, idx, last, "%s out of order", method)
		last = idx
	}

	assert.Contains(t, text, `NonFungibleLocalId("#42#")`)
	assert.Contains(t, text, `Decimal("12.5")`)
	assert.Contains(t, text, `Decimal("2999.99")`)
	assert.Equal(t, 2, strings.Count(text, "POP_FROM_AUTH_ZONE"))
}

func TestRemovalPreviewManifest(t *testing.T) {
	m, err := RemovalPreviewManifest(account, testDef, dec("12.5"))
	require.NoError(t, err)
	text := m.String()

	assert.Contains(t, text, `"remove_liquidity"`)
	assert.Contains(t, text, `"swap"`)
	assert.NotContains(t, text, `"repay"`)
	assert.False(t, ledgerDomain.IsStrategyClose(text))
}

func TestCloseOutManifest_RejectsBadID(t *testing.T) {
	_, err := CloseOutManifest(account, testDef, "42", dec("1"), dec("1"))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeManifestInvalid, apperror.GetCode(err))
}
