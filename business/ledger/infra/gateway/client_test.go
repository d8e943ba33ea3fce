package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/lp-portfolio/business/ledger/app"
	"github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const testAccount = "account_rdx12y4l35lh2543nff9pyyzvsh64ssu0dv6fq20gg8suslwmjvkylejgj"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL}, logger.New(io.Discard, logger.LevelError, "test", nil))
	require.NoError(t, err)
	return c
}

func decodeBody[T any](t *testing.T, r *http.Request) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r.Body).Decode(&v))
	return v
}

func TestStreamTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, streamEndpoint, r.URL.Path)

		req := decodeBody[streamRequest](t, r)
		assert.Equal(t, []string{testAccount}, req.AffectedGlobalEntitiesFilter)
		assert.Equal(t, "c1", req.Cursor)
		assert.True(t, req.OptIns.BalanceChanges)
		assert.True(t, req.OptIns.ManifestInstructions)
		assert.True(t, req.OptIns.AffectedGlobalEntities)

		io.WriteString(w, `{
		  "next_cursor": "c2",
		  "items": [
		    {
		      "transaction_status": "CommittedSuccess",
		      "state_version": 100,
		      "epoch": 7,
		      "round_timestamp": "2024-05-01T10:00:00Z",
		      "intent_hash": "txid_rdx1a",
		      "manifest_instructions": "CALL_METHOD Address(\"pool\") \"add_liquidity\";",
		      "affected_global_entities": ["pool"],
		      "balance_changes": {
		        "fungible_fee_balance_changes": [
		          {"type": "RoyaltyDistributed", "entity_address": "component_rdx1fees", "resource_address": "resource_rdx1xrd", "balance_change": "0.5"}
		        ],
		        "fungible_balance_changes": [
		          {"entity_address": "`+testAccount+`", "resource_address": "resource_rdx1usdc", "balance_change": "-100"}
		        ],
		        "non_fungible_balance_changes": [
		          {"entity_address": "`+testAccount+`", "resource_address": "resource_rdx1nft", "added": ["#1#"], "removed": []}
		        ]
		      }
		    },
		    {"transaction_status": "CommittedFailure", "state_version": 101}
		  ]
		}`)
	})

	page, err := c.StreamTransactions(context.Background(), app.StreamQuery{Account: testAccount, Cursor: "c1", PageSize: 100})
	require.NoError(t, err)

	assert.Equal(t, "c2", page.NextCursor)
	require.Len(t, page.Items, 1)

	tx := page.Items[0]
	assert.Equal(t, int64(100), tx.StateVersion)
	assert.Equal(t, "txid_rdx1a", tx.IntentHash)
	assert.True(t, tx.HasFeeEvent(domain.FeeTypeRoyaltyDistributed))
	assert.True(t, tx.FungibleChange(testAccount, "resource_rdx1usdc").Equal(decimal.NewFromInt(-100)))
	assert.Equal(t, []string{"#1#"}, tx.NonFungiblesAdded(testAccount, "resource_rdx1nft"))
}

func TestAccountBalances_FollowsResourcePages(t *testing.T) {
	var pageCalls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case detailsEndpoint:
			io.WriteString(w, `{
			  "ledger_state": {"state_version": 555},
			  "items": [{
			    "address": "`+testAccount+`",
			    "fungible_resources": {
			      "next_cursor": "f2",
			      "items": [{
			        "resource_address": "resource_rdx1lp",
			        "explicit_metadata": {"items": [{"key": "name", "value": {"typed": {"type": "String", "value": "Ociswap LP xUSDC/XRD"}}}]},
			        "vaults": {"items": [{"vault_address": "internal_vault_a", "amount": "12.5"}, {"vault_address": "internal_vault_b", "amount": "0.5"}]}
			      }]
			    },
			    "non_fungible_resources": {
			      "items": [{
			        "resource_address": "resource_rdx1pos",
			        "explicit_metadata": {"items": [{"key": "name", "value": {"typed": {"type": "String", "value": "Ociswap LP XRD/xUSDC"}}}]},
			        "vaults": {"items": [{"vault_address": "internal_vault_n", "total_count": 3, "next_cursor": "n2", "items": ["#1#", "#2#"]}]}
			      }]
			    }
			  }]
			}`)
		case fungiblesPageEndpoint:
			pageCalls++
			req := decodeBody[resourcePageRequest](t, r)
			assert.Equal(t, "f2", req.Cursor)
			require.NotNil(t, req.AtLedgerState)
			assert.Equal(t, int64(555), req.AtLedgerState.StateVersion)
			io.WriteString(w, `{"items": [{"resource_address": "resource_rdx1xrd", "vaults": {"items": [{"amount": "42"}]}}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	b, err := c.AccountBalances(context.Background(), testAccount)
	require.NoError(t, err)

	assert.Equal(t, 1, pageCalls)
	assert.Equal(t, int64(555), b.StateVersion)
	require.Len(t, b.Fungibles, 2)
	assert.Equal(t, "Ociswap LP xUSDC/XRD", b.Fungibles[0].Name())
	assert.True(t, b.Fungibles[0].Amount.Equal(decimal.NewFromInt(13)))
	assert.True(t, b.Fungibles[1].Amount.Equal(decimal.NewFromInt(42)))

	require.Len(t, b.NonFungibles, 1)
	nf := b.NonFungibles[0]
	assert.Equal(t, int64(3), nf.Count)
	require.Len(t, nf.Vaults, 1)
	assert.Equal(t, "n2", nf.Vaults[0].NextCursor)
	assert.Equal(t, []string{"#1#", "#2#"}, nf.Vaults[0].IDs)
}

func TestNonFungibleData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeBody[nonFungibleDataRequest](t, r)
		assert.Equal(t, []string{"#1#", "#2#"}, req.NonFungibleIDs)
		io.WriteString(w, `{"non_fungible_ids": [
		  {"non_fungible_id": "#1#", "is_burned": false, "data": {"programmatic_json": {"kind": "Tuple", "fields": [{"kind": "Decimal", "field_name": "liquidity", "value": "10"}]}}},
		  {"non_fungible_id": "#2#", "is_burned": true}
		]}`)
	})

	records, err := c.NonFungibleData(context.Background(), "resource_rdx1pos", []string{"#1#", "#2#"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	liq, err := records[0].Data.DecimalField("liquidity")
	require.NoError(t, err)
	assert.True(t, liq.Equal(decimal.NewFromInt(10)))
	assert.True(t, records[1].Burned)
}

func TestNonFungibleData_RejectsOversizedBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	ids := make([]string, app.MaxNonFungibleBatch+1)

	_, err := c.NonFungibleData(context.Background(), "resource_rdx1pos", ids)
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
}

func TestPreview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case statusEndpoint:
			io.WriteString(w, `{"ledger_state": {"network": "mainnet", "state_version": 9, "epoch": 1200}}`)
		case previewEndpoint:
			req := decodeBody[previewRequest](t, r)
			assert.Equal(t, int64(1200), req.StartEpochInclusive)
			assert.Equal(t, int64(1202), req.EndEpochExclusive)
			assert.True(t, req.Flags.UseFreeCredit)
			assert.True(t, req.Flags.AssumeAllSignatureProofs)
			assert.True(t, req.Flags.SkipEpochCheck)
			io.WriteString(w, `{
			  "receipt": {"status": "Succeeded"},
			  "resource_changes": [
			    {"index": 4, "resource_changes": [
			      {"resource_address": "resource_rdx1xrd", "component_entity": {"entity_address": "`+testAccount+`"}, "amount": "250.75"}
			    ]}
			  ]
			}`)
		}
	})

	res, err := c.Preview(context.Background(), "CALL_METHOD ...;")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.True(t, res.NetChange(testAccount, "resource_rdx1xrd").Equal(decimal.RequireFromString("250.75")))
}

func TestUpstreamErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"message": "upstream timeout", "code": 502}`)
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeLedgerUnavailable, apperror.GetCode(err))
	assert.ErrorContains(t, errors.Unwrap(err), "upstream timeout")
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	var err error
	for range 6 {
		_, err = c.Status(context.Background())
	}
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
	assert.Equal(t, 5, calls)
}
