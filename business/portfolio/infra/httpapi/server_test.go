package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liquidityApp "github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
	strategyDomain "github.com/fd1az/lp-portfolio/business/strategy/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

type mockPortfolio struct {
	reportFunc func(ctx context.Context, account string) (domain.Report, error)
	closeFunc  func(ctx context.Context, account string) ([]strategyDomain.Position, error)
	planFunc   func(ctx context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error)
}

func (m *mockPortfolio) Report(ctx context.Context, account string) (domain.Report, error) {
	return m.reportFunc(ctx, account)
}

func (m *mockPortfolio) CloseOuts(ctx context.Context, account string) ([]strategyDomain.Position, error) {
	return m.closeFunc(ctx, account)
}

func (m *mockPortfolio) PlanPrecisionAdd(ctx context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error) {
	return m.planFunc(ctx, req)
}

func newTestServer(m *mockPortfolio) http.Handler {
	return NewServer(Config{Addr: ":0"}, m, logger.New(io.Discard, logger.LevelError, "test", nil)).Handler()
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		TraceID string `json:"traceId"`
	} `json:"error"`
}

func TestHandleReport(t *testing.T) {
	var gotAccount string
	h := newTestServer(&mockPortfolio{reportFunc: func(_ context.Context, account string) (domain.Report, error) {
		gotAccount = account
		item := domain.NewItem(domain.KindLP, "XRD/xUSDC", domain.Pair{LeftAlias: "XRD", RightAlias: "xUSDC"},
			decimal.NewFromInt(40), decimal.NewFromInt(45))
		return domain.Report{Account: account, Items: []domain.Item{item}}, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/v1/portfolio/account_rdx1abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "account_rdx1abc", gotAccount)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
	assert.NoError(t, err)

	var body struct {
		Items []struct {
			Name          string `json:"name"`
			PnLPercentage string `json:"pnlPercentage"`
			LeftAlias     string `json:"leftAlias"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "12.50", body.Items[0].PnLPercentage)
	assert.Equal(t, "XRD", body.Items[0].LeftAlias)
}

func TestHandleReport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperror.Validation(apperror.CodeRequiredField, "account"), http.StatusBadRequest, "REQUIRED_FIELD"},
		{"upstream", apperror.External(apperror.CodeLedgerUnavailable, "gateway", errors.New("boom")), http.StatusBadGateway, "LEDGER_UNAVAILABLE"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&mockPortfolio{reportFunc: func(context.Context, string) (domain.Report, error) {
				return domain.Report{}, tt.err
			}})

			reqID := uuid.NewString()
			req := httptest.NewRequest(http.MethodGet, "/v1/portfolio/account_rdx1abc", nil)
			req.Header.Set(HeaderRequestID, reqID)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, reqID, body.Error.TraceID)
		})
	}
}

func TestHandleCloseOuts(t *testing.T) {
	h := newTestServer(&mockPortfolio{closeFunc: func(context.Context, string) ([]strategyDomain.Position, error) {
		return []strategyDomain.Position{{Strategy: "lsu-lev", CDPID: "#1#", CloseOut: "CALL_METHOD;", Current: decimal.NewFromInt(39)}}, nil
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/strategies/account_rdx1abc/closeout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Positions []closeOut `json:"positions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Positions, 1)
	assert.Equal(t, "#1#", body.Positions[0].CDPID)
	assert.Equal(t, "CALL_METHOD;", body.Positions[0].Manifest)
	assert.Equal(t, "39", body.Positions[0].Current)
}

func TestHandlePrecisionAdd(t *testing.T) {
	var got liquidityApp.AddRequest
	h := newTestServer(&mockPortfolio{planFunc: func(_ context.Context, req liquidityApp.AddRequest) (liquidityApp.AddPlan, error) {
		got = req
		return liquidityApp.AddPlan{Pool: req.Pool, LeftBound: -1060, RightBound: 950}, nil
	}})

	payload := `{"account":"account_rdx1abc","pool":"component_rdx1pool","xAmount":"10","yAmount":"5","lowerPrice":"0.9","upperPrice":"1.1"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/manifests/precision/add", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "component_rdx1pool", got.Pool)
	assert.True(t, got.UpperPrice.Equal(decimal.RequireFromString("1.1")))
	assert.Contains(t, rec.Body.String(), "-1060")
}

func TestHandlePrecisionAdd_BadBody(t *testing.T) {
	h := newTestServer(&mockPortfolio{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/manifests/precision/add", strings.NewReader(`{"nope":1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownMethod(t *testing.T) {
	h := newTestServer(&mockPortfolio{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/portfolio/account_rdx1abc", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
