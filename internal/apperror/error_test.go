package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeRequiredField, http.StatusBadRequest},
		{CodeInvalidTick, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeStrategyNotFound, http.StatusNotFound},
		{CodeLedgerUnavailable, http.StatusBadGateway},
		{CodePriceTableUnavailable, http.StatusServiceUnavailable},
		{CodeCircuitOpen, http.StatusServiceUnavailable},
		{CodeManifestInvalid, http.StatusUnprocessableEntity},
		{CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := New(tt.code)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, messages[tt.code], e.Message)
		})
	}
}

func TestWrapAndChain(t *testing.T) {
	cause := errors.New("connection reset")
	e := External(CodeProtocolUnavailable, "ociswap", cause)
	wrapped := fmt.Errorf("resolve: %w", e)

	assert.Equal(t, CodeProtocolUnavailable, GetCode(wrapped))
	assert.Equal(t, http.StatusBadGateway, StatusCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, New(CodeProtocolUnavailable))
	assert.Same(t, e, Wrap(wrapped, CodeInternalError, "ignored"))

	plain := Wrap(cause, CodeInternalError, "/v1/portfolio")
	assert.Equal(t, CodeInternalError, plain.Code)
	assert.Equal(t, "/v1/portfolio", plain.Context)
	assert.Nil(t, Wrap(nil, CodeInternalError, ""))

	assert.Equal(t, CodeUnknownError, GetCode(cause))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(cause))
}

func TestResponseAndLogAttrs(t *testing.T) {
	e := Validation(CodeRequiredField, "account").WithTraceID("req-1")
	e.cause = errors.New("secret detail")

	body := e.ToResponse().Error
	assert.Equal(t, CodeRequiredField, body.Code)
	assert.Equal(t, "account", body.Context)
	assert.Equal(t, "req-1", body.TraceID)
	assert.NotContains(t, e.Error(), "secret detail")

	attrs := e.LogAttrs()
	require.GreaterOrEqual(t, len(attrs), 8)
	assert.Equal(t, []any{"code", "REQUIRED_FIELD", "status", 400, "context", "account", "cause", "secret detail"}, attrs[:8])
}
