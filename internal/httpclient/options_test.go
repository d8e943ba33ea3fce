package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestUpstream_Merge(t *testing.T) {
	tests := []struct {
		name     string
		in       Upstream
		defaults Upstream
		want     Upstream
	}{
		{
			name:     "zero fields take the gateway profile",
			in:       Upstream{BaseURL: "https://stokenet.example"},
			defaults: GatewayProfile,
			want: Upstream{
				Name:              "gateway",
				BaseURL:           "https://stokenet.example",
				Timeout:           15 * time.Second,
				RequestsPerMinute: 600,
				Trace:             []TraceOption{TraceRequest},
			},
		},
		{
			name: "explicit fields win",
			in: Upstream{
				Name:              "ociswap",
				BaseURL:           "https://ociswap.example",
				Timeout:           3 * time.Second,
				RequestsPerMinute: 60,
				Trace:             []TraceOption{TraceRequest, TraceResponse},
			},
			defaults: ProtocolProfile,
			want: Upstream{
				Name:              "ociswap",
				BaseURL:           "https://ociswap.example",
				Timeout:           3 * time.Second,
				RequestsPerMinute: 60,
				Trace:             []TraceOption{TraceRequest, TraceResponse},
			},
		},
		{
			name:     "negative timeout and rate fall back",
			in:       Upstream{Name: "lending", Timeout: -1, RequestsPerMinute: -5},
			defaults: ProtocolProfile,
			want: Upstream{
				Name:              "lending",
				Timeout:           10 * time.Second,
				RequestsPerMinute: 300,
				Trace:             []TraceOption{TraceResponse},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Merge(tt.defaults)
			if got.Name != tt.want.Name || got.BaseURL != tt.want.BaseURL ||
				got.Timeout != tt.want.Timeout || got.RequestsPerMinute != tt.want.RequestsPerMinute {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
			if len(got.Trace) != len(tt.want.Trace) {
				t.Fatalf("Trace = %v, want %v", got.Trace, tt.want.Trace)
			}
			for i := range got.Trace {
				if got.Trace[i] != tt.want.Trace[i] {
					t.Errorf("Trace[%d] = %v, want %v", i, got.Trace[i], tt.want.Trace[i])
				}
			}
		})
	}
}

func TestWithUpstream_AppliesProfile(t *testing.T) {
	tracer := otel.Tracer("test")
	o := NewClientOptions(WithUpstream(Upstream{
		Name:    "defiplaza",
		BaseURL: "https://defiplaza.example",
	}.Merge(ProtocolProfile), tracer))

	if o.providerName != "defiplaza" || o.baseURL != "https://defiplaza.example" {
		t.Errorf("provider/baseURL = %q/%q", o.providerName, o.baseURL)
	}
	if o.requestTimeout == nil || *o.requestTimeout != 10*time.Second {
		t.Errorf("requestTimeout = %v", o.requestTimeout)
	}
	if o.limiter == nil {
		t.Error("expected a rate limiter")
	}
	if o.logRequest || !o.logResponse {
		t.Errorf("logRequest=%v logResponse=%v", o.logRequest, o.logResponse)
	}
}

func TestStatusErrors(t *testing.T) {
	handler := StatusErrors("lending")

	if err := handler(http.StatusOK, []byte("ok")); err != nil {
		t.Errorf("200: err = %v", err)
	}
	if err := handler(http.StatusNotModified, nil); err != nil {
		t.Errorf("304: err = %v", err)
	}

	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		err := handler(tt.status, []byte("nope"))
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("%d: err = %v, want *StatusError", tt.status, err)
		}
		if se.Upstream != "lending" || se.StatusCode != tt.status || se.Body != "nope" {
			t.Errorf("%d: StatusError = %+v", tt.status, se)
		}
		if se.Temporary() != tt.temporary {
			t.Errorf("%d: Temporary() = %v, want %v", tt.status, se.Temporary(), tt.temporary)
		}
	}
}

func TestStatusErrors_TruncatesBody(t *testing.T) {
	err := StatusErrors("ociswap")(http.StatusInternalServerError, []byte(strings.Repeat("x", 1000)))

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if len(se.Body) != maxErrorBody {
		t.Errorf("len(Body) = %d, want %d", len(se.Body), maxErrorBody)
	}
}

func TestRequest_StatusErrorsThroughClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pools" {
			t.Errorf("path = %s", r.URL.Path)
		}
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewInstrumentedClient(WithUpstream(Upstream{
		Name:    "lending",
		BaseURL: server.URL,
	}.Merge(ProtocolProfile), otel.Tracer("test")))
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	_, err = client.NewRequestWithOptions(
		WithEndpoint("pools"),
		WithResponseErrorHandler(StatusErrors("lending")),
	).Get(context.Background(), "/pools")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable || !strings.Contains(se.Body, "maintenance") {
		t.Errorf("StatusError = %+v", se)
	}
}
