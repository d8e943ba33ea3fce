package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLogger_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "lp-portfolio", func(context.Context) string { return "abc123" })

	log.Info(context.Background(), "portfolio assembled", "account", "account_rdx1", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal record: %v (raw %q)", err, buf.String())
	}

	checks := map[string]any{
		"msg":      "portfolio assembled",
		"service":  "lp-portfolio",
		"account":  "account_rdx1",
		"trace_id": "abc123",
		"level":    "INFO",
	}
	for k, want := range checks {
		if rec[k] != want {
			t.Errorf("%s = %v, want %v", k, rec[k], want)
		}
	}
	if rec["rows"] != float64(3) {
		t.Errorf("rows = %v, want 3", rec["rows"])
	}
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "svc", nil)

	log.Info(context.Background(), "dropped")
	log.Debug(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	log.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn record")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
