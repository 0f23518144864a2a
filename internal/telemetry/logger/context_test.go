package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLoggerAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the stored logger")
	}
}

func TestFromContext_Empty(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext on empty context returned nil")
	}
}

func TestConnID(t *testing.T) {
	ctx := WithConnID(context.Background(), "conn-42")
	if got := ConnIDFromContext(ctx); got != "conn-42" {
		t.Errorf("ConnIDFromContext = %q, want %q", got, "conn-42")
	}
	if got := ConnIDFromContext(context.Background()); got != "" {
		t.Errorf("ConnIDFromContext on empty context = %q, want empty", got)
	}
}

func TestL_EnrichesWithConnID(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = WithConnID(ctx, "conn-7")

	L(ctx).Info("command handled", "cmd", "GET")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["conn_id"] != "conn-7" {
		t.Errorf("conn_id = %v, want %q", entry["conn_id"], "conn-7")
	}
}
