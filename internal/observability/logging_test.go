package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithSetters(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithPublishID(ctx, "pub-1")
	ctx = WithOwner(ctx, "u1")

	lc := GetContext(ctx)
	if lc.RequestID != "req-1" || lc.PublishID != "pub-1" || lc.Owner != "u1" {
		t.Fatalf("unexpected log context: %+v", lc)
	}
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := WithPublishID(context.Background(), "pub-1")
	ctx = WithPublishID(ctx, "pub-2")
	if got := GetContext(ctx).PublishID; got != "pub-2" {
		t.Fatalf("expected pub-2, got %s", got)
	}
}

func TestContextIsolation(t *testing.T) {
	base := WithOwner(context.Background(), "u1")
	child := WithPublishID(base, "pub-1")
	if GetContext(base).PublishID != "" {
		t.Fatal("parent context was modified")
	}
	if GetContext(child).Owner != "u1" {
		t.Fatal("owner was lost in chaining")
	}
}

func TestEmptyContext(t *testing.T) {
	if attrs := Attrs(context.Background()); len(attrs) != 0 {
		t.Fatalf("expected no attrs, got %v", attrs)
	}
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestContextHandlerAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithPublishID(ctx, "pub-1")
	logger.InfoContext(ctx, "published", slog.String("path", "my-ext"))

	m := decode(t, buf.String())
	if m["request_id"] != "req-1" || m["publish_id"] != "pub-1" || m["path"] != "my-ext" {
		t.Fatalf("unexpected record: %v", m)
	}
	if _, ok := m["owner"]; ok {
		t.Fatal("empty owner must not be logged")
	}
}

func TestContextHandlerDoesNotRepeatKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	ctx := WithPublishID(WithOwner(context.Background(), "u1"), "pub-1")

	logger.With(slog.String("owner", "u1")).InfoContext(ctx, "a", slog.String("publish_id", "pub-1"))

	out := buf.String()
	if n := strings.Count(out, `"owner"`); n != 1 {
		t.Fatalf("owner logged %d times: %s", n, out)
	}
	if n := strings.Count(out, `"publish_id"`); n != 1 {
		t.Fatalf("publish_id logged %d times: %s", n, out)
	}
}

func TestContextHandlerWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("unexpected attrs: %s", buf.String())
	}
}

func TestNewContextHandlerIsIdempotent(t *testing.T) {
	h := NewContextHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if NewContextHandler(h) != h {
		t.Fatal("wrapping twice must return the same handler")
	}
}

func TestContextHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.New(h).InfoContext(WithOwner(context.Background(), "u1"), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record should be filtered: %s", buf.String())
	}
}
