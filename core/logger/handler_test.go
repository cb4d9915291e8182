package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func captureLine(t *testing.T, format logFormat, emit func(log *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	emit(slog.New(handler))
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	ctx = WithState(ctx, "CART")

	line := captureLine(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "flow"), slog.LevelInfo, "flow.transition",
			slog.String("status", "OK"),
			slog.String("action", "show_cart"),
		)
	})

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=flow", "event=flow.transition", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	for _, want := range []string{"chat_id=9", "user_id=7", "update_id=42", "state=CART", "action=show_cart"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	line := captureLine(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "moltin"), slog.LevelError, "api.request",
			slog.String("status", "fail"),
			slog.Any("err", errors.New("boom")),
			slog.Duration("duration", 1500*time.Microsecond),
		)
	})

	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"moltin"`, `"event":"api.request"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	ctx := WithRID(context.Background(), rawRID)

	kv := captureLine(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(kv, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", kv)
	}
	if strings.Contains(kv, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", kv)
	}

	js := captureLine(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(js, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", js)
	}
	if !strings.Contains(js, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", js)
	}
	if !strings.Contains(js, `"component":"app"`) {
		t.Fatalf("expected default component, got %s", js)
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	line := captureLine(t, formatKV, func(log *slog.Logger) {
		log.Info("handler.handled", slog.String("outcome", "weird"), slog.String("payload", "a b"))
	})
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unexpected outcome in %s", line)
	}
	if !strings.Contains(line, `payload="a b"`) {
		t.Fatalf("expected quoted payload in %s", line)
	}
	if !strings.Contains(line, "event=handler.handled") {
		t.Fatalf("expected message as event in %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	cases := map[string]string{
		"35:36:1":  "z.10.1",
		"not-a-rid": "not-a-rid",
		"1:x:3":    "1:x:3",
	}
	for in, want := range cases {
		if got := CompactRID(in); got != want {
			t.Fatalf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}

	if num, den := parseRatioSpec("2/5"); num != 2 || den != 5 {
		t.Fatalf("parseRatioSpec(2/5) = %d/%d", num, den)
	}
	if num, den := parseRatioSpec("10"); num != 1 || den != 10 {
		t.Fatalf("parseRatioSpec(10) = %d/%d", num, den)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "upstream timeout" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "UPSTREAM_TIMEOUT" {
		t.Fatalf("ErrorCode(coded) = %q", got)
	}
	if got := ErrorCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("ErrorCode(plain) = %q", got)
	}
	if got := ErrorCode(nil); got != "" {
		t.Fatalf("ErrorCode(nil) = %q", got)
	}
}
