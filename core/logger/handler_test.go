package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return slog.New(h), func() string {
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "session"), slog.LevelInfo, "warehouse.chosen",
		slog.String("status", "OK"),
		slog.Int("warehouse_id", 507),
	)

	line := read()
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=session", "event=warehouse.chosen", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "warehouse_id=507") {
		t.Fatalf("missing warehouse_id in %s", line)
	}
}

func TestStructuredHandlerJSONCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	raw := BuildRID(12, 34, 56)
	ctx := WithHandler(WithRID(context.Background(), raw), "callback.whid")

	LogEvent(ctx, log.With("component", "wb"), slog.LevelError, "coefficients.fail",
		slog.String("status", "fail"),
		slog.Int("http_code", 502),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"wb"`, `"event":"coefficients.fail"`, `"status":"fail"`, `"rid":"` + CompactRID(raw) + `"`, `"rid_full":"12:34:56"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"handler":"callback.whid"`) {
		t.Fatalf("handler missing in %s", line)
	}
}

func TestStructuredHandlerDurationsAndEmpty(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Info("sweep",
		slog.Duration("duration", 1499*time.Microsecond),
		slog.Duration("backoff", 2*time.Second),
		slog.String("empty", "  "),
		slog.String("outcome", "weird"),
	)
	line := read()
	for _, want := range []string{"event=sweep", "component=app", "duration_ms=1", "backoff_ms=2000"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	for _, unwanted := range []string{"empty=", "outcome="} {
		if strings.Contains(line, unwanted) {
			t.Fatalf("did not expect %q in %s", unwanted, line)
		}
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:10"); got != "z.10.a" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID changed foreign value: %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := &ratioSampler{}
	s.Set(1, 3)
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
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00c\u200bdef", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
