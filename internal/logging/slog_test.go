package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newJSONLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSlogLogger_LevelsAndAttrs(t *testing.T) {
	log, buf := newJSONLogger()
	ctx := context.Background()

	log.Debug(ctx, "dbg", "note_id", "n-1")
	log.Info(ctx, "inf", "alias", "alice")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err", "error", "boom")

	lines := decodeLines(t, buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 records, got %d", len(lines))
	}
	for i, want := range []struct{ level, msg string }{
		{"DEBUG", "dbg"}, {"INFO", "inf"}, {"WARN", "wrn"}, {"ERROR", "err"},
	} {
		if lines[i]["level"] != want.level || lines[i]["msg"] != want.msg {
			t.Fatalf("record %d: got %v", i, lines[i])
		}
	}
	if lines[1]["alias"] != "alice" {
		t.Fatalf("attribute lost: %v", lines[1])
	}
	if lines[3]["error"] != "boom" {
		t.Fatalf("attribute lost: %v", lines[3])
	}
}

func TestSlogLogger_With_StampsEveryRecord(t *testing.T) {
	log, buf := newJSONLogger()
	ctx := context.Background()

	child := log.With("module", "http_server")
	child.Info(ctx, "first")
	child.Warn(ctx, "second")

	for _, rec := range decodeLines(t, buf) {
		if rec["module"] != "http_server" {
			t.Fatalf("missing stamped attribute: %v", rec)
		}
	}
}

func TestSlogLogger_With_DoesNotMutateParent(t *testing.T) {
	log, buf := newJSONLogger()
	ctx := context.Background()

	_ = log.With("module", "child")
	log.Info(ctx, "from parent")

	rec := decodeLines(t, buf)[0]
	if _, ok := rec["module"]; ok {
		t.Fatalf("parent logger picked up child attribute: %v", rec)
	}
}
