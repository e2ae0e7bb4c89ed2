package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  resume  ", Value: "  backend.txt  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "resume" || fields[0].String != "backend.txt" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("another log")
}

func TestWithEmbedder(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithEmbedder(zap.New(core), "gemini", "text-embedding-004").Info("embedded")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldEmbedderProvider] != "gemini" {
		t.Fatalf("unexpected provider field %v", ctx[FieldEmbedderProvider])
	}
	if ctx[FieldEmbedderModel] != "text-embedding-004" {
		t.Fatalf("unexpected model field %v", ctx[FieldEmbedderModel])
	}

	if fields := EmbedderFields("", ""); len(fields) != 0 {
		t.Fatalf("expected no fields for empty values, got %d", len(fields))
	}
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name  string
		json  bool
		debug bool
	}{
		{name: "console", json: false, debug: false},
		{name: "json debug", json: true, debug: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(tc.json, tc.debug)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := l.Core().Enabled(zapcore.DebugLevel); got != tc.debug {
				t.Fatalf("debug enabled = %v, want %v", got, tc.debug)
			}
		})
	}
}
