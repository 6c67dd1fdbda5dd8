package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggerInit(t *testing.T) {
	for _, format := range []string{"", "text", "json", "JSON"} {
		if err := Init(format); err != nil {
			t.Fatalf("failed to initialize %q logger: %v", format, err)
		}
		if Get() == nil {
			t.Fatal("logger is nil after initialization")
		}
	}
	if err := Init("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Sync(); err != nil {
		t.Errorf("failed to sync logger: %v", err)
	}
}

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "test message", String("k", "v"), Int("n", 3), Bool("force", true), Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"test message", "k=v", "n=3", "force=true", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "text"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}
	if err := SetLevelString("debug"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug not logged at debug level: %q", buf.String())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "json"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("importer").Info(context.Background(), "test message")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if rec["logger"] != "importer" {
		t.Errorf("logger = %v, want importer", rec["logger"])
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, "json"); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = WithBatchID(ctx, "batch-9")
	if BatchID(ctx) != "batch-9" {
		t.Fatalf("BatchID = %q", BatchID(ctx))
	}

	FromContext(ctx).Warn(ctx, "row failed")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if rec["request_id"] != "req-1" || rec["batch_id"] != "batch-9" {
		t.Errorf("context fields missing: %v", rec)
	}

	if FromContext(context.Background()) != Get() {
		t.Error("plain context should return the global logger")
	}
}
