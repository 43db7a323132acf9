package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestDefaultLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)
	logger.SetLevel(WarnLevel)

	scoped := logger.WithFields(Fields{"component": "segmenter"})
	scoped.Info("dropped")
	scoped.Warn("window substituted", Fields{"window": 3, "descriptor": "bpm"})

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	want := "[WARN] window substituted component=segmenter descriptor=bpm window=3"
	if !strings.Contains(out, want) {
		t.Errorf("got %q, want it to contain %q", out, want)
	}
}

func TestWithContextPicksUpFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	ctx := ContextWithFields(context.Background(), Fields{"run_id": "abc"})
	ctx = ContextWithFields(ctx, Fields{"recording": "a.mp3"})
	logger.WithContext(ctx).Info("decoded")

	out := buf.String()
	if !strings.Contains(out, "recording=a.mp3") || !strings.Contains(out, "run_id=abc") {
		t.Errorf("context fields missing from %q", out)
	}
}

func TestLogrusLoggerEmitsJSONFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	logger := NewLogrusLogger(base)
	logger.SetLevel(DebugLevel)
	logger.WithFields(Fields{"component": "analyzer"}).Debug("file done", Fields{"windows": 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "file done" || entry["component"] != "analyzer" || entry["windows"] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["level"] != "debug" {
		t.Errorf("level = %v, want debug", entry["level"])
	}
}
