package logformat_test

import (
	"testing"

	"github.com/loglytics/ingestd/internal/logformat"
)

func TestDetect_JSONLines(t *testing.T) {
	lines := []string{
		`{"timestamp":"2024-01-01T00:00:00Z","message":"hello"}`,
		`{"timestamp":"2024-01-01T00:00:01Z","message":"world"}`,
	}

	result := logformat.Detect(lines)

	if result.Format != logformat.FormatJSONLines {
		t.Fatalf("expected json-lines, got %s (confidence %.2f)", result.Format, result.Confidence)
	}

	if result.Confidence < 0.6 {
		t.Fatalf("expected confidence >= 0.6, got %.2f", result.Confidence)
	}
}

func TestDetect_ApacheCombined(t *testing.T) {
	lines := []string{
		`127.0.0.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326 "-" "curl/7.68.0"`,
		`127.0.0.1 - - [10/Oct/2023:13:55:37 +0000] "GET /favicon.ico HTTP/1.1" 404 209 "-" "curl/7.68.0"`,
	}

	result := logformat.Detect(lines)

	if result.Format != logformat.FormatApacheCombined {
		t.Fatalf("expected apache-access-combined, got %s", result.Format)
	}
}

func TestDetect_FallsBackToGeneric(t *testing.T) {
	lines := []string{"this is not structured at all", "neither is this one"}

	result := logformat.Detect(lines)

	if result.Format != logformat.FormatGenericTimestamp {
		t.Fatalf("expected generic-timestamped fallback, got %s", result.Format)
	}
}

func TestDetect_EmptyInput(t *testing.T) {
	result := logformat.Detect(nil)

	if result.Format != logformat.FormatGenericTimestamp {
		t.Fatalf("expected generic-timestamped for empty input, got %s", result.Format)
	}

	if result.Total != 0 {
		t.Fatalf("expected total=0, got %d", result.Total)
	}
}

func TestDetect_SkipsEmptyLines(t *testing.T) {
	lines := []string{"", `{"message":"hello","timestamp":"2024-01-01T00:00:00Z"}`, "  "}

	result := logformat.Detect(lines)

	if result.Format != logformat.FormatJSONLines {
		t.Fatalf("expected json-lines despite blank lines, got %s", result.Format)
	}
}

func TestParse_JSONLines(t *testing.T) {
	pl, err := logformat.Parse(logformat.FormatJSONLines, `{"message":"hi","level":"warn","service":"api"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pl.Message != "hi" || pl.RawLevel != "warn" || pl.Service != "api" {
		t.Fatalf("unexpected parsed line: %+v", pl)
	}
}

func TestParse_InvalidJSONReturnsError(t *testing.T) {
	if _, err := logformat.Parse(logformat.FormatJSONLines, `not json`); err == nil {
		t.Fatal("expected an error for malformed json-lines input")
	}
}

func TestTruncateLine(t *testing.T) {
	short := "hello"
	if out, truncated := logformat.TruncateLine(short); truncated || out != short {
		t.Fatalf("expected no truncation for short line, got %q truncated=%v", out, truncated)
	}
}
