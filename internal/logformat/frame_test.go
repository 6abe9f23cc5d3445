package logformat_test

import (
	"testing"

	"github.com/loglytics/ingestd/internal/logformat"
)

func TestFrame_NDJSON(t *testing.T) {
	body := []byte(`{"a":1}` + "\n" + `{"b":2}`)

	lines, err := logformat.Frame(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestFrame_SingleObject(t *testing.T) {
	body := []byte(`{"a":1}`)

	lines, err := logformat.Frame(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 1 {
		t.Fatalf("expected a single-element batch, got %d", len(lines))
	}
}

func TestFrame_JSONArray(t *testing.T) {
	body := []byte(`[{"a":1},{"b":2},{"c":3}]`)

	lines, err := logformat.Frame(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(lines))
	}
}

func TestFrame_RawTextFallsBackToLines(t *testing.T) {
	body := []byte("<34>1 2024-01-01T00:00:00Z host app: first\n<34>1 2024-01-01T00:00:01Z host app: second")

	lines, err := logformat.Frame(body)
	if err != nil {
		t.Fatalf("unexpected error for raw text body: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 raw lines, got %d", len(lines))
	}
}

func TestFrame_SkipsBlankLines(t *testing.T) {
	body := []byte("line one\n\n\nline two\n")

	lines, err := logformat.Frame(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected blank lines skipped, got %d lines: %v", len(lines), lines)
	}
}

func TestFrame_EmptyBodyYieldsNoLines(t *testing.T) {
	lines, err := logformat.Frame([]byte("   \n  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 0 {
		t.Fatalf("expected no lines for an all-whitespace body, got %d", len(lines))
	}
}
