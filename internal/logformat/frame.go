package logformat

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Frame implements C4 step 3's body framing: newline-delimited JSON first,
// then a single JSON value (object or array). A body matching neither is
// split into raw newline-delimited lines instead of being rejected, so
// non-JSON formats (syslog, apache/nginx, docker, kubernetes, ...) reach
// C2's detector as described in spec.md §4.2; only an empty body produces
// no lines. Invalid UTF-8 is lossily substituted before framing, per
// spec.md §4.4.
func Frame(body []byte) ([]string, error) {
	text := toValidUTF8(body)
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		return nil, nil
	}

	if lines, ok := asNDJSON(trimmed); ok {
		return lines, nil
	}

	var single any
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		switch v := single.(type) {
		case []any:
			lines := make([]string, 0, len(v))
			for _, elem := range v {
				if s, ok := elem.(string); ok {
					lines = append(lines, s)
					continue
				}

				b, err := json.Marshal(elem)
				if err != nil {
					return nil, fmt.Errorf("re-encoding array element: %w", err)
				}
				lines = append(lines, string(b))
			}
			return lines, nil
		case map[string]any:
			return []string{trimmed}, nil
		}
	}

	// Neither NDJSON-of-objects nor a single JSON value: treat the body as
	// raw newline-delimited text so non-JSON-wrapped formats (syslog,
	// apache/nginx access and error logs, bare docker/kubernetes lines)
	// reach C2's format detector directly instead of being rejected.
	rawLines := strings.Split(trimmed, "\n")
	lines := make([]string, 0, len(rawLines))

	for _, l := range rawLines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("body must be an object, array, newline-delimited JSON, or newline-delimited text")
	}

	return lines, nil
}

// asNDJSON reports whether trimmed parses line-by-line as independent JSON
// objects, returning the non-empty lines if so. A single-line payload that
// parses as one object is handled by the caller's single-value fallback
// instead, so this only succeeds for genuinely multi-line input.
func asNDJSON(trimmed string) ([]string, bool) {
	rawLines := strings.Split(trimmed, "\n")
	if len(rawLines) < 2 {
		return nil, false
	}

	lines := make([]string, 0, len(rawLines))

	for _, l := range rawLines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(l), &obj); err != nil {
			return nil, false
		}

		lines = append(lines, l)
	}

	return lines, len(lines) > 0
}

// toValidUTF8 substitutes invalid byte sequences with the Unicode
// replacement character rather than rejecting the payload outright.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}

	return sb.String()
}
