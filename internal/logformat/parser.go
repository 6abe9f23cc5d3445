package logformat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/loglytics/ingestd/internal/models"
)

const maxLineBytes = models.MaxLineBytes

// TruncateLine enforces the 1 MiB per-line limit from spec.md §4.2,
// returning the (possibly truncated) line and whether truncation occurred.
func TruncateLine(line string) (string, bool) {
	if len(line) <= maxLineBytes {
		return line, false
	}

	return line[:maxLineBytes], true
}

// Parse dispatches to the parser for format f and produces C2's structured
// per-line output. Parsers never interpret timestamps to UTC — raw_timestamp
// is carried through verbatim for C3 to resolve.
func Parse(f Format, line string) (models.ParsedLine, error) {
	line = strings.TrimRight(line, "\r\n")

	switch f {
	case FormatJSONLines:
		return parseJSON(line)
	case FormatSyslog:
		return parseSyslog(line)
	case FormatApacheCombined:
		return parseApacheAccess(reApacheCombined, line, true)
	case FormatApacheCommon:
		return parseApacheAccess(reApacheCommon, line, false)
	case FormatApacheError:
		return parseApacheError(line)
	case FormatNginxAccess:
		return parseApacheAccess(reNginxAccess, line, true)
	case FormatNginxError:
		return parseNginxError(line)
	case FormatDocker:
		return parseISOPrefixed(line, "docker")
	case FormatKubernetes:
		return parseISOPrefixed(line, "kubernetes")
	case FormatCloudAWS:
		return parseISOPrefixed(line, "cloud-aws")
	case FormatCloudAzure:
		return parseISOPrefixed(line, "cloud-azure")
	case FormatCloudGCP:
		return parseISOPrefixed(line, "cloud-gcp")
	case FormatWindowsEvent:
		return parseWindowsEvent(line)
	default:
		return parseGeneric(line)
	}
}

func parseJSON(line string) (models.ParsedLine, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return models.ParsedLine{}, fmt.Errorf("json-lines: %w", err)
	}

	pl := models.ParsedLine{Metadata: map[string]any{}}

	for k, v := range obj {
		switch k {
		case "timestamp", "time", "@timestamp":
			if s, ok := v.(string); ok && pl.RawTimestamp == "" {
				pl.RawTimestamp = s
			}
		case "level", "severity", "loglevel", "log_level":
			if s, ok := v.(string); ok && pl.RawLevel == "" {
				pl.RawLevel = s
			}
		case "message", "msg", "text", "content", "body", "description":
			if s, ok := v.(string); ok && pl.Message == "" {
				pl.Message = s
			}
		case "source", "logger", "component", "module", "class", "file", "function":
			if s, ok := v.(string); ok && pl.Source == "" {
				pl.Source = s
			}
		case "service", "app", "application", "microservice", "container", "pod", "namespace":
			if s, ok := v.(string); ok && pl.Service == "" {
				pl.Service = s
			}
		default:
			pl.Metadata[k] = v
		}
	}

	if pl.Message == "" {
		pl.Message = line
	}

	pl.Metadata["original_format"] = string(FormatJSONLines)

	return pl, nil
}

func parseSyslog(line string) (models.ParsedLine, error) {
	m := reSyslog5424.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedLine{}, fmt.Errorf("syslog: line does not match RFC5424 shape")
	}

	return models.ParsedLine{
		RawTimestamp: m[2],
		Message:      m[4],
		Source:       m[3],
		Metadata: map[string]any{
			"syslog_priority":  m[1],
			"original_format":  string(FormatSyslog),
		},
	}, nil
}

func parseApacheAccess(re *regexp.Regexp, line string, combined bool) (models.ParsedLine, error) {
	m := re.FindStringSubmatch(line)
	if m == nil || len(m) < 5 {
		return models.ParsedLine{}, fmt.Errorf("access log: line does not match")
	}

	meta := map[string]any{
		"client_ip":       m[1],
		"request_line":    m[3],
		"status_code":     m[4],
		"bytes_sent":      m[5],
		"original_format": string(FormatApacheCommon),
	}

	if combined && len(m) >= 8 {
		meta["referer"] = m[6]
		meta["user_agent"] = m[7]
	}

	return models.ParsedLine{
		RawTimestamp: m[2],
		Message:      m[3],
		Metadata:     meta,
	}, nil
}

func parseApacheError(line string) (models.ParsedLine, error) {
	m := reApacheError.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedLine{}, fmt.Errorf("apache-error: line does not match")
	}

	return models.ParsedLine{
		RawTimestamp: m[1],
		RawLevel:     m[2],
		Message:      m[4],
		Source:       m[3],
		Metadata: map[string]any{
			"original_format": string(FormatApacheError),
		},
	}, nil
}

func parseNginxError(line string) (models.ParsedLine, error) {
	m := reNginxError.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedLine{}, fmt.Errorf("nginx-error: line does not match")
	}

	return models.ParsedLine{
		RawTimestamp: m[1],
		RawLevel:     m[2],
		Message:      m[5],
		Metadata: map[string]any{
			"pid":             m[3],
			"tid":             m[4],
			"original_format": string(FormatNginxError),
		},
	}, nil
}

func parseISOPrefixed(line, formatName string) (models.ParsedLine, error) {
	if m := reISOPrefixed.FindStringSubmatch(line); m != nil {
		return models.ParsedLine{
			RawTimestamp: m[1],
			Source:       m[2],
			Service:      m[3],
			Message:      m[4],
			Metadata:     map[string]any{"original_format": formatName},
		}, nil
	}

	if m := reISOPrefixed3.FindStringSubmatch(line); m != nil {
		return models.ParsedLine{
			RawTimestamp: m[1],
			Source:       m[2],
			Message:      m[3],
			Metadata:     map[string]any{"original_format": formatName},
		}, nil
	}

	return models.ParsedLine{}, fmt.Errorf("%s: line does not match", formatName)
}

func parseWindowsEvent(line string) (models.ParsedLine, error) {
	m := reWindowsEvent.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedLine{}, fmt.Errorf("windows-event: line does not match")
	}

	return models.ParsedLine{
		RawTimestamp: m[1],
		RawLevel:     m[3],
		Source:       m[2],
		Message:      m[4],
		Metadata: map[string]any{
			"original_format": string(FormatWindowsEvent),
		},
	}, nil
}

func parseGeneric(line string) (models.ParsedLine, error) {
	m := reGeneric.FindStringSubmatch(line)
	if m == nil {
		return models.ParsedLine{
			Message:  line,
			Metadata: map[string]any{"original_format": string(FormatGenericTimestamp)},
		}, nil
	}

	return models.ParsedLine{
		RawTimestamp: m[1],
		RawLevel:     m[2],
		Message:      m[3],
		Metadata:     map[string]any{"original_format": string(FormatGenericTimestamp)},
	}, nil
}
