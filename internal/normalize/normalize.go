// Package normalize implements C3: mapping a parser's per-line output onto
// the canonical log schema every downstream component (storage, fan-out,
// analytics) relies on.
//
// Grounded on original_source/.../log_parser/normalizer.py: the same
// fallback field-name lists for timestamp/level/message/source/service,
// the same message-content extraction fallbacks, and the same
// format-specific metadata whitelist.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/loglytics/ingestd/internal/logformat"
	"github.com/loglytics/ingestd/internal/models"
)

// futureClampWindow is how far beyond "now" an event timestamp may sit
// before it is clamped to the ingest time and flagged, per spec.md §4.3.
const futureClampWindow = 24 * time.Hour

// Normalize maps a parsed line onto the canonical schema. line is the
// original framed unit (kept verbatim as LogRecord.Raw for audit/replay);
// ingestedAt is the batch's ingestion timestamp, used both as the fallback
// event time and as the future-clamp target.
func Normalize(pl models.ParsedLine, f logformat.Format, line string, ingestedAt time.Time) models.LogRecord {
	meta := normalizeMetadata(pl, f)

	eventTime, clamped := resolveTimestamp(pl, ingestedAt)
	if clamped {
		meta["timestamp_clamped"] = true
	}

	rec := models.LogRecord{
		EventTime: eventTime,
		Level:     resolveLevel(pl),
		Message:   resolveMessage(pl, line),
		Source:    resolveSource(pl),
		Service:   resolveService(pl),
		Metadata:  meta,
		Raw:       line,
	}

	truncateMessage(&rec)

	return rec
}

func truncateMessage(rec *models.LogRecord) {
	if len(rec.Message) <= models.MaxMessageBytes {
		return
	}

	cut := models.MaxMessageBytes - len(models.TruncationMarker)
	if cut < 0 {
		cut = 0
	}

	rec.Message = rec.Message[:cut] + models.TruncationMarker
	rec.Metadata["message_truncated"] = true
}

// resolveTimestamp prefers the parser's raw timestamp, then a timestamp
// extracted from the message text, then falls back to ingestedAt. A
// resolved time more than futureClampWindow ahead of ingestedAt is clamped
// back to ingestedAt rather than rejected.
func resolveTimestamp(pl models.ParsedLine, ingestedAt time.Time) (time.Time, bool) {
	t, ok := parseTimestamp(pl.RawTimestamp)
	if !ok {
		t, ok = extractTimestampFromMessage(pl.Message)
	}

	if !ok {
		return ingestedAt.UTC(), false
	}

	t = t.UTC()
	if t.After(ingestedAt.Add(futureClampWindow)) {
		return ingestedAt.UTC(), true
	}

	return t, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
	"02/Jan/2006:15:04:05",
	"01/02/2006 15:04:05",
	"02-01-2006 15:04:05",
	"2006/01/02 15:04:05",
}

var reSyslogClassic = regexp.MustCompile(`^([A-Za-z]{3})\s+(\d{1,2})\s+(\d{2}):(\d{2}):(\d{2})$`)

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	// Syslog's classic "Mon _2 15:04:05" carries no year; assume the
	// current year, matching the original normalizer's fallback.
	if m := reSyslogClassic.FindStringSubmatch(raw); m != nil {
		now := time.Now().UTC()
		if t, err := time.Parse("Jan 2 15:04:05 2006", raw+" "+strconv.Itoa(now.Year())); err == nil {
			if t.After(now.Add(futureClampWindow)) {
				t = t.AddDate(-1, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

var reMessageTimestamp = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)|(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})|(\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}:\d{2})|(\d{2}-\d{2}-\d{4}\s+\d{2}:\d{2}:\d{2})`,
)

func extractTimestampFromMessage(message string) (time.Time, bool) {
	m := reMessageTimestamp.FindString(message)
	if m == "" {
		return time.Time{}, false
	}

	return parseTimestamp(m)
}

// levelMapping is the fixed table from spec.md §4.3: syslog numeric codes,
// syslog names, common words, and vendor variants, all compared
// case-insensitively.
var levelMapping = map[string]models.Level{
	"trace":         models.LevelTrace,
	"debug":         models.LevelDebug,
	"verbose":       models.LevelDebug,
	"info":          models.LevelInfo,
	"information":   models.LevelInfo,
	"informational": models.LevelInfo,
	"notice":        models.LevelNotice,
	"warn":          models.LevelWarn,
	"warning":       models.LevelWarn,
	"caution":       models.LevelWarn,
	"error":         models.LevelError,
	"severe":        models.LevelCritical,
	"critical":      models.LevelCritical,
	"crit":          models.LevelCritical,
	"alert":         models.LevelAlert,
	"emergency":     models.LevelEmergency,
	"emerg":         models.LevelEmergency,
	"fatal":         models.LevelFatal,
	"0":             models.LevelEmergency,
	"1":             models.LevelAlert,
	"2":             models.LevelCritical,
	"3":             models.LevelError,
	"4":             models.LevelWarn,
	"5":             models.LevelNotice,
	"6":             models.LevelInfo,
	"7":             models.LevelDebug,
}

func resolveLevel(pl models.ParsedLine) models.Level {
	if pl.RawLevel != "" {
		if lvl, ok := levelMapping[strings.ToLower(strings.TrimSpace(pl.RawLevel))]; ok {
			return lvl
		}
	}

	if lvl, ok := scanLevelKeywords(pl.Message); ok {
		return lvl
	}

	return models.DefaultLevel
}

// levelKeywordGroups mirrors the original's ordered keyword scan: error-class
// words are checked before warn, which is checked before info, which is
// checked before debug, so a message containing several keywords resolves
// to the most severe group that matches.
var levelKeywordGroups = []struct {
	level    models.Level
	keywords []string
}{
	{models.LevelError, []string{"error", "exception", "failed", "failure"}},
	{models.LevelWarn, []string{"warning", "warn", "caution"}},
	{models.LevelInfo, []string{"info", "information"}},
	{models.LevelDebug, []string{"debug", "trace"}},
}

func scanLevelKeywords(message string) (models.Level, bool) {
	low := strings.ToLower(message)
	for _, g := range levelKeywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(low, kw) {
				return g.level, true
			}
		}
	}

	return "", false
}

func resolveMessage(pl models.ParsedLine, line string) string {
	if m := strings.TrimSpace(pl.Message); m != "" {
		return m
	}

	fields := map[string]any{}
	for k, v := range pl.Metadata {
		fields[k] = v
	}
	if pl.RawTimestamp != "" {
		fields["timestamp"] = pl.RawTimestamp
	}
	if pl.RawLevel != "" {
		fields["level"] = pl.RawLevel
	}
	if pl.Source != "" {
		fields["source"] = pl.Source
	}
	if pl.Service != "" {
		fields["service"] = pl.Service
	}

	if len(fields) == 0 {
		return strings.TrimSpace(line)
	}

	return stableJSON(fields)
}

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([^:\s]+):(\d+)$`),
	regexp.MustCompile(`^([A-Za-z0-9_.]+)\.([A-Za-z0-9_]+)$`),
}

func resolveSource(pl models.ParsedLine) string {
	if s := strings.TrimSpace(pl.Source); s != "" {
		return extractSourceInfo(s)
	}

	if s, ok := extractSourceFromMessage(pl.Message); ok {
		return s
	}

	return ""
}

func extractSourceInfo(source string) string {
	for _, re := range sourcePatterns {
		if re.MatchString(source) {
			return source
		}
	}

	return source
}

var messageSourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z0-9_.]+:\d+`),
	regexp.MustCompile(`[A-Za-z0-9_.]+\.[A-Za-z0-9_]+`),
	regexp.MustCompile(`\[([A-Za-z0-9_.]+)\]`),
}

func extractSourceFromMessage(message string) (string, bool) {
	for _, re := range messageSourcePatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			if len(m) > 1 && m[1] != "" {
				return m[1], true
			}
			return m[0], true
		}
	}

	return "", false
}

func resolveService(pl models.ParsedLine) string {
	if s := strings.TrimSpace(pl.Service); s != "" {
		return s
	}

	if s, ok := extractServiceFromSource(pl.Source); ok {
		return s
	}

	if s, ok := extractServiceFromMessage(pl.Message); ok {
		return s
	}

	return ""
}

var serviceFromSourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Za-z0-9_-]+)-service`),
	regexp.MustCompile(`([A-Za-z0-9_-]+)-app`),
	regexp.MustCompile(`([A-Za-z0-9_-]+)-api`),
	regexp.MustCompile(`([A-Za-z0-9_-]+)\.([A-Za-z0-9_-]+)`),
}

func extractServiceFromSource(source string) (string, bool) {
	for _, re := range serviceFromSourcePatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			return m[1], true
		}
	}

	return "", false
}

var serviceFromMessagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[([A-Za-z0-9_-]+)\]`),
	regexp.MustCompile(`([A-Za-z0-9_-]+)\s+service`),
	regexp.MustCompile(`([A-Za-z0-9_-]+)\s+app`),
}

func extractServiceFromMessage(message string) (string, bool) {
	for _, re := range serviceFromMessagePatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			return m[1], true
		}
	}

	return "", false
}

// formatMetadataWhitelist carries the per-format metadata field names
// spec.md §4.2's detector reports as being worth retaining verbatim.
var formatMetadataWhitelist = map[logformat.Format][]string{
	logformat.FormatJSONLines:      {"logger", "thread", "correlation_id", "request_id", "user_id"},
	logformat.FormatSyslog:         {"syslog_priority", "facility", "hostname", "app_name", "proc_id", "msg_id"},
	logformat.FormatApacheCombined: {"client_ip", "request_line", "status_code", "bytes_sent", "referer", "user_agent"},
	logformat.FormatApacheCommon:   {"client_ip", "request_line", "status_code", "bytes_sent"},
	logformat.FormatApacheError:    {"pid", "tid"},
	logformat.FormatNginxAccess:    {"client_ip", "request_line", "status_code", "bytes_sent", "referer", "user_agent"},
	logformat.FormatNginxError:     {"pid", "tid"},
	logformat.FormatDocker:         {"container_id", "container_name", "image", "tag"},
	logformat.FormatKubernetes:     {"pod", "namespace", "container", "node", "cluster"},
	logformat.FormatCloudAWS:       {"log_group", "log_stream", "event_id", "aws_region"},
	logformat.FormatCloudAzure:     {"resource_id", "operation_name", "category"},
	logformat.FormatCloudGCP:       {"resource", "labels", "operation", "trace", "span_id"},
	logformat.FormatWindowsEvent:   {"event_id", "event_source", "event_category", "event_type", "computer"},
}

func normalizeMetadata(pl models.ParsedLine, f logformat.Format) map[string]any {
	meta := map[string]any{}

	whitelist := formatMetadataWhitelist[f]
	whitelisted := make(map[string]bool, len(whitelist))
	for _, k := range whitelist {
		whitelisted[k] = true
		if v, ok := pl.Metadata[k]; ok {
			meta[k] = v
		}
	}

	meta["original_format"] = string(f)

	for k, v := range pl.Metadata {
		if k == "original_format" || whitelisted[k] {
			continue
		}
		meta[k] = v
	}

	return limitDepth(meta)
}

// limitDepth enforces MaxMetadataKeys and MaxMetadataDepth by dropping
// excess entries and pruning over-deep nesting rather than rejecting the
// record; idempotent on an already-limited map.
func limitDepth(meta map[string]any) map[string]any {
	pruned := pruneDepth(meta, 1).(map[string]any) //nolint:forcetypeassert // pruneDepth(map, _) always returns map[string]any

	if len(pruned) <= models.MaxMetadataKeys {
		return pruned
	}

	keys := make([]string, 0, len(pruned))
	for k := range pruned {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	limited := make(map[string]any, models.MaxMetadataKeys)
	for _, k := range keys[:models.MaxMetadataKeys] {
		limited[k] = pruned[k]
	}

	return limited
}

// pruneDepth walks v, replacing any map or slice found at MaxMetadataDepth
// with a stable JSON-ish string so unbounded nesting from a parser's
// metadata never reaches storage.
func pruneDepth(v any, depth int) any {
	switch val := v.(type) {
	case map[string]any:
		if depth >= models.MaxMetadataDepth {
			return flattenPreview(val)
		}

		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = pruneDepth(child, depth+1)
		}

		return out
	case []any:
		if depth >= models.MaxMetadataDepth {
			return flattenPreview(val)
		}

		out := make([]any, len(val))
		for i, child := range val {
			out[i] = pruneDepth(child, depth+1)
		}

		return out
	default:
		return v
	}
}

// flattenPreview renders a value that was pruned for exceeding
// MaxMetadataDepth as a short descriptive string rather than dropping it
// silently.
func flattenPreview(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return fmt.Sprintf("<metadata depth limit exceeded: object with %d keys>", len(val))
	case []any:
		return fmt.Sprintf("<metadata depth limit exceeded: array with %d elements>", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// stableJSON serializes v with map keys in sorted order, used when no
// message field is present and the raw parsed structure must stand in.
func stableJSON(v map[string]any) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(v[k])
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')

	return string(ordered)
}
