package logformat

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	reSyslog5424  = regexp.MustCompile(`^<(\d+)>(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)\s+(\S+)\s+(.+)$`)
	reApacheCombined = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)\s+\S+\s+\S+\s+\[([^\]]+)\]\s+"([^"]*)"\s+(\d+)\s+(\d+|-)\s+"([^"]*)"\s+"([^"]*)"`)
	reApacheCommon   = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)\s+\S+\s+\S+\s+\[([^\]]+)\]\s+"([^"]*)"\s+(\d+)\s+(\d+|-)\s*$`)
	reApacheError    = regexp.MustCompile(`^\[([^\]]+)\]\s+\[([^\]]+)\]\s+\[([^\]]+)\]\s+(.+)$`)
	reNginxAccess    = regexp.MustCompile(`^(\d+\.\d+\.\d+\.\d+)\s+\S+\s+\S+\s+\[([^\]]+)\]\s+"([^"]*)"\s+(\d+)\s+(\d+|-)\s+"([^"]*)"\s+"([^"]*)"\s+"([^"]*)"`)
	reNginxError     = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})\s+\[([^\]]+)\]\s+(\d+)#(\d+):\s*(.+)$`)
	reISOPrefixed    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)\s+(\S+)\s+(\S+)\s+(.+)$`)
	reISOPrefixed3   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)\s+(\S+)\s+(.+)$`)
	reWindowsEvent   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})\s+(\S+)\s+(\S+)\s+(.+)$`)
	reGeneric        = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)\s+(\w+)\s+(.+)$`)
)

var apacheErrorLevels = map[string]bool{
	"emerg": true, "alert": true, "crit": true, "error": true,
	"warn": true, "notice": true, "info": true, "debug": true,
}

var windowsEventLevels = map[string]bool{
	"critical": true, "error": true, "warning": true, "information": true, "verbose": true,
}

// Detect runs every format's match+validate over up to sampleSize lines and
// returns the best-scoring format, falling back to generic-timestamped
// when no format clears selectionThreshold.
func Detect(lines []string) DetectionResult {
	sample := lines
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	total := len(sample)
	if total == 0 {
		return DetectionResult{Format: FormatGenericTimestamp, Confidence: 0, Total: 0, Metadata: map[string]any{}}
	}

	var nonEmpty []string
	for _, l := range sample {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return DetectionResult{Format: FormatGenericTimestamp, Confidence: 0, Total: total, Metadata: map[string]any{}}
	}

	bestFormat := FormatGenericTimestamp
	bestScore := -1.0
	bestMatched := 0

	for _, f := range allFormats {
		matched := 0
		for _, l := range nonEmpty {
			if matches(f, strings.TrimSpace(l)) {
				matched++
			}
		}

		base := float64(matched) / float64(len(nonEmpty))
		score := score(f, nonEmpty, base)

		if score > bestScore {
			bestScore = score
			bestFormat = f
			bestMatched = matched
		}
	}

	if bestFormat != FormatGenericTimestamp && bestScore < selectionThreshold {
		genericMatched := 0
		for _, l := range nonEmpty {
			if matches(FormatGenericTimestamp, strings.TrimSpace(l)) {
				genericMatched++
			}
		}

		return DetectionResult{
			Format:       FormatGenericTimestamp,
			Confidence:   float64(genericMatched) / float64(len(nonEmpty)),
			MatchedCount: genericMatched,
			Total:        total,
			Metadata:     extractMetadata(FormatGenericTimestamp, nonEmpty),
		}
	}

	return DetectionResult{
		Format:       bestFormat,
		Confidence:   bestScore,
		MatchedCount: bestMatched,
		Total:        total,
		Metadata:     extractMetadata(bestFormat, nonEmpty),
	}
}

// matches reports whether line's shape is consistent with format f.
func matches(f Format, line string) bool {
	switch f {
	case FormatJSONLines:
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return false
		}
		_, ok := v.(map[string]any)
		return ok
	case FormatSyslog:
		return reSyslog5424.MatchString(line)
	case FormatApacheCombined:
		return reApacheCombined.MatchString(line)
	case FormatApacheCommon:
		return reApacheCommon.MatchString(line)
	case FormatApacheError:
		m := reApacheError.FindStringSubmatch(line)
		return m != nil && apacheErrorLevels[strings.ToLower(m[2])]
	case FormatNginxAccess:
		return reNginxAccess.MatchString(line)
	case FormatNginxError:
		m := reNginxError.FindStringSubmatch(line)
		return m != nil && apacheErrorLevels[strings.ToLower(m[2])]
	case FormatDocker:
		return reISOPrefixed3.MatchString(line) || reISOPrefixed.MatchString(line)
	case FormatKubernetes:
		return reISOPrefixed.MatchString(line)
	case FormatCloudAWS, FormatCloudAzure, FormatCloudGCP:
		return reISOPrefixed.MatchString(line) || reISOPrefixed3.MatchString(line)
	case FormatWindowsEvent:
		m := reWindowsEvent.FindStringSubmatch(line)
		return m != nil && windowsEventLevels[strings.ToLower(m[3])]
	case FormatGenericTimestamp:
		return reGeneric.MatchString(line)
	default:
		return false
	}
}

// score folds a format-specific validator bonus into the base match ratio,
// as (base + bonus) / 2, per spec.md §4.2.
func score(f Format, lines []string, base float64) float64 {
	switch f {
	case FormatJSONLines:
		return (base + jsonBonus(lines)) / 2
	case FormatApacheCombined, FormatApacheCommon, FormatNginxAccess:
		return (base + statusCodeBonus(f, lines)) / 2
	case FormatApacheError, FormatNginxError:
		return (base + levelBonus(f, lines)) / 2
	case FormatDocker:
		return (base + substringBonus(lines, "container", "docker", "pod")) / 2
	case FormatKubernetes:
		return (base + substringBonus(lines, "pod", "namespace", "container", "kubernetes")) / 2
	case FormatCloudAWS:
		return (base + substringBonus(lines, "aws", "cloudwatch", "lambda", "ec2", "rds")) / 2
	case FormatCloudAzure:
		return (base + substringBonus(lines, "azure", "monitor", "appservice", "function")) / 2
	case FormatCloudGCP:
		return (base + substringBonus(lines, "gcp", "google", "cloud", "gke", "cloudrun")) / 2
	case FormatWindowsEvent:
		return (base + substringBonus(lines, "critical", "error", "warning", "information", "verbose")) / 2
	default:
		return base
	}
}

// jsonBonus is the fraction of lines parseable as an object carrying at
// least one timestamp-ish key and one message-ish key.
func jsonBonus(lines []string) float64 {
	hits := 0
	for _, l := range lines {
		var obj map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(l)), &obj); err != nil {
			continue
		}

		if hasAnyKey(obj, "timestamp", "time", "@timestamp") && hasAnyKey(obj, "message", "msg") {
			hits++
		}
	}

	return float64(hits) / float64(len(lines))
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// statusCodeBonus is the fraction of lines whose extracted status code lies
// in [100, 599].
func statusCodeBonus(f Format, lines []string) float64 {
	var re *regexp.Regexp
	switch f {
	case FormatApacheCombined:
		re = reApacheCombined
	case FormatNginxAccess:
		re = reNginxAccess
	default:
		re = reApacheCommon
	}

	hits := 0
	for _, l := range lines {
		m := re.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil || len(m) < 5 {
			continue
		}

		code, err := strconv.Atoi(m[4])
		if err == nil && code >= 100 && code < 600 {
			hits++
		}
	}

	return float64(hits) / float64(len(lines))
}

// levelBonus is the fraction of lines whose log level falls in the known set.
func levelBonus(f Format, lines []string) float64 {
	hits := 0
	for _, l := range lines {
		line := strings.TrimSpace(l)
		var level string

		if f == FormatApacheError {
			if m := reApacheError.FindStringSubmatch(line); m != nil {
				level = m[2]
			}
		} else {
			if m := reNginxError.FindStringSubmatch(line); m != nil {
				level = m[2]
			}
		}

		if apacheErrorLevels[strings.ToLower(level)] {
			hits++
		}
	}

	return float64(hits) / float64(len(lines))
}

// substringBonus is the fraction of lines containing at least one indicator.
func substringBonus(lines []string, indicators ...string) float64 {
	hits := 0
	for _, l := range lines {
		low := strings.ToLower(l)
		for _, ind := range indicators {
			if strings.Contains(low, ind) {
				hits++
				break
			}
		}
	}

	return float64(hits) / float64(len(lines))
}

// extractMetadata pulls the per-format metadata set described in spec.md's
// "metadata" field: distinct hosts, status codes, pods/namespaces, etc.
func extractMetadata(f Format, lines []string) map[string]any {
	meta := map[string]any{}

	switch f {
	case FormatApacheCombined, FormatApacheCommon, FormatNginxAccess:
		codes := map[string]struct{}{}
		ips := map[string]struct{}{}

		var re *regexp.Regexp
		switch f {
		case FormatApacheCombined:
			re = reApacheCombined
		case FormatNginxAccess:
			re = reNginxAccess
		default:
			re = reApacheCommon
		}

		for _, l := range lines {
			m := re.FindStringSubmatch(strings.TrimSpace(l))
			if m == nil || len(m) < 5 {
				continue
			}

			ips[m[1]] = struct{}{}
			codes[m[4]] = struct{}{}
		}

		meta["distinct_status_codes"] = len(codes)
		meta["distinct_ips"] = len(ips)
	case FormatSyslog:
		hosts := map[string]struct{}{}
		for _, l := range lines {
			if m := reSyslog5424.FindStringSubmatch(strings.TrimSpace(l)); m != nil {
				hosts[m[3]] = struct{}{}
			}
		}
		meta["distinct_hosts"] = len(hosts)
	case FormatKubernetes:
		pods := map[string]struct{}{}
		namespaces := map[string]struct{}{}
		for _, l := range lines {
			low := strings.ToLower(l)
			if strings.Contains(low, "pod") {
				pods[l] = struct{}{}
			}
			if strings.Contains(low, "namespace") {
				namespaces[l] = struct{}{}
			}
		}
		meta["lines_mentioning_pod"] = len(pods)
		meta["lines_mentioning_namespace"] = len(namespaces)
	}

	return meta
}
