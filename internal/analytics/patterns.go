package analytics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// rootCauseKeywords is the 8-category root-cause table, distinct from
// errors.go's error-type table: it groups by underlying cause rather than
// surface symptom. Grounded on
// original_source/.../analytics/pattern_analyzer.py's _analyze_root_causes.
var rootCauseKeywords = []struct {
	category string
	keywords []string
}{
	{"connection_issues", []string{"connection refused", "connection reset", "connection timeout", "cannot connect"}},
	{"permission_issues", []string{"permission denied", "access denied", "unauthorized", "forbidden"}},
	{"resource_exhaustion", []string{"out of memory", "disk full", "too many open files", "resource exhausted"}},
	{"configuration_errors", []string{"invalid configuration", "missing config", "configuration error", "config not found"}},
	{"database_issues", []string{"deadlock", "constraint violation", "query failed", "database error"}},
	{"network_issues", []string{"network unreachable", "dns resolution failed", "socket error", "network error"}},
	{"timeout_issues", []string{"timeout", "timed out", "deadline exceeded"}},
	{"null_reference", []string{"null pointer", "nullpointerexception", "nonetype", "undefined is not"}},
}

// errorTypeKeywords is a third, distinct categorization used only for
// correlation bucketing, matching
// pattern_analyzer.py's _categorize_error_type.
var errorTypeKeywords = []struct {
	errType  string
	keywords []string
}{
	{"timeout", []string{"timeout", "timed out"}},
	{"connection", []string{"connection"}},
	{"null_reference", []string{"null", "none type", "nullpointer"}},
	{"permission", []string{"permission", "access denied", "forbidden"}},
	{"database", []string{"database", "sql", "query"}},
	{"network", []string{"network", "dns", "socket"}},
	{"memory", []string{"memory", "oom", "out of memory"}},
}

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
var nonWordPattern = regexp.MustCompile(`\W+`)
var digitPattern = regexp.MustCompile(`\d+`)

// computePatterns is grounded on
// original_source/.../analytics/pattern_analyzer.py's analyze_patterns.
func computePatterns(records []models.LogRecord) *models.PatternsReport {
	return &models.PatternsReport{
		CommonPatterns: commonPatterns(records, 15),
		RootCauses:     rootCauses(records, 10),
		Correlations:   errorCorrelations(records, 10),
		Clusters:       messageClusters(records, 15),
	}
}

func commonPatterns(records []models.LogRecord, limit int) []models.NGram {
	counts := map[string]int64{}

	for _, rec := range records {
		words := wordPattern.FindAllString(strings.ToLower(rec.Message), -1)

		for i := 0; i+1 < len(words); i++ {
			counts[words[i]+" "+words[i+1]]++
		}
		for i := 0; i+2 < len(words); i++ {
			counts[words[i]+" "+words[i+1]+" "+words[i+2]]++
		}
	}

	out := make([]models.NGram, 0, len(counts))
	for phrase, count := range counts {
		if count <= 2 {
			continue
		}
		out = append(out, models.NGram{Phrase: phrase, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phrase < out[j].Phrase
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

func rootCauses(records []models.LogRecord, limit int) []models.RootCauseCategory {
	counts := map[string]int64{}
	examples := map[string][]string{}

	for _, rec := range records {
		if !rec.Level.IsErrorClass() {
			continue
		}

		message := strings.ToLower(rec.Message)

		for _, cat := range rootCauseKeywords {
			matched := false
			for _, kw := range cat.keywords {
				if strings.Contains(message, kw) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}

			counts[cat.category]++
			if len(examples[cat.category]) < 3 {
				examples[cat.category] = append(examples[cat.category], truncateDisplay(rec.Message))
			}
			break
		}
	}

	out := make([]models.RootCauseCategory, 0, len(counts))
	for category, count := range counts {
		if count == 0 {
			continue
		}
		out = append(out, models.RootCauseCategory{
			Category: category,
			Count:    count,
			Examples: examples[category],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

func categorizeErrorType(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, cat := range errorTypeKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.errType, true
			}
		}
	}
	return "other", true
}

// errorCorrelations buckets errors into 5-minute windows and, for windows
// with at least 2 distinct categorized error types, emits one Correlation
// record per unordered pair of types observed in that window, all sharing
// the window's correlation score (distinct_types / total_errors_in_window).
// This maps pattern_analyzer.py's _find_error_correlations, which reports
// one multi-type window record, onto the pairwise Correlation shape.
func errorCorrelations(records []models.LogRecord, limit int) []models.Correlation {
	type window struct {
		types map[string]int
		total int
	}

	windows := map[time.Time]*window{}

	for _, rec := range records {
		if !rec.Level.IsErrorClass() {
			continue
		}

		t := rec.EventTime.UTC()
		bucketMinute := (t.Minute() / 5) * 5
		key := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), bucketMinute, 0, 0, time.UTC)

		w, ok := windows[key]
		if !ok {
			w = &window{types: map[string]int{}}
			windows[key] = w
		}

		errType, _ := categorizeErrorType(rec.Message)
		w.types[errType]++
		w.total++
	}

	pairScore := map[[2]string]float64{}

	for _, w := range windows {
		if w.total < 2 || len(w.types) < 2 {
			continue
		}

		score := float64(len(w.types)) / float64(w.total)

		types := make([]string, 0, len(w.types))
		for t := range w.types {
			types = append(types, t)
		}
		sort.Strings(types)

		for i := 0; i < len(types); i++ {
			for j := i + 1; j < len(types); j++ {
				pair := [2]string{types[i], types[j]}
				if score > pairScore[pair] {
					pairScore[pair] = score
				}
			}
		}
	}

	out := make([]models.Correlation, 0, len(pairScore))
	for pair, score := range pairScore {
		out = append(out, models.Correlation{CategoryA: pair[0], CategoryB: pair[1], Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].CategoryA != out[j].CategoryA {
			return out[i].CategoryA < out[j].CategoryA
		}
		return out[i].CategoryB < out[j].CategoryB
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

// simplifyMessage normalizes a message for clustering: digits become 'N',
// non-word characters collapse to spaces, whitespace collapses, and the
// result is lowercased.
func simplifyMessage(message string) string {
	s := digitPattern.ReplaceAllString(message, "N")
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

func messageClusters(records []models.LogRecord, limit int) []models.MessageCluster {
	type cluster struct {
		key     string
		example string
		size    int64
	}

	byKey := map[string]*cluster{}

	for _, rec := range records {
		simplified := simplifyMessage(rec.Message)

		key := simplified
		if len(key) > 50 {
			key = key[:50]
		}
		if key == "" {
			continue
		}

		c, ok := byKey[key]
		if !ok {
			c = &cluster{key: key, example: truncateDisplay(rec.Message)}
			byKey[key] = c
		}
		c.size++
	}

	out := make([]models.MessageCluster, 0, len(byKey))
	for _, c := range byKey {
		if c.size <= 1 {
			continue
		}
		out = append(out, models.MessageCluster{Key: c.key, Example: c.example, Size: c.size})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Key < out[j].Key
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}
