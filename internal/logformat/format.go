// Package logformat implements C2: detecting the wire format of a tenant's
// log stream and parsing each framed line into a structured pre-normalized
// record.
//
// Grounded on original_source/backend/app/services/log_parser/format_detector.py:
// the same fourteen formats, the same base = matched/total scoring with a
// format-specific validator bonus folded in as (base + bonus) / 2, and the
// same 0.6 selection threshold.
package logformat

// Format identifies one of the supported wire shapes a tenant's log stream
// may arrive in.
type Format string

const (
	FormatJSONLines        Format = "json-lines"
	FormatSyslog           Format = "syslog"
	FormatApacheCommon     Format = "apache-access-common"
	FormatApacheCombined   Format = "apache-access-combined"
	FormatApacheError      Format = "apache-error"
	FormatNginxAccess      Format = "nginx-access"
	FormatNginxError       Format = "nginx-error"
	FormatDocker           Format = "docker"
	FormatKubernetes       Format = "kubernetes"
	FormatCloudAWS         Format = "cloud-aws"
	FormatCloudAzure       Format = "cloud-azure"
	FormatCloudGCP         Format = "cloud-gcp"
	FormatWindowsEvent     Format = "windows-event"
	FormatGenericTimestamp Format = "generic-timestamped"
)

// allFormats is the fixed detection order. Ties resolve to the earliest
// entry, mirroring the determinism of iterating a fixed dict in the
// original detector.
var allFormats = []Format{
	FormatJSONLines,
	FormatSyslog,
	FormatApacheCombined,
	FormatApacheCommon,
	FormatApacheError,
	FormatNginxAccess,
	FormatNginxError,
	FormatDocker,
	FormatKubernetes,
	FormatCloudAWS,
	FormatCloudAzure,
	FormatCloudGCP,
	FormatWindowsEvent,
	FormatGenericTimestamp,
}

// sampleSize caps the number of lines the detector samples per run.
const sampleSize = 100

// selectionThreshold is the minimum score for a non-generic format to win.
const selectionThreshold = 0.6

// DetectionResult is C2's detector output, per spec.md §4.2.
type DetectionResult struct {
	Format       Format         `json:"format"`
	Confidence   float64        `json:"confidence"`
	MatchedCount int            `json:"matched_count"`
	Total        int            `json:"total"`
	Metadata     map[string]any `json:"metadata"`
}
