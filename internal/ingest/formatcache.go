package ingest

import (
	"sync"
	"time"

	"github.com/loglytics/ingestd/internal/logformat"
)

// redetectConfidenceFloor is the threshold below which an hourly re-sample
// is treated as a confidence drop and triggers full redetection, per
// spec.md §4.2's mixed-format edge case.
const redetectConfidenceFloor = 0.6

// cacheTTL bounds how long a cached format decision survives before the
// next packet forces a fresh detection, independent of any confidence
// drop — "once per tenant per day" in spec.md §4.2.
const cacheTTL = 24 * time.Hour

// resampleInterval is how often a cached decision is re-validated against
// a fresh sample without discarding it outright.
const resampleInterval = time.Hour

type formatDecision struct {
	format      logformat.Format
	confidence  float64
	decidedAt   time.Time
	lastSampled time.Time
}

// formatCache holds one cached format decision per tenant, re-detecting on
// first contact, daily expiry, or an hourly re-sample whose confidence
// drops below redetectConfidenceFloor.
type formatCache struct {
	mu      sync.Mutex
	entries map[string]*formatDecision
}

func newFormatCache() *formatCache {
	return &formatCache{entries: make(map[string]*formatDecision)}
}

// resolve returns the format to use for this tenant's batch, detecting (or
// redetecting) against lines when the cache is empty, stale, or the last
// re-sample showed a confidence drop.
func (c *formatCache) resolve(tenantID string, lines []string) logformat.Format {
	now := time.Now()

	c.mu.Lock()
	d, ok := c.entries[tenantID]
	c.mu.Unlock()

	if !ok || now.Sub(d.decidedAt) > cacheTTL {
		return c.detectAndStore(tenantID, lines, now)
	}

	if now.Sub(d.lastSampled) > resampleInterval {
		result := logformat.Detect(lines)

		c.mu.Lock()
		d.lastSampled = now
		c.mu.Unlock()

		if result.Confidence < redetectConfidenceFloor {
			return c.detectAndStore(tenantID, lines, now)
		}
	}

	return d.format
}

func (c *formatCache) detectAndStore(tenantID string, lines []string, now time.Time) logformat.Format {
	result := logformat.Detect(lines)

	c.mu.Lock()
	c.entries[tenantID] = &formatDecision{
		format:      result.Format,
		confidence:  result.Confidence,
		decidedAt:   now,
		lastSampled: now,
	}
	c.mu.Unlock()

	return result.Format
}
