package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SourceStats accumulates per-source counters for one run.
type SourceStats struct {
	Requests   int `json:"requests"`
	Successes  int `json:"successes"`
	Failures   int `json:"failures"`
	CacheHits  int `json:"cache_hits"`
	Extracted  int `json:"extracted"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// Report summarizes one pipeline run.
type Report struct {
	RunID     string                 `json:"run_id"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration"`
	Sources   map[string]SourceStats `json:"sources"`
	Totals    SourceStats            `json:"totals"`
}

// CacheHitRate returns the fraction of URL visits served from cache.
func (r *Report) CacheHitRate() float64 {
	visits := r.Totals.Requests + r.Totals.CacheHits
	if visits == 0 {
		return 0
	}
	return float64(r.Totals.CacheHits) / float64(visits)
}

// reportCollector gathers counters from concurrent workers.
type reportCollector struct {
	mu      sync.Mutex
	report  *Report
	started time.Time
}

func newReportCollector(now time.Time) *reportCollector {
	return &reportCollector{
		report: &Report{
			RunID:     uuid.New().String(),
			StartedAt: now,
			Sources:   make(map[string]SourceStats),
		},
		started: now,
	}
}

// add folds delta into the named source's counters and the run totals.
func (c *reportCollector) add(source string, delta SourceStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.report.Sources[source]
	stats.Requests += delta.Requests
	stats.Successes += delta.Successes
	stats.Failures += delta.Failures
	stats.CacheHits += delta.CacheHits
	stats.Extracted += delta.Extracted
	stats.Inserted += delta.Inserted
	stats.Duplicates += delta.Duplicates
	stats.Rejected += delta.Rejected
	c.report.Sources[source] = stats

	c.report.Totals.Requests += delta.Requests
	c.report.Totals.Successes += delta.Successes
	c.report.Totals.Failures += delta.Failures
	c.report.Totals.CacheHits += delta.CacheHits
	c.report.Totals.Extracted += delta.Extracted
	c.report.Totals.Inserted += delta.Inserted
	c.report.Totals.Duplicates += delta.Duplicates
	c.report.Totals.Rejected += delta.Rejected
}

// finish stamps the duration and returns the completed report.
func (c *reportCollector) finish(now time.Time) *Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Duration = now.Sub(c.started)
	return c.report
}
