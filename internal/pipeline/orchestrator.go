package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/stwalsh4118/roofline/internal/cache"
	"github.com/stwalsh4118/roofline/internal/dedup"
	"github.com/stwalsh4118/roofline/internal/geo"
	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/models"
	"github.com/stwalsh4118/roofline/internal/scoring"
)

// Fetcher retrieves one URL through the proxy layer.
type Fetcher interface {
	Fetch(ctx context.Context, target string) models.FetchResult
}

// Orchestrator runs the full collection pipeline: URLs fan out to a bounded
// worker pool, fresh responses are extracted into leads, and every lead is
// scored, geo-classified, and persisted through the dedup gateway.
type Orchestrator struct {
	fetcher Fetcher
	cache   *cache.Cache
	scorer  *scoring.Scorer
	filter  *geo.Filter
	gateway *dedup.Gateway
	log     *logger.Logger
	workers int
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the worker-pool size. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	fetcher Fetcher,
	c *cache.Cache,
	scorer *scoring.Scorer,
	filter *geo.Filter,
	gateway *dedup.Gateway,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		cache:   c,
		scorer:  scorer,
		filter:  filter,
		gateway: gateway,
		log:     log.WithComponent("pipeline"),
		workers: 4,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// task is one unit of work: a URL belonging to a source.
type task struct {
	source *Source
	url    string
}

// Run processes every URL of every source and returns the run report.
// A failure on one URL never aborts the run; it is counted and logged.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) *Report {
	collector := newReportCollector(o.now())

	tasks := make(chan task)
	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				collector.add(t.source.Name, o.visit(ctx, t))
			}
		}()
	}

	total := 0
	for si := range sources {
		src := &sources[si]
		o.log.Info("starting source", map[string]interface{}{
			"source": src.Name,
			"urls":   len(src.URLs),
		})
		for _, url := range src.URLs {
			select {
			case tasks <- task{source: src, url: url}:
				total++
			case <-ctx.Done():
				close(tasks)
				wg.Wait()
				return o.finishRun(collector, total)
			}
		}
	}
	close(tasks)
	wg.Wait()

	return o.finishRun(collector, total)
}

func (o *Orchestrator) finishRun(collector *reportCollector, urls int) *Report {
	if o.cache != nil {
		if err := o.cache.Save(); err != nil {
			o.log.Warn("failed to save response cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	report := collector.finish(o.now())
	o.log.Info("run complete", map[string]interface{}{
		"run_id":         report.RunID,
		"urls":           urls,
		"requests":       report.Totals.Requests,
		"failures":       report.Totals.Failures,
		"cache_hits":     report.Totals.CacheHits,
		"extracted":      report.Totals.Extracted,
		"inserted":       report.Totals.Inserted,
		"duplicates":     report.Totals.Duplicates,
		"rejected":       report.Totals.Rejected,
		"cache_hit_rate": report.CacheHitRate(),
		"duration":       report.Duration.String(),
	})
	return report
}

// visit handles one URL end to end and returns its counter deltas.
func (o *Orchestrator) visit(ctx context.Context, t task) SourceStats {
	var stats SourceStats

	// Fresh cache entries are reprocessed without a network round trip;
	// the dedup gateway absorbs leads stored on a previous run.
	if o.cache != nil && !o.cache.ShouldFetch(t.url) {
		if leads, ok := o.cache.Cached(t.url); ok {
			stats.CacheHits++
			o.processLeads(ctx, leads, &stats)
			return stats
		}
	}

	stats.Requests++
	result := o.fetcher.Fetch(ctx, t.url)
	if !result.Success {
		stats.Failures++
		o.log.Warn("url failed after retries", map[string]interface{}{
			"source":   t.source.Name,
			"url":      t.url,
			"attempts": result.Attempts,
			"status":   result.StatusCode,
			"error":    result.Error,
		})
		return stats
	}
	stats.Successes++

	leads, err := t.source.Extractor.Extract(result.Body, t.url)
	if err != nil {
		stats.Failures++
		o.log.Warn("extraction failed", map[string]interface{}{
			"source": t.source.Name,
			"url":    t.url,
			"error":  err.Error(),
		})
		return stats
	}
	stats.Extracted += len(leads)

	if o.cache != nil {
		o.cache.Record(t.url, contentHash(result.Body), leads)
	}

	o.processLeads(ctx, leads, &stats)
	return stats
}

// processLeads classifies, scores, and persists a batch of leads.
func (o *Orchestrator) processLeads(ctx context.Context, leads []models.Lead, stats *SourceStats) {
	for i := range leads {
		lead := &leads[i]
		o.filter.Classify(lead)
		o.scorer.Apply(lead)

		outcome := o.gateway.Persist(ctx, lead)
		switch outcome.Status {
		case models.PersistInserted:
			stats.Inserted++
		case models.PersistDuplicate:
			stats.Duplicates++
		case models.PersistRejected:
			stats.Rejected++
		}
	}
}

func contentHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
