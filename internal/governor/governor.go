// Package governor enforces the global daily cap on in-region leads accepted
// across all concurrent scrapers.
package governor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// state is the persisted daily counter document.
type state struct {
	Date        string         `json:"date"`
	Total       int            `json:"total"`
	PerSource   map[string]int `json:"per_source"`
	DailyLimit  int            `json:"daily_limit"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Governor is the shared daily volume counter. The limit applies to the
// calendar day; when the observed date rolls over, all counters reset and
// the governor reopens. Check-and-increment happens under one critical
// section, so concurrent callers can never jointly exceed the limit.
type Governor struct {
	mu    sync.Mutex
	limit int
	path  string
	now   func() time.Time

	date      string
	total     int
	perSource map[string]int
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock overrides the governor's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) { g.now = now }
}

// New creates a Governor with the given daily limit, persisted at path.
// Empty path means memory-only. Persisted counters from the current day are
// restored; counters from a previous day are discarded.
func New(path string, limit int, opts ...Option) (*Governor, error) {
	if limit < 1 {
		return nil, fmt.Errorf("daily limit must be at least 1, got %d", limit)
	}
	g := &Governor{
		limit:     limit,
		path:      path,
		now:       time.Now,
		perSource: make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.date = g.now().Format(dateLayout)
	if path != "" {
		g.load()
	}
	return g, nil
}

// CanAccept reports whether capacity remains today. Advisory only: callers
// that intend to consume capacity must use Accept, which re-checks under the
// same lock as the increment.
func (g *Governor) CanAccept() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	return g.total < g.limit
}

// Accept consumes one unit of capacity on behalf of source. It returns false
// when the daily limit is already reached; the check and the increment are
// atomic with respect to concurrent callers.
func (g *Governor) Accept(source string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()

	if g.total >= g.limit {
		return false
	}
	g.total++
	g.perSource[source]++
	g.saveLocked()
	return true
}

// Release refunds one unit of capacity previously consumed by Accept, for
// callers whose persist attempt produced no new stored row. Counters never
// go below zero, and a refund arriving after the date rolled over is a
// no-op so it cannot eat into the new day's budget.
func (g *Governor) Release(source string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.now().Format(dateLayout) != g.date {
		return
	}
	if g.total > 0 {
		g.total--
	}
	if g.perSource[source] > 0 {
		g.perSource[source]--
	}
	g.saveLocked()
}

// Stats is a snapshot of the governor's counters.
type Stats struct {
	Date      string         `json:"date"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Remaining int            `json:"remaining"`
	PerSource map[string]int `json:"per_source"`
	Closed    bool           `json:"closed"`
}

// Snapshot returns the current counters. The per-source map is a copy.
func (g *Governor) Snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()

	perSource := make(map[string]int, len(g.perSource))
	for k, v := range g.perSource {
		perSource[k] = v
	}
	return Stats{
		Date:      g.date,
		Total:     g.total,
		Limit:     g.limit,
		Remaining: g.limit - g.total,
		PerSource: perSource,
		Closed:    g.total >= g.limit,
	}
}

// rolloverLocked resets all counters when the wall-clock date has changed.
// Callers must hold g.mu.
func (g *Governor) rolloverLocked() {
	today := g.now().Format(dateLayout)
	if today == g.date {
		return
	}
	g.date = today
	g.total = 0
	g.perSource = make(map[string]int)
	g.saveLocked()
}

// saveLocked persists the counters, best effort. The in-memory counter
// stays authoritative for this process. Callers must hold g.mu.
func (g *Governor) saveLocked() {
	if g.path == "" {
		return
	}
	doc := state{
		Date:        g.date,
		Total:       g.total,
		PerSource:   g.perSource,
		DailyLimit:  g.limit,
		LastUpdated: g.now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(g.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, g.path)
}

// load restores persisted counters when they belong to the current day.
func (g *Governor) load() {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return
	}
	var doc state
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	if doc.Date != g.date {
		return
	}
	g.total = doc.Total
	if doc.PerSource != nil {
		g.perSource = doc.PerSource
	}
}
