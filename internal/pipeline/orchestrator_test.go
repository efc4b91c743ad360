package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/roofline/internal/cache"
	"github.com/stwalsh4118/roofline/internal/dedup"
	"github.com/stwalsh4118/roofline/internal/extract"
	"github.com/stwalsh4118/roofline/internal/geo"
	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/models"
	"github.com/stwalsh4118/roofline/internal/repository"
	"github.com/stwalsh4118/roofline/internal/scoring"
)

// fakeFetcher serves canned bodies keyed by URL. URLs without an entry fail.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, target string) models.FetchResult {
	f.mu.Lock()
	f.calls[target]++
	body, ok := f.bodies[target]
	f.mu.Unlock()

	if !ok {
		return models.FetchResult{
			URL:        target,
			StatusCode: 503,
			Error:      "service unavailable",
			Attempts:   3,
		}
	}
	return models.FetchResult{
		URL:        target,
		Success:    true,
		Body:       []byte(body),
		StatusCode: 200,
		Attempts:   1,
	}
}

func (f *fakeFetcher) callCount(target string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[target]
}

// memoryRepo is an in-memory LeadRepository backed by an identity-hash set.
type memoryRepo struct {
	mu    sync.Mutex
	leads map[string]models.Lead
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{leads: make(map[string]models.Lead)}
}

func (r *memoryRepo) Insert(_ context.Context, lead *models.Lead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[lead.IdentityHash]; ok {
		return false, nil
	}
	r.leads[lead.IdentityHash] = *lead
	return true, nil
}

func (r *memoryRepo) RecentLeads(context.Context, time.Time, int) ([]models.Lead, error) {
	return nil, nil
}

func (r *memoryRepo) CountBySource(context.Context) ([]repository.SourceCount, error) {
	return nil, nil
}

func (r *memoryRepo) CountSince(context.Context, time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.leads)), nil
}

func (r *memoryRepo) stored() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

const permitBody = `{"results": [
	{
		"permit_number": "BLD-2024-00731",
		"permit_type": "roofing",
		"issue_date": "2024-05-14",
		"address": "2207 Cedar Springs Rd",
		"city": "Dallas",
		"zip_code": "75201",
		"county": "Dallas"
	}
]}`

const listingBody = `[
	{
		"listing_id": "L-100",
		"address": "4512 Elm Crest Dr",
		"city": "Frisco",
		"zip_code": "75034",
		"price": 525000,
		"year_built": 2008
	}
]`

func testOrchestrator(t *testing.T, fetcher Fetcher, c *cache.Cache, repo repository.LeadRepository) *Orchestrator {
	t.Helper()
	log := logger.New("test")
	gateway := dedup.NewGateway(repo, nil, log)
	scorer := scoring.NewScorer()
	return NewOrchestrator(fetcher, c, scorer, geo.NewDFWFilter(), gateway, log, WithWorkers(2))
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(filepath.Join(t.TempDir(), "cache.json"), time.Hour)
	require.NoError(t, err)
	return c
}

func TestRun_ProcessesAllSources(t *testing.T) {
	// Arrange
	fetcher := newFakeFetcher(map[string]string{
		"https://permits.example.com/dallas": permitBody,
		"https://listings.example.com/75034": listingBody,
	})
	repo := newMemoryRepo()
	orch := testOrchestrator(t, fetcher, testCache(t), repo)

	sources := []Source{
		{
			Name:      "permits",
			Type:      models.SourcePermit,
			URLs:      []string{"https://permits.example.com/dallas"},
			Extractor: &extract.PermitExtractor{},
		},
		{
			Name:      "listings",
			Type:      models.SourceListing,
			URLs:      []string{"https://listings.example.com/75034"},
			Extractor: &extract.ListingExtractor{},
		},
	}

	// Act
	report := orch.Run(context.Background(), sources)

	// Assert
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Totals.Requests)
	assert.Equal(t, 2, report.Totals.Successes)
	assert.Equal(t, 0, report.Totals.Failures)
	assert.Equal(t, 2, report.Totals.Extracted)
	assert.Equal(t, 2, report.Totals.Inserted)
	assert.Equal(t, 2, repo.stored())
	assert.Equal(t, 1, report.Sources["permits"].Inserted)
	assert.Equal(t, 1, report.Sources["listings"].Inserted)
}

func TestRun_SecondRunServedFromCache(t *testing.T) {
	// Arrange
	fetcher := newFakeFetcher(map[string]string{
		"https://permits.example.com/dallas": permitBody,
	})
	c := testCache(t)
	repo := newMemoryRepo()
	orch := testOrchestrator(t, fetcher, c, repo)

	sources := []Source{{
		Name:      "permits",
		Type:      models.SourcePermit,
		URLs:      []string{"https://permits.example.com/dallas"},
		Extractor: &extract.PermitExtractor{},
	}}

	// Act
	first := orch.Run(context.Background(), sources)
	second := orch.Run(context.Background(), sources)

	// Assert
	assert.Equal(t, 1, first.Totals.Requests)
	assert.Equal(t, 0, second.Totals.Requests)
	assert.Equal(t, 1, second.Totals.CacheHits)
	assert.Equal(t, 1, fetcher.callCount("https://permits.example.com/dallas"))
	// Cached leads replay through the gateway as duplicates
	assert.Equal(t, 1, second.Totals.Duplicates)
	assert.Equal(t, 1, repo.stored())
	assert.InDelta(t, 0.5, second.CacheHitRate(), 1e-9)
}

func TestRun_FailedURLDoesNotAbortOthers(t *testing.T) {
	// Arrange
	fetcher := newFakeFetcher(map[string]string{
		"https://permits.example.com/dallas": permitBody,
	})
	repo := newMemoryRepo()
	orch := testOrchestrator(t, fetcher, testCache(t), repo)

	sources := []Source{{
		Name: "permits",
		Type: models.SourcePermit,
		URLs: []string{
			"https://permits.example.com/offline",
			"https://permits.example.com/dallas",
		},
		Extractor: &extract.PermitExtractor{},
	}}

	// Act
	report := orch.Run(context.Background(), sources)

	// Assert
	assert.Equal(t, 2, report.Totals.Requests)
	assert.Equal(t, 1, report.Totals.Failures)
	assert.Equal(t, 1, report.Totals.Successes)
	assert.Equal(t, 1, report.Totals.Inserted)
	assert.Equal(t, 1, repo.stored())
}

func TestRun_MalformedBodyCountsAsFailure(t *testing.T) {
	// Arrange
	fetcher := newFakeFetcher(map[string]string{
		"https://permits.example.com/dallas": `{"results": [`,
	})
	repo := newMemoryRepo()
	orch := testOrchestrator(t, fetcher, testCache(t), repo)

	sources := []Source{{
		Name:      "permits",
		Type:      models.SourcePermit,
		URLs:      []string{"https://permits.example.com/dallas"},
		Extractor: &extract.PermitExtractor{},
	}}

	// Act
	report := orch.Run(context.Background(), sources)

	// Assert
	assert.Equal(t, 1, report.Totals.Failures)
	assert.Equal(t, 0, report.Totals.Extracted)
	assert.Equal(t, 0, repo.stored())
}

func TestRun_LeadsAreScoredAndClassified(t *testing.T) {
	// Arrange
	fetcher := newFakeFetcher(map[string]string{
		"https://permits.example.com/dallas": permitBody,
	})
	repo := newMemoryRepo()
	orch := testOrchestrator(t, fetcher, testCache(t), repo)

	sources := []Source{{
		Name:      "permits",
		Type:      models.SourcePermit,
		URLs:      []string{"https://permits.example.com/dallas"},
		Extractor: &extract.PermitExtractor{},
	}}

	// Act
	orch.Run(context.Background(), sources)

	// Assert
	require.Equal(t, 1, repo.stored())
	for _, lead := range repo.leads {
		assert.True(t, lead.InRegion, "Dallas county permit should be in region")
		assert.GreaterOrEqual(t, lead.LeadScore, scoring.MinScore)
		assert.LessOrEqual(t, lead.LeadScore, scoring.MaxScore)
	}
}
