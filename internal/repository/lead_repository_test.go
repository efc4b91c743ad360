package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stwalsh4118/roofline/internal/config"
	"github.com/stwalsh4118/roofline/internal/database"
	"github.com/stwalsh4118/roofline/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "roofline"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestRepository creates a test database connection and repository.
func setupTestRepository(t *testing.T) (LeadRepository, *database.Database) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := getTestConfig()

	db, err := database.NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return NewLeadRepository(db), db
}

// testLead builds a permit lead with a unique identity hash per call.
func testLead(t *testing.T) *models.Lead {
	lead := &models.Lead{
		SourceType: models.SourcePermit,
		Address:    "123 Shingle Ln",
		City:       "Dallas",
		State:      "TX",
		PostalCode: "75225",
		County:     "Dallas",
		PermitID:   models.Ptr("RP-" + t.Name() + "-" + time.Now().Format("150405.000000000")),
		PermitType: models.Ptr("roof replacement"),
		PermitDate: models.Ptr(time.Now().UTC()),
		LeadScore:  7,
		InRegion:   true,
	}
	lead.Finalize("https://permits.example.com/dallas", time.Now().UTC())
	return lead
}

func TestInsert_RejectsInvalidLead(t *testing.T) {
	repo := &leadRepository{}

	// Unknown source type
	_, err := repo.Insert(context.Background(), &models.Lead{
		SourceType:   "carrier-pigeon",
		IdentityHash: "abc",
	})
	if err == nil {
		t.Error("Expected error for unknown source type")
	}

	// Missing identity hash
	_, err = repo.Insert(context.Background(), &models.Lead{
		SourceType: models.SourcePermit,
	})
	if err == nil {
		t.Error("Expected error for missing identity hash")
	}
}

func TestRecentLeadsQuery_CoversAllSourceTables(t *testing.T) {
	query := recentLeadsQuery()

	for _, st := range models.SourceTypes() {
		if !strings.Contains(query, "FROM "+st.Table()) {
			t.Errorf("Expected query to select from %s", st.Table())
		}
	}
	if strings.Count(query, "UNION ALL") != len(models.SourceTypes())-1 {
		t.Errorf("Expected %d UNION ALL clauses, got %d",
			len(models.SourceTypes())-1, strings.Count(query, "UNION ALL"))
	}
	if !strings.Contains(query, "ORDER BY created_at DESC") {
		t.Error("Expected query to order newest first")
	}
}

func TestInsert_DuplicateIdentityHash(t *testing.T) {
	repo, db := setupTestRepository(t)
	defer db.Close()

	ctx := context.Background()
	lead := testLead(t)

	inserted, err := repo.Insert(ctx, lead)
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if !inserted {
		t.Fatal("Expected first insert to report a new row")
	}

	// Same identity hash again must be absorbed silently
	inserted, err = repo.Insert(ctx, lead)
	if err != nil {
		t.Fatalf("Second insert failed: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate insert to report no new row")
	}
}

func TestRecentLeads_FiltersByScore(t *testing.T) {
	repo, db := setupTestRepository(t)
	defer db.Close()

	ctx := context.Background()

	low := testLead(t)
	low.LeadScore = 2
	low.PermitID = models.Ptr(*low.PermitID + "-low")
	low.Finalize(low.SourceURL, low.FetchedAt)

	high := testLead(t)
	high.LeadScore = 9
	high.PermitID = models.Ptr(*high.PermitID + "-high")
	high.Finalize(high.SourceURL, high.FetchedAt)

	for _, lead := range []*models.Lead{low, high} {
		if _, err := repo.Insert(ctx, lead); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	leads, err := repo.RecentLeads(ctx, time.Now().Add(-time.Minute), 8)
	if err != nil {
		t.Fatalf("RecentLeads failed: %v", err)
	}

	for _, lead := range leads {
		if lead.LeadScore < 8 {
			t.Errorf("Expected only leads scoring >= 8, got %d", lead.LeadScore)
		}
		if lead.IdentityHash == low.IdentityHash {
			t.Error("Low-scoring lead should have been filtered out")
		}
	}
}

func TestCountBySource_AllSourcesPresent(t *testing.T) {
	repo, db := setupTestRepository(t)
	defer db.Close()

	counts, err := repo.CountBySource(context.Background())
	if err != nil {
		t.Fatalf("CountBySource failed: %v", err)
	}

	if len(counts) != len(models.SourceTypes()) {
		t.Fatalf("Expected %d source counts, got %d", len(models.SourceTypes()), len(counts))
	}
	seen := make(map[models.SourceType]bool)
	for _, sc := range counts {
		seen[sc.SourceType] = true
		if sc.Count < 0 {
			t.Errorf("Expected non-negative count for %s", sc.SourceType)
		}
	}
	for _, st := range models.SourceTypes() {
		if !seen[st] {
			t.Errorf("Expected a count entry for %s", st)
		}
	}
}

func TestCountSince(t *testing.T) {
	repo, db := setupTestRepository(t)
	defer db.Close()

	ctx := context.Background()
	before, err := repo.CountSince(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}

	if _, err := repo.Insert(ctx, testLead(t)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	after, err := repo.CountSince(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}
	if after <= before {
		t.Errorf("Expected count to increase, got %d -> %d", before, after)
	}
}
