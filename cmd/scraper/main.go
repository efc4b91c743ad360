package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stwalsh4118/roofline/internal/cache"
	"github.com/stwalsh4118/roofline/internal/config"
	"github.com/stwalsh4118/roofline/internal/database"
	"github.com/stwalsh4118/roofline/internal/dedup"
	"github.com/stwalsh4118/roofline/internal/fetch"
	"github.com/stwalsh4118/roofline/internal/geo"
	"github.com/stwalsh4118/roofline/internal/governor"
	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/pipeline"
	"github.com/stwalsh4118/roofline/internal/repository"
	"github.com/stwalsh4118/roofline/internal/scoring"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Roofline scraper", map[string]interface{}{
		"version":        "0.1.0",
		"environment":    cfg.Server.Env,
		"max_concurrent": cfg.Scraper.MaxConcurrent,
		"daily_limit":    cfg.Scraper.DailyLeadLimit,
	})

	// Cancel the run on SIGINT/SIGTERM; workers drain in-flight URLs
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create database connection pool
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure database schema", err, nil)
	}

	// Daily intake cap, persisted so restarts within the same day keep counting
	gov, err := governor.New(cfg.Scraper.LimitStatePath, cfg.Scraper.DailyLeadLimit)
	if err != nil {
		log.Fatal("Failed to initialize daily lead governor", err, map[string]interface{}{
			"path":  cfg.Scraper.LimitStatePath,
			"limit": cfg.Scraper.DailyLeadLimit,
		})
	}

	// Response cache keeps re-runs within the freshness window off the network
	pageCache, err := cache.New(cfg.Scraper.CachePath, cfg.Scraper.CacheDuration)
	if err != nil {
		log.Fatal("Failed to initialize response cache", err, map[string]interface{}{
			"path": cfg.Scraper.CachePath,
		})
	}

	client, err := fetch.NewClient(fetch.Config{
		APIKeys:         cfg.Scraper.APIKeys,
		ProxyEndpoint:   cfg.Scraper.ProxyEndpoint,
		MaxConcurrent:   cfg.Scraper.MaxConcurrent,
		RequestsPerHour: cfg.Scraper.RequestsPerHour,
		RetryAttempts:   cfg.Scraper.RetryAttempts,
		RetryBackoff:    cfg.Scraper.RetryBackoff,
		Timeout:         cfg.Scraper.RequestTimeout,
		RenderJS:        cfg.Scraper.RenderJS,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize fetch client", err, nil)
	}

	repo := repository.NewLeadRepository(db)
	gateway := dedup.NewGateway(repo, gov, log)
	scorer := scoring.NewScorer()
	filter := geo.NewDFWFilter()

	orchestrator := pipeline.NewOrchestrator(
		client,
		pageCache,
		scorer,
		filter,
		gateway,
		log,
		pipeline.WithWorkers(cfg.Scraper.MaxConcurrent),
	)

	sources := pipeline.DefaultSources(filter, time.Now())
	report := orchestrator.Run(ctx, sources)

	govStats := gov.Snapshot()
	log.Info("Scrape run complete", map[string]interface{}{
		"run_id":         report.RunID,
		"duration":       report.Duration.String(),
		"requests":       report.Totals.Requests,
		"failures":       report.Totals.Failures,
		"cache_hit_rate": report.CacheHitRate(),
		"extracted":      report.Totals.Extracted,
		"inserted":       report.Totals.Inserted,
		"duplicates":     report.Totals.Duplicates,
		"rejected":       report.Totals.Rejected,
		"daily_accepted": govStats.Total,
		"daily_limit":    govStats.Limit,
	})

	for name, stats := range report.Sources {
		log.Info("Source summary", map[string]interface{}{
			"source":     name,
			"requests":   stats.Requests,
			"failures":   stats.Failures,
			"extracted":  stats.Extracted,
			"inserted":   stats.Inserted,
			"duplicates": stats.Duplicates,
			"rejected":   stats.Rejected,
		})
	}

	fetchStats := client.Snapshot()
	log.Info("Fetch client summary", map[string]interface{}{
		"total_requests": fetchStats.TotalRequests,
		"successes":      fetchStats.Successes,
		"failures":       fetchStats.Failures,
		"key_rotations":  fetchStats.KeyRotations,
	})
}
