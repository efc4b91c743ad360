package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/models"
	"github.com/stwalsh4118/roofline/internal/repository"
	"github.com/stwalsh4118/roofline/internal/scoring"
)

// Lookback validation constants
const (
	DefaultLookbackHours = 24
	MaxLookbackHours     = 24 * 7
)

// Service-level errors
var (
	ErrInvalidLookback = errors.New("lookback must be between 1 and 168 hours")
	ErrInvalidMinScore = errors.New("minimum score must be between 1 and 10")
)

// LeadStats summarizes stored lead volume for the stats endpoint.
type LeadStats struct {
	BySource    []repository.SourceCount `json:"by_source"`
	Total       int64                    `json:"total"`
	Last24Hours int64                    `json:"last_24_hours"`
}

// LeadService defines the interface for lead query business logic.
type LeadService interface {
	// GetRecentLeads retrieves leads stored within the lookback window with
	// at least the given score, newest first.
	// Returns ErrInvalidLookback or ErrInvalidMinScore for bad parameters.
	// Returns empty slice if no leads match (not an error).
	GetRecentLeads(ctx context.Context, lookbackHours, minScore int) ([]models.Lead, error)

	// GetStats retrieves per-source lead totals and recent volume.
	GetStats(ctx context.Context) (*LeadStats, error)
}

// leadService is the concrete implementation of LeadService.
type leadService struct {
	repo repository.LeadRepository
	log  *logger.Logger
}

// NewLeadService creates a new instance of LeadService.
func NewLeadService(repo repository.LeadRepository, log *logger.Logger) LeadService {
	return &leadService{
		repo: repo,
		log:  log,
	}
}

// GetRecentLeads validates the query window and score floor, then queries
// the repository.
func (s *leadService) GetRecentLeads(ctx context.Context, lookbackHours, minScore int) ([]models.Lead, error) {
	if lookbackHours < 1 || lookbackHours > MaxLookbackHours {
		s.log.Warn("Invalid lookback provided", map[string]interface{}{
			"lookback_hours": lookbackHours,
		})
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLookback, lookbackHours)
	}
	if minScore < scoring.MinScore || minScore > scoring.MaxScore {
		s.log.Warn("Invalid minimum score provided", map[string]interface{}{
			"min_score": minScore,
		})
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMinScore, minScore)
	}

	since := time.Now().Add(-time.Duration(lookbackHours) * time.Hour)
	s.log.Info("Querying recent leads", map[string]interface{}{
		"lookback_hours": lookbackHours,
		"min_score":      minScore,
	})

	leads, err := s.repo.RecentLeads(ctx, since, minScore)
	if err != nil {
		s.log.Error("Failed to query recent leads", err, map[string]interface{}{
			"lookback_hours": lookbackHours,
			"min_score":      minScore,
		})
		return nil, fmt.Errorf("failed to query recent leads: %w", err)
	}

	return leads, nil
}

// GetStats aggregates stored totals per source plus the last day's volume.
func (s *leadService) GetStats(ctx context.Context) (*LeadStats, error) {
	bySource, err := s.repo.CountBySource(ctx)
	if err != nil {
		s.log.Error("Failed to count leads by source", err, nil)
		return nil, fmt.Errorf("failed to count leads by source: %w", err)
	}

	last24h, err := s.repo.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		s.log.Error("Failed to count recent leads", err, nil)
		return nil, fmt.Errorf("failed to count recent leads: %w", err)
	}

	stats := &LeadStats{
		BySource:    bySource,
		Last24Hours: last24h,
	}
	for _, sc := range bySource {
		stats.Total += sc.Count
	}
	return stats, nil
}
