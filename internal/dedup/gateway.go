package dedup

import (
	"context"
	"sync"

	"github.com/stwalsh4118/roofline/internal/governor"
	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/models"
	"github.com/stwalsh4118/roofline/internal/repository"
)

// Gateway is the single write path for leads. It deduplicates by identity
// hash, enforces the daily lead limit for in-region leads, and persists
// through the repository. Safe for concurrent use.
type Gateway struct {
	mu   sync.Mutex
	seen map[string]struct{}

	repo repository.LeadRepository
	gov  *governor.Governor
	log  *logger.Logger
}

// NewGateway creates a Gateway. The governor may be nil, in which case no
// daily limit applies.
func NewGateway(repo repository.LeadRepository, gov *governor.Governor, log *logger.Logger) *Gateway {
	return &Gateway{
		seen: make(map[string]struct{}),
		repo: repo,
		gov:  gov,
		log:  log,
	}
}

// Persist runs one lead through the write path and reports what happened to
// it. The in-process seen set catches repeats within a run before they reach
// the governor or the database; the database unique index is the durable
// guard across runs and processes.
func (g *Gateway) Persist(ctx context.Context, lead *models.Lead) models.PersistOutcome {
	if lead.IdentityHash == "" {
		lead.IdentityHash = lead.ComputeIdentityHash()
	}

	if g.alreadySeen(lead.IdentityHash) {
		return models.PersistOutcome{Status: models.PersistDuplicate}
	}

	// Only in-region leads count against the daily budget. Out-of-region
	// leads are stored for audit but never consume quota.
	counted := false
	if lead.InRegion && g.gov != nil {
		if !g.gov.Accept(string(lead.SourceType)) {
			g.forget(lead.IdentityHash)
			g.log.Info("daily lead limit reached, rejecting lead", map[string]interface{}{
				"source_type":   string(lead.SourceType),
				"identity_hash": lead.IdentityHash,
			})
			return models.PersistOutcome{
				Status: models.PersistRejected,
				Reason: models.RejectDailyLimit,
			}
		}
		counted = true
	}

	inserted, err := g.repo.Insert(ctx, lead)
	if err != nil {
		g.forget(lead.IdentityHash)
		if counted {
			g.gov.Release(string(lead.SourceType))
		}
		g.log.Error("failed to persist lead", err, map[string]interface{}{
			"source_type":   string(lead.SourceType),
			"identity_hash": lead.IdentityHash,
		})
		return models.PersistOutcome{
			Status: models.PersistRejected,
			Reason: models.RejectStoreError,
		}
	}
	if !inserted {
		// Already stored on an earlier run; the slot goes back so replays
		// never starve leads that are genuinely new today.
		if counted {
			g.gov.Release(string(lead.SourceType))
		}
		return models.PersistOutcome{Status: models.PersistDuplicate}
	}

	return models.PersistOutcome{Status: models.PersistInserted}
}

// Seen returns the number of distinct identity hashes observed this run.
func (g *Gateway) Seen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// alreadySeen records the hash and reports whether it was present before.
// The claim-then-insert order means concurrent submits of the same lead
// resolve to exactly one repository insert.
func (g *Gateway) alreadySeen(hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[hash]; ok {
		return true
	}
	g.seen[hash] = struct{}{}
	return false
}

// forget releases a claimed hash so a later submit can retry after a
// transient failure or a limit rejection.
func (g *Gateway) forget(hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, hash)
}
