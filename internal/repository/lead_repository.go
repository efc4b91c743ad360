package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/roofline/internal/database"
	"github.com/stwalsh4118/roofline/internal/models"
)

// uniqueViolation is the PostgreSQL error code raised when an insert hits
// the unique index on identity_hash.
const uniqueViolation = "23505"

// SourceCount pairs a source type with the number of leads stored for it.
type SourceCount struct {
	SourceType models.SourceType `json:"source_type"`
	Count      int64             `json:"count"`
}

// LeadRepository defines the interface for lead persistence operations.
type LeadRepository interface {
	// Insert stores a lead in its source-specific table. It returns false
	// if a lead with the same identity hash already exists (not an error).
	// Returns error only for actual database failures.
	Insert(ctx context.Context, lead *models.Lead) (bool, error)

	// RecentLeads returns leads created at or after the given time with a
	// score of at least minScore, across all source tables, newest first.
	// Returns an empty slice if nothing matches (not an error).
	RecentLeads(ctx context.Context, since time.Time, minScore int) ([]models.Lead, error)

	// CountBySource returns the total number of stored leads per source type.
	CountBySource(ctx context.Context) ([]SourceCount, error)

	// CountSince returns the number of leads created at or after the given
	// time across all source tables.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// leadRepository is the concrete implementation of LeadRepository.
type leadRepository struct {
	db *database.Database
}

// NewLeadRepository creates a new instance of LeadRepository.
func NewLeadRepository(db *database.Database) LeadRepository {
	return &leadRepository{
		db: db,
	}
}

// leadColumnList is the insert column order shared by every lead table.
const leadColumnList = `
	identity_hash, source_type, source_url, fetched_at,
	address, city, state, postal_code, county,
	value, built_year,
	listing_id, property_type, square_feet, days_on_market,
	account_number,
	permit_id, permit_type, work_description, permit_date,
	event_id, event_type, event_date, hail_size_in, wind_speed_mph,
	storm_affected, lead_score, in_region`

// Insert writes the lead into the table for its source type. Duplicate
// identity hashes are absorbed by ON CONFLICT DO NOTHING; a zero rows-affected
// result means the lead was already stored.
func (r *leadRepository) Insert(ctx context.Context, lead *models.Lead) (bool, error) {
	if !lead.SourceType.Valid() {
		return false, fmt.Errorf("cannot insert lead with unknown source type %q", lead.SourceType)
	}
	if lead.IdentityHash == "" {
		return false, fmt.Errorf("cannot insert lead without identity hash")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			$16,
			$17, $18, $19, $20,
			$21, $22, $23, $24, $25,
			$26, $27, $28
		)
		ON CONFLICT (identity_hash) DO NOTHING
	`, lead.SourceType.Table(), leadColumnList)

	tag, err := r.db.Pool.Exec(ctx, query,
		lead.IdentityHash, lead.SourceType, lead.SourceURL, lead.FetchedAt,
		lead.Address, lead.City, lead.State, lead.PostalCode, lead.County,
		lead.Value, lead.BuiltYear,
		lead.ListingID, lead.PropertyType, lead.SquareFeet, lead.DaysOnMarket,
		lead.AccountNumber,
		lead.PermitID, lead.PermitType, lead.WorkDescription, lead.PermitDate,
		lead.EventID, lead.EventType, lead.EventDate, lead.HailSizeIn, lead.WindSpeedMPH,
		lead.StormAffected, lead.LeadScore, lead.InRegion,
	)
	if err != nil {
		// A concurrent insert can still surface the unique violation directly.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert %s lead: %w", lead.SourceType, err)
	}

	return tag.RowsAffected() > 0, nil
}

// recentLeadsQuery unions the four source tables so downstream consumers can
// poll one endpoint regardless of where a lead originated.
func recentLeadsQuery() string {
	selects := make([]string, 0, len(models.SourceTypes()))
	for _, st := range models.SourceTypes() {
		selects = append(selects, fmt.Sprintf(`
			SELECT %s, created_at FROM %s
			WHERE created_at >= $1 AND lead_score >= $2`,
			leadColumnList, st.Table()))
	}

	query := selects[0]
	for _, s := range selects[1:] {
		query += "\n\t\t\tUNION ALL" + s
	}
	return query + "\n\t\t\tORDER BY created_at DESC"
}

// RecentLeads returns scored leads created since the given time, newest first.
func (r *leadRepository) RecentLeads(ctx context.Context, since time.Time, minScore int) ([]models.Lead, error) {
	rows, err := r.db.Pool.Query(ctx, recentLeadsQuery(), since, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent leads: %w", err)
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lead rows: %w", err)
	}

	return leads, nil
}

// scanLead reads one row produced by recentLeadsQuery.
func scanLead(row pgx.Row) (models.Lead, error) {
	var lead models.Lead
	var createdAt time.Time

	err := row.Scan(
		&lead.IdentityHash, &lead.SourceType, &lead.SourceURL, &lead.FetchedAt,
		&lead.Address, &lead.City, &lead.State, &lead.PostalCode, &lead.County,
		&lead.Value, &lead.BuiltYear,
		&lead.ListingID, &lead.PropertyType, &lead.SquareFeet, &lead.DaysOnMarket,
		&lead.AccountNumber,
		&lead.PermitID, &lead.PermitType, &lead.WorkDescription, &lead.PermitDate,
		&lead.EventID, &lead.EventType, &lead.EventDate, &lead.HailSizeIn, &lead.WindSpeedMPH,
		&lead.StormAffected, &lead.LeadScore, &lead.InRegion,
		&createdAt,
	)
	return lead, err
}

// CountBySource returns per-source totals, including zero rows for sources
// that have no leads yet.
func (r *leadRepository) CountBySource(ctx context.Context) ([]SourceCount, error) {
	counts := make([]SourceCount, 0, len(models.SourceTypes()))
	for _, st := range models.SourceTypes() {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", st.Table())

		var count int64
		if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s leads: %w", st, err)
		}
		counts = append(counts, SourceCount{SourceType: st, Count: count})
	}
	return counts, nil
}

// CountSince returns how many leads were stored at or after the given time.
func (r *leadRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	for _, st := range models.SourceTypes() {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE created_at >= $1", st.Table())

		var count int64
		if err := r.db.Pool.QueryRow(ctx, query, since).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count recent %s leads: %w", st, err)
		}
		total += count
	}
	return total, nil
}
