package database

import (
	"context"
	"fmt"
)

// leadColumns are shared by every per-source lead table. The unique index on
// identity_hash is what the insert path's ON CONFLICT clause targets.
const leadColumns = `
	id               BIGSERIAL PRIMARY KEY,
	identity_hash    TEXT NOT NULL UNIQUE,
	source_type      TEXT NOT NULL,
	source_url       TEXT NOT NULL,
	fetched_at       TIMESTAMPTZ NOT NULL,
	address          TEXT NOT NULL,
	city             TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	postal_code      TEXT NOT NULL DEFAULT '',
	county           TEXT NOT NULL DEFAULT '',
	value            DOUBLE PRECISION,
	built_year       INTEGER,
	listing_id       TEXT,
	property_type    TEXT,
	square_feet      INTEGER,
	days_on_market   INTEGER,
	account_number   TEXT,
	permit_id        TEXT,
	permit_type      TEXT,
	work_description TEXT,
	permit_date      TIMESTAMPTZ,
	event_id         TEXT,
	event_type       TEXT,
	event_date       TIMESTAMPTZ,
	hail_size_in     DOUBLE PRECISION,
	wind_speed_mph   INTEGER,
	storm_affected   BOOLEAN NOT NULL DEFAULT FALSE,
	lead_score       INTEGER NOT NULL DEFAULT 0,
	in_region        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()`

var leadTables = []string{
	"listing_leads",
	"assessor_leads",
	"permit_leads",
	"storm_leads",
}

// EnsureSchema creates the per-source lead tables and their supporting
// indexes if they do not already exist. It is safe to call on every startup.
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, table := range leadTables {
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, leadColumns)
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}

		idx := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC)",
			table, table,
		)
		if _, err := db.Pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", table, err)
		}

		scoreIdx := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_lead_score ON %s (lead_score DESC)",
			table, table,
		)
		if _, err := db.Pool.Exec(ctx, scoreIdx); err != nil {
			return fmt.Errorf("failed to create score index on %s: %w", table, err)
		}
	}
	return nil
}
