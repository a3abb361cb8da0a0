package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema creates every table the service reads or writes.
const Schema = `
CREATE TABLE IF NOT EXISTS prospects (
    id           UUID PRIMARY KEY,
    user_id      TEXT NOT NULL DEFAULT '',
    linkedin_url TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL DEFAULT '',
    role         TEXT NOT NULL DEFAULT '',
    company      TEXT NOT NULL DEFAULT '',
    location     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS enrichments (
    id                 UUID PRIMARY KEY,
    prospect_id        UUID NOT NULL REFERENCES prospects(id),
    linkedin_url       TEXT NOT NULL,
    role               TEXT NOT NULL DEFAULT '',
    company            TEXT NOT NULL DEFAULT '',
    fit_badge          TEXT NOT NULL DEFAULT '',
    fit_summary        TEXT NOT NULL DEFAULT '',
    recommended_action TEXT NOT NULL DEFAULT '',
    responsibilities   TEXT NOT NULL DEFAULT '',
    insights           TEXT[] NOT NULL DEFAULT '{}',
    background         TEXT[] NOT NULL DEFAULT '{}',
    news               JSONB NOT NULL DEFAULT '[]',
    financial          JSONB NOT NULL DEFAULT '[]',
    action_plan        JSONB NOT NULL DEFAULT '{}',
    reasons            JSONB NOT NULL DEFAULT '{}',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS enrichments_latest ON enrichments (linkedin_url, created_at DESC);

CREATE TABLE IF NOT EXISTS emails (
    id           UUID PRIMARY KEY,
    prospect_id  UUID NOT NULL REFERENCES prospects(id),
    linkedin_url TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL DEFAULT '',
    company      TEXT NOT NULL DEFAULT '',
    tone         TEXT NOT NULL DEFAULT '',
    draft        TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activity_log (
    id           BIGSERIAL PRIMARY KEY,
    user_id      TEXT NOT NULL DEFAULT '',
    linkedin_url TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL DEFAULT '',
    company      TEXT NOT NULL DEFAULT '',
    event        TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    id                       TEXT PRIMARY KEY,
    vendor_name              TEXT NOT NULL DEFAULT '',
    vendor_website           TEXT NOT NULL DEFAULT '',
    vendor_pitch             TEXT NOT NULL DEFAULT '',
    vendor_value_props       TEXT[],
    vendor_outcomes          TEXT[],
    vendor_personas          TEXT[],
    vendor_icp_industries    TEXT[],
    vendor_pain_points       TEXT[],
    vendor_integrations      TEXT[],
    vendor_proof_points      TEXT[],
    vendor_case_studies      TEXT[],
    vendor_customer_examples TEXT[],
    vendor_tone              TEXT NOT NULL DEFAULT '',
    vendor_cta_preference    TEXT NOT NULL DEFAULT '',
    vendor_booking_url       TEXT NOT NULL DEFAULT '',
    vendor_signature         TEXT NOT NULL DEFAULT '',
    vendor_industry          TEXT NOT NULL DEFAULT '',
    remote_enabled           BOOLEAN NOT NULL DEFAULT FALSE,
    remote_company_id        TEXT NOT NULL DEFAULT '',
    remote_endpoint          TEXT NOT NULL DEFAULT '',
    remote_bearer            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pairing_codes (
    code          TEXT PRIMARY KEY,
    access_token  TEXT NOT NULL,
    refresh_token TEXT NOT NULL DEFAULT '',
    claimed       BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at    TIMESTAMPTZ
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
