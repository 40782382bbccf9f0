package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL through the pgx stdlib driver and verifies the
// connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// CreateSchema creates all tables needed by the engine.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
-- Voter records. Never deleted; verification outcome only transitions state.
CREATE TABLE IF NOT EXISTS voters (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    external_key TEXT NOT NULL,
    document_ref TEXT NOT NULL DEFAULT '',
    photo_ref TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'pending' CHECK (state IN ('pending', 'verified', 'rejected')),
    rejection_reason TEXT NOT NULL DEFAULT '',
    reviewed_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- One live registration per identity key; a rejected attempt frees the key
-- for a fresh registration.
CREATE UNIQUE INDEX IF NOT EXISTS idx_voters_external_key_live
    ON voters(external_key) WHERE state <> 'rejected';

CREATE INDEX IF NOT EXISTS idx_voters_state ON voters(state);

-- Elections. last_sequence is the per-election ballot counter; the row lock
-- taken by its UPDATE serializes sequence assignment.
CREATE TABLE IF NOT EXISTS elections (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'draft' CHECK (state IN ('draft', 'active', 'completed')),
    start_at TIMESTAMPTZ,
    end_at TIMESTAMPTZ,
    last_sequence BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS candidates (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    name TEXT NOT NULL,
    affiliation TEXT NOT NULL DEFAULT '',
    position INT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_election_id ON candidates(election_id);

-- Credentials. The (voter_id, election_id) index enforces one credential per
-- pair outright: consumed rows keep blocking reissue.
CREATE TABLE IF NOT EXISTS credentials (
    id UUID PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    voter_id UUID NOT NULL REFERENCES voters(id),
    election_id UUID NOT NULL REFERENCES elections(id),
    issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    consumed BOOLEAN NOT NULL DEFAULT FALSE,
    consumed_at TIMESTAMPTZ,
    UNIQUE (voter_id, election_id)
);

-- Append-only ballot log. Rows reference the credential, never the voter;
-- the unique credential_id index backs the one-ballot-per-credential
-- invariant.
CREATE TABLE IF NOT EXISTS ballots (
    id UUID PRIMARY KEY,
    election_id UUID NOT NULL REFERENCES elections(id),
    credential_id UUID NOT NULL UNIQUE REFERENCES credentials(id),
    candidate_id UUID NOT NULL REFERENCES candidates(id),
    sequence BIGINT NOT NULL,
    cast_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (election_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_ballots_election_id ON ballots(election_id);

-- Append-only audit trail.
CREATE TABLE IF NOT EXISTS audit_events (
    id UUID PRIMARY KEY,
    action TEXT NOT NULL,
    election_id UUID,
    subject_id UUID,
    detail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_events_election_id ON audit_events(election_id);
`
