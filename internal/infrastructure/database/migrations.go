package database

import "database/sql"

// Schema runs at startup. Embedding records reference riders with cascade
// delete; transactions are append-only and are never deleted while their
// rider exists.
const schema = `
CREATE TABLE IF NOT EXISTS riders (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    rider_number BIGSERIAL UNIQUE,
    balance NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    face_encoding TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS embedding_records (
    id UUID PRIMARY KEY,
    rider_id UUID NOT NULL REFERENCES riders(id) ON DELETE CASCADE,
    angle TEXT NOT NULL,
    encoding TEXT NOT NULL,
    schema_version INT NOT NULL DEFAULT 1,
    face_width INT NOT NULL,
    face_height INT NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    retired_at TIMESTAMPTZ,
    metadata JSONB
);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    rider_id UUID NOT NULL REFERENCES riders(id) ON DELETE CASCADE,
    amount NUMERIC(12,2) NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    metadata JSONB
);

CREATE TABLE IF NOT EXISTS buses (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    route TEXT NOT NULL,
    current_stop TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS drivers (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    bus_id UUID NOT NULL REFERENCES buses(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_embedding_records_rider_id ON embedding_records(rider_id);
CREATE INDEX IF NOT EXISTS idx_transactions_rider_created ON transactions(rider_id, created_at DESC);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
