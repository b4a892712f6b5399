package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// The CHECK on items enforces the stock bound at the storage layer as a
// backstop; the store still detects violations itself so they can be
// reported as corruption rather than a bare constraint failure.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL,
    category         TEXT,
    estimated_price  REAL NOT NULL DEFAULT 0,
    initial_quantity INTEGER NOT NULL CHECK (initial_quantity >= 0),
    quantity         INTEGER NOT NULL CHECK (quantity >= 0 AND quantity <= initial_quantity),
    image            BLOB,
    image_mime       TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at       DATETIME
);

CREATE TABLE IF NOT EXISTS lease_requests (
    id              INTEGER PRIMARY KEY,
    item_id         INTEGER NOT NULL REFERENCES items(id),
    requester_id    INTEGER NOT NULL REFERENCES users(id),
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    requested_until DATETIME NOT NULL,
    purpose         TEXT,
    status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    approver_id     INTEGER REFERENCES users(id),
    decided_at      DATETIME,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_lease_requests_status
    ON lease_requests(status) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS active_leases (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    holder_id   INTEGER NOT NULL REFERENCES users(id),
    quantity    INTEGER NOT NULL CHECK (quantity > 0),
    lease_until DATETIME NOT NULL,
    request_id  INTEGER REFERENCES lease_requests(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_active_leases_item ON active_leases(item_id);
CREATE INDEX IF NOT EXISTS idx_active_leases_until ON active_leases(lease_until);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: requests created before approval tracking landed have
	// no decided_at; backfill it from created_at for decided requests so
	// reports can rely on the column being set.
	`UPDATE lease_requests SET decided_at = created_at
	     WHERE decided_at IS NULL AND status != 'pending'`,
}

// Migrate creates the schema and applies migrations. Idempotent.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
