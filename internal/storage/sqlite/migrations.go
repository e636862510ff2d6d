package sqlite

import "database/sql"

// schema sets up the client state tables. It runs on every open so a fresh
// data directory is usable immediately.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cookies (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    path TEXT NOT NULL,
    expires INTEGER NOT NULL,
    secure INTEGER NOT NULL,
    same_site INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
