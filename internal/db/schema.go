package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL CHECK (trim(name) <> ''),
    email         TEXT NOT NULL CHECK (trim(email) <> ''),
    password_hash TEXT NOT NULL CHECK (password_hash <> ''),
    phone_number  TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    bio           TEXT NOT NULL DEFAULT '',
    profile_image TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS items (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL CHECK (trim(name) <> ''),
    email        TEXT NOT NULL CHECK (trim(email) <> ''),
    phone_number TEXT NOT NULL CHECK (trim(phone_number) <> ''),
    title        TEXT NOT NULL CHECK (trim(title) <> ''),
    description  TEXT NOT NULL CHECK (trim(description) <> ''),
    location     TEXT NOT NULL CHECK (trim(location) <> ''),
    item_type    TEXT NOT NULL DEFAULT 'found' CHECK (item_type IN ('lost', 'found')),
    image        TEXT NOT NULL CHECK (image <> ''),
    loser_phone  TEXT NOT NULL DEFAULT '',
    loser_email  TEXT NOT NULL DEFAULT '',
    event_date   DATETIME,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_type ON items(item_type, created_at);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
