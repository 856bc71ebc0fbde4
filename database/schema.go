package database

import (
	"context"
	"fmt"
)

// eventsTableDDL keeps the client-reported timestamp verbatim as a string;
// it is only ever parsed when sessions are grouped.
const eventsTableDDL = `
CREATE TABLE IF NOT EXISTS analytics_events (
	event_id             String,
	event_type           LowCardinality(String),
	session_id           String,
	visitor_id           String,
	page_path            String,
	client_timestamp_utc String,
	timestamp            DateTime64(3, 'UTC'),
	referrer             String,
	user_agent           String,
	ip_address           String,
	duration_ms          Int64,
	event_data           String
) ENGINE = MergeTree
ORDER BY (timestamp, event_type)
`

const usersTableDDL = `
CREATE TABLE IF NOT EXISTS users (
	id              SERIAL PRIMARY KEY,
	email           TEXT NOT NULL,
	hashed_password BYTEA NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);
`

func (c *ClickHouseClient) EnsureSchema(ctx context.Context) error {
	if err := c.Conn.Exec(ctx, eventsTableDDL); err != nil {
		return fmt.Errorf("creating analytics_events table: %w", err)
	}
	return nil
}

func (c *DBClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, usersTableDDL); err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}
