package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: episodic memory records with embeddings",
		SQL: `
CREATE TABLE memories (
    id               INTEGER PRIMARY KEY,
    owner_id         INTEGER,
    created_at       INTEGER NOT NULL,
    content          TEXT NOT NULL,

    -- Embedding BLOB: 4 bytes per float32, little-endian. Empty/NULL = no vector.
    embedding        BLOB,

    -- Emotional metadata
    emotion_tags     TEXT NOT NULL DEFAULT '[]',
    sentiment_score  REAL NOT NULL DEFAULT 0 CHECK (sentiment_score BETWEEN -1.0 AND 1.0),
    memory_type      TEXT NOT NULL DEFAULT 'conversational' CHECK (memory_type IN ('conversational', 'event', 'system')),

    -- Forgetting-curve state
    stability        REAL NOT NULL DEFAULT 1.0 CHECK (stability > 0),
    base_importance  REAL NOT NULL DEFAULT 0.5,
    last_accessed_at INTEGER NOT NULL,
    recall_count     INTEGER NOT NULL DEFAULT 0 CHECK (recall_count >= 0)
);

CREATE INDEX idx_memories_owner   ON memories(owner_id);
CREATE INDEX idx_memories_created ON memories(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "users: known people memories can be scoped to",
		SQL: `
CREATE TABLE users (
    id                INTEGER PRIMARY KEY,
    username          TEXT NOT NULL UNIQUE,
    display_name      TEXT,
    interaction_count INTEGER NOT NULL DEFAULT 0,
    created_at        INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "actions_log: audit trail of agent decisions",
		SQL: `
CREATE TABLE actions_log (
    id          INTEGER PRIMARY KEY,
    trace_id    TEXT,
    action_type TEXT NOT NULL,
    detail      TEXT,
    reason      TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_actions_created ON actions_log(created_at DESC);
CREATE INDEX idx_actions_type    ON actions_log(action_type);
`,
	},
	{
		Version:     4,
		Description: "pending_events: prioritized inbox for the agent loop",
		SQL: `
CREATE TABLE pending_events (
    id          INTEGER PRIMARY KEY,
    source_type TEXT NOT NULL,
    payload     TEXT NOT NULL,
    priority    INTEGER NOT NULL DEFAULT 0,
    processed   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_events_pending ON pending_events(processed, priority DESC, created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
