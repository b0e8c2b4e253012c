package store

import (
	"database/sql"
	"fmt"
	"time"
)

// PendingEvent is one entry in the agent's prioritized inbox.
type PendingEvent struct {
	ID         int64
	SourceType string // e.g. "reply", "dm", "system"
	Payload    string // JSON
	Priority   int
	Processed  bool
	CreatedAt  int64
}

// AddPendingEvent queues an event for the agent loop and returns its id.
func (db *DB) AddPendingEvent(sourceType, payload string, priority int) (int64, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO pending_events (source_type, payload, priority, processed, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, sourceType, payload, priority, now)
	if err != nil {
		return 0, fmt.Errorf("add pending event: %w", err)
	}
	id, _ := result.LastInsertId()
	return id, nil
}

// NextPendingEvent returns the highest-priority unprocessed event
// (oldest first on ties), or nil when the queue is drained.
func (db *DB) NextPendingEvent() (*PendingEvent, error) {
	var e PendingEvent
	var processed int
	err := db.QueryRow(`
		SELECT id, source_type, payload, priority, processed, created_at
		FROM pending_events WHERE processed = 0
		ORDER BY priority DESC, created_at ASC LIMIT 1
	`).Scan(&e.ID, &e.SourceType, &e.Payload, &e.Priority, &processed, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending event: %w", err)
	}
	e.Processed = processed != 0
	return &e, nil
}

// MarkEventProcessed flags an event as handled.
func (db *DB) MarkEventProcessed(id int64) error {
	result, err := db.Exec(`UPDATE pending_events SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("mark event processed: no event %d", id)
	}
	return nil
}

// PendingEventCount returns the number of unprocessed events.
func (db *DB) PendingEventCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pending_events WHERE processed = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pending event count: %w", err)
	}
	return n, nil
}
