package store

import (
	"database/sql"
	"fmt"
	"time"
)

// maxActionDetailSize caps the detail payload stored per action log row.
// Prevents bloat from oversized tool output or event payloads.
const maxActionDetailSize = 10 * 1024 // 10KB

// Action is one entry in the agent's action audit trail.
type Action struct {
	ID         int64
	TraceID    string
	ActionType string
	Detail     string // JSON
	Reason     string
	CreatedAt  int64
}

// LogAction appends an action to the audit trail. Truncates detail to 10KB.
func (db *DB) LogAction(actionType, detail, reason, traceID string) error {
	if len(detail) > maxActionDetailSize {
		detail = detail[:maxActionDetailSize]
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO actions_log (trace_id, action_type, detail, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, traceID, actionType, detail, reason, now)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// RecentActions returns the most recent N log entries, newest first.
func (db *DB) RecentActions(limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, trace_id, action_type, detail, reason, created_at
		FROM actions_log ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// ActionsInRange returns log entries within [start, end] millis, oldest first.
func (db *DB) ActionsInRange(start, end int64) ([]Action, error) {
	rows, err := db.Query(`
		SELECT id, trace_id, action_type, detail, reason, created_at
		FROM actions_log WHERE created_at BETWEEN ? AND ? ORDER BY created_at
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("actions in range: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// SearchActions does a simple LIKE search over detail and reason.
func (db *DB) SearchActions(keyword string, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 20
	}
	param := "%" + keyword + "%"
	rows, err := db.Query(`
		SELECT id, trace_id, action_type, detail, reason, created_at
		FROM actions_log WHERE detail LIKE ? OR reason LIKE ?
		ORDER BY created_at DESC LIMIT ?
	`, param, param, limit)
	if err != nil {
		return nil, fmt.Errorf("search actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

func scanActions(rows *sql.Rows) ([]Action, error) {
	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.TraceID, &a.ActionType, &a.Detail, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
