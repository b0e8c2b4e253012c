package store

import (
	"database/sql"
	"fmt"
	"time"
)

// User is a known person memories can be scoped to. Nothing in the recall
// path validates ownership; the id is an opaque scope.
type User struct {
	ID               int64
	Username         string
	DisplayName      string
	InteractionCount int
	CreatedAt        int64
}

// AddUser creates a user if the username is new and returns the stored row
// either way.
func (db *DB) AddUser(username, displayName string) (*User, error) {
	if displayName == "" {
		displayName = username
	}
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT OR IGNORE INTO users (username, display_name, created_at)
		VALUES (?, ?, ?)
	`, username, displayName, now)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	return db.GetUser(username)
}

// GetUser returns a user by username, or nil if not found.
func (db *DB) GetUser(username string) (*User, error) {
	var u User
	var displayName sql.NullString
	err := db.QueryRow(`
		SELECT id, username, display_name, interaction_count, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &displayName, &u.InteractionCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.DisplayName = displayName.String
	return &u, nil
}

// GetUserByID returns a user by id, or nil if not found.
func (db *DB) GetUserByID(id int64) (*User, error) {
	var u User
	var displayName sql.NullString
	err := db.QueryRow(`
		SELECT id, username, display_name, interaction_count, created_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &displayName, &u.InteractionCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	u.DisplayName = displayName.String
	return &u, nil
}

// TouchUser increments a user's interaction count.
func (db *DB) TouchUser(id int64) error {
	_, err := db.Exec(`UPDATE users SET interaction_count = interaction_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}
