package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Memory type categories. Informational only; nothing in the recall path
// branches on them.
const (
	TypeConversational = "conversational"
	TypeEvent          = "event"
	TypeSystem         = "system"
)

// Memory is one episodic memory record.
type Memory struct {
	ID             int64
	OwnerID        int64 // 0 = not tied to a user
	CreatedAt      int64 // unix millis
	Content        string
	Embedding      []float32
	EmotionTags    []string
	SentimentScore float64 // in [-1, 1]
	MemoryType     string
	Stability      float64 // > 0; grows with each recall
	BaseImportance float64
	LastAccessedAt int64 // unix millis
	RecallCount    int
}

const memoryColumns = `id, owner_id, created_at, content, embedding, emotion_tags,
	sentiment_score, memory_type, stability, base_importance, last_accessed_at, recall_count`

// InsertMemory stores a new memory and assigns its ID.
// Zero timestamps default to now; zero stability defaults to 1.0.
func (db *DB) InsertMemory(m *Memory) error {
	now := time.Now().UnixMilli()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	if m.LastAccessedAt == 0 {
		m.LastAccessedAt = m.CreatedAt
	}
	if m.Stability <= 0 {
		m.Stability = 1.0
	}
	if m.MemoryType == "" {
		m.MemoryType = TypeConversational
	}

	tags := m.EmotionTags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal emotion tags: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO memories (owner_id, created_at, content, embedding, emotion_tags,
			sentiment_score, memory_type, stability, base_importance, last_accessed_at, recall_count)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.OwnerID, m.CreatedAt, m.Content, EncodeVector(m.Embedding), string(tagsJSON),
		m.SentimentScore, m.MemoryType, m.Stability, m.BaseImportance, m.LastAccessedAt, m.RecallCount)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	id, _ := result.LastInsertId()
	m.ID = id
	return nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(id int64) (*Memory, error) {
	row := db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ListCandidates returns all memories, optionally scoped to one owner
// (ownerID 0 = all). Ordered by id ascending so ranking has a stable,
// deterministic tie-break order.
func (db *DB) ListCandidates(ownerID int64) ([]Memory, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == 0 {
		rows, err = db.Query(`SELECT ` + memoryColumns + ` FROM memories ORDER BY id`)
	} else {
		rows, err = db.Query(`SELECT `+memoryColumns+` FROM memories WHERE owner_id = ? ORDER BY id`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ListRecentMemories returns the most recently created memories,
// optionally scoped to one owner. Recency fallback for recall when
// no query embedding is available.
func (db *DB) ListRecentMemories(ownerID int64, limit int) ([]Memory, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == 0 {
		rows, err = db.Query(`SELECT `+memoryColumns+` FROM memories ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	} else {
		rows, err = db.Query(`SELECT `+memoryColumns+` FROM memories WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, ownerID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list recent memories: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ReinforceMemory strengthens one memory after it was returned by a recall:
// stability is multiplied in a single in-store expression (no read-modify-write
// race), last_accessed_at moves to now, recall_count increments by one.
func (db *DB) ReinforceMemory(id int64, multiplier float64, now int64) error {
	if multiplier <= 0 {
		return fmt.Errorf("reinforce memory %d: multiplier must be > 0, got %v", id, multiplier)
	}

	result, err := db.Exec(`
		UPDATE memories
		SET stability = stability * ?, last_accessed_at = ?, recall_count = recall_count + 1
		WHERE id = ?
	`, multiplier, now, id)
	if err != nil {
		return fmt.Errorf("reinforce memory %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reinforce memory %d: no such memory", id)
	}
	return nil
}

// CountMemories returns the total number of stored memories.
func (db *DB) CountMemories() (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var m Memory
	var ownerID sql.NullInt64
	var blob []byte
	var tagsJSON string

	err := row.Scan(&m.ID, &ownerID, &m.CreatedAt, &m.Content, &blob, &tagsJSON,
		&m.SentimentScore, &m.MemoryType, &m.Stability, &m.BaseImportance,
		&m.LastAccessedAt, &m.RecallCount)
	if err != nil {
		return nil, err
	}

	m.OwnerID = ownerID.Int64
	m.Embedding = DecodeVector(blob)
	if err := json.Unmarshal([]byte(tagsJSON), &m.EmotionTags); err != nil {
		m.EmotionTags = nil // tolerate legacy rows with malformed tags
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}
