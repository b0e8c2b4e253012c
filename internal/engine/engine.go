package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nobuki/engram/internal/store"
)

const (
	defaultRecallLimit  = 5
	defaultEmbedTimeout = 10 * time.Second
)

// Engine orchestrates memory persistence, recall and reinforcement.
type Engine struct {
	DB           *store.DB
	Embedder     Embedder
	Config       RecallConfig
	EmbedTimeout time.Duration
}

// New creates a new Engine. The embedder is optional; without one, recall
// degrades to recency ordering and saved memories carry no vector.
func New(db *store.DB, cfg RecallConfig) *Engine {
	return &Engine{
		DB:     db,
		Config: cfg,
	}
}

// SetEmbedder configures the embedding provider.
func (e *Engine) SetEmbedder(emb Embedder) {
	e.Embedder = emb
}

// Recall returns the top-limit memories for the query, ranked by the
// composite score, and reinforces every memory it returns. When no query
// embedding is available (no embedder, provider failure, timeout) it falls
// back to the most recently created memories, unscored.
func (e *Engine) Recall(ctx context.Context, query string, ownerID int64, limit int) ([]RecallResult, error) {
	if limit <= 0 {
		limit = defaultRecallLimit
	}
	traceID := uuid.NewString()

	queryVec := e.embed(ctx, query)
	if len(queryVec) == 0 {
		recent, err := e.DB.ListRecentMemories(ownerID, limit)
		if err != nil {
			return nil, fmt.Errorf("recency fallback: %w", err)
		}
		results := make([]RecallResult, len(recent))
		for i := range recent {
			results[i] = RecallResult{Memory: recent[i]}
		}
		log.Printf("recall %s: no query embedding, recency fallback (%d results)", traceID, len(results))
		e.logAction("recall", map[string]any{
			"query": query, "owner_id": ownerID, "returned": len(results), "fallback": true,
		}, "embedding unavailable, recency fallback", traceID)
		return results, nil
	}

	candidates, err := e.DB.ListCandidates(ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	results := e.Config.Rank(candidates, queryVec, time.Now())
	if len(results) > limit {
		results = results[:limit]
	}

	// Fixation: every returned memory gets stronger. A failed write is
	// logged, never fatal, and the recall result still goes out.
	now := time.Now().UnixMilli()
	for i := range results {
		if err := e.DB.ReinforceMemory(results[i].Memory.ID, 1+e.Config.FixationAlpha, now); err != nil {
			log.Printf("recall %s: reinforce memory %d: %v", traceID, results[i].Memory.ID, err)
		}
	}

	e.logAction("recall", map[string]any{
		"query": query, "owner_id": ownerID, "candidates": len(candidates), "returned": len(results),
	}, "semantic recall", traceID)
	return results, nil
}

// Remember stores a new memory. Base importance derives from sentiment
// magnitude and seeds the initial stability; a failed embedding is stored
// as an empty vector, not an error.
func (e *Engine) Remember(ctx context.Context, content string, ownerID int64, sentiment float64, emotions []string, memoryType string) (int64, error) {
	sentiment = clampSentiment(sentiment)
	baseImportance := 0.5 + 0.5*math.Abs(sentiment)
	now := time.Now().UnixMilli()

	m := &store.Memory{
		OwnerID:        ownerID,
		CreatedAt:      now,
		Content:        content,
		Embedding:      e.embed(ctx, content),
		EmotionTags:    emotions,
		SentimentScore: sentiment,
		MemoryType:     memoryType,
		Stability:      baseImportance,
		BaseImportance: baseImportance,
		LastAccessedAt: now,
	}
	if err := e.DB.InsertMemory(m); err != nil {
		return 0, err
	}

	traceID := uuid.NewString()
	e.logAction("remember", map[string]any{
		"memory_id": m.ID, "owner_id": ownerID, "memory_type": m.MemoryType,
		"sentiment": sentiment, "embedded": len(m.Embedding) > 0,
	}, "memory stored", traceID)
	return m.ID, nil
}

// embed returns the embedding for text, or nil on any failure. Provider
// errors and timeouts are treated identically to "provider returned empty".
func (e *Engine) embed(ctx context.Context, text string) []float32 {
	if e.Embedder == nil {
		return nil
	}

	timeout := e.EmbedTimeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vec, err := e.Embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("embed (%s): %v", e.Embedder.Model(), err)
		return nil
	}
	return vec
}

// logAction writes to the audit trail; failures are logged and swallowed
// so bookkeeping never breaks the operation it describes.
func (e *Engine) logAction(actionType string, detail map[string]any, reason, traceID string) {
	payload, err := json.Marshal(detail)
	if err != nil {
		payload = []byte("{}")
	}
	if err := e.DB.LogAction(actionType, string(payload), reason, traceID); err != nil {
		log.Printf("action log (%s): %v", actionType, err)
	}
}

func clampSentiment(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
