package engine

import (
	"math"
	"sort"
	"time"

	"github.com/nobuki/engram/internal/config"
	"github.com/nobuki/engram/internal/store"
)

// Timestamps are stored as unix millis; retrievability decays on an
// hour timescale.
const millisPerHour = 3600 * 1000

// RecallConfig holds the reranking weights and the fixation constant.
// Construct once, pass by value, never mutate.
type RecallConfig struct {
	SimilarityWeight     float64
	RetrievabilityWeight float64
	EmotionWeight        float64
	FixationAlpha        float64
}

// DefaultRecallConfig returns the standard blend: similarity dominates,
// retrievability and emotional salience bias the ordering.
func DefaultRecallConfig() RecallConfig {
	return RecallConfig{
		SimilarityWeight:     0.5,
		RetrievabilityWeight: 0.3,
		EmotionWeight:        0.2,
		FixationAlpha:        0.1,
	}
}

// RecallConfigFrom builds scoring weights from file config, falling back
// to defaults for zeroed fields.
func RecallConfigFrom(cfg config.RecallConfig) RecallConfig {
	rc := DefaultRecallConfig()
	if cfg.SimilarityWeight > 0 {
		rc.SimilarityWeight = cfg.SimilarityWeight
	}
	if cfg.RetrievabilityWeight > 0 {
		rc.RetrievabilityWeight = cfg.RetrievabilityWeight
	}
	if cfg.EmotionWeight > 0 {
		rc.EmotionWeight = cfg.EmotionWeight
	}
	if cfg.FixationAlpha > 0 {
		rc.FixationAlpha = cfg.FixationAlpha
	}
	return rc
}

// RecallResult pairs a memory with its transient ranking annotations.
// Annotations live here, beside the record; they are never written back
// onto the stored row.
type RecallResult struct {
	Memory         store.Memory
	Score          float64
	Similarity     float64
	Retrievability float64
	Scored         bool // false for recency-fallback results
}

// Retrievability models the Ebbinghaus forgetting curve:
// exp(-elapsedHours/stability). 1 at zero elapsed time, decaying toward 0,
// more slowly for higher stability. Negative elapsed time (clock skew)
// clamps to 0.
func Retrievability(elapsedHours, stability float64) float64 {
	if elapsedHours < 0 {
		elapsedHours = 0
	}
	if stability <= 0 {
		stability = 1.0
	}
	return math.Exp(-elapsedHours / stability)
}

// score computes the composite recall score for one candidate given its
// precomputed query similarity.
func (c RecallConfig) score(m *store.Memory, similarity float64, now time.Time) (score, retr float64) {
	elapsed := float64(now.UnixMilli()-m.LastAccessedAt) / millisPerHour
	retr = Retrievability(elapsed, m.Stability)
	emotion := math.Abs(m.SentimentScore)
	score = c.SimilarityWeight*similarity + c.RetrievabilityWeight*retr + c.EmotionWeight*emotion
	return score, retr
}

// Rank scores every candidate against the query vector and sorts by score
// descending. The sort is stable: candidates with equal scores keep their
// fetch order, so ranking is deterministic for a fixed data set.
func (c RecallConfig) Rank(candidates []store.Memory, queryVec []float32, now time.Time) []RecallResult {
	results := make([]RecallResult, len(candidates))
	for i := range candidates {
		sim := CosineSimilarity(queryVec, candidates[i].Embedding)
		s, r := c.score(&candidates[i], sim, now)
		results[i] = RecallResult{
			Memory:         candidates[i],
			Score:          s,
			Similarity:     sim,
			Retrievability: r,
			Scored:         true,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
