package engine

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/nobuki/engram/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// staticEmbedder is a test double that returns canned vectors per text.
type staticEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func (s *staticEmbedder) Model() string { return "static" }

func testEngine(t *testing.T, emb Embedder) *Engine {
	t.Helper()
	eng := New(testDB(t), DefaultRecallConfig())
	eng.SetEmbedder(emb)
	return eng
}

func TestRememberDerivesImportance(t *testing.T) {
	eng := testEngine(t, nil)

	id, err := eng.Remember(context.Background(), "the master praised the new memory system", 0, 0.8, []string{"happy"}, "")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	m, err := eng.DB.GetMemory(id)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	// baseImportance = 0.5 + 0.5*|0.8| = 0.9, seeds stability
	if math.Abs(m.BaseImportance-0.9) > 1e-9 {
		t.Errorf("BaseImportance = %f, want 0.9", m.BaseImportance)
	}
	if math.Abs(m.Stability-0.9) > 1e-9 {
		t.Errorf("Stability = %f, want 0.9", m.Stability)
	}
	if m.LastAccessedAt != m.CreatedAt {
		t.Errorf("LastAccessedAt = %d, want CreatedAt %d", m.LastAccessedAt, m.CreatedAt)
	}
	if m.RecallCount != 0 {
		t.Errorf("RecallCount = %d, want 0", m.RecallCount)
	}
	if m.MemoryType != store.TypeConversational {
		t.Errorf("MemoryType = %q, want default conversational", m.MemoryType)
	}
	// No embedder: stored without a vector, not an error
	if len(m.Embedding) != 0 {
		t.Errorf("expected empty embedding, got %v", m.Embedding)
	}
}

func TestRememberClampsSentiment(t *testing.T) {
	eng := testEngine(t, nil)

	id, err := eng.Remember(context.Background(), "overflow", 0, 2.5, nil, store.TypeEvent)
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	m, _ := eng.DB.GetMemory(id)
	if m.SentimentScore != 1.0 {
		t.Errorf("SentimentScore = %f, want clamped 1.0", m.SentimentScore)
	}
}

func TestRememberStoresEmbedding(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{
		"hello world": {0.6, 0.8},
	}}
	eng := testEngine(t, emb)

	id, err := eng.Remember(context.Background(), "hello world", 0, 0, nil, "")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	m, _ := eng.DB.GetMemory(id)
	if len(m.Embedding) != 2 || m.Embedding[0] != float32(0.6) {
		t.Errorf("Embedding = %v, want [0.6 0.8]", m.Embedding)
	}
}

func TestRememberEmbedderFailureIsNonFatal(t *testing.T) {
	emb := &staticEmbedder{err: fmt.Errorf("provider down")}
	eng := testEngine(t, emb)

	id, err := eng.Remember(context.Background(), "still stored", 0, 0, nil, "")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	m, _ := eng.DB.GetMemory(id)
	if len(m.Embedding) != 0 {
		t.Errorf("expected empty embedding after provider failure, got %v", m.Embedding)
	}
}

func TestRecallRanksAndReinforces(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{
		"likes go":       {1, 0},
		"likes sqlite":   {0.7, 0.7},
		"hates mornings": {0, 1},
		"what about go?": {1, 0},
	}}
	eng := testEngine(t, emb)

	ctx := context.Background()
	var ids []int64
	for _, content := range []string{"likes go", "likes sqlite", "hates mornings"} {
		id, err := eng.Remember(ctx, content, 0, 0, nil, "")
		if err != nil {
			t.Fatalf("Remember %q: %v", content, err)
		}
		ids = append(ids, id)
	}

	results, err := eng.Recall(ctx, "what about go?", 0, 2)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Memory.ID != ids[0] {
		t.Errorf("top result = %d, want %d (closest vector)", results[0].Memory.ID, ids[0])
	}
	if !results[0].Scored {
		t.Error("expected scored results")
	}

	// Returned memories were reinforced
	for _, r := range results {
		m, _ := eng.DB.GetMemory(r.Memory.ID)
		if m.RecallCount != 1 {
			t.Errorf("memory %d RecallCount = %d, want 1", m.ID, m.RecallCount)
		}
		if math.Abs(m.Stability-r.Memory.Stability*1.1) > 1e-9 {
			t.Errorf("memory %d Stability = %f, want %f", m.ID, m.Stability, r.Memory.Stability*1.1)
		}
	}

	// The memory left out of the top-K is untouched
	missed, _ := eng.DB.GetMemory(ids[2])
	if missed.RecallCount != 0 {
		t.Errorf("unselected memory RecallCount = %d, want 0", missed.RecallCount)
	}
}

func TestRecallEndToEnd(t *testing.T) {
	// Full scoring arithmetic, end to end: similarity 0.9, 2h elapsed,
	// stability 1, sentiment 0.8 gives score ~0.6506; after being
	// returned, stability 1.1, recall count 1, last access reset.
	db := testDB(t)
	now := time.Now()
	m := &store.Memory{
		Content:        "the master praised the new memory system",
		Embedding:      []float32{0.9, 0.4358899},
		SentimentScore: 0.8,
		Stability:      1.0,
		CreatedAt:      now.Add(-2 * time.Hour).UnixMilli(),
		LastAccessedAt: now.Add(-2 * time.Hour).UnixMilli(),
	}
	if err := db.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	emb := &staticEmbedder{vectors: map[string][]float32{
		"praise": {1, 0},
	}}
	eng := New(db, DefaultRecallConfig())
	eng.SetEmbedder(emb)

	results, err := eng.Recall(context.Background(), "praise", 0, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if math.Abs(results[0].Score-0.6506) > 1e-3 {
		t.Errorf("Score = %f, want ~0.6506", results[0].Score)
	}
	if math.Abs(results[0].Retrievability-0.1353) > 1e-3 {
		t.Errorf("Retrievability = %f, want ~0.1353", results[0].Retrievability)
	}

	got, _ := db.GetMemory(m.ID)
	if math.Abs(got.Stability-1.1) > 1e-9 {
		t.Errorf("Stability after recall = %f, want 1.1", got.Stability)
	}
	if got.RecallCount != 1 {
		t.Errorf("RecallCount = %d, want 1", got.RecallCount)
	}
	if got.LastAccessedAt <= m.LastAccessedAt {
		t.Error("LastAccessedAt not reset to now")
	}
}

func TestRecallFallbackOnEmbedderFailure(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{
		"a": {1, 0}, "b": {1, 0}, "c": {1, 0},
	}}
	eng := testEngine(t, emb)

	ctx := context.Background()
	for _, content := range []string{"a", "b", "c"} {
		if _, err := eng.Remember(ctx, content, 0, 0, nil, ""); err != nil {
			t.Fatalf("Remember %q: %v", content, err)
		}
	}

	// Provider starts failing: recall degrades to recency, unscored
	emb.err = fmt.Errorf("timeout")
	results, err := eng.Recall(ctx, "anything", 0, 2)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 fallback results, got %d", len(results))
	}
	if results[0].Scored {
		t.Error("fallback results must not carry scores")
	}
	if results[0].Memory.Content != "c" {
		t.Errorf("newest first: got %q, want c", results[0].Memory.Content)
	}

	// Fallback does not reinforce
	for _, r := range results {
		m, _ := eng.DB.GetMemory(r.Memory.ID)
		if m.RecallCount != 0 {
			t.Errorf("fallback reinforced memory %d", m.ID)
		}
	}
}

func TestRecallNoEmbedderFallsBack(t *testing.T) {
	eng := testEngine(t, nil)

	if _, err := eng.Remember(context.Background(), "only memory", 0, 0, nil, ""); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	results, err := eng.Recall(context.Background(), "query", 0, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 || results[0].Scored {
		t.Errorf("expected 1 unscored result, got %+v", results)
	}
}

func TestRecallOwnerScope(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{
		"mine":   {1, 0},
		"theirs": {1, 0},
		"query":  {1, 0},
	}}
	eng := testEngine(t, emb)

	ctx := context.Background()
	mineID, _ := eng.Remember(ctx, "mine", 1, 0, nil, "")
	eng.Remember(ctx, "theirs", 2, 0, nil, "")

	results, err := eng.Recall(ctx, "query", 1, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 || results[0].Memory.ID != mineID {
		t.Errorf("expected only owner 1's memory, got %+v", results)
	}
}

func TestRecallEmptyStore(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	eng := testEngine(t, emb)

	results, err := eng.Recall(context.Background(), "q", 0, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestRecallDefaultLimit(t *testing.T) {
	vectors := map[string][]float32{"q": {1, 0}}
	for i := 0; i < 8; i++ {
		vectors[fmt.Sprintf("m%d", i)] = []float32{1, 0}
	}
	emb := &staticEmbedder{vectors: vectors}
	eng := testEngine(t, emb)

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		eng.Remember(ctx, fmt.Sprintf("m%d", i), 0, 0, nil, "")
	}

	results, err := eng.Recall(ctx, "q", 0, 0)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != defaultRecallLimit {
		t.Errorf("expected default limit %d, got %d", defaultRecallLimit, len(results))
	}
}

func TestRecallWritesActionLog(t *testing.T) {
	emb := &staticEmbedder{vectors: map[string][]float32{"q": {1, 0}}}
	eng := testEngine(t, emb)

	if _, err := eng.Recall(context.Background(), "q", 0, 5); err != nil {
		t.Fatalf("Recall: %v", err)
	}

	actions, err := eng.DB.RecentActions(5)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(actions) != 1 || actions[0].ActionType != "recall" {
		t.Errorf("expected one recall action, got %+v", actions)
	}
	if actions[0].TraceID == "" {
		t.Error("expected trace id on action log entry")
	}
}
