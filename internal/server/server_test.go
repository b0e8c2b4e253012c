package server

import (
	"context"
	"fmt"
	"testing"

	"github.com/nobuki/engram/internal/engine"
	"github.com/nobuki/engram/internal/store"
)

// fixedEmbedder returns the same vector for every text, or fails on demand.
type fixedEmbedder struct {
	vec  []float32
	fail bool
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedder down")
	}
	return f.vec, nil
}

func (f *fixedEmbedder) Model() string { return "fixed" }

func testServer(t *testing.T) (*Server, *fixedEmbedder) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emb := &fixedEmbedder{vec: []float32{1, 0}}
	eng := engine.New(db, engine.DefaultRecallConfig())
	eng.SetEmbedder(emb)

	return New(db, eng, "test"), emb
}
