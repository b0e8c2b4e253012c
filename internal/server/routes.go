package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nobuki/engram/internal/engine"
	"github.com/nobuki/engram/internal/store"
)

// memoryItem is the JSON shape of a memory in API responses. The ranking
// annotations are pointers so unscored (recency fallback) results omit them
// instead of reporting a fabricated zero.
type memoryItem struct {
	ID             int64    `json:"id"`
	OwnerID        int64    `json:"owner_id,omitempty"`
	CreatedAt      int64    `json:"created_at"`
	Content        string   `json:"content"`
	EmotionTags    []string `json:"emotion_tags,omitempty"`
	SentimentScore float64  `json:"sentiment_score"`
	MemoryType     string   `json:"memory_type"`
	Stability      float64  `json:"stability"`
	RecallCount    int      `json:"recall_count"`
	LastAccessedAt int64    `json:"last_accessed_at"`
	Score          *float64 `json:"score,omitempty"`
	Similarity     *float64 `json:"similarity,omitempty"`
	Retrievability *float64 `json:"retrievability,omitempty"`
}

func toMemoryItem(m store.Memory) memoryItem {
	return memoryItem{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		CreatedAt:      m.CreatedAt,
		Content:        m.Content,
		EmotionTags:    m.EmotionTags,
		SentimentScore: m.SentimentScore,
		MemoryType:     m.MemoryType,
		Stability:      m.Stability,
		RecallCount:    m.RecallCount,
		LastAccessedAt: m.LastAccessedAt,
	}
}

func toRecallItem(r engine.RecallResult) memoryItem {
	item := toMemoryItem(r.Memory)
	if r.Scored {
		score, sim, retr := r.Score, r.Similarity, r.Retrievability
		item.Score = &score
		item.Similarity = &sim
		item.Retrievability = &retr
	}
	return item
}

func (s *Server) handleSaveMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string   `json:"content"`
		OwnerID    int64    `json:"owner_id"`
		Sentiment  float64  `json:"sentiment"`
		Emotions   []string `json:"emotions"`
		MemoryType string   `json:"memory_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content required"}`, http.StatusBadRequest)
		return
	}

	id, err := s.engine.Remember(r.Context(), req.Content, req.OwnerID, req.Sentiment, req.Emotions, req.MemoryType)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "memoryID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid memory id"}`, http.StatusBadRequest)
		return
	}

	m, err := s.db.GetMemory(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, `{"error":"memory not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMemoryItem(*m))
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"q required"}`, http.StatusBadRequest)
		return
	}
	ownerID, _ := strconv.ParseInt(r.URL.Query().Get("owner"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := s.engine.Recall(r.Context(), query, ownerID, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	items := make([]memoryItem, len(results))
	for i, res := range results {
		items[i] = toRecallItem(res)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": items})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		actions []store.Action
		err     error
	)
	if keyword := r.URL.Query().Get("q"); keyword != "" {
		actions, err = s.db.SearchActions(keyword, limit)
	} else {
		actions, err = s.db.RecentActions(limit)
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"actions": actions})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceType string          `json:"source_type"`
		Payload    json.RawMessage `json:"payload"`
		Priority   int             `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.SourceType == "" {
		http.Error(w, `{"error":"source_type required"}`, http.StatusBadRequest)
		return
	}
	payload := string(req.Payload)
	if payload == "" {
		payload = "{}"
	}

	id, err := s.db.AddPendingEvent(req.SourceType, payload, req.Priority)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (s *Server) handleNextEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.db.NextPendingEvent()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.Error(w, `{"error":"queue empty"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (s *Server) handleEventProcessed(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid event id"}`, http.StatusBadRequest)
		return
	}

	if err := s.db.MarkEventProcessed(id); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "processed"})
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, `{"error":"username required"}`, http.StatusBadRequest)
		return
	}

	u, err := s.db.AddUser(req.Username, req.DisplayName)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.db.GetUser(chi.URLParam(r, "username"))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}
