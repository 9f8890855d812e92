package logic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// GraphInfo is the listing view of a stored graph.
type GraphInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NodeCount  int    `json:"node_count"`
	Version    int64  `json:"version"`
	ModifiedAt string `json:"modified_at"`
}

// Store persists and retrieves logic graphs. Implementations must return
// ErrGraphNotFound for lookups of unknown ids; graph-content problems are
// never surfaced through the store.
type Store interface {
	SaveGraph(ctx context.Context, g *Graph) error
	GetGraph(ctx context.Context, id string) (*Graph, error)
	ListGraphs(ctx context.Context) ([]GraphInfo, error)
	DeleteGraph(ctx context.Context, id string) error
}

// MemoryStore is the in-process Store used by the editor session and tests.
// It hands out clones so the stored graphs stay exclusively owned.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*Graph)}
}

// SaveGraph stores a deep copy of the graph, replacing any previous version.
func (s *MemoryStore) SaveGraph(_ context.Context, g *Graph) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("logic: save graph: graph must have an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[g.ID] = g.Clone()
	return nil
}

// GetGraph returns a deep copy of the stored graph.
func (s *MemoryStore) GetGraph(_ context.Context, id string) (*Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("logic: get graph %q: %w", id, ErrGraphNotFound)
	}
	return g.Clone(), nil
}

// ListGraphs returns summaries of all stored graphs, sorted by id.
func (s *MemoryStore) ListGraphs(_ context.Context) ([]GraphInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]GraphInfo, 0, len(s.graphs))
	for _, g := range s.graphs {
		infos = append(infos, GraphInfo{
			ID:         g.ID,
			Name:       g.Name,
			NodeCount:  len(g.Nodes),
			Version:    g.Version,
			ModifiedAt: g.ModifiedAt.Format(time.RFC3339),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// DeleteGraph removes a graph. Deleting an unknown id is an error: the
// caller referenced something that does not exist.
func (s *MemoryStore) DeleteGraph(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; !ok {
		return fmt.Errorf("logic: delete graph %q: %w", id, ErrGraphNotFound)
	}
	delete(s.graphs, id)
	return nil
}
