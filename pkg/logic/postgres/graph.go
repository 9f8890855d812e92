package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fabula-vn/fabula/pkg/logic"
)

// SaveGraph persists a full graph (metadata + nodes + connections) in one
// transaction with replace semantics: any previous rows for the graph id
// are dropped first.
func (s *PGStore) SaveGraph(ctx context.Context, g *logic.Graph) error {
	if g == nil || g.ID == "" {
		return fmt.Errorf("postgres: save graph: graph must have an id")
	}

	meta, err := marshalMeta(g)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO logic_graphs (id, name, meta, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = $2, meta = $3, version = $4, modified_at = $6`,
		g.ID, g.Name, meta, g.Version, g.CreatedAt, g.ModifiedAt,
	); err != nil {
		return fmt.Errorf("postgres: upsert graph: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM logic_connections WHERE graph_id = $1`, g.ID); err != nil {
		return fmt.Errorf("postgres: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM logic_nodes WHERE graph_id = $1`, g.ID); err != nil {
		return fmt.Errorf("postgres: delete nodes: %w", err)
	}

	for id, n := range g.Nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("postgres: marshal node %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO logic_nodes (id, graph_id, data) VALUES ($1, $2, $3)`,
			id, g.ID, data,
		); err != nil {
			return fmt.Errorf("postgres: insert node %s: %w", id, err)
		}
	}

	for id, c := range g.Connections {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("postgres: marshal connection %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO logic_connections (id, graph_id, source_node_id, target_node_id, data)
			VALUES ($1, $2, $3, $4, $5)`,
			id, g.ID, c.SourceNode, c.TargetNode, data,
		); err != nil {
			return fmt.Errorf("postgres: insert connection %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// GetGraph retrieves a full graph by id. Returns logic.ErrGraphNotFound for
// unknown ids.
func (s *PGStore) GetGraph(ctx context.Context, id string) (*logic.Graph, error) {
	var (
		meta       []byte
		name       string
		version    int64
		createdAt  time.Time
		modifiedAt time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT name, meta, version, created_at, modified_at FROM logic_graphs WHERE id = $1`, id,
	).Scan(&name, &meta, &version, &createdAt, &modifiedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("postgres: get graph %q: %w", id, logic.ErrGraphNotFound)
		}
		return nil, fmt.Errorf("postgres: get graph: %w", err)
	}

	g, err := unmarshalMeta(meta)
	if err != nil {
		return nil, err
	}
	g.ID = id
	g.Name = name
	g.Version = version
	g.CreatedAt = createdAt
	g.ModifiedAt = modifiedAt
	g.Nodes = make(map[string]*logic.Node)
	g.Connections = make(map[string]*logic.Connection)

	rows, err := s.db.Query(ctx, `SELECT id, data FROM logic_nodes WHERE graph_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			nodeID string
			data   []byte
		)
		if err := rows.Scan(&nodeID, &data); err != nil {
			return nil, fmt.Errorf("postgres: scan node: %w", err)
		}
		var n logic.Node
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal node %s: %w", nodeID, err)
		}
		g.Nodes[nodeID] = &n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows nodes: %w", err)
	}

	crows, err := s.db.Query(ctx, `SELECT id, data FROM logic_connections WHERE graph_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: query connections: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var (
			connID string
			data   []byte
		)
		if err := crows.Scan(&connID, &data); err != nil {
			return nil, fmt.Errorf("postgres: scan connection: %w", err)
		}
		var c logic.Connection
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal connection %s: %w", connID, err)
		}
		g.Connections[connID] = &c
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows connections: %w", err)
	}

	return g, nil
}

// ListGraphs returns summaries of all stored graphs, ordered by id.
func (s *PGStore) ListGraphs(ctx context.Context) ([]logic.GraphInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.name, g.version, g.modified_at,
		       (SELECT COUNT(*) FROM logic_nodes n WHERE n.graph_id = g.id)
		FROM logic_graphs g ORDER BY g.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list graphs: %w", err)
	}
	defer rows.Close()

	infos := []logic.GraphInfo{}
	for rows.Next() {
		var (
			info       logic.GraphInfo
			modifiedAt time.Time
			nodeCount  int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Version, &modifiedAt, &nodeCount); err != nil {
			return nil, fmt.Errorf("postgres: scan graph: %w", err)
		}
		info.ModifiedAt = modifiedAt.UTC().Format(time.RFC3339)
		info.NodeCount = int(nodeCount)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows graphs: %w", err)
	}
	return infos, nil
}

// DeleteGraph removes a graph and, by cascade, its nodes and connections.
func (s *PGStore) DeleteGraph(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM logic_graphs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete graph: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete graph %q: %w", id, logic.ErrGraphNotFound)
	}
	return nil
}

// graphMeta is the JSONB-persisted slice of graph state that is not covered
// by dedicated columns or the node/connection tables.
type graphMeta struct {
	StartNodeID      string          `json:"start_node_id,omitempty"`
	VariableRefs     map[string]bool `json:"variable_refs,omitempty"`
	Valid            bool            `json:"valid"`
	HasCycles        bool            `json:"has_cycles"`
	ValidationErrors []logic.Issue   `json:"validation_errors,omitempty"`
	Viewport         logic.Viewport  `json:"viewport"`
}

func marshalMeta(g *logic.Graph) ([]byte, error) {
	meta, err := json.Marshal(graphMeta{
		StartNodeID:      g.StartNodeID,
		VariableRefs:     g.VariableRefs,
		Valid:            g.Valid,
		HasCycles:        g.HasCycles,
		ValidationErrors: g.ValidationErrors,
		Viewport:         g.Viewport,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal graph meta: %w", err)
	}
	return meta, nil
}

func unmarshalMeta(data []byte) (*logic.Graph, error) {
	var meta graphMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal graph meta: %w", err)
	}
	g := &logic.Graph{
		StartNodeID:      meta.StartNodeID,
		VariableRefs:     meta.VariableRefs,
		Valid:            meta.Valid,
		HasCycles:        meta.HasCycles,
		ValidationErrors: meta.ValidationErrors,
		Viewport:         meta.Viewport,
	}
	if g.VariableRefs == nil {
		g.VariableRefs = make(map[string]bool)
	}
	return g, nil
}
