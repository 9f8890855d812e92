package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS logic_graphs (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    meta        JSONB NOT NULL DEFAULT '{}',
    version     BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS logic_nodes (
    id         TEXT PRIMARY KEY,
    graph_id   TEXT NOT NULL REFERENCES logic_graphs(id) ON DELETE CASCADE,
    data       JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS logic_connections (
    id             TEXT PRIMARY KEY,
    graph_id       TEXT NOT NULL REFERENCES logic_graphs(id) ON DELETE CASCADE,
    source_node_id TEXT NOT NULL REFERENCES logic_nodes(id) ON DELETE CASCADE,
    target_node_id TEXT NOT NULL REFERENCES logic_nodes(id) ON DELETE CASCADE,
    data           JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_logic_nodes_graph_id       ON logic_nodes(graph_id);
CREATE INDEX IF NOT EXISTS idx_logic_connections_graph_id ON logic_connections(graph_id);
CREATE INDEX IF NOT EXISTS idx_logic_connections_source   ON logic_connections(source_node_id);
CREATE INDEX IF NOT EXISTS idx_logic_connections_target   ON logic_connections(target_node_id);
`

// CreateSchema creates the graph tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the graph tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS logic_connections, logic_nodes, logic_graphs CASCADE;`)
	return err
}
