package logic

import "fmt"

// Connection is a directed edge from one node's output port to another
// node's input port.
type Connection struct {
	ID         string   `json:"id"`
	SourceNode string   `json:"source_node"`
	SourcePort string   `json:"source_port"`
	TargetNode string   `json:"target_node"`
	TargetPort string   `json:"target_port"`
	Type       PortType `json:"type"`
	Value      any      `json:"value,omitempty"`
	Valid      bool     `json:"valid"`
}

func (c *Connection) clone() *Connection {
	cp := *c
	return &cp
}

// CanConnect reports whether two ports may be joined: the types must match
// exactly, or either side must be "any". There are no coercion rules beyond
// this.
func CanConnect(source, target Port) bool {
	if source.Type == PortAny || target.Type == PortAny {
		return true
	}
	return source.Type == target.Type
}

// ValidateConnection checks a single connection's endpoints against the
// graph's node map. Port existence and duplicate connections are not
// checked here; Graph.Connect enforces those at mutation time.
func ValidateConnection(conn *Connection, g *Graph) []Issue {
	var issues []Issue
	if _, ok := g.Nodes[conn.SourceNode]; !ok {
		issues = append(issues, Issue{
			Code:         CodeSourceNodeNotFound,
			Message:      fmt.Sprintf("connection %s references unknown source node %q", conn.ID, conn.SourceNode),
			Severity:     SeverityError,
			ConnectionID: conn.ID,
		})
	}
	if _, ok := g.Nodes[conn.TargetNode]; !ok {
		issues = append(issues, Issue{
			Code:         CodeTargetNodeNotFound,
			Message:      fmt.Sprintf("connection %s references unknown target node %q", conn.ID, conn.TargetNode),
			Severity:     SeverityError,
			ConnectionID: conn.ID,
		})
	}
	return issues
}

// OptimizeConnections returns a copy of the graph's connections. It performs
// no structural optimization; callers must not depend on it changing
// anything.
func OptimizeConnections(g *Graph) map[string]*Connection {
	out := make(map[string]*Connection, len(g.Connections))
	for id, c := range g.Connections {
		out[id] = c.clone()
	}
	return out
}
