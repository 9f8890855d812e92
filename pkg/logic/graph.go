package logic

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Graph is the aggregate root of a visual-logic document. It owns its nodes
// and connections exclusively; nothing outside the graph should hold a
// mutable reference to them.
type Graph struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Nodes       map[string]*Node       `json:"nodes"`
	Connections map[string]*Connection `json:"connections"`

	StartNodeID  string          `json:"start_node_id,omitempty"`
	VariableRefs map[string]bool `json:"variable_refs,omitempty"`

	// Cached validity, overwritten by the most recent validator run.
	Valid            bool    `json:"valid"`
	HasCycles        bool    `json:"has_cycles"`
	ValidationErrors []Issue `json:"validation_errors,omitempty"`

	Viewport   Viewport  `json:"viewport"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewGraph creates an empty graph with a fresh identifier.
func NewGraph(name string) *Graph {
	now := time.Now().UTC()
	return &Graph{
		ID:           uuid.NewString(),
		Name:         name,
		Nodes:        make(map[string]*Node),
		Connections:  make(map[string]*Connection),
		VariableRefs: make(map[string]bool),
		Valid:        true,
		Viewport:     Viewport{Zoom: 1},
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

// touch records a structural mutation: the version counter increments on
// every node or connection add/remove.
func (g *Graph) touch() {
	g.Version++
	g.ModifiedAt = time.Now().UTC()
}

// AddNode inserts a node into the graph. The first start node added becomes
// the graph's designated start node.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("logic: add node: node must have an id")
	}
	if _, exists := g.Nodes[n.ID]; exists {
		return fmt.Errorf("logic: add node: duplicate node id %q", n.ID)
	}
	g.Nodes[n.ID] = n
	if n.Type == NodeTypeStart && g.StartNodeID == "" {
		g.StartNodeID = n.ID
	}
	if n.Condition != nil && n.Condition.VariableID != "" {
		g.VariableRefs[n.Condition.VariableID] = true
	}
	g.touch()
	return nil
}

// RemoveNode deletes a node and every connection whose source or target is
// that node, preserving referential integrity.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.Nodes[id]; !ok {
		return fmt.Errorf("logic: remove node %q: %w", id, ErrNodeNotFound)
	}
	delete(g.Nodes, id)
	for cid, c := range g.Connections {
		if c.SourceNode == id || c.TargetNode == id {
			delete(g.Connections, cid)
		}
	}
	if g.StartNodeID == id {
		g.StartNodeID = ""
	}
	g.refreshVariableRefs()
	g.touch()
	return nil
}

// Connect creates a connection between an output port and an input port.
// Both endpoint nodes and ports must exist and the port types must be
// compatible.
func (g *Graph) Connect(sourceNode, sourcePort, targetNode, targetPort string) (*Connection, error) {
	src, ok := g.Nodes[sourceNode]
	if !ok {
		return nil, fmt.Errorf("logic: connect: source node %q: %w", sourceNode, ErrNodeNotFound)
	}
	dst, ok := g.Nodes[targetNode]
	if !ok {
		return nil, fmt.Errorf("logic: connect: target node %q: %w", targetNode, ErrNodeNotFound)
	}
	out := src.OutputPort(sourcePort)
	if out == nil {
		return nil, fmt.Errorf("logic: connect: node %q has no output port %q", sourceNode, sourcePort)
	}
	in := dst.InputPort(targetPort)
	if in == nil {
		return nil, fmt.Errorf("logic: connect: node %q has no input port %q", targetNode, targetPort)
	}
	if !CanConnect(*out, *in) {
		return nil, fmt.Errorf("logic: connect: incompatible port types %q -> %q", out.Type, in.Type)
	}

	conn := &Connection{
		ID:         uuid.NewString(),
		SourceNode: sourceNode,
		SourcePort: sourcePort,
		TargetNode: targetNode,
		TargetPort: targetPort,
		Type:       resolveType(out.Type, in.Type),
		Valid:      true,
	}
	g.Connections[conn.ID] = conn
	g.touch()
	return conn, nil
}

// resolveType picks the concrete type of a connection whose ports matched.
func resolveType(source, target PortType) PortType {
	if source != PortAny {
		return source
	}
	return target
}

// Disconnect removes a connection by id.
func (g *Graph) Disconnect(id string) error {
	if _, ok := g.Connections[id]; !ok {
		return fmt.Errorf("logic: disconnect %q: %w", id, ErrConnectionNotFound)
	}
	delete(g.Connections, id)
	g.touch()
	return nil
}

// Node returns the node with the given id, or ErrNodeNotFound.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("logic: node %q: %w", id, ErrNodeNotFound)
	}
	return n, nil
}

// IncomingConnections returns the connections targeting nodeID, ordered by
// connection id for reproducibility.
func (g *Graph) IncomingConnections(nodeID string) []*Connection {
	var out []*Connection
	for _, c := range g.Connections {
		if c.TargetNode == nodeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OutgoingConnections returns the connections leaving nodeID, ordered by
// connection id.
func (g *Graph) OutgoingConnections(nodeID string) []*Connection {
	var out []*Connection
	for _, c := range g.Connections {
		if c.SourceNode == nodeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedNodeIDs returns the node ids in lexical order. Traversals seed from
// this list so that validation and export output are reproducible.
func (g *Graph) sortedNodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// refreshVariableRefs recomputes the set of variable ids referenced by
// embedded node conditions.
func (g *Graph) refreshVariableRefs() {
	g.VariableRefs = make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Condition != nil && n.Condition.VariableID != "" {
			g.VariableRefs[n.Condition.VariableID] = true
		}
	}
}

// Clone returns a deep copy of the graph. Stores hand out clones so that
// the graph's exclusive ownership of its nodes and connections holds.
func (g *Graph) Clone() *Graph {
	cp := *g
	cp.Nodes = make(map[string]*Node, len(g.Nodes))
	for id, n := range g.Nodes {
		cp.Nodes[id] = n.clone()
	}
	cp.Connections = make(map[string]*Connection, len(g.Connections))
	for id, c := range g.Connections {
		cp.Connections[id] = c.clone()
	}
	cp.VariableRefs = make(map[string]bool, len(g.VariableRefs))
	for id := range g.VariableRefs {
		cp.VariableRefs[id] = true
	}
	cp.ValidationErrors = append([]Issue(nil), g.ValidationErrors...)
	return &cp
}
