package logic

import (
	"fmt"

	"github.com/fabula-vn/fabula/pkg/story"
)

// ExportFormat names the target the flattened conditions are written for.
type ExportFormat string

const (
	// FormatNative is the story engine's own condition list.
	FormatNative ExportFormat = "native"
	// FormatScript targets a generic scripting-language runtime.
	FormatScript ExportFormat = "script"
)

// OptimizeLevel selects how aggressively the exporter claims to optimize.
// All levels currently leave the condition list untouched and only emit
// hints; callers must not depend on any transformation happening.
type OptimizeLevel string

const (
	OptimizeNone       OptimizeLevel = "none"
	OptimizeBasic      OptimizeLevel = "basic"
	OptimizeAggressive OptimizeLevel = "aggressive"
)

// ExportResult is the flattened form of a graph, consumable by the story
// engine: conditions in dependency order plus the node ids they came from.
type ExportResult struct {
	Conditions     []story.Condition `json:"conditions"`
	ExecutionOrder []string          `json:"execution_order"`
	Hints          []string          `json:"hints,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// ExportConditions flattens the graph's condition-bearing nodes into an
// ordered list. Ordering is a dependency order computed by depth-first
// visitation seeded from every node (sorted id order), visiting a node's
// upstream dependencies before emitting the node itself. The order is valid
// but not unique: ties among independent branches follow sorted node ids.
func ExportConditions(g *Graph, format ExportFormat, opt OptimizeLevel) (*ExportResult, error) {
	if g == nil {
		return nil, fmt.Errorf("logic: export: graph must not be nil")
	}

	order := dependencyOrder(g)

	res := &ExportResult{Conditions: []story.Condition{}, ExecutionOrder: []string{}}
	for _, id := range order {
		n := g.Nodes[id]
		if n.Condition == nil {
			continue
		}
		res.Conditions = append(res.Conditions, *n.Condition)
		res.ExecutionOrder = append(res.ExecutionOrder, id)
	}

	switch opt {
	case OptimizeBasic:
		res.Hints = append(res.Hints, "removed redundant conditions")
	case OptimizeAggressive:
		res.Hints = append(res.Hints,
			"removed redundant conditions",
			"merged equivalent branches")
	}

	if format != FormatNative {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("target format %q is not the native condition format; manual testing recommended", format))
	}

	return res, nil
}

// dependencyOrder returns every node id, each appearing after all nodes it
// depends on (sources of its incoming connections). Visitation is memoized,
// so shared upstream nodes are emitted once.
func dependencyOrder(g *Graph) []string {
	visited := make(map[string]bool)
	var order []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, conn := range g.IncomingConnections(id) {
			if _, ok := g.Nodes[conn.SourceNode]; ok {
				visit(conn.SourceNode)
			}
		}
		order = append(order, id)
	}

	for _, id := range g.sortedNodeIDs() {
		visit(id)
	}
	return order
}
