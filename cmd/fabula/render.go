package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fabula-vn/fabula/pkg/logic"
)

// renderText produces the human-readable summary of a graph: nodes in
// dependency-friendly order, then connections.
func renderText(g *logic.Graph) string {
	var sb strings.Builder

	order := displayOrder(g)
	fmt.Fprintf(&sb, "Graph: %s  (%d nodes, %d connections, version %d)\n",
		g.Name, len(g.Nodes), len(g.Connections), g.Version)

	maxIDLen := 4
	for id := range g.Nodes {
		if len(id) > maxIDLen {
			maxIDLen = len(id)
		}
	}

	fmt.Fprintf(&sb, "\nNodes:\n")
	for _, id := range order {
		n := g.Nodes[id]
		detail := n.Label
		if n.Condition != nil {
			detail = fmt.Sprintf("%s  [%s %s %v]",
				n.Label, n.Condition.VariableID, n.Condition.Operator, n.Condition.Value)
		}
		marker := " "
		if id == g.StartNodeID {
			marker = "*"
		}
		fmt.Fprintf(&sb, " %s%-*s  %-16s  %s\n", marker, maxIDLen, id, string(n.Type), detail)
	}

	fmt.Fprintf(&sb, "\nConnections:\n")
	connIDs := make([]string, 0, len(g.Connections))
	for id := range g.Connections {
		connIDs = append(connIDs, id)
	}
	sort.Strings(connIDs)

	maxFromLen := 4
	for _, id := range connIDs {
		if l := len(g.Connections[id].SourceNode); l > maxFromLen {
			maxFromLen = l
		}
	}
	for _, id := range connIDs {
		c := g.Connections[id]
		portName := ""
		if src, ok := g.Nodes[c.SourceNode]; ok {
			if p := src.OutputPort(c.SourcePort); p != nil && len(src.Outputs) > 1 {
				portName = "  [" + p.Name + "]"
			}
		}
		fmt.Fprintf(&sb, "  %-*s  →  %s%s\n", maxFromLen, c.SourceNode, c.TargetNode, portName)
	}

	return sb.String()
}

// displayOrder walks breadth-first from the start node, then appends
// unreachable nodes in sorted order.
func displayOrder(g *logic.Graph) []string {
	visited := map[string]bool{}
	var order []string

	if g.StartNodeID != "" {
		queue := []string{g.StartNodeID}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			order = append(order, cur)
			for _, c := range g.OutgoingConnections(cur) {
				if !visited[c.TargetNode] {
					queue = append(queue, c.TargetNode)
				}
			}
		}
	}

	var rest []string
	for id := range g.Nodes {
		if !visited[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
