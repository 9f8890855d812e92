package logic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fabula-vn/fabula/pkg/story"
)

// Level selects how deep a validation run goes. Each level includes the
// passes of the levels below it.
type Level string

const (
	LevelSyntax   Level = "syntax"
	LevelSemantic Level = "semantic"
	LevelRuntime  Level = "runtime"
)

// splitSuggestionThreshold is the node count past which the validator
// suggests splitting the graph. A heuristic, not a hard limit.
const splitSuggestionThreshold = 50

// Report aggregates the outcome of a validation run. IsValid considers
// errors only; warnings and suggestions are advisory.
type Report struct {
	Level       Level    `json:"level"`
	IsValid     bool     `json:"is_valid"`
	CanExecute  bool     `json:"can_execute"`
	Errors      []Issue  `json:"errors"`
	Warnings    []Issue  `json:"warnings"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidateGraph runs up to three escalating passes over the graph and
// returns the aggregated report. It is not a pure query: the graph's cached
// Valid/HasCycles/ValidationErrors fields and each implicated node's
// validation state are overwritten as a side effect.
func ValidateGraph(g *Graph, level Level, variables []story.Variable) *Report {
	r := &Report{Level: level, Errors: []Issue{}, Warnings: []Issue{}}

	validateSyntax(g, r)
	if level == LevelSemantic || level == LevelRuntime {
		validateSemantics(g, variables, r)
	}
	if level == LevelRuntime {
		validateRuntime(g, r)
	}

	r.IsValid = len(r.Errors) == 0
	r.CanExecute = r.IsValid && g.StartNodeID != ""

	applyToGraph(g, r, level)
	return r
}

// validateSyntax checks structure only: orphaned nodes and connections
// flagged invalid. It reads no external state.
func validateSyntax(g *Graph, r *Report) {
	touched := make(map[string]bool)
	for _, c := range g.Connections {
		touched[c.SourceNode] = true
		touched[c.TargetNode] = true
	}

	for _, id := range g.sortedNodeIDs() {
		n := g.Nodes[id]
		if touched[id] || n.Type == NodeTypeStart || len(g.Nodes) <= 1 {
			continue
		}
		r.Warnings = append(r.Warnings, Issue{
			Code:     CodeOrphanedNode,
			Message:  fmt.Sprintf("node %q (%s) has no connections", n.Label, id),
			Severity: SeverityWarning,
			NodeID:   id,
		})
	}

	for _, id := range sortedConnectionIDs(g) {
		c := g.Connections[id]
		if c.Valid {
			continue
		}
		r.Errors = append(r.Errors, Issue{
			Code:         CodeInvalidConnection,
			Message:      fmt.Sprintf("connection %s is marked invalid", id),
			Severity:     SeverityError,
			ConnectionID: id,
		})
	}
}

// validateSemantics confirms every embedded condition references a declared
// project variable.
func validateSemantics(g *Graph, variables []story.Variable, r *Report) {
	declared := make(map[string]bool, len(variables))
	for _, v := range variables {
		declared[v.ID] = true
	}

	for _, id := range g.sortedNodeIDs() {
		n := g.Nodes[id]
		if n.Condition == nil || n.Condition.VariableID == "" {
			continue
		}
		if !declared[n.Condition.VariableID] {
			r.Errors = append(r.Errors, Issue{
				Code:     CodeUndefinedVariable,
				Message:  fmt.Sprintf("node %q references undefined variable %q", n.Label, n.Condition.VariableID),
				Severity: SeverityError,
				NodeID:   id,
			})
		}
	}
}

// validateRuntime detects cycles and emits size suggestions.
func validateRuntime(g *Graph, r *Report) {
	for _, cycle := range FindCircularDependencies(g) {
		r.Errors = append(r.Errors, Issue{
			Code:     CodeCircularDependency,
			Message:  fmt.Sprintf("circular dependency: %s", strings.Join(cycle, " -> ")),
			Severity: SeverityError,
			NodeID:   cycle[0],
		})
	}
	if len(g.Nodes) > splitSuggestionThreshold {
		r.Suggestions = append(r.Suggestions,
			fmt.Sprintf("graph has %d nodes; consider splitting it into smaller graphs", len(g.Nodes)))
	}
}

// applyToGraph writes the run's outcome into the graph's and the implicated
// nodes' cached validation state.
func applyToGraph(g *Graph, r *Report, level Level) {
	g.Valid = r.IsValid
	g.ValidationErrors = append([]Issue(nil), r.Errors...)
	if level == LevelRuntime {
		g.HasCycles = false
		for _, e := range r.Errors {
			if e.Code == CodeCircularDependency {
				g.HasCycles = true
				break
			}
		}
	}

	now := time.Now().UTC()
	byNode := make(map[string][]Issue)
	warnByNode := make(map[string][]Issue)
	for _, e := range r.Errors {
		if e.NodeID != "" {
			byNode[e.NodeID] = append(byNode[e.NodeID], e)
		}
	}
	for _, w := range r.Warnings {
		if w.NodeID != "" {
			warnByNode[w.NodeID] = append(warnByNode[w.NodeID], w)
		}
	}
	for id, n := range g.Nodes {
		n.Errors = nil
		n.Warnings = nil
		for _, e := range byNode[id] {
			n.Errors = append(n.Errors, e.Message)
		}
		for _, w := range warnByNode[id] {
			n.Warnings = append(n.Warnings, w.Message)
		}
		n.Valid = len(n.Errors) == 0
		n.LastValidated = now
	}
}

func sortedConnectionIDs(g *Graph) []string {
	ids := make([]string, 0, len(g.Connections))
	for id := range g.Connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
