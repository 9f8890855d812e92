package logic_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabula-vn/fabula/pkg/logic"
	"github.com/fabula-vn/fabula/pkg/story"
)

func codes(issues []logic.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

// goldGraph builds the canonical two-node scenario: start -> condition
// checking gold >= 100.
func goldGraph(t *testing.T) (*logic.Graph, *logic.Node, *logic.Node) {
	t.Helper()
	f := logic.NewFactory()
	g := logic.NewGraph("gold-gate")

	start := f.NewNode(logic.NodeTypeStart, logic.Position{X: 100, Y: 100}, nil)
	cond := f.NewNode(logic.NodeTypeCondition, logic.Position{X: 300, Y: 100}, map[string]any{
		"variableId": "gold", "operator": ">=", "value": 100,
	})
	require.NoError(t, g.AddNode(start))
	require.NoError(t, g.AddNode(cond))
	connectFirst(t, g, start, cond)
	return g, start, cond
}

func TestValidateGraph_ConnectedGraphExecutes(t *testing.T) {
	g, _, _ := goldGraph(t)

	vars := []story.Variable{{ID: "gold", Type: story.VariableNumber}}
	report := logic.ValidateGraph(g, logic.LevelRuntime, vars)

	assert.True(t, report.IsValid)
	assert.True(t, report.CanExecute)
	assert.Empty(t, report.Errors)
	assert.NotContains(t, codes(report.Warnings), logic.CodeOrphanedNode)

	// Validation mutates the graph's cached state.
	assert.True(t, g.Valid)
	assert.Empty(t, g.ValidationErrors)
	assert.False(t, g.HasCycles)
}

func TestValidateGraph_UndefinedVariable(t *testing.T) {
	g, _, cond := goldGraph(t)

	report := logic.ValidateGraph(g, logic.LevelRuntime, nil)

	assert.False(t, report.IsValid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, logic.CodeUndefinedVariable, report.Errors[0].Code)
	assert.Equal(t, cond.ID, report.Errors[0].NodeID)

	assert.False(t, g.Valid)
	assert.False(t, g.Nodes[cond.ID].Valid)
	assert.False(t, g.Nodes[cond.ID].LastValidated.IsZero())
}

func TestValidateGraph_SyntaxLevelSkipsVariableCheck(t *testing.T) {
	g, _, _ := goldGraph(t)

	// No variables supplied, but the syntax pass never reads them.
	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	assert.True(t, report.IsValid)
	assert.NotContains(t, codes(report.Errors), logic.CodeUndefinedVariable)
}

func TestValidateGraph_SemanticLevelSkipsCycleCheck(t *testing.T) {
	f := logic.NewFactory()
	g := logic.NewGraph("cycle")
	a := f.NewNode(logic.NodeTypeCondition, logic.Position{}, nil)
	b := f.NewNode(logic.NodeTypeCondition, logic.Position{X: 200}, nil)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	connectFirst(t, g, a, b)
	connectFirst(t, g, b, a)

	semantic := logic.ValidateGraph(g, logic.LevelSemantic, nil)
	assert.NotContains(t, codes(semantic.Errors), logic.CodeCircularDependency)

	runtime := logic.ValidateGraph(g, logic.LevelRuntime, nil)
	assert.Contains(t, codes(runtime.Errors), logic.CodeCircularDependency)
	assert.False(t, runtime.IsValid)
	assert.True(t, g.HasCycles)
}

func TestValidateGraph_OrphanedNode(t *testing.T) {
	g, _, _ := goldGraph(t)
	f := logic.NewFactory()

	orphan := f.NewNode(logic.NodeTypeVariableSet, logic.Position{X: 500, Y: 300}, nil)
	require.NoError(t, g.AddNode(orphan))

	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, logic.CodeOrphanedNode, report.Warnings[0].Code)
	assert.Equal(t, orphan.ID, report.Warnings[0].NodeID)

	// Warnings do not affect validity.
	assert.True(t, report.IsValid)
}

func TestValidateGraph_SingleNodeIsNotOrphaned(t *testing.T) {
	f := logic.NewFactory()
	g := logic.NewGraph("lonely")
	require.NoError(t, g.AddNode(f.NewNode(logic.NodeTypeVariableSet, logic.Position{}, nil)))

	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	assert.Empty(t, report.Warnings)
}

func TestValidateGraph_UnconnectedStartIsNotOrphaned(t *testing.T) {
	f := logic.NewFactory()
	g := logic.NewGraph("start-only")
	require.NoError(t, g.AddNode(f.NewNode(logic.NodeTypeStart, logic.Position{}, nil)))
	require.NoError(t, g.AddNode(f.NewNode(logic.NodeTypeEnd, logic.Position{X: 200}, nil)))

	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	require.Len(t, report.Warnings, 1, "only the end node should be flagged")
	assert.Equal(t, logic.CodeOrphanedNode, report.Warnings[0].Code)
}

func TestValidateGraph_InvalidConnectionFlag(t *testing.T) {
	g, _, _ := goldGraph(t)
	for _, c := range g.Connections {
		c.Valid = false
	}

	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	assert.False(t, report.IsValid)
	assert.Contains(t, codes(report.Errors), logic.CodeInvalidConnection)
}

func TestValidateGraph_NoStartNodeCannotExecute(t *testing.T) {
	f := logic.NewFactory()
	g := logic.NewGraph("no-start")
	a := f.NewNode(logic.NodeTypeCondition, logic.Position{}, nil)
	end := f.NewNode(logic.NodeTypeEnd, logic.Position{X: 200}, nil)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(end))
	connectFirst(t, g, a, end)

	report := logic.ValidateGraph(g, logic.LevelSyntax, nil)
	assert.True(t, report.IsValid)
	assert.False(t, report.CanExecute)
}

func TestValidateGraph_LargeGraphSuggestion(t *testing.T) {
	f := logic.NewFactory()
	g := logic.NewGraph("big")

	prev := f.NewNode(logic.NodeTypeStart, logic.Position{}, nil)
	require.NoError(t, g.AddNode(prev))
	for i := 0; i < 55; i++ {
		n := f.NewNode(logic.NodeTypeVariableSet, logic.Position{X: float64(i) * 50}, nil)
		n.Label = fmt.Sprintf("Set %d", i)
		require.NoError(t, g.AddNode(n))
		connectFirst(t, g, prev, n)
		prev = n
	}

	report := logic.ValidateGraph(g, logic.LevelRuntime, nil)
	assert.True(t, report.IsValid)
	require.Len(t, report.Suggestions, 1)
	assert.Contains(t, report.Suggestions[0], "splitting")

	// Suggestions are advisory only.
	assert.True(t, report.CanExecute)
}
