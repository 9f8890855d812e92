package logic_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabula-vn/fabula/pkg/logic"
)

func TestParseDOT_MinimalGraph(t *testing.T) {
	src := `digraph gate {
		intro [type=start]
		rich  [type=condition, variable=gold, operator=">=", value="100"]
		intro -> rich
	}`
	g, err := logic.ParseDOT(src, logic.NewFactory())
	require.NoError(t, err)

	assert.Equal(t, "gate", g.Name)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Connections, 1)
	assert.NotEmpty(t, g.StartNodeID)

	var cond *logic.Node
	for _, n := range g.Nodes {
		if n.Type == logic.NodeTypeCondition {
			cond = n
		}
	}
	require.NotNil(t, cond)
	require.NotNil(t, cond.Condition)
	assert.Equal(t, "gold", cond.Condition.VariableID)
	assert.EqualValues(t, ">=", cond.Condition.Operator)
}

func TestParseDOT_EdgeLabelSelectsOutputPort(t *testing.T) {
	src := `digraph branch {
		check [type=condition, variable=flag, operator="=="]
		yes   [type=end]
		no    [type=end]
		check -> yes [label="True"]
		check -> no  [label="False"]
	}`
	g, err := logic.ParseDOT(src, logic.NewFactory())
	require.NoError(t, err)
	require.Len(t, g.Connections, 2)

	var check *logic.Node
	for _, n := range g.Nodes {
		if n.Type == logic.NodeTypeCondition {
			check = n
		}
	}
	require.NotNil(t, check)

	ports := map[string]bool{}
	for _, c := range g.Connections {
		ports[c.SourcePort] = true
	}
	// Both outputs of the condition node are used.
	assert.True(t, ports[check.Outputs[0].ID])
	assert.True(t, ports[check.Outputs[1].ID])
}

func TestParseDOT_UntypedNodeBecomesCustom(t *testing.T) {
	g, err := logic.ParseDOT(`digraph g { a; b; a -> b }`, logic.NewFactory())
	require.NoError(t, err)
	for _, n := range g.Nodes {
		assert.Equal(t, logic.NodeTypeCustom, n.Type)
	}
}

func TestParseDOT_BadSource(t *testing.T) {
	_, err := logic.ParseDOT(`this is not dot`, logic.NewFactory())
	assert.Error(t, err)
}

func TestRenderDOT(t *testing.T) {
	g, _, cond := goldGraph(t)

	out := logic.RenderDOT(g)
	assert.True(t, strings.HasPrefix(out, "digraph"))
	assert.Contains(t, out, `type=start`)
	assert.Contains(t, out, `type=condition`)
	assert.Contains(t, out, `variable=gold`)
	assert.Contains(t, out, cond.ID)
	assert.Contains(t, out, "->")
}

func TestRenderDOT_RoundTripsThroughParse(t *testing.T) {
	g, _, _ := goldGraph(t)

	parsed, err := logic.ParseDOT(logic.RenderDOT(g), logic.NewFactory())
	require.NoError(t, err)
	assert.Len(t, parsed.Nodes, len(g.Nodes))
	assert.Len(t, parsed.Connections, len(g.Connections))
}
